package debugger

import "shaderdbg/value"

// SetSemanticValue binds name (a pipeline semantic such as "POSITION" or
// "gl_FragCoord") to var, independent of the global table — semantics are
// a host-facing side channel a concrete front-end's built-ins may read
// through the property-getter extension, not ordinary shader globals.
func (d *Debugger) SetSemanticValue(name string, v value.Value) {
	d.semantics[name] = v
}

// GetSemanticValue returns the value bound to name, or value.Null{} if
// unset.
func (d *Debugger) GetSemanticValue(name string) value.Value {
	if v, ok := d.semantics[name]; ok {
		return v
	}
	return value.Null{}
}
