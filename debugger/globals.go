package debugger

import (
	"fmt"

	"shaderdbg/value"
)

// SetGlobalValue assigns v directly to the global slot named varName. It
// is the Go-idiomatic stand-in for the original's raw `bv_variable`
// overload: callers that already hold a value.Value use this one.
func (d *Debugger) SetGlobalValue(varName string, v value.Value) error {
	if d.prog == nil {
		return ErrNoSource
	}
	i := d.prog.GlobalIndex(varName)
	if i < 0 {
		return fmt.Errorf("debugger: no such global %q", varName)
	}
	d.prog.Globals[i] = v
	return nil
}

// SetGlobalFloat assigns a scalar float global, the original's plain
// `float` overload.
func (d *Debugger) SetGlobalFloat(varName string, v float32) error {
	return d.SetGlobalValue(varName, value.F32(v))
}

// SetGlobalVec assigns a vecN-classed global (classType is the dialect's
// own name for the type, e.g. "vec3" in GLSL or "float3" in HLSL — the
// point of taking classType as a separate string rather than inferring it
// from len(components), per the original's documented rationale). It
// fails only where SetGlobalValue does (no source, or no global named
// varName); the slot's current value or class is not checked. Components
// beyond the fourth are ignored.
func (d *Debugger) SetGlobalVec(varName, classType string, components []float32) error {
	obj := value.NewObject(classType)
	fields := vecFieldNames(len(components))
	for i, c := range components {
		if i < len(fields) {
			obj.Set(fields[i], value.F32(c))
		}
	}
	return d.SetGlobalValue(varName, obj)
}

// SetGlobalMat4 assigns a 4x4-matrix-classed global, stored as an Object
// of classType with a single "m" field holding the 16 elements
// (row-major) as an Array.
func (d *Debugger) SetGlobalMat4(varName, classType string, elements [16]float32) error {
	obj := value.NewObject(classType)
	arr := make([]value.Value, 16)
	for i, e := range elements {
		arr[i] = value.F32(e)
	}
	obj.Set("m", value.NewArray(arr))
	return d.SetGlobalValue(varName, obj)
}

// SetGlobalTexture assigns a texture-handle-classed global: an Object of
// classType whose UserData points at the bound Texture. A compiled
// sampling built-in reaches the Texture through the Debugger's
// PropertyResolver, not through a struct field (spec.md §4.7: the Texture
// collaborator is injected, not modeled by the static structure table).
func (d *Debugger) SetGlobalTexture(varName, classType string, tex any) error {
	obj := value.NewObject(classType)
	obj.UserData = tex
	return d.SetGlobalValue(varName, obj)
}

func vecFieldNames(n int) []string {
	all := []string{"x", "y", "z", "w"}
	if n > len(all) {
		n = len(all)
	}
	return all[:n]
}

// GetGlobalValue returns the current value of the global slot named
// varName.
func (d *Debugger) GetGlobalValue(varName string) (value.Value, bool) {
	if d.prog == nil {
		return nil, false
	}
	i := d.prog.GlobalIndex(varName)
	if i < 0 {
		return nil, false
	}
	return d.prog.Globals[i], true
}

// AddGlobal reserves a new host-injected global slot named varName (not
// declared by the compiled source), initialized to value.Null{}.
func (d *Debugger) AddGlobal(varName string) error {
	if d.prog == nil {
		return ErrNoSource
	}
	d.prog.AddGlobal(varName)
	return nil
}
