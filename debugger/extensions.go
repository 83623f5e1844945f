package debugger

import (
	"shaderdbg/value"
	"shaderdbg/vm"
)

// propertyGetter is installed as the Program's PropertyGetterExt: it
// first tries the Debugger's own PropertyResolver (host-level texture
// sampling, semantic lookups), then falls back to swizzle access on
// vector-classed objects (e.g. `color.rgb`), which the static structure
// table has no notion of.
func (d *Debugger) propertyGetter(p *vm.Program, obj *value.Object, name string) (value.Value, bool) {
	if d.PropertyResolver != nil {
		if v, ok := d.PropertyResolver(d, obj, name); ok {
			return v, true
		}
	}
	return swizzle(obj, name)
}

// defaultConstructor is installed as the Program's DefaultConstructorExt:
// it first tries the Debugger's own ConstructorResolver, then falls back
// to the built-in vecN/matN intrinsics every dialect shares.
func (d *Debugger) defaultConstructor(p *vm.Program, class string) (*value.Object, bool) {
	if d.ConstructorResolver != nil {
		if obj, ok := d.ConstructorResolver(d, class); ok {
			return obj, true
		}
	}
	return builtinConstructor(class)
}

var vectorClasses = map[string][]string{
	"vec2": {"x", "y"}, "vec3": {"x", "y", "z"}, "vec4": {"x", "y", "z", "w"},
	"ivec2": {"x", "y"}, "ivec3": {"x", "y", "z"}, "ivec4": {"x", "y", "z", "w"},
	"float2": {"x", "y"}, "float3": {"x", "y", "z"}, "float4": {"x", "y", "z", "w"},
}

func builtinConstructor(class string) (*value.Object, bool) {
	fields, ok := vectorClasses[class]
	if !ok {
		return nil, false
	}
	obj := value.NewObject(class)
	for _, f := range fields {
		obj.Set(f, value.F32(0))
	}
	return obj, true
}

// swizzle resolves GLSL-style multi-letter field access on vector-classed
// objects (e.g. `v.xy`, `v.rgb`) into a freshly-built vector Object, and
// single-letter rgba/xyzw aliases onto the same underlying x/y/z/w
// fields. It returns (nil, false) for anything that isn't a recognized
// vector class or valid swizzle pattern.
func swizzle(obj *value.Object, name string) (value.Value, bool) {
	if _, ok := vectorClasses[obj.Class]; !ok {
		return nil, false
	}
	if len(name) == 0 || len(name) > 4 {
		return nil, false
	}
	comps := make([]value.Value, 0, len(name))
	for _, r := range name {
		field, ok := swizzleField(r)
		if !ok {
			return nil, false
		}
		v, ok := obj.Get(field)
		if !ok {
			return nil, false
		}
		comps = append(comps, v)
	}
	if len(comps) == 1 {
		return comps[0], true
	}
	className := []string{"", "", "vec2", "vec3", "vec4"}[len(comps)]
	result := value.NewObject(className)
	fields := vectorClasses[className]
	for i, c := range comps {
		result.Set(fields[i], c)
	}
	return result, true
}

func swizzleField(r rune) (string, bool) {
	switch r {
	case 'x', 'r':
		return "x", true
	case 'y', 'g':
		return "y", true
	case 'z', 'b':
		return "z", true
	case 'w', 'a':
		return "w", true
	}
	return "", false
}
