package value

import "fmt"

// True and False are the two Bool values.
const (
	True  = Bool(true)
	False = Bool(false)
)

// numeric returns the float64 view of a numeric scalar Value, and whether v
// is numeric at all.
func numeric(v Value) (float64, bool) {
	switch x := v.(type) {
	case U8:
		return float64(x), true
	case I16:
		return float64(x), true
	case U16:
		return float64(x), true
	case I32:
		return float64(x), true
	case U32:
		return float64(x), true
	case F32:
		return float64(x), true
	case Bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Coerce converts v to the scalar kind dst following C-like numeric
// promotion rules: any numeric scalar converts to any other numeric scalar
// or to Bool (0 is false); strings and structured values only "coerce" to
// their own kind.
func Coerce(v Value, dst Kind) (Value, error) {
	if v.Kind() == dst {
		return v, nil
	}

	if n, ok := numeric(v); ok {
		switch dst {
		case KindU8:
			return U8(n), nil
		case KindI16:
			return I16(n), nil
		case KindU16:
			return U16(n), nil
		case KindI32:
			return I32(n), nil
		case KindU32:
			return U32(n), nil
		case KindF32:
			return F32(n), nil
		case KindBool:
			return Bool(n != 0), nil
		}
	}

	return nil, fmt.Errorf("cannot coerce %s to %s", v.Kind(), dst)
}

// Equals reports whether a and b compare equal. Scalars compare by
// numeric/boolean value after promotion to a common type; strings compare
// byte-for-byte; objects compare by class and property-wise equality;
// arrays compare element-wise; pointers compare by slot coordinate; null
// equals only null.
func Equals(a, b Value) (bool, error) {
	if a.Kind() == KindNull || b.Kind() == KindNull {
		return a.Kind() == b.Kind(), nil
	}
	if as, ok := a.(String); ok {
		bs, ok := b.(String)
		return ok && as == bs, nil
	}
	if an, ok := numeric(a); ok {
		bn, ok := numeric(b)
		if !ok {
			return false, nil
		}
		return an == bn, nil
	}
	if ao, ok := a.(*Object); ok {
		bo, ok := b.(*Object)
		if !ok || ao.Class != bo.Class || len(ao.names) != len(bo.names) {
			return false, nil
		}
		for i, n := range ao.names {
			bv, ok := bo.Get(n)
			if !ok {
				return false, nil
			}
			eq, err := Equals(ao.values[i], bv)
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	}
	if aa, ok := a.(*Array); ok {
		ba, ok := b.(*Array)
		if !ok || len(aa.Elem) != len(ba.Elem) {
			return false, nil
		}
		for i := range aa.Elem {
			eq, err := Equals(aa.Elem[i], ba.Elem[i])
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	}
	if ap, ok := a.(Pointer); ok {
		bp, ok := b.(Pointer)
		return ok && ap == bp, nil
	}
	return false, fmt.Errorf("cannot compare %s and %s", a.Kind(), b.Kind())
}
