package cyvalue

import "math"

// Add implements the widening/concatenation rules from SPEC_FULL §4.5:
// Null propagates; Int+Int wraps; mixed int/float widens to float;
// String+X concatenates; List+List concatenates; List+scalar appends;
// scalar+List prepends.
func Add(a, b Value) (Value, error) {
	if a.IsNull() || b.IsNull() {
		return Null, nil
	}
	switch {
	case a.Kind == KindInt && b.Kind == KindInt:
		return Int(a.Int + b.Int), nil
	case a.Kind == KindFloat && b.Kind == KindFloat:
		return Float(a.Float + b.Float), nil
	case a.Kind == KindInt && b.Kind == KindFloat:
		return Float(float64(a.Int) + b.Float), nil
	case a.Kind == KindFloat && b.Kind == KindInt:
		return Float(a.Float + float64(b.Int)), nil
	case a.Kind == KindString || b.Kind == KindString:
		return Str(a.Display() + b.Display()), nil
	case a.Kind == KindList && b.Kind == KindList:
		out := make([]Value, 0, len(a.List)+len(b.List))
		out = append(out, a.List...)
		out = append(out, b.List...)
		return List(out), nil
	case a.Kind == KindList:
		out := make([]Value, 0, len(a.List)+1)
		out = append(out, a.List...)
		out = append(out, b)
		return List(out), nil
	case b.Kind == KindList:
		out := make([]Value, 0, len(b.List)+1)
		out = append(out, a)
		out = append(out, b.List...)
		return List(out), nil
	default:
		return Value{}, typeErr("Int, Float, String or List", a)
	}
}

// Sub, Mul, Div, Modulo, Pow operate on numeric types only, widening to
// float when either operand is a float; Null propagates.
func Sub(a, b Value) (Value, error) { return numericOp(a, b, "-") }
func Mul(a, b Value) (Value, error) { return numericOp(a, b, "*") }
func Div(a, b Value) (Value, error) { return numericOp(a, b, "/") }
func Modulo(a, b Value) (Value, error) { return numericOp(a, b, "%") }
func Pow(a, b Value) (Value, error)    { return numericOp(a, b, "^") }

func numericOp(a, b Value, op string) (Value, error) {
	if a.IsNull() || b.IsNull() {
		return Null, nil
	}
	if !isNumeric(a) {
		return Value{}, typeErr("Int or Float", a)
	}
	if !isNumeric(b) {
		return Value{}, typeErr("Int or Float", b)
	}
	if a.Kind == KindInt && b.Kind == KindInt {
		switch op {
		case "-":
			return Int(a.Int - b.Int), nil
		case "*":
			return Int(a.Int * b.Int), nil
		case "/":
			if b.Int == 0 {
				return Value{}, errDivByZero
			}
			return Int(a.Int / b.Int), nil
		case "%":
			if b.Int == 0 {
				return Value{}, errModByZero
			}
			return Int(a.Int % b.Int), nil
		case "^":
			return Float(math.Pow(float64(a.Int), float64(b.Int))), nil
		}
	}
	af, bf := asFloat(a), asFloat(b)
	switch op {
	case "-":
		return Float(af - bf), nil
	case "*":
		return Float(af * bf), nil
	case "/":
		if bf == 0 {
			return Null, nil
		}
		return Float(af / bf), nil
	case "%":
		if bf == 0 {
			return Null, nil
		}
		return Float(math.Mod(af, bf)), nil
	case "^":
		return Float(math.Pow(af, bf)), nil
	}
	return Null, nil
}

// Negate implements unary minus; Null propagates.
func Negate(v Value) (Value, error) {
	switch v.Kind {
	case KindNull:
		return Null, nil
	case KindInt:
		return Int(-v.Int), nil
	case KindFloat:
		return Float(-v.Float), nil
	default:
		return Value{}, typeErr("Int or Float", v)
	}
}

func isNumeric(v Value) bool { return v.Kind == KindInt || v.Kind == KindFloat }

func asFloat(v Value) float64 {
	if v.Kind == KindInt {
		return float64(v.Int)
	}
	return v.Float
}
