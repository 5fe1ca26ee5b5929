package cyvalue

// Equal implements three-valued equality. A Null operand on either side
// yields Null (unless comparing structurally within lists/maps, where the
// per-element rule below applies). List/Map comparisons recurse; everything
// else falls back to Go struct equality after type normalization.
func Equal(a, b Value) Value {
	if a.Kind == KindList && b.Kind == KindList {
		return equalLists(a.List, b.List)
	}
	if a.Kind == KindMap && b.Kind == KindMap {
		return equalMaps(a.Map, b.Map)
	}
	if a.IsNull() || b.IsNull() {
		return Null
	}
	if a.Kind != b.Kind {
		// Int/Float cross-comparison is allowed numerically.
		if a.Kind == KindInt && b.Kind == KindFloat {
			return Bool(float64(a.Int) == b.Float)
		}
		if a.Kind == KindFloat && b.Kind == KindInt {
			return Bool(a.Float == float64(b.Int))
		}
		return Bool(false)
	}
	switch a.Kind {
	case KindBool:
		return Bool(a.Bool == b.Bool)
	case KindInt:
		return Bool(a.Int == b.Int)
	case KindFloat:
		return Bool(a.Float == b.Float)
	case KindString:
		return Bool(a.String == b.String)
	case KindNode:
		return Bool(a.Node == b.Node)
	case KindRelationship:
		return Bool(a.RelID == b.RelID)
	case KindVecF32:
		return Bool(equalVecF32(a.VecF32, b.VecF32))
	default:
		return Bool(false)
	}
}

func equalVecF32(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// equalLists implements the source's three-valued list-equality rule:
// different lengths are false outright; otherwise pairwise compare,
// tracking whether any Null was encountered; a definite non-equal pair
// short-circuits false, a Null-involved pair marks the result undecided.
func equalLists(l1, l2 []Value) Value {
	if len(l1) != len(l2) {
		return Bool(false)
	}
	hasNull := false
	for i := range l1 {
		eq := Equal(l1[i], l2[i])
		if eq.Kind == KindBool && eq.Bool {
			continue
		}
		if l1[i].IsNull() || l2[i].IsNull() {
			hasNull = true
			continue
		}
		if eq.IsNull() {
			return Null
		}
		return Bool(false)
	}
	if hasNull {
		return Null
	}
	return Bool(true)
}

// equalMaps compares by key count, then sorted key sequence, then values.
func equalMaps(m1, m2 map[string]Value) Value {
	if len(m1) != len(m2) {
		return Bool(false)
	}
	k1 := sortedKeys(m1)
	k2 := sortedKeys(m2)
	for i := range k1 {
		if k1[i] != k2[i] {
			return Bool(false)
		}
	}
	hasNull := false
	for _, k := range k1 {
		eq := Equal(m1[k], m2[k])
		if eq.Kind == KindBool && eq.Bool {
			continue
		}
		if m1[k].IsNull() || m2[k].IsNull() {
			hasNull = true
			continue
		}
		if eq.IsNull() {
			return Null
		}
		return Bool(false)
	}
	if hasNull {
		return Null
	}
	return Bool(true)
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// simple insertion sort is fine; key sets are small in practice.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// Compare implements the total cross-type order from SPEC_FULL §4.5, used by
// <, >, <=, >=. A Null operand on either side yields the "undecided" result
// via the ok=false return; callers treat that as Null.
func Compare(a, b Value) (less bool, equal bool, ok bool) {
	if a.IsNull() || b.IsNull() {
		return false, false, false
	}
	if a.Kind == KindList && b.Kind == KindList {
		return compareLists(a.List, b.List)
	}
	ra, rb := orderRank(a.Kind), orderRank(b.Kind)
	if ra != rb {
		// Int/Float compare numerically even though their ranks differ.
		if a.Kind == KindInt && b.Kind == KindFloat {
			af := float64(a.Int)
			return af < b.Float, af == b.Float, true
		}
		if a.Kind == KindFloat && b.Kind == KindInt {
			bf := float64(b.Int)
			return a.Float < bf, a.Float == bf, true
		}
		return ra < rb, false, true
	}
	switch a.Kind {
	case KindInt:
		return a.Int < b.Int, a.Int == b.Int, true
	case KindFloat:
		return a.Float < b.Float, a.Float == b.Float, true
	case KindString:
		return a.String < b.String, a.String == b.String, true
	case KindBool:
		return !a.Bool && b.Bool, a.Bool == b.Bool, true
	default:
		return false, false, false
	}
}

// compareLists: lexicographic with the three-valued rule; shorter is less
// when a prefix-equal.
func compareLists(l1, l2 []Value) (less bool, equal bool, ok bool) {
	n := len(l1)
	if len(l2) < n {
		n = len(l2)
	}
	for i := 0; i < n; i++ {
		lt, eq, valid := Compare(l1[i], l2[i])
		if !valid {
			return false, false, false
		}
		if eq {
			continue
		}
		return lt, false, true
	}
	if len(l1) == len(l2) {
		return false, true, true
	}
	return len(l1) < len(l2), false, true
}
