package topojson

func toFloat64Slice(v any) ([]float64, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(arr))
	for i, e := range arr {
		f, ok := e.(float64)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func toIntRefs(v any) ([]int, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]int, len(arr))
	for i, e := range arr {
		f, ok := e.(float64)
		if !ok {
			return nil, false
		}
		out[i] = int(f)
	}
	return out, true
}

func toIntRefsSlice(v any) ([][]int, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([][]int, len(arr))
	for i, e := range arr {
		refs, ok := toIntRefs(e)
		if !ok {
			return nil, false
		}
		out[i] = refs
	}
	return out, true
}

func toIntRefsSliceSlice(v any) ([][][]int, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([][][]int, len(arr))
	for i, e := range arr {
		refs, ok := toIntRefsSlice(e)
		if !ok {
			return nil, false
		}
		out[i] = refs
	}
	return out, true
}

func toPositionSlice(v any) ([][]float64, bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([][]float64, len(arr))
	for i, e := range arr {
		pos, ok := toFloat64Slice(e)
		if !ok {
			return nil, false
		}
		out[i] = pos
	}
	return out, true
}
