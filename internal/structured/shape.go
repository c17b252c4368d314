package structured

// Backfill adds the keys of shape that are missing from obj, using deep
// copies of the shape's values. Present keys are never overwritten; nested
// objects present on both sides are backfilled recursively. A nil obj
// yields a copy of shape.
func Backfill(obj, shape Object) Object {
	if obj == nil {
		obj = Object{}
	}
	for key, def := range shape {
		cur, present := obj[key]
		if !present || cur == nil {
			obj[key] = Clone(def)
			continue
		}
		curMap, curIsMap := cur.(map[string]any)
		defMap, defIsMap := def.(map[string]any)
		if curIsMap && defIsMap {
			obj[key] = Backfill(curMap, defMap)
		}
	}
	return obj
}

// Clone deep-copies decoded JSON values.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Clone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Clone(val)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = val
		}
		return out
	default:
		return v
	}
}

// CloneObject deep-copies obj.
func CloneObject(obj Object) Object {
	if obj == nil {
		return nil
	}
	return Clone(obj).(map[string]any)
}
