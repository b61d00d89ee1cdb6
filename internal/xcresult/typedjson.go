package xcresult

import "strconv"

// xcresulttool emits typed JSON: scalars appear as
// {"_type": {"_name": "String"}, "_value": "actual"} and arrays as
// {"_values": [...]}. These accessors unwrap that shape and are the only
// place the raw tree is touched.

func stringField(node map[string]any, key string) (string, bool) {
	entry, ok := node[key].(map[string]any)
	if !ok {
		return "", false
	}

	value, ok := entry["_value"].(string)

	return value, ok
}

func intField(node map[string]any, key string) (int, bool) {
	raw, ok := stringField(node, key)
	if !ok {
		return 0, false
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}

	return value, true
}

func doubleField(node map[string]any, key string) (float64, bool) {
	raw, ok := stringField(node, key)
	if !ok {
		return 0, false
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}

	return value, true
}

func arrayField(node map[string]any, key string) []map[string]any {
	entry, ok := node[key].(map[string]any)
	if !ok {
		return nil
	}

	values, ok := entry["_values"].([]any)
	if !ok {
		return nil
	}

	out := make([]map[string]any, 0, len(values))
	for _, v := range values {
		if obj, ok := v.(map[string]any); ok {
			out = append(out, obj)
		}
	}

	return out
}

func objectField(node map[string]any, key string) (map[string]any, bool) {
	obj, ok := node[key].(map[string]any)

	return obj, ok
}
