package retrieve

// Metadata values round-trip through store backends with different numeric
// representations: in-memory keeps Go ints, JSON-backed stores return
// float64. These helpers coerce either form.

func metaInt(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case float32:
		return int(v), true
	}
	return 0, false
}

func metaFloat(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func metaString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
