package tools

// Argument coercion helpers for handlers. The action parser produces
// only literal values (string, float64, int64, bool, nil), so handlers
// normalize from that set.

// StringArg returns the named argument as a string, or def when the
// argument is absent, nil, or not a string.
func StringArg(args map[string]any, name, def string) string {
	if v, ok := args[name].(string); ok {
		return v
	}
	return def
}

// IntArg returns the named argument as an int, accepting the int64 and
// float64 representations the parser produces.
func IntArg(args map[string]any, name string, def int) int {
	switch v := args[name].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

// BoolArg returns the named argument as a bool, or def when absent or
// not a bool.
func BoolArg(args map[string]any, name string, def bool) bool {
	if v, ok := args[name].(bool); ok {
		return v
	}
	return def
}
