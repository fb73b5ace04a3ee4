package checkout

import "github.com/ysmood/gson"

// Helpers for reading evaluated JS values without panicking on
// unexpected shapes.

func boolResult(j gson.JSON) bool {
	b, _ := j.Val().(bool)
	return b
}

func intResult(j gson.JSON) int {
	switch v := j.Val().(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func stringResult(j gson.JSON) string {
	s, _ := j.Val().(string)
	return s
}

func stringResults(j gson.JSON) []string {
	raw, _ := j.Val().([]interface{})
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
