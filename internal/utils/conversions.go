package utils

// ToStringSlice keeps the string members of slice. Objects contribute their
// "msg" field, which is how validation errors list their reasons.
func ToStringSlice(slice []any) []string {
	stringSlice := make([]string, 0, len(slice))
	for _, v := range slice {
		switch item := v.(type) {
		case string:
			stringSlice = append(stringSlice, item)
		case map[string]any:
			if s, ok := item["msg"].(string); ok {
				stringSlice = append(stringSlice, s)
			}
		}
	}
	return stringSlice
}
