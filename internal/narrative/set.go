package narrative

import "slices"

// AddUnique appends value unless it is already present, keeping insertion order.
func AddUnique(values []string, value string) []string {
	if value == "" || slices.Contains(values, value) {
		return values
	}
	return append(values, value)
}

// RemoveValue drops every occurrence of value.
func RemoveValue(values []string, value string) []string {
	if !slices.Contains(values, value) {
		return values
	}
	out := make([]string, 0, len(values)-1)
	for _, item := range values {
		if item != value {
			out = append(out, item)
		}
	}
	return out
}

// Unique returns values with duplicates and empty strings removed.
func Unique(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = AddUnique(out, value)
	}
	return out
}
