// Package strings holds list parsing shared by configuration and identity
// headers.
package strings

import (
	"strings"
)

// SplitList splits a comma-separated value, trimming each element and
// dropping empties and repeats. Order is preserved.
//
//	SplitList(" kafka-1:9092, kafka-2:9092,kafka-1:9092 ")
//	// []string{"kafka-1:9092", "kafka-2:9092"}
func SplitList(raw string) []string {
	return DedupeAndTrim(strings.Split(raw, ","))
}

// SplitListLower is SplitList with case folding, for role lists.
func SplitListLower(raw string) []string {
	return DedupeAndTrimLower(strings.Split(raw, ","))
}

// DedupeAndTrim trims each value and drops empties and repeats.
func DedupeAndTrim(values []string) []string {
	return dedupe(values, strings.TrimSpace)
}

// DedupeAndTrimLower is DedupeAndTrim comparing case-insensitively; the
// result is lowercased.
func DedupeAndTrimLower(values []string) []string {
	return dedupe(values, func(v string) string {
		return strings.ToLower(strings.TrimSpace(v))
	})
}

// dedupe returns nil when nothing survives so callers can test len or nil.
func dedupe(values []string, normalize func(string) string) []string {
	var out []string
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = normalize(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
