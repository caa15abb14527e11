package search

import "strings"

// Tokenize breaks a search query into lowercase keywords. Whitespace-only
// input yields nil.
func Tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	if len(fields) == 0 {
		return nil
	}
	return fields
}
