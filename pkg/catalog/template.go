package catalog

import (
	"regexp"
	"slices"
	"strconv"
)

var placeholder = regexp.MustCompile(`\{(\d+)\}`)

// Placeholders returns the distinct placeholder indexes used by text, sorted.
func Placeholders(text string) []int {
	var out []int
	for _, m := range placeholder.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || slices.Contains(out, n) {
			continue
		}
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Format substitutes args into text. Placeholders without an argument are
// left as written.
func Format(text string, args ...string) string {
	return placeholder.ReplaceAllStringFunc(text, func(m string) string {
		n, err := strconv.Atoi(m[1 : len(m)-1])
		if err != nil || n >= len(args) {
			return m
		}
		return args[n]
	})
}
