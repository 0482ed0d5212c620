package expr

import (
	"regexp"
	"sort"
)

// fieldRefPattern matches any identifier.identifier token pair. It is the
// permissive fallback used when strict parsing fails, so legacy saved
// expressions can still be reconciled for model references.
var fieldRefPattern = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)\.([A-Za-z_][A-Za-z0-9_]*)\b`)

// ScanModelRefs extracts referenced model IDs from an expression without
// parsing it. The result is deduplicated and sorted.
func ScanModelRefs(expression string) []string {
	seen := make(map[string]struct{})
	for _, match := range fieldRefPattern.FindAllStringSubmatch(expression, -1) {
		seen[match[1]] = struct{}{}
	}

	models := make([]string, 0, len(seen))
	for model := range seen {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}
