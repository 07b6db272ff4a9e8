package mailer

import (
	"slices"
	"strings"
)

// MergeAddresses returns the union of the template's base addresses and the
// caller's addresses. Duplicates and blank entries are dropped. The result is
// a new slice; callers must treat its order as meaningless.
func MergeAddresses(base, instance []string) []string {
	seen := make(map[string]struct{}, len(base)+len(instance))
	out := make([]string, 0, len(base)+len(instance))
	for _, list := range [][]string{base, instance} {
		for _, addr := range list {
			addr = strings.TrimSpace(addr)
			if addr == "" {
				continue
			}
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			out = append(out, addr)
		}
	}
	// Sorted so headers and log rows are stable.
	slices.Sort(out)
	return out
}
