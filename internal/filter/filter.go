package filter

import (
	"strings"

	"github.com/yourorg/yapits/internal/config"
	"github.com/yourorg/yapits/pkg/types"
)

// FilterConfig is an alias of config.FilterConfig.
type FilterConfig = config.FilterConfig

// Apply drops ignored entries from a category listing and merges entries
// that share a method and path, keeping the first. Order is preserved.
func Apply(list []types.InterfaceSummary, cfg FilterConfig) []types.InterfaceSummary {
	filtered := make([]types.InterfaceSummary, 0, len(list))
	for _, it := range list {
		if hasIgnoredMethod(it.Method, cfg.IgnoreMethods) {
			continue
		}
		if hasIgnoredPath(it.Path, cfg.IgnorePaths) {
			continue
		}
		filtered = append(filtered, it)
	}
	return mergeIdentical(filtered)
}

func hasIgnoredMethod(m string, methods []string) bool {
	for _, ig := range methods {
		if strings.EqualFold(strings.TrimSpace(ig), m) {
			return true
		}
	}
	return false
}

func hasIgnoredPath(p string, prefixes []string) bool {
	for _, pref := range prefixes {
		pref = strings.TrimSpace(pref)
		if pref == "" {
			continue
		}
		if strings.HasPrefix(p, pref) {
			return true
		}
	}
	return false
}

// mergeIdentical keys on method and path only when both are known; bare
// ids from a sparse listing are never merged.
func mergeIdentical(list []types.InterfaceSummary) []types.InterfaceSummary {
	out := make([]types.InterfaceSummary, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, it := range list {
		if it.Path != "" {
			key := requestKey(it.Method, it.Path)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, it)
	}
	return out
}

func requestKey(method, path string) string {
	return strings.ToUpper(method) + " " + strings.TrimRight(path, "/")
}
