package filter

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/yourorg/yapits/internal/config"
)

// SanitizeConfig is an alias of config.SanitizeConfig.
type SanitizeConfig = config.SanitizeConfig

// RedactURL replaces the values of sensitive query parameters. Unparseable
// input is returned unchanged.
func RedactURL(raw string, cfg SanitizeConfig) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}
	set := toLowerSet(cfg.QueryParams)
	q := u.Query()
	changed := false
	for k, vs := range q {
		if _, ok := set[strings.ToLower(k)]; !ok {
			continue
		}
		repl := make([]string, len(vs))
		for i := range repl {
			repl[i] = cfg.Replacement
		}
		q[k] = repl
		changed = true
	}
	if !changed {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// RedactHeaders flattens h for logging with sensitive values replaced.
func RedactHeaders(h http.Header, cfg SanitizeConfig) map[string]string {
	if len(h) == 0 {
		return nil
	}
	set := toLowerSet(cfg.Headers)
	out := make(map[string]string, len(h))
	for k, vs := range h {
		if _, ok := set[strings.ToLower(k)]; ok {
			out[k] = cfg.Replacement
			continue
		}
		out[k] = strings.Join(vs, ", ")
	}
	return out
}

func toLowerSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, v := range items {
		v = strings.TrimSpace(strings.ToLower(v))
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}
