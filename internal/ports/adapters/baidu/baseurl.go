package baidu

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	DefaultTokenBaseURL = "https://aip.baidubce.com"
	DefaultASRBaseURL   = "https://vop.baidu.com"
)

var defaultAllowedHosts = map[string]struct{}{
	"aip.baidubce.com": {},
	"vop.baidu.com":    {},
}

func normalizeBaseURL(baseURL, fallback string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = fallback
	}
	return strings.TrimRight(baseURL, "/")
}

// ValidateBaseURL checks that an endpoint override is an https URL on an
// allowed host. An empty baseURL validates fallback instead; name only
// labels errors.
func ValidateBaseURL(name, baseURL, fallback string, allowedHosts []string) error {
	baseURL = normalizeBaseURL(baseURL, fallback)

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid %s %q: absolute URL with host is required", name, baseURL)
	}
	if u.User != nil {
		return fmt.Errorf("invalid %s %q: userinfo is not allowed", name, baseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid %s %q: query and fragment are not allowed", name, baseURL)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("invalid %s %q: host is required", name, baseURL)
	}
	if scheme != "https" {
		return fmt.Errorf("invalid %s %q: https is required", name, baseURL)
	}

	allowed := normalizeAllowedHosts(allowedHosts)
	if _, ok := allowed[host]; !ok {
		return fmt.Errorf("invalid %s %q: host %q is not in BAIDU_ALLOWED_HOSTS", name, baseURL, host)
	}
	return nil
}

func normalizeAllowedHosts(allowedHosts []string) map[string]struct{} {
	if len(allowedHosts) == 0 {
		return defaultAllowedHosts
	}

	out := make(map[string]struct{}, len(allowedHosts))
	for _, h := range allowedHosts {
		v := strings.ToLower(strings.TrimSpace(h))
		v = strings.TrimPrefix(v, "http://")
		v = strings.TrimPrefix(v, "https://")
		v = strings.Trim(v, "/")
		if v == "" {
			continue
		}
		if i := strings.Index(v, ":"); i >= 0 {
			v = v[:i]
		}
		out[v] = struct{}{}
	}
	if len(out) == 0 {
		return defaultAllowedHosts
	}
	return out
}
