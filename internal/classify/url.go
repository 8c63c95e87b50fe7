package classify

import (
	"net/url"
	"regexp"
	"strings"
)

var urlRE = regexp.MustCompile(`(?i)^https?://\S+$`)

// trackingParams are query keys dropped by CleanURL, along with every
// utm_ key. Matching is case-insensitive.
var trackingParams = map[string]struct{}{
	"fbclid": {}, "gclid": {}, "dclid": {}, "zanpid": {}, "msclkid": {},
	"mc_cid": {}, "mc_eid": {}, "ref": {}, "referrer": {},
	"_ga": {}, "_gl": {}, "yclid": {}, "twclid": {},
}

// IsURL reports whether s is an http(s) URL with no whitespace.
func IsURL(s string) bool { return urlRE.MatchString(s) }

// CleanURL removes tracking parameters from the query string, keeping the
// remaining parameters in their original order. Input that does not parse is
// returned unchanged.
func CleanURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.RawQuery == "" {
		return raw
	}

	pairs := strings.Split(u.RawQuery, "&")
	kept := pairs[:0]
	for _, p := range pairs {
		if p == "" {
			continue
		}
		key, _, _ := strings.Cut(p, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if isTrackingParam(strings.ToLower(key)) {
			continue
		}
		kept = append(kept, p)
	}
	u.RawQuery = strings.Join(kept, "&")
	u.ForceQuery = false
	return u.String()
}

func isTrackingParam(key string) bool {
	if strings.HasPrefix(key, "utm_") {
		return true
	}
	_, ok := trackingParams[key]
	return ok
}
