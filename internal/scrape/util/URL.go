package util

import (
	"net/url"
	"strconv"
	"strings"
)

// ResolveURL resolves href against base. Absolute hrefs are returned unchanged
// apart from dropping the fragment.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	u := b.ResolveReference(ref)
	u.Fragment = ""
	return u.String()
}

// SearchURL builds the listing page url for one query, e.g.
// https://builtin.com/jobs/remote?search=data+analyst&daysSinceUpdated=1
func SearchURL(base, path, query string, daysSinceUpdated int) string {
	q := url.Values{}
	q.Set("search", query)
	if daysSinceUpdated > 0 {
		q.Set("daysSinceUpdated", strconv.Itoa(daysSinceUpdated))
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/") + "?" + encodeOrdered(q, "search", "daysSinceUpdated")
}

func encodeOrdered(q url.Values, keys ...string) string {
	var parts []string
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
		}
	}
	return strings.Join(parts, "&")
}
