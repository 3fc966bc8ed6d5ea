package pagination

import (
	"net/url"
	"strings"
)

// BuildLinkHeader returns an RFC 8288 Link header value with next and prev
// relations. Existing query parameters are kept and any cursor is replaced.
func BuildLinkHeader(base string, q url.Values, next, prev string) string {
	var links []string
	if next != "" {
		links = append(links, link(base, q, next, "next"))
	}
	if prev != "" {
		links = append(links, link(base, q, prev, "prev"))
	}
	return strings.Join(links, ", ")
}

func link(base string, q url.Values, cursor, rel string) string {
	params := url.Values{}
	for k, vs := range q {
		if k == "cursor" {
			continue
		}
		params[k] = append([]string(nil), vs...)
	}
	params.Set("cursor", cursor)
	return "<" + base + "?" + params.Encode() + `>; rel="` + rel + `"`
}
