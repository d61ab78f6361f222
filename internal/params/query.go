package params

import (
	"net/url"
	"sort"
	"strings"
)

// BuildQuery encodes query params sorted by key
// Unlike url.Values.Encode, a param with an empty value is encoded as "key" rather than "key="
func BuildQuery(v url.Values) string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var buf strings.Builder
	for _, key := range keys {
		if buf.Len() > 0 {
			buf.WriteByte('&')
		} else {
			buf.WriteByte('?')
		}

		buf.WriteString(url.QueryEscape(key))
		if value := v.Get(key); value != "" {
			buf.WriteByte('=')
			buf.WriteString(url.QueryEscape(value))
		}
	}

	return buf.String()
}
