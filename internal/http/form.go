package http

import (
	"net/url"
	"sort"
)

// encodeForm builds a deterministic application/x-www-form-urlencoded body.
func encodeForm(form map[string]string) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, k := range keys {
		values.Set(k, form[k])
	}
	return values.Encode()
}
