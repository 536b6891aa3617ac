package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
)

// Key derives the cache key of a request from its path and its query
// parameters in sorted order, so equivalent URLs share an entry
func Key(r *http.Request) string {
	var b strings.Builder
	b.WriteString(r.Method)
	b.WriteByte(' ')
	b.WriteString(r.URL.Path)

	query := r.URL.Query()
	if len(query) > 0 {
		names := make([]string, 0, len(query))
		for name := range query {
			names = append(names, name)
		}
		sort.Strings(names)

		b.WriteByte('?')
		for i, name := range names {
			values := append([]string(nil), query[name]...)
			sort.Strings(values)
			for j, v := range values {
				if i > 0 || j > 0 {
					b.WriteByte('&')
				}
				b.WriteString(name)
				b.WriteByte('=')
				b.WriteString(v)
			}
		}
	}

	sum := sha256.Sum256([]byte(b.String()))
	return "http:" + hex.EncodeToString(sum[:16])
}
