package naming

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxNumericSuffix is the last numeric suffix tried before falling back
const MaxNumericSuffix = 999

// clock is swapped in tests to make the timestamp fallback deterministic
var clock = time.Now

// Alternative returns a name derived from base that is not taken and fits
// maxLen. Numeric suffixes _1.._999 are tried first, then a suffix derived
// from the current second, then random suffixes until a free name is found.
//
// The suggestion is advisory: two callers may receive the same suggestion
// concurrently, and the persisted uniqueness constraint stays authoritative.
func Alternative(base string, taken func(string) bool, maxLen int) string {
	if base == "" {
		base = Unnamed
	}

	for i := 1; i <= MaxNumericSuffix; i++ {
		if name := WithSuffix(base, fmt.Sprintf("_%d", i), maxLen); !taken(name) {
			return name
		}
	}

	if name := WithSuffix(base, fmt.Sprintf("_%d", clock().Unix()%10000), maxLen); !taken(name) {
		return name
	}

	for {
		suffix := "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		if name := WithSuffix(base, suffix, maxLen); !taken(name) {
			return name
		}
	}
}

// WithSuffix appends suffix to base, shortening base when the result would
// exceed maxLen. A trailing underscore left by shortening is dropped.
func WithSuffix(base, suffix string, maxLen int) string {
	if maxLen > 0 && len(base)+len(suffix) > maxLen {
		keep := maxLen - len(suffix)
		if keep < 1 {
			keep = 1
		}
		if keep < len(base) {
			base = strings.TrimRight(base[:keep], "_")
		}
	}
	return base + suffix
}

// TakenIn adapts a name set for use with Alternative
func TakenIn(names map[string]struct{}) func(string) bool {
	return func(name string) bool {
		_, ok := names[name]
		return ok
	}
}
