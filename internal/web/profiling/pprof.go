// Package profiling serves the runtime pprof endpoints
//
// The endpoints expose goroutine stacks and heap contents. Enable them only
// on servers that are not reachable from untrusted networks.
package profiling

import (
	"net/http"
	"net/http/pprof"
	"runtime"
	"strings"
)

// Path is where the endpoints are mounted
const Path = "/debug/pprof"

// Config selects the optional contention profiles
type Config struct {
	// BlockRate is passed to runtime.SetBlockProfileRate; 0 leaves it off
	BlockRate int
	// MutexFraction is passed to runtime.SetMutexProfileFraction; 0 leaves it off
	MutexFraction int
}

// Handler serves every path under Path; mount it on Path + "/*"
func Handler(cfg Config) http.Handler {
	if cfg.BlockRate > 0 {
		runtime.SetBlockProfileRate(cfg.BlockRate)
	}
	if cfg.MutexFraction > 0 {
		runtime.SetMutexProfileFraction(cfg.MutexFraction)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, Path) {
		case "/cmdline":
			pprof.Cmdline(w, r)
		case "/profile":
			pprof.Profile(w, r)
		case "/symbol":
			pprof.Symbol(w, r)
		case "/trace":
			pprof.Trace(w, r)
		default:
			// Index serves the named profiles itself
			pprof.Index(w, r)
		}
	})
}
