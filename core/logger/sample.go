package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratio lets through keep lines out of every window of size lines.
// A zero window disables sampling.
type ratio struct {
	keep   atomic.Int64
	window atomic.Int64
	seen   atomic.Uint64
}

func (r *ratio) set(keep, window int) {
	if keep <= 0 || window <= 0 {
		keep, window = 0, 0
	}
	r.keep.Store(int64(min(keep, window)))
	r.window.Store(int64(window))
	r.seen.Store(0)
}

func (r *ratio) allow() bool {
	window := r.window.Load()
	if window == 0 {
		return true
	}
	n := r.seen.Add(1) - 1
	return int64(n%uint64(window)) < r.keep.Load()
}

// parseRatio accepts "k/n" or "n" (one of n). Anything else disables sampling.
func parseRatio(s string) (keep, window int) {
	s = strings.TrimSpace(s)
	if k, n, ok := strings.Cut(s, "/"); ok {
		kv, err1 := strconv.Atoi(strings.TrimSpace(k))
		nv, err2 := strconv.Atoi(strings.TrimSpace(n))
		if err1 != nil || err2 != nil || kv <= 0 || nv <= 0 {
			return 0, 0
		}
		return kv, nv
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, 0
	}
	return 1, n
}
