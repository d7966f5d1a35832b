// Package ids generates session-unique identifiers from a millisecond
// timestamp plus a counter, so two records created in the same millisecond
// never collide.
package ids

import (
	"fmt"
	"sync"
	"time"
)

type Generator struct {
	prefix string

	mu     sync.Mutex
	lastMs int64
	seq    int
}

func NewGenerator(prefix string) *Generator {
	return &Generator{prefix: prefix}
}

// Next returns the id for a record created at now. A clock that stalls or
// steps backwards keeps the last timestamp and advances the counter.
func (g *Generator) Next(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := now.UnixMilli()
	if ms > g.lastMs {
		g.lastMs = ms
		g.seq = 0
	} else {
		g.seq++
	}
	return fmt.Sprintf("%s%d-%d", g.prefix, g.lastMs, g.seq)
}
