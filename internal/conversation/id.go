package conversation

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// IDGenerator issues message ids that sort in creation order. Ids from one
// generator are strictly increasing even when the wall clock steps backwards.
type IDGenerator struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy io.Reader
	lastMs  uint64
}

func NewIDGenerator() *IDGenerator {
	return newIDGenerator(time.Now)
}

func newIDGenerator(now func() time.Time) *IDGenerator {
	return &IDGenerator{
		now:     now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (g *IDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := ulid.Timestamp(g.now())
	if ms < g.lastMs {
		ms = g.lastMs
	}
	id, err := ulid.New(ms, g.entropy)
	if err != nil {
		// monotonic entropy exhausted within one millisecond
		ms++
		id = ulid.MustNew(ms, g.entropy)
	}
	g.lastMs = ms
	return id.String()
}
