package utils

import (
	"time"

	"github.com/google/uuid"
)

// Clock provides the current time; tests substitute a fixed one.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type FixedClock struct {
	CurrentTime time.Time
}

func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{CurrentTime: t}
}

func (c *FixedClock) Now() time.Time {
	return c.CurrentTime
}

func (c *FixedClock) Advance(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}

// IDSource yields random UUIDv4 strings.
type IDSource interface {
	NewID() string
}

type UUIDSource struct{}

func (UUIDSource) NewID() string {
	return uuid.New().String()
}

// SequenceSource replays a fixed list of ids, cycling when exhausted.
type SequenceSource struct {
	IDs []string
	n   int
}

func (s *SequenceSource) NewID() string {
	if len(s.IDs) == 0 {
		return ""
	}
	id := s.IDs[s.n%len(s.IDs)]
	s.n++
	return id
}
