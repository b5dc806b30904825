package service

import (
	"sync"
	"time"
)

// IDGenerator выдает идентификаторы новых задач
type IDGenerator interface {
	Next() int64
	// Observe сообщает генератору об уже существующем id
	Observe(id int64)
}

// ClockIDs выдает id на основе времени в миллисекундах,
// но всегда строго больше предыдущего выданного или замеченного.
type ClockIDs struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewClockIDs(now func() time.Time) *ClockIDs {
	if now == nil {
		now = time.Now
	}
	return &ClockIDs{now: now}
}

func (g *ClockIDs) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.now().UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

func (g *ClockIDs) Observe(id int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id > g.last {
		g.last = id
	}
}
