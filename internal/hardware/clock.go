package hardware

import (
	"sync/atomic"
	"time"
)

// Clock is the wall clock. It reports itself unsynced while offline is set,
// which stands in for a lost time server.
type Clock struct {
	offline atomic.Bool
}

func NewClock() *Clock { return &Clock{} }

func (c *Clock) Now() time.Time { return time.Now() }

func (c *Clock) Synced() bool { return !c.offline.Load() }

func (c *Clock) SetOffline(v bool) { c.offline.Store(v) }
