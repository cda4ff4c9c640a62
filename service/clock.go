package service

import (
	"container/list"
	"sync"
	"time"
)

// PrivateClock keeps the timestamps of the most recent blocks and reports
// the average time between them.
type PrivateClock struct {
	sync.Mutex
	*list.List
	Size int
}

func newPrivateClock(size int) *PrivateClock {
	return &PrivateClock{
		List: list.New(),
		Size: size,
	}
}

// Push records t, dropping the oldest timestamps beyond Size.
func (pc *PrivateClock) Push(t time.Time) {
	pc.Lock()
	defer pc.Unlock()
	pc.PushBack(t)
	for pc.Len() > pc.Size {
		pc.Remove(pc.Front())
	}
}

// Clock returns the mean interval of the window, or zero with fewer than
// two timestamps.
func (pc *PrivateClock) Clock() time.Duration {
	pc.Lock()
	defer pc.Unlock()
	if pc.Len() < 2 {
		return 0
	}
	first := pc.Front().Value.(time.Time)
	last := pc.Back().Value.(time.Time)
	return last.Sub(first) / time.Duration(pc.Len()-1)
}
