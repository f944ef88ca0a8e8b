package chat_test

import (
	"sync"
	"time"
)

var t0 = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

// stepClock は呼ばれるたびに step ずつ進む時計を返す
func stepClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur := next
		next = next.Add(step)
		return cur
	}
}
