package pipeline

import (
	"collsync/internal/model"
	"sync"
	"time"
)

// Debounce holds each event back for delay, replacing it when another
// event for the same path arrives in the meantime. Editors that write a
// file several times per save collapse into a single event.
func Debounce(inCh <-chan model.FileEvent, delay time.Duration) <-chan model.FileEvent {
	outCh := make(chan model.FileEvent, cap(inCh))

	go func() {
		var mu sync.Mutex
		var pending sync.WaitGroup
		timers := make(map[string]*time.Timer)
		events := make(map[string]model.FileEvent)

		for event := range inCh {
			path := event.Path

			mu.Lock()
			if old, ok := timers[path]; ok && old.Stop() {
				pending.Done()
			}

			events[path] = event
			pending.Add(1)

			var t *time.Timer
			t = time.AfterFunc(delay, func() {
				mu.Lock()
				// A newer timer superseded this one while it was firing.
				if timers[path] != t {
					mu.Unlock()
					pending.Done()
					return
				}

				ev := events[path]
				delete(timers, path)
				delete(events, path)
				mu.Unlock()

				outCh <- ev
				pending.Done()
			})
			timers[path] = t
			mu.Unlock()
		}

		pending.Wait()
		close(outCh)
	}()

	return outCh
}
