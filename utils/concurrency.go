package utils

import (
	"fmt"
	"sync"
)

// Task is one unit of independent asynchronous work.
type Task[T any] func() (T, error)

// Outcome carries a task's produced value or its captured failure.
// Err == nil means Value is valid.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Failed reports whether the task produced an error instead of a value.
func (o Outcome[T]) Failed() bool { return o.Err != nil }

// RunInWaves executes tasks in waves of at most waveSize concurrent
// goroutines. A wave must fully settle, success or failure for every member,
// before the next wave starts, which bounds peak in-flight work to waveSize.
//
// The returned slice always has one outcome per task, in input order,
// regardless of completion order. A failing or panicking task is captured at
// its own index and never affects its siblings. waveSize <= 0 runs
// everything as a single wave.
func RunInWaves[T any](tasks []Task[T], waveSize int) []Outcome[T] {
	outcomes := make([]Outcome[T], len(tasks))
	if len(tasks) == 0 {
		return outcomes
	}
	if waveSize <= 0 {
		waveSize = len(tasks)
	}

	for start := 0; start < len(tasks); start += waveSize {
		end := start + waveSize
		if end > len(tasks) {
			end = len(tasks)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						outcomes[i] = Outcome[T]{Err: fmt.Errorf("task %d panicked: %v", i, r)}
					}
				}()
				v, err := tasks[i]()
				outcomes[i] = Outcome[T]{Value: v, Err: err}
			}(i)
		}
		wg.Wait()
	}

	return outcomes
}

// URLSet is a thread-safe set for tracking seen listing URLs.
type URLSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	return true
}

// Contains returns true if the URL has already been seen.
func (s *URLSet) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[url]
	return exists
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
