package utils

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunInWavesPreservesOrder(t *testing.T) {
	// Later tasks finish first; outcomes must still be in input order.
	tasks := make([]Task[int], 20)
	for i := range tasks {
		i := i
		tasks[i] = func() (int, error) {
			time.Sleep(time.Duration(20-i) * time.Millisecond)
			return i * 10, nil
		}
	}

	outcomes := RunInWaves(tasks, 7)
	if len(outcomes) != 20 {
		t.Fatalf("expected 20 outcomes, got %d", len(outcomes))
	}
	for i, o := range outcomes {
		if o.Err != nil {
			t.Errorf("task %d: unexpected error: %v", i, o.Err)
		}
		if o.Value != i*10 {
			t.Errorf("outcome %d: got %d, want %d", i, o.Value, i*10)
		}
	}
}

func TestRunInWavesBoundsConcurrency(t *testing.T) {
	const waveSize = 5
	var inFlight, peak int64

	tasks := make([]Task[struct{}], 23)
	for i := range tasks {
		tasks[i] = func() (struct{}, error) {
			n := atomic.AddInt64(&inFlight, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			return struct{}{}, nil
		}
	}

	RunInWaves(tasks, waveSize)
	if peak > waveSize {
		t.Errorf("peak concurrency %d exceeded wave size %d", peak, waveSize)
	}
}

func TestRunInWavesFailureIsolation(t *testing.T) {
	boom := errors.New("transport error")
	tasks := []Task[string]{
		func() (string, error) { return "a", nil },
		func() (string, error) { return "", boom },
		func() (string, error) { return "c", nil },
	}

	outcomes := RunInWaves(tasks, 2)

	if outcomes[0].Err != nil || outcomes[0].Value != "a" {
		t.Errorf("outcome 0: got (%q, %v)", outcomes[0].Value, outcomes[0].Err)
	}
	if !errors.Is(outcomes[1].Err, boom) {
		t.Errorf("outcome 1: expected captured error, got %v", outcomes[1].Err)
	}
	if outcomes[2].Err != nil || outcomes[2].Value != "c" {
		t.Errorf("outcome 2: got (%q, %v)", outcomes[2].Value, outcomes[2].Err)
	}
}

func TestRunInWavesCapturesPanic(t *testing.T) {
	tasks := []Task[int]{
		func() (int, error) { return 1, nil },
		func() (int, error) { panic("selector missing") },
		func() (int, error) { return 3, nil },
	}

	outcomes := RunInWaves(tasks, 10)
	if !outcomes[1].Failed() {
		t.Error("panicking task should be captured as a failed outcome")
	}
	if outcomes[0].Value != 1 || outcomes[2].Value != 3 {
		t.Error("sibling tasks affected by panic")
	}
}

func TestRunInWavesEmptyAndDegenerateSizes(t *testing.T) {
	if got := RunInWaves[int](nil, 5); len(got) != 0 {
		t.Errorf("empty input: expected empty outcomes, got %d", len(got))
	}

	tasks := make([]Task[int], 3)
	for i := range tasks {
		i := i
		tasks[i] = func() (int, error) { return i, nil }
	}

	// A wave size beyond the task count degenerates to full fan-out, and a
	// non-positive wave size is treated the same way.
	for _, waveSize := range []int{100, 0, -1} {
		outcomes := RunInWaves(tasks, waveSize)
		for i, o := range outcomes {
			if o.Value != i {
				t.Errorf("waveSize %d: outcome %d = %d, want %d", waveSize, i, o.Value, i)
			}
		}
	}
}

func TestRunInWavesGatesWaves(t *testing.T) {
	// Every task of wave 0 must settle before wave 1 starts, even when a
	// wave-0 task is slow or fails.
	var wave0Done int64
	tasks := []Task[string]{
		func() (string, error) {
			time.Sleep(30 * time.Millisecond)
			atomic.AddInt64(&wave0Done, 1)
			return "slow", nil
		},
		func() (string, error) {
			atomic.AddInt64(&wave0Done, 1)
			return "", fmt.Errorf("failed fast")
		},
		func() (string, error) {
			if atomic.LoadInt64(&wave0Done) != 2 {
				return "", fmt.Errorf("wave 1 started before wave 0 settled")
			}
			return "ok", nil
		},
	}

	outcomes := RunInWaves(tasks, 2)
	if outcomes[2].Err != nil {
		t.Error(outcomes[2].Err)
	}
}

func TestURLSetNoDuplicates(t *testing.T) {
	s := NewURLSet()

	if !s.Add("https://www.blocket.se/annons/1") {
		t.Error("first Add should return true")
	}
	if s.Add("https://www.blocket.se/annons/1") {
		t.Error("second Add of same URL should return false")
	}
	if s.Size() != 1 {
		t.Errorf("size: got %d, want 1", s.Size())
	}
}

func TestURLSetConcurrency(t *testing.T) {
	s := NewURLSet()
	var added int64

	tasks := make([]Task[struct{}], 100)
	for i := range tasks {
		tasks[i] = func() (struct{}, error) {
			if s.Add("https://www.blocket.se/annons/same") {
				atomic.AddInt64(&added, 1)
			}
			return struct{}{}, nil
		}
	}
	RunInWaves(tasks, 10)

	if added != 1 {
		t.Errorf("expected exactly 1 successful add, got %d", added)
	}
}
