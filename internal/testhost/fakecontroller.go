package testhost

import (
	"sync"
	"time"
)

// FakeWindowController is a recording waker.WindowController for tests
// that exercise spec §8 scenario S6 ("minimized main-thread call"). It
// tracks how long the window spent in the "restored" state so tests can
// assert the cumulative restored time stays bounded.
type FakeWindowController struct {
	mu          sync.Mutex
	minimized   bool
	restoredAt  time.Time
	restoredFor time.Duration
	restoreN    int
	minimizeN   int
}

// NewFakeWindowController returns a controller that starts minimized.
func NewFakeWindowController() *FakeWindowController {
	return &FakeWindowController{minimized: true}
}

func (f *FakeWindowController) IsMinimized() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.minimized
}

func (f *FakeWindowController) Restore() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.minimized {
		return
	}
	f.minimized = false
	f.restoredAt = time.Now()
	f.restoreN++
}

func (f *FakeWindowController) SaveForegroundHandle() interface{} {
	return "previous-foreground"
}

func (f *FakeWindowController) RestoreForeground(_ interface{}) {}

func (f *FakeWindowController) Minimize() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.minimized {
		return
	}
	f.minimized = true
	f.restoredFor += time.Since(f.restoredAt)
	f.minimizeN++
}

// RestoredTime returns the cumulative time the window has spent restored,
// including any currently-in-progress restoration.
func (f *FakeWindowController) RestoredTime() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := f.restoredFor
	if !f.minimized {
		total += time.Since(f.restoredAt)
	}
	return total
}

func (f *FakeWindowController) RestoreCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.restoreN
}

func (f *FakeWindowController) MinimizeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.minimizeN
}
