// Package waker implements the window waker described in spec §4.6: a
// host-main-loop prod that restores a minimized host window just long
// enough for a main-thread-lane request to be serviced, then returns the
// window to wherever the user actually left it.
//
// The OS-level window manipulation itself has no portable Go stdlib
// equivalent, so it is expressed as a small WindowController interface the
// embedding host implements (the same shape the teacher's connection pool
// used for its pluggable idle-janitor callback). Platforms with no
// controller wired in degrade to the no-op controller, matching spec §4.6
// "on non-supported platforms, all waker operations degrade to no-ops."
package waker

import (
	"sync"

	"github.com/hostbridge/ide-agent-bridge/internal/logger"
)

var logWaker = logger.New("agent:waker")

// WindowController performs the actual OS-level window operations. Hosts
// that embed the agent on a supported platform provide a real
// implementation; NoopController is used otherwise.
type WindowController interface {
	// IsMinimized reports whether the host's top-level window is currently
	// minimized.
	IsMinimized() bool
	// Restore brings the host window to the foreground.
	Restore()
	// SaveForegroundHandle captures whatever currently has focus, returning
	// an opaque handle RestoreForeground can use later.
	SaveForegroundHandle() interface{}
	// RestoreForeground returns focus to the window identified by handle.
	RestoreForeground(handle interface{})
	// Minimize re-minimizes the host window.
	Minimize()
}

// NoopController is the degrade-to-no-op controller used on platforms (or
// in hosts) with no window-manipulation hook wired in.
type NoopController struct{}

func (NoopController) IsMinimized() bool                     { return false }
func (NoopController) Restore()                              {}
func (NoopController) SaveForegroundHandle() interface{}     { return nil }
func (NoopController) RestoreForeground(_ interface{})       {}
func (NoopController) Minimize()                             {}

// Waker is the host-main-loop prod. All exported methods are documented by
// the spec as running on the host main thread; Waker itself does not
// synchronize calls to the controller, only its own state, so callers must
// respect that threading rule.
type Waker struct {
	controller WindowController

	mu                   sync.Mutex
	initialized          bool
	wasWokenByUs         bool
	savedForeground      interface{}
	userTouchedSinceWake bool
}

// New constructs a Waker around controller. Passing nil installs
// NoopController.
func New(controller WindowController) *Waker {
	if controller == nil {
		controller = NoopController{}
	}
	return &Waker{controller: controller}
}

// Initialize captures the host's top-level window handle. Idempotent
// across reloads (spec §4.6): calling it again after a reload is a no-op
// if already initialized in this process.
func (w *Waker) Initialize() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.initialized {
		return
	}
	w.initialized = true
	logWaker.Printf("initialized")
}

// WakeIfMinimized restores the host window if it is currently minimized,
// saving whatever had focus first, and sets the sticky wasWokenByUs flag.
// Safe no-op if the window is not minimized.
func (w *Waker) WakeIfMinimized() {
	if !w.controller.IsMinimized() {
		return
	}

	handle := w.controller.SaveForegroundHandle()
	w.controller.Restore()

	w.mu.Lock()
	w.savedForeground = handle
	w.wasWokenByUs = true
	w.userTouchedSinceWake = false
	w.mu.Unlock()

	logWaker.Printf("woke minimized window")
}

// ShouldRestore reports whether this waker woke the window and it has not
// yet been restored to its pre-wake state.
func (w *Waker) ShouldRestore() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.wasWokenByUs
}

// NotifyUserTouchedWindow records that the user interacted with the host
// window themselves since the last wake. This resolves the spec §9 open
// question on re-minimize races by tracking user intent explicitly: once
// set, RestoreMinimizedState leaves the window exactly where the user put
// it rather than forcing it back to minimized.
func (w *Waker) NotifyUserTouchedWindow() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.userTouchedSinceWake = true
}

// RestoreMinimizedState restores focus to whatever had it before the wake,
// then re-minimizes the host — unless the user touched the window
// themselves in the meantime, in which case it leaves the window in the
// user's latest requested state and only clears the flag. Clears
// wasWokenByUs in either case.
func (w *Waker) RestoreMinimizedState() {
	w.mu.Lock()
	handle := w.savedForeground
	woken := w.wasWokenByUs
	userTouched := w.userTouchedSinceWake
	w.wasWokenByUs = false
	w.savedForeground = nil
	w.userTouchedSinceWake = false
	w.mu.Unlock()

	if !woken {
		return
	}

	w.controller.RestoreForeground(handle)
	if userTouched {
		logWaker.Printf("user touched window since wake, skipping re-minimize")
		return
	}
	w.controller.Minimize()
	logWaker.Printf("re-minimized window")
}
