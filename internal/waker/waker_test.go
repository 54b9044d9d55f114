package waker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	minimized   bool
	restoredFG  []interface{}
	restoreCall int
	minimizeCall int
	nextHandle  interface{}
}

func (f *fakeController) IsMinimized() bool { return f.minimized }
func (f *fakeController) Restore()          { f.restoreCall++; f.minimized = false }
func (f *fakeController) SaveForegroundHandle() interface{} {
	return f.nextHandle
}
func (f *fakeController) RestoreForeground(handle interface{}) {
	f.restoredFG = append(f.restoredFG, handle)
}
func (f *fakeController) Minimize() { f.minimizeCall++; f.minimized = true }

func TestWakeIfMinimized_NoopWhenNotMinimized(t *testing.T) {
	fc := &fakeController{minimized: false}
	w := New(fc)

	w.WakeIfMinimized()
	assert.False(t, w.ShouldRestore())
	assert.Equal(t, 0, fc.restoreCall)
}

func TestWakeIfMinimized_RestoresAndSetsFlag(t *testing.T) {
	fc := &fakeController{minimized: true, nextHandle: "editor-window"}
	w := New(fc)

	w.WakeIfMinimized()
	assert.True(t, w.ShouldRestore())
	assert.Equal(t, 1, fc.restoreCall)
	assert.False(t, fc.minimized)
}

func TestRestoreMinimizedState_NoopIfNotWoken(t *testing.T) {
	fc := &fakeController{}
	w := New(fc)

	w.RestoreMinimizedState()
	assert.Equal(t, 0, fc.minimizeCall)
	assert.Len(t, fc.restoredFG, 0)
}

func TestRestoreMinimizedState_RestoresForegroundAndReminimizes(t *testing.T) {
	fc := &fakeController{minimized: true, nextHandle: "editor-window"}
	w := New(fc)

	w.WakeIfMinimized()
	require.True(t, w.ShouldRestore())

	w.RestoreMinimizedState()
	require.Len(t, fc.restoredFG, 1)
	assert.Equal(t, "editor-window", fc.restoredFG[0])
	assert.Equal(t, 1, fc.minimizeCall)
	assert.False(t, w.ShouldRestore())
}

func TestRestoreMinimizedState_SkipsReminimizeIfUserTouchedWindow(t *testing.T) {
	fc := &fakeController{minimized: true, nextHandle: "editor-window"}
	w := New(fc)

	w.WakeIfMinimized()
	w.NotifyUserTouchedWindow()
	w.RestoreMinimizedState()

	require.Len(t, fc.restoredFG, 1)
	assert.Equal(t, 0, fc.minimizeCall)
	assert.False(t, w.ShouldRestore())
}

func TestNoopControllerDegradesSilently(t *testing.T) {
	w := New(nil)
	w.Initialize()
	w.WakeIfMinimized()
	assert.False(t, w.ShouldRestore())
	w.RestoreMinimizedState()
}
