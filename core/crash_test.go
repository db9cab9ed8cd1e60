package core

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGo_RecoversAndReports(t *testing.T) {
	var out bytes.Buffer
	exited := make(chan int, 1)
	cleaned := false

	crashMu.Lock()
	prevOut, prevExit := crashOutput, crashExit
	crashOutput = &out
	crashExit = func(code int) { exited <- code }
	crashMu.Unlock()
	SetCrashCleanup(func() { cleaned = true })

	t.Cleanup(func() {
		crashMu.Lock()
		crashOutput, crashExit = prevOut, prevExit
		crashMu.Unlock()
		SetCrashCleanup(nil)
	})

	Go(func() { panic("zero separation") })

	select {
	case code := <-exited:
		assert.Equal(t, 1, code)
	case <-time.After(2 * time.Second):
		require.FailNow(t, "crash handler did not run")
	}

	assert.True(t, cleaned)
	assert.Contains(t, out.String(), "zero separation")
	assert.Contains(t, out.String(), "Stack Trace")
}

func TestHandleCrash_NilIsNoop(t *testing.T) {
	crashMu.Lock()
	prevExit := crashExit
	called := false
	crashExit = func(int) { called = true }
	crashMu.Unlock()
	t.Cleanup(func() {
		crashMu.Lock()
		crashExit = prevExit
		crashMu.Unlock()
	})

	HandleCrash(nil)
	assert.False(t, called)
}
