package docsync

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"
)

func TestDebouncer_FlushesAfterDelay(t *testing.T) {
	var mu sync.Mutex
	var flushed []protocol.DocumentURI

	d := newDebouncer(20*time.Millisecond, func(uri protocol.DocumentURI, edit *pendingEdit) {
		mu.Lock()
		defer mu.Unlock()
		flushed = append(flushed, uri)
	})

	d.addFull("file:///a.go", 1, "package a")

	mu.Lock()
	require.Empty(t, flushed)
	mu.Unlock()

	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []protocol.DocumentURI{"file:///a.go"}, flushed)
}

func TestDebouncer_NewDocumentFlushesPreviousImmediately(t *testing.T) {
	var mu sync.Mutex
	var flushed []protocol.DocumentURI

	d := newDebouncer(time.Hour, func(uri protocol.DocumentURI, edit *pendingEdit) {
		mu.Lock()
		defer mu.Unlock()
		flushed = append(flushed, uri)
	})

	d.addFull("file:///a.go", 1, "package a")
	d.addFull("file:///b.go", 1, "package b")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, flushed, 1)
	assert.Equal(t, protocol.DocumentURI("file:///a.go"), flushed[0])
}

func TestDebouncer_FlushIsNoopForWrongURI(t *testing.T) {
	called := false
	d := newDebouncer(time.Hour, func(uri protocol.DocumentURI, edit *pendingEdit) {
		called = true
	})

	d.addFull("file:///a.go", 1, "package a")
	d.Flush("file:///b.go")

	assert.False(t, called)
}

func TestDebouncer_FlushAllDrainsPending(t *testing.T) {
	var flushed *pendingEdit
	d := newDebouncer(time.Hour, func(uri protocol.DocumentURI, edit *pendingEdit) {
		flushed = edit
	})

	d.addFull("file:///a.go", 3, "package a")
	d.FlushAll()

	require.NotNil(t, flushed)
	assert.Equal(t, int32(3), flushed.version)

	// a second FlushAll with nothing pending must not invoke onFlush again.
	flushed = nil
	d.FlushAll()
	assert.Nil(t, flushed)
}

func TestDebouncer_DiscardDropsOnlyMatchingURI(t *testing.T) {
	called := false
	d := newDebouncer(time.Hour, func(uri protocol.DocumentURI, edit *pendingEdit) {
		called = true
	})

	d.addFull("file:///a.go", 1, "package a")
	d.Discard("file:///b.go")
	d.Flush("file:///a.go")
	assert.True(t, called, "discard for a different uri must not drop the pending edit")

	called = false
	d.addFull("file:///a.go", 1, "package a")
	d.Discard("file:///a.go")
	d.Flush("file:///a.go")
	assert.False(t, called, "discard for the pending uri must drop the edit")
}
