package fileevents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

func TestMatchGlob(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"", "/anything", true},
		{"*.go", "/a/b/main.go", true},
		{"*.go", "/a/b/main.py", false},
		{"**/*.go", "/a/b/main.go", true},
		{"**/*.go", "/a/b/main.py", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, matchGlob(tc.pattern, tc.path), "%s vs %s", tc.pattern, tc.path)
	}
}

func TestWatcher_Flush_CallsFlushSyncBeforeNotify(t *testing.T) {
	sender := &fakeCaller{}
	var order []string
	flushSync := func() { order = append(order, "flush") }

	w := &Watcher{
		conn:      sender,
		logger:    zap.NewNop(),
		flushSync: flushSync,
		batch:     []protocol.FileEvent{{URI: "file:///a.go", Type: protocol.FileChangeTypeChanged}},
	}
	w.flush()

	require := func(cond bool, msg string) {
		if !cond {
			t.Fatal(msg)
		}
	}
	require(len(order) == 1 && order[0] == "flush", "expected flushSync to run")
	sender.mu.Lock()
	defer sender.mu.Unlock()
	require(len(sender.notifies) == 1 && sender.notifies[0] == "workspace/didChangeWatchedFiles", "expected didChangeWatchedFiles notify")
}

func TestWatcher_Flush_NilFlushSyncIsNoop(t *testing.T) {
	sender := &fakeCaller{}
	w := &Watcher{
		conn:   sender,
		logger: zap.NewNop(),
		batch:  []protocol.FileEvent{{URI: "file:///a.go", Type: protocol.FileChangeTypeChanged}},
	}
	w.flush()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Equal(t, []string{"workspace/didChangeWatchedFiles"}, sender.notifies)
}
