package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.lsp.dev/protocol"
)

func TestEditorTracker_SetVisible(t *testing.T) {
	tr := NewEditorTracker()
	tr.SetVisible([]protocol.DocumentURI{"file:///a.go", "file:///b.go"})

	assert.True(t, tr.IsVisible("file:///a.go"))
	assert.True(t, tr.IsVisible("file:///b.go"))
	assert.False(t, tr.IsVisible("file:///c.go"))

	tr.SetVisible([]protocol.DocumentURI{"file:///b.go"})
	assert.False(t, tr.IsVisible("file:///a.go"))
	assert.True(t, tr.IsVisible("file:///b.go"))
}

func TestEditorTracker_NextBackgroundCandidate_SkipsActive(t *testing.T) {
	tr := NewEditorTracker()
	tr.SetVisible([]protocol.DocumentURI{"file:///a.go", "file:///b.go", "file:///c.go"})
	tr.SetActive("file:///c.go")

	uri, ok := tr.NextBackgroundCandidate()
	assert.True(t, ok)
	assert.NotEqual(t, protocol.DocumentURI("file:///c.go"), uri)
}

func TestEditorTracker_NextBackgroundCandidate_RotatesOrder(t *testing.T) {
	tr := NewEditorTracker()
	tr.SetVisible([]protocol.DocumentURI{"file:///a.go", "file:///b.go"})

	first, ok := tr.NextBackgroundCandidate()
	assert.True(t, ok)

	second, ok := tr.NextBackgroundCandidate()
	assert.True(t, ok)

	assert.NotEqual(t, first, second, "rotation should advance to a different candidate")
}

func TestEditorTracker_NextBackgroundCandidate_EmptyWhenOnlyActiveVisible(t *testing.T) {
	tr := NewEditorTracker()
	tr.SetVisible([]protocol.DocumentURI{"file:///a.go"})
	tr.SetActive("file:///a.go")

	_, ok := tr.NextBackgroundCandidate()
	assert.False(t, ok)
}

func TestEditorTracker_Visible_Snapshot(t *testing.T) {
	tr := NewEditorTracker()
	tr.SetVisible([]protocol.DocumentURI{"file:///a.go", "file:///b.go"})

	got := tr.Visible()
	assert.ElementsMatch(t, []protocol.DocumentURI{"file:///a.go", "file:///b.go"}, got)
}
