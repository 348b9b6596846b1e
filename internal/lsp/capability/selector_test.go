package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.lsp.dev/protocol"
)

func TestDocumentSelector_Applies(t *testing.T) {
	sel := DocumentSelector{
		{Language: "go", Scheme: "file"},
	}

	doc := Document{URI: protocol.DocumentURI("file:///a/b.go"), LanguageID: "go"}
	assert.True(t, sel.Applies(doc))

	other := Document{URI: protocol.DocumentURI("file:///a/b.py"), LanguageID: "python"}
	assert.False(t, sel.Applies(other))
}

func TestDocumentSelector_Score_PrefersMoreSpecific(t *testing.T) {
	broad := Filter{}
	narrow := Filter{Language: "go", Scheme: "file"}
	sel := DocumentSelector{broad, narrow}

	doc := Document{URI: protocol.DocumentURI("file:///a/b.go"), LanguageID: "go"}
	assert.Equal(t, narrow.score(doc), sel.Score(doc))
	assert.Greater(t, sel.Score(doc), broad.score(doc))
}

func TestMatchDoubleStarGlob(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"**/*.go", "/a/b/c.go", true},
		{"**/*.go", "/a/b/c.py", false},
		{"**/main.go", "/x/y/main.go", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, matchDoubleStarGlob(tc.pattern, tc.path), tc.pattern)
	}
}

func TestMerge(t *testing.T) {
	def := DocumentSelector{{Language: "go"}}
	assert.Equal(t, def, Merge(nil, def))

	server := DocumentSelector{{Language: "python"}}
	assert.Equal(t, server, Merge(server, def))
}

func TestFromProtocolToProtocolRoundtrip(t *testing.T) {
	in := []protocol.DocumentFilter{{Language: "go", Scheme: "file", Pattern: "**/*.go"}}
	sel := FromProtocol(in)
	out := sel.ToProtocol()
	assert.Equal(t, in, out)
}
