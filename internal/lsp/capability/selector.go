// Package capability implements the Capability & Registration Engine
// (component C): client capability construction, server capability
// interpretation, and dynamic register/unregister of features bound to
// document selectors.
package capability

import (
	"path/filepath"
	"strings"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
)

// Document describes the host document a selector is matched against.
type Document struct {
	URI        protocol.DocumentURI
	LanguageID string
}

// Filter is one element of a DocumentSelector: matches by language id, URI
// scheme, and/or glob pattern. A zero-valued field in the filter is a
// wildcard for that dimension.
type Filter struct {
	Language string
	Scheme   string
	Pattern  string
}

// DocumentSelector is an ordered set of filters. A document matches the
// selector if it scores > 0 against at least one filter; the match Score
// picks the best of the selector's filters, following spec.md §3.
type DocumentSelector []Filter

// Score returns 0 if no filter in the selector applies to doc, otherwise the
// highest score among filters that do. Higher scores mean a more specific
// match: an exact-language, exact-scheme, glob-matched filter outranks a
// wildcard one, mirroring how LSP clients prioritize overlapping providers.
func (s DocumentSelector) Score(doc Document) int {
	best := 0
	for _, f := range s {
		if sc := f.score(doc); sc > best {
			best = sc
		}
	}
	return best
}

// Applies reports whether the selector matches doc at all.
func (s DocumentSelector) Applies(doc Document) bool {
	return s.Score(doc) > 0
}

func (f Filter) score(doc Document) int {
	score := 0

	if f.Language != "" {
		if f.Language != doc.LanguageID {
			return 0
		}
		score += 10
	}

	scheme := string(uri.URI(doc.URI).Scheme())
	if f.Scheme != "" {
		if f.Scheme != scheme {
			return 0
		}
		score += 10
	}

	if f.Pattern != "" {
		path := uri.URI(doc.URI).Filename()
		matched, err := filepath.Match(f.Pattern, path)
		if err != nil || !matched {
			// filepath.Match doesn't understand ** the way glob patterns in
			// file watchers do; fall back to a simple suffix/basename check
			// for the common "**/*.ext" shape before giving up.
			if !matchDoubleStarGlob(f.Pattern, path) {
				return 0
			}
		}
		score += 5
	}

	if score == 0 {
		// A filter with every field empty matches everything, weakly.
		return 1
	}
	return score
}

// matchDoubleStarGlob handles the "**/*.ext" and "**/name" shapes common in
// LSP document selectors and file-watcher glob patterns, which
// path/filepath's Match doesn't support directly.
func matchDoubleStarGlob(pattern, path string) bool {
	const doubleStar = "**/"
	if !strings.Contains(pattern, doubleStar) {
		return false
	}
	suffix := pattern[strings.LastIndex(pattern, doubleStar)+len(doubleStar):]
	matched, err := filepath.Match(suffix, filepath.Base(path))
	if err == nil && matched {
		return true
	}
	return strings.HasSuffix(path, strings.TrimPrefix(suffix, "*"))
}

// Merge combines a server-provided selector with the client's default,
// per spec.md §4.3: "merge the server-provided documentSelector with the
// client's default selector." An empty server selector yields the default
// unchanged; a non-empty one is used as-is (the server selector is already
// meant to be authoritative when present).
func Merge(serverSelector, defaultSelector DocumentSelector) DocumentSelector {
	if len(serverSelector) == 0 {
		return defaultSelector
	}
	return serverSelector
}

// FromProtocol converts a protocol.DocumentSelector into ours.
func FromProtocol(sel []protocol.DocumentFilter) DocumentSelector {
	out := make(DocumentSelector, 0, len(sel))
	for _, f := range sel {
		out = append(out, Filter{
			Language: f.Language,
			Scheme:   f.Scheme,
			Pattern:  f.Pattern,
		})
	}
	return out
}

// ToProtocol converts ours into a protocol.DocumentSelector for outbound
// registration payloads.
func (s DocumentSelector) ToProtocol() []protocol.DocumentFilter {
	out := make([]protocol.DocumentFilter, 0, len(s))
	for _, f := range s {
		out = append(out, protocol.DocumentFilter{
			Language: f.Language,
			Scheme:   f.Scheme,
			Pattern:  f.Pattern,
		})
	}
	return out
}
