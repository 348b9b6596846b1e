package pipeline

import (
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/lspkit/client/internal/lsp/capability"
)

// Set bundles one Provider per LSP language feature plus the resolve-style
// features, all sharing the same Sender/flush/middleware wiring. client.go
// builds exactly one Set per connection and feeds its Features() into the
// capability.Builder and capability.Engine.
//
// The concrete feature surface below covers the commonly exercised subset of
// the LSP 3.17 request methods; any method not named here is still fully
// supported by instantiating NewProvider directly with its method name and
// wire types; the methods below are the ones a host actually touches on
// every keystroke or navigation and so earn a named constructor.
type Set struct {
	Hover                *Provider[protocol.HoverParams, *protocol.Hover, protocol.HoverParams, *protocol.Hover]
	Definition           *Provider[protocol.DefinitionParams, []protocol.Location, protocol.DefinitionParams, []protocol.Location]
	Declaration          *Provider[protocol.DeclarationParams, []protocol.Location, protocol.DeclarationParams, []protocol.Location]
	TypeDefinition       *Provider[protocol.TypeDefinitionParams, []protocol.Location, protocol.TypeDefinitionParams, []protocol.Location]
	Implementation       *Provider[protocol.ImplementationParams, []protocol.Location, protocol.ImplementationParams, []protocol.Location]
	References           *Provider[protocol.ReferenceParams, []protocol.Location, protocol.ReferenceParams, []protocol.Location]
	DocumentHighlight    *Provider[protocol.DocumentHighlightParams, []protocol.DocumentHighlight, protocol.DocumentHighlightParams, []protocol.DocumentHighlight]
	DocumentSymbol       *Provider[protocol.DocumentSymbolParams, []protocol.DocumentSymbol, protocol.DocumentSymbolParams, []protocol.DocumentSymbol]
	Completion           *Provider[protocol.CompletionParams, *protocol.CompletionList, protocol.CompletionParams, *protocol.CompletionList]
	SignatureHelp        *Provider[protocol.SignatureHelpParams, *protocol.SignatureHelp, protocol.SignatureHelpParams, *protocol.SignatureHelp]
	CodeAction           *Provider[protocol.CodeActionParams, []protocol.CodeAction, protocol.CodeActionParams, []protocol.CodeAction]
	CodeLens             *Provider[protocol.CodeLensParams, []protocol.CodeLens, protocol.CodeLensParams, []protocol.CodeLens]
	DocumentLink         *Provider[protocol.DocumentLinkParams, []protocol.DocumentLink, protocol.DocumentLinkParams, []protocol.DocumentLink]
	Formatting           *Provider[protocol.DocumentFormattingParams, []protocol.TextEdit, protocol.DocumentFormattingParams, []protocol.TextEdit]
	RangeFormatting      *Provider[protocol.DocumentRangeFormattingParams, []protocol.TextEdit, protocol.DocumentRangeFormattingParams, []protocol.TextEdit]
	OnTypeFormatting     *Provider[protocol.DocumentOnTypeFormattingParams, []protocol.TextEdit, protocol.DocumentOnTypeFormattingParams, []protocol.TextEdit]
	Rename               *Provider[protocol.RenameParams, *protocol.WorkspaceEdit, protocol.RenameParams, *protocol.WorkspaceEdit]
	PrepareRename        *Provider[protocol.PrepareRenameParams, interface{}, protocol.PrepareRenameParams, interface{}]
	FoldingRange         *Provider[protocol.FoldingRangeParams, []protocol.FoldingRange, protocol.FoldingRangeParams, []protocol.FoldingRange]
	SelectionRange       *Provider[protocol.SelectionRangeParams, []protocol.SelectionRange, protocol.SelectionRangeParams, []protocol.SelectionRange]
	SemanticTokensFull   *Provider[protocol.SemanticTokensParams, *protocol.SemanticTokens, protocol.SemanticTokensParams, *protocol.SemanticTokens]
	SemanticTokensDelta  *Provider[protocol.SemanticTokensDeltaParams, interface{}, protocol.SemanticTokensDeltaParams, interface{}]
	SemanticTokensRange  *Provider[protocol.SemanticTokensRangeParams, *protocol.SemanticTokens, protocol.SemanticTokensRangeParams, *protocol.SemanticTokens]
	InlayHint            *Provider[protocol.InlayHintParams, []protocol.InlayHint, protocol.InlayHintParams, []protocol.InlayHint]
	InlineValue          *Provider[protocol.InlineValueParams, []interface{}, protocol.InlineValueParams, []interface{}]
	LinkedEditingRange   *Provider[protocol.LinkedEditingRangeParams, *protocol.LinkedEditingRanges, protocol.LinkedEditingRangeParams, *protocol.LinkedEditingRanges]
	WorkspaceSymbol      *Provider[protocol.WorkspaceSymbolParams, []protocol.SymbolInformation, protocol.WorkspaceSymbolParams, []protocol.SymbolInformation]
	ExecuteCommand       *Provider[protocol.ExecuteCommandParams, interface{}, protocol.ExecuteCommandParams, interface{}]

	DocumentColor     *Provider[protocol.DocumentColorParams, []protocol.ColorInformation, protocol.DocumentColorParams, []protocol.ColorInformation]
	ColorPresentation *Provider[protocol.ColorPresentationParams, []protocol.ColorPresentation, protocol.ColorPresentationParams, []protocol.ColorPresentation]

	PrepareCallHierarchy    *Provider[protocol.CallHierarchyPrepareParams, []protocol.CallHierarchyItem, protocol.CallHierarchyPrepareParams, []protocol.CallHierarchyItem]
	CallHierarchyIncoming   *Provider[protocol.CallHierarchyIncomingCallsParams, []protocol.CallHierarchyIncomingCall, protocol.CallHierarchyIncomingCallsParams, []protocol.CallHierarchyIncomingCall]
	CallHierarchyOutgoing   *Provider[protocol.CallHierarchyOutgoingCallsParams, []protocol.CallHierarchyOutgoingCall, protocol.CallHierarchyOutgoingCallsParams, []protocol.CallHierarchyOutgoingCall]
	PrepareTypeHierarchy    *Provider[protocol.TypeHierarchyPrepareParams, []protocol.TypeHierarchyItem, protocol.TypeHierarchyPrepareParams, []protocol.TypeHierarchyItem]
	TypeHierarchySupertypes *Provider[protocol.TypeHierarchySupertypesParams, []protocol.TypeHierarchyItem, protocol.TypeHierarchySupertypesParams, []protocol.TypeHierarchyItem]
	TypeHierarchySubtypes   *Provider[protocol.TypeHierarchySubtypesParams, []protocol.TypeHierarchyItem, protocol.TypeHierarchySubtypesParams, []protocol.TypeHierarchyItem]

	ResolveCompletionItem *ResolveFeature[protocol.CompletionItem]
	ResolveCodeLens       *ResolveFeature[protocol.CodeLens]
	ResolveCodeAction     *ResolveFeature[protocol.CodeAction]
	ResolveDocumentLink   *ResolveFeature[protocol.DocumentLink]
	ResolveInlayHint      *ResolveFeature[protocol.InlayHint]
}

// NewSet wires every named feature to sender, using flush to force a pending
// document-sync edit out before each request (spec.md §4.4 step 3), logger
// to record RequestFailed outcomes (spec.md §7), and mw to look up any
// host-installed middleware by its documented key. A nil logger installs a
// no-op zap.Logger.
func NewSet(sender Sender, flush FlushFunc, logger *zap.Logger, mw Middleware) *Set {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := func(_ capability.Document, v interface{}) interface{} { return v }
	_ = id

	s := &Set{}

	s.Hover = NewProvider[protocol.HoverParams, *protocol.Hover](
		"textDocument/hover", "textDocument/hover", sender, flush, logger,
		func(_ capability.Document, p protocol.HoverParams) protocol.HoverParams { return p },
		func(r *protocol.Hover) *protocol.Hover { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.Hover = &protocol.HoverClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.HoverProvider }),
	)
	if h, ok := Get[Hook[protocol.HoverParams, *protocol.Hover]](mw, "hover"); ok {
		s.Hover.WithMiddleware(h)
	}

	s.Definition = NewProvider[protocol.DefinitionParams, []protocol.Location](
		"textDocument/definition", "textDocument/definition", sender, flush, logger,
		func(_ capability.Document, p protocol.DefinitionParams) protocol.DefinitionParams { return p },
		func(r []protocol.Location) []protocol.Location { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.Definition = &protocol.DefinitionClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.DefinitionProvider }),
	)
	if h, ok := Get[Hook[protocol.DefinitionParams, []protocol.Location]](mw, "definition"); ok {
		s.Definition.WithMiddleware(h)
	}

	s.Declaration = NewProvider[protocol.DeclarationParams, []protocol.Location](
		"textDocument/declaration", "textDocument/declaration", sender, flush, logger,
		func(_ capability.Document, p protocol.DeclarationParams) protocol.DeclarationParams { return p },
		func(r []protocol.Location) []protocol.Location { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.Declaration = &protocol.DeclarationClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.DeclarationProvider }),
	)

	s.TypeDefinition = NewProvider[protocol.TypeDefinitionParams, []protocol.Location](
		"textDocument/typeDefinition", "textDocument/typeDefinition", sender, flush, logger,
		func(_ capability.Document, p protocol.TypeDefinitionParams) protocol.TypeDefinitionParams { return p },
		func(r []protocol.Location) []protocol.Location { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.TypeDefinition = &protocol.TypeDefinitionClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.TypeDefinitionProvider }),
	)

	s.Implementation = NewProvider[protocol.ImplementationParams, []protocol.Location](
		"textDocument/implementation", "textDocument/implementation", sender, flush, logger,
		func(_ capability.Document, p protocol.ImplementationParams) protocol.ImplementationParams { return p },
		func(r []protocol.Location) []protocol.Location { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.Implementation = &protocol.ImplementationClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.ImplementationProvider }),
	)

	s.References = NewProvider[protocol.ReferenceParams, []protocol.Location](
		"textDocument/references", "textDocument/references", sender, flush, logger,
		func(_ capability.Document, p protocol.ReferenceParams) protocol.ReferenceParams { return p },
		func(r []protocol.Location) []protocol.Location { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.References = &protocol.ReferenceClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.ReferencesProvider }),
	)
	if h, ok := Get[Hook[protocol.ReferenceParams, []protocol.Location]](mw, "references"); ok {
		s.References.WithMiddleware(h)
	}

	s.DocumentHighlight = NewProvider[protocol.DocumentHighlightParams, []protocol.DocumentHighlight](
		"textDocument/documentHighlight", "textDocument/documentHighlight", sender, flush, logger,
		func(_ capability.Document, p protocol.DocumentHighlightParams) protocol.DocumentHighlightParams { return p },
		func(r []protocol.DocumentHighlight) []protocol.DocumentHighlight { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.DocumentHighlight = &protocol.DocumentHighlightClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.DocumentHighlightProvider }),
	)

	s.DocumentSymbol = NewProvider[protocol.DocumentSymbolParams, []protocol.DocumentSymbol](
		"textDocument/documentSymbol", "textDocument/documentSymbol", sender, flush, logger,
		func(_ capability.Document, p protocol.DocumentSymbolParams) protocol.DocumentSymbolParams { return p },
		func(r []protocol.DocumentSymbol) []protocol.DocumentSymbol { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.DocumentSymbol = &protocol.DocumentSymbolClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.DocumentSymbolProvider }),
	)

	s.WorkspaceSymbol = NewProvider[protocol.WorkspaceSymbolParams, []protocol.SymbolInformation](
		"workspace/symbol", "workspace/symbol", sender, flush, logger,
		func(_ capability.Document, p protocol.WorkspaceSymbolParams) protocol.WorkspaceSymbolParams { return p },
		func(r []protocol.SymbolInformation) []protocol.SymbolInformation { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.Workspace.Symbol = &protocol.WorkspaceSymbolClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.WorkspaceSymbolProvider }),
	)

	s.Completion = NewProvider[protocol.CompletionParams, *protocol.CompletionList](
		"textDocument/completion", "textDocument/completion", sender, flush, logger,
		func(_ capability.Document, p protocol.CompletionParams) protocol.CompletionParams { return p },
		func(r *protocol.CompletionList) *protocol.CompletionList { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.Completion = &protocol.CompletionTextDocumentClientCapabilities{DynamicRegistration: true}
		},
		staticFromPtr(func(sc protocol.ServerCapabilities) *protocol.CompletionOptions { return sc.CompletionProvider }),
	)
	if h, ok := Get[Hook[protocol.CompletionParams, *protocol.CompletionList]](mw, "completion"); ok {
		s.Completion.WithMiddleware(h)
	}

	s.SignatureHelp = NewProvider[protocol.SignatureHelpParams, *protocol.SignatureHelp](
		"textDocument/signatureHelp", "textDocument/signatureHelp", sender, flush, logger,
		func(_ capability.Document, p protocol.SignatureHelpParams) protocol.SignatureHelpParams { return p },
		func(r *protocol.SignatureHelp) *protocol.SignatureHelp { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.SignatureHelp = &protocol.SignatureHelpClientCapabilities{DynamicRegistration: true}
		},
		staticFromPtr(func(sc protocol.ServerCapabilities) *protocol.SignatureHelpOptions { return sc.SignatureHelpProvider }),
	)

	s.CodeAction = NewProvider[protocol.CodeActionParams, []protocol.CodeAction](
		"textDocument/codeAction", "textDocument/codeAction", sender, flush, logger,
		func(_ capability.Document, p protocol.CodeActionParams) protocol.CodeActionParams { return p },
		func(r []protocol.CodeAction) []protocol.CodeAction { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.CodeAction = &protocol.CodeActionClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.CodeActionProvider }),
	)

	s.CodeLens = NewProvider[protocol.CodeLensParams, []protocol.CodeLens](
		"textDocument/codeLens", "textDocument/codeLens", sender, flush, logger,
		func(_ capability.Document, p protocol.CodeLensParams) protocol.CodeLensParams { return p },
		func(r []protocol.CodeLens) []protocol.CodeLens { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.CodeLens = &protocol.CodeLensClientCapabilities{DynamicRegistration: true}
		},
		staticFromPtr(func(sc protocol.ServerCapabilities) *protocol.CodeLensOptions { return sc.CodeLensProvider }),
	)

	s.DocumentLink = NewProvider[protocol.DocumentLinkParams, []protocol.DocumentLink](
		"textDocument/documentLink", "textDocument/documentLink", sender, flush, logger,
		func(_ capability.Document, p protocol.DocumentLinkParams) protocol.DocumentLinkParams { return p },
		func(r []protocol.DocumentLink) []protocol.DocumentLink { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.DocumentLink = &protocol.DocumentLinkClientCapabilities{DynamicRegistration: true}
		},
		staticFromPtr(func(sc protocol.ServerCapabilities) *protocol.DocumentLinkOptions { return sc.DocumentLinkProvider }),
	)

	s.Formatting = NewProvider[protocol.DocumentFormattingParams, []protocol.TextEdit](
		"textDocument/formatting", "textDocument/formatting", sender, flush, logger,
		func(_ capability.Document, p protocol.DocumentFormattingParams) protocol.DocumentFormattingParams { return p },
		func(r []protocol.TextEdit) []protocol.TextEdit { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.Formatting = &protocol.DocumentFormattingClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.DocumentFormattingProvider }),
	)

	s.RangeFormatting = NewProvider[protocol.DocumentRangeFormattingParams, []protocol.TextEdit](
		"textDocument/rangeFormatting", "textDocument/rangeFormatting", sender, flush, logger,
		func(_ capability.Document, p protocol.DocumentRangeFormattingParams) protocol.DocumentRangeFormattingParams {
			return p
		},
		func(r []protocol.TextEdit) []protocol.TextEdit { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.RangeFormatting = &protocol.DocumentRangeFormattingClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.DocumentRangeFormattingProvider }),
	)

	s.OnTypeFormatting = NewProvider[protocol.DocumentOnTypeFormattingParams, []protocol.TextEdit](
		"textDocument/onTypeFormatting", "textDocument/onTypeFormatting", sender, flush, logger,
		func(_ capability.Document, p protocol.DocumentOnTypeFormattingParams) protocol.DocumentOnTypeFormattingParams {
			return p
		},
		func(r []protocol.TextEdit) []protocol.TextEdit { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.OnTypeFormatting = &protocol.DocumentOnTypeFormattingClientCapabilities{DynamicRegistration: true}
		},
		staticFromPtr(func(sc protocol.ServerCapabilities) *protocol.DocumentOnTypeFormattingOptions {
			return sc.DocumentOnTypeFormattingProvider
		}),
	)

	s.Rename = NewProvider[protocol.RenameParams, *protocol.WorkspaceEdit](
		"textDocument/rename", "textDocument/rename", sender, flush, logger,
		func(_ capability.Document, p protocol.RenameParams) protocol.RenameParams { return p },
		func(r *protocol.WorkspaceEdit) *protocol.WorkspaceEdit { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.Rename = &protocol.RenameClientCapabilities{DynamicRegistration: true, PrepareSupport: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.RenameProvider }),
	)

	s.PrepareRename = NewProvider[protocol.PrepareRenameParams, interface{}](
		"textDocument/prepareRename", "textDocument/rename", sender, flush, logger,
		func(_ capability.Document, p protocol.PrepareRenameParams) protocol.PrepareRenameParams { return p },
		func(r interface{}) interface{} { return r },
		nil, nil,
	)
	s.PrepareRename.registry = s.Rename.registry
	s.PrepareRename.pipe.Registry = s.Rename.registry

	s.FoldingRange = NewProvider[protocol.FoldingRangeParams, []protocol.FoldingRange](
		"textDocument/foldingRange", "textDocument/foldingRange", sender, flush, logger,
		func(_ capability.Document, p protocol.FoldingRangeParams) protocol.FoldingRangeParams { return p },
		func(r []protocol.FoldingRange) []protocol.FoldingRange { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.FoldingRange = &protocol.FoldingRangeClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.FoldingRangeProvider }),
	)

	s.SelectionRange = NewProvider[protocol.SelectionRangeParams, []protocol.SelectionRange](
		"textDocument/selectionRange", "textDocument/selectionRange", sender, flush, logger,
		func(_ capability.Document, p protocol.SelectionRangeParams) protocol.SelectionRangeParams { return p },
		func(r []protocol.SelectionRange) []protocol.SelectionRange { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.SelectionRange = &protocol.SelectionRangeClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.SelectionRangeProvider }),
	)

	s.SemanticTokensFull = NewProvider[protocol.SemanticTokensParams, *protocol.SemanticTokens](
		"textDocument/semanticTokens/full", "textDocument/semanticTokens", sender, flush, logger,
		func(_ capability.Document, p protocol.SemanticTokensParams) protocol.SemanticTokensParams { return p },
		func(r *protocol.SemanticTokens) *protocol.SemanticTokens { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.SemanticTokens = &protocol.SemanticTokensClientCapabilities{DynamicRegistration: true}
		},
		staticFromPtr(func(sc protocol.ServerCapabilities) *protocol.SemanticTokensOptions { return sc.SemanticTokensProvider }),
	)

	s.SemanticTokensDelta = NewProvider[protocol.SemanticTokensDeltaParams, interface{}](
		"textDocument/semanticTokens/full/delta", "textDocument/semanticTokens", sender, flush, logger,
		func(_ capability.Document, p protocol.SemanticTokensDeltaParams) protocol.SemanticTokensDeltaParams { return p },
		func(r interface{}) interface{} { return r },
		nil, nil,
	)
	s.SemanticTokensDelta.registry = s.SemanticTokensFull.registry
	s.SemanticTokensDelta.pipe.Registry = s.SemanticTokensFull.registry

	s.SemanticTokensRange = NewProvider[protocol.SemanticTokensRangeParams, *protocol.SemanticTokens](
		"textDocument/semanticTokens/range", "textDocument/semanticTokens", sender, flush, logger,
		func(_ capability.Document, p protocol.SemanticTokensRangeParams) protocol.SemanticTokensRangeParams { return p },
		func(r *protocol.SemanticTokens) *protocol.SemanticTokens { return r },
		nil, nil,
	)
	s.SemanticTokensRange.registry = s.SemanticTokensFull.registry
	s.SemanticTokensRange.pipe.Registry = s.SemanticTokensFull.registry

	s.InlayHint = NewProvider[protocol.InlayHintParams, []protocol.InlayHint](
		"textDocument/inlayHint", "textDocument/inlayHint", sender, flush, logger,
		func(_ capability.Document, p protocol.InlayHintParams) protocol.InlayHintParams { return p },
		func(r []protocol.InlayHint) []protocol.InlayHint { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.InlayHint = &protocol.InlayHintClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.InlayHintProvider }),
	)

	s.LinkedEditingRange = NewProvider[protocol.LinkedEditingRangeParams, *protocol.LinkedEditingRanges](
		"textDocument/linkedEditingRange", "textDocument/linkedEditingRange", sender, flush, logger,
		func(_ capability.Document, p protocol.LinkedEditingRangeParams) protocol.LinkedEditingRangeParams { return p },
		func(r *protocol.LinkedEditingRanges) *protocol.LinkedEditingRanges { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.LinkedEditingRange = &protocol.LinkedEditingRangeClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.LinkedEditingRangeProvider }),
	)

	s.ExecuteCommand = NewProvider[protocol.ExecuteCommandParams, interface{}](
		"workspace/executeCommand", "workspace/executeCommand", sender, flush, logger,
		func(_ capability.Document, p protocol.ExecuteCommandParams) protocol.ExecuteCommandParams { return p },
		func(r interface{}) interface{} { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.Workspace.ExecuteCommand = &protocol.ExecuteCommandClientCapabilities{DynamicRegistration: true}
		},
		staticFromPtr(func(sc protocol.ServerCapabilities) *protocol.ExecuteCommandOptions { return sc.ExecuteCommandProvider }),
	)

	s.DocumentColor = NewProvider[protocol.DocumentColorParams, []protocol.ColorInformation](
		"textDocument/documentColor", "textDocument/documentColor", sender, flush, logger,
		func(_ capability.Document, p protocol.DocumentColorParams) protocol.DocumentColorParams { return p },
		func(r []protocol.ColorInformation) []protocol.ColorInformation { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.ColorProvider = &protocol.DocumentColorClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.ColorProvider }),
	)

	s.ColorPresentation = NewProvider[protocol.ColorPresentationParams, []protocol.ColorPresentation](
		"textDocument/colorPresentation", "textDocument/documentColor", sender, flush, logger,
		func(_ capability.Document, p protocol.ColorPresentationParams) protocol.ColorPresentationParams { return p },
		func(r []protocol.ColorPresentation) []protocol.ColorPresentation { return r },
		nil, nil,
	)
	s.ColorPresentation.registry = s.DocumentColor.registry
	s.ColorPresentation.pipe.Registry = s.DocumentColor.registry

	s.PrepareCallHierarchy = NewProvider[protocol.CallHierarchyPrepareParams, []protocol.CallHierarchyItem](
		"textDocument/prepareCallHierarchy", "textDocument/prepareCallHierarchy", sender, flush, logger,
		func(_ capability.Document, p protocol.CallHierarchyPrepareParams) protocol.CallHierarchyPrepareParams { return p },
		func(r []protocol.CallHierarchyItem) []protocol.CallHierarchyItem { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.CallHierarchy = &protocol.CallHierarchyClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.CallHierarchyProvider }),
	)

	s.CallHierarchyIncoming = NewProvider[protocol.CallHierarchyIncomingCallsParams, []protocol.CallHierarchyIncomingCall](
		"callHierarchy/incomingCalls", "textDocument/prepareCallHierarchy", sender, flush, logger,
		func(_ capability.Document, p protocol.CallHierarchyIncomingCallsParams) protocol.CallHierarchyIncomingCallsParams { return p },
		func(r []protocol.CallHierarchyIncomingCall) []protocol.CallHierarchyIncomingCall { return r },
		nil, nil,
	)
	s.CallHierarchyIncoming.registry = s.PrepareCallHierarchy.registry
	s.CallHierarchyIncoming.pipe.Registry = s.PrepareCallHierarchy.registry

	s.CallHierarchyOutgoing = NewProvider[protocol.CallHierarchyOutgoingCallsParams, []protocol.CallHierarchyOutgoingCall](
		"callHierarchy/outgoingCalls", "textDocument/prepareCallHierarchy", sender, flush, logger,
		func(_ capability.Document, p protocol.CallHierarchyOutgoingCallsParams) protocol.CallHierarchyOutgoingCallsParams { return p },
		func(r []protocol.CallHierarchyOutgoingCall) []protocol.CallHierarchyOutgoingCall { return r },
		nil, nil,
	)
	s.CallHierarchyOutgoing.registry = s.PrepareCallHierarchy.registry
	s.CallHierarchyOutgoing.pipe.Registry = s.PrepareCallHierarchy.registry

	s.PrepareTypeHierarchy = NewProvider[protocol.TypeHierarchyPrepareParams, []protocol.TypeHierarchyItem](
		"textDocument/prepareTypeHierarchy", "textDocument/prepareTypeHierarchy", sender, flush, logger,
		func(_ capability.Document, p protocol.TypeHierarchyPrepareParams) protocol.TypeHierarchyPrepareParams { return p },
		func(r []protocol.TypeHierarchyItem) []protocol.TypeHierarchyItem { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.TypeHierarchy = &protocol.TypeHierarchyClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.TypeHierarchyProvider }),
	)

	s.TypeHierarchySupertypes = NewProvider[protocol.TypeHierarchySupertypesParams, []protocol.TypeHierarchyItem](
		"typeHierarchy/supertypes", "textDocument/prepareTypeHierarchy", sender, flush, logger,
		func(_ capability.Document, p protocol.TypeHierarchySupertypesParams) protocol.TypeHierarchySupertypesParams { return p },
		func(r []protocol.TypeHierarchyItem) []protocol.TypeHierarchyItem { return r },
		nil, nil,
	)
	s.TypeHierarchySupertypes.registry = s.PrepareTypeHierarchy.registry
	s.TypeHierarchySupertypes.pipe.Registry = s.PrepareTypeHierarchy.registry

	s.TypeHierarchySubtypes = NewProvider[protocol.TypeHierarchySubtypesParams, []protocol.TypeHierarchyItem](
		"typeHierarchy/subtypes", "textDocument/prepareTypeHierarchy", sender, flush, logger,
		func(_ capability.Document, p protocol.TypeHierarchySubtypesParams) protocol.TypeHierarchySubtypesParams { return p },
		func(r []protocol.TypeHierarchyItem) []protocol.TypeHierarchyItem { return r },
		nil, nil,
	)
	s.TypeHierarchySubtypes.registry = s.PrepareTypeHierarchy.registry
	s.TypeHierarchySubtypes.pipe.Registry = s.PrepareTypeHierarchy.registry

	s.InlineValue = NewProvider[protocol.InlineValueParams, []interface{}](
		"textDocument/inlineValue", "textDocument/inlineValue", sender, flush, logger,
		func(_ capability.Document, p protocol.InlineValueParams) protocol.InlineValueParams { return p },
		func(r []interface{}) []interface{} { return r },
		func(caps *protocol.ClientCapabilities) {
			caps.TextDocument.InlineValue = &protocol.InlineValueClientCapabilities{DynamicRegistration: true}
		},
		staticFromField(func(sc protocol.ServerCapabilities) interface{} { return sc.InlineValueProvider }),
	)

	s.ResolveCompletionItem = &ResolveFeature[protocol.CompletionItem]{Method: "completionItem/resolve", Sender: sender, Logger: logger}
	s.ResolveCodeLens = &ResolveFeature[protocol.CodeLens]{Method: "codeLens/resolve", Sender: sender, Logger: logger}
	s.ResolveCodeAction = &ResolveFeature[protocol.CodeAction]{Method: "codeAction/resolve", Sender: sender, Logger: logger}
	s.ResolveDocumentLink = &ResolveFeature[protocol.DocumentLink]{Method: "documentLink/resolve", Sender: sender, Logger: logger}
	s.ResolveInlayHint = &ResolveFeature[protocol.InlayHint]{Method: "inlayHint/resolve", Sender: sender, Logger: logger}

	return s
}

// Features returns every dynamic feature in the set, in a stable order, for
// registration with capability.Builder/Engine.
func (s *Set) Features() []capability.DynamicFeature {
	return []capability.DynamicFeature{
		s.Hover, s.Definition, s.Declaration, s.TypeDefinition, s.Implementation,
		s.References, s.DocumentHighlight, s.DocumentSymbol, s.WorkspaceSymbol,
		s.Completion, s.SignatureHelp, s.CodeAction, s.CodeLens, s.DocumentLink,
		s.Formatting, s.RangeFormatting, s.OnTypeFormatting, s.Rename,
		s.FoldingRange, s.SelectionRange, s.SemanticTokensFull, s.InlayHint,
		s.InlineValue, s.LinkedEditingRange, s.ExecuteCommand, s.DocumentColor,
		s.PrepareCallHierarchy, s.PrepareTypeHierarchy,
	}
}
