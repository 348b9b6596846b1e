package lsp

// Protocol method names, defined locally rather than relied on from
// go.lsp.dev/protocol's exported constants so the full surface in spec.md §6
// is available regardless of which subset that package happens to export.

const (
	// Lifecycle
	methodInitialize  = "initialize"
	methodInitialized = "initialized"
	methodShutdown    = "shutdown"
	methodExit        = "exit"
	methodSetTrace    = "$/setTrace"
	methodLogTrace    = "$/logTrace"
	methodCancel      = "$/cancelRequest"
	methodProgress    = "$/progress"

	// Registration
	methodClientRegisterCapability   = "client/registerCapability"
	methodClientUnregisterCapability = "client/unregisterCapability"

	// Window / workspace requests received from the server
	methodWorkspaceApplyEdit               = "workspace/applyEdit"
	methodWorkspaceConfiguration           = "workspace/configuration"
	methodWindowShowMessageRequest         = "window/showMessageRequest"
	methodWindowShowDocument                = "window/showDocument"
	methodWindowWorkDoneProgressCreate      = "window/workDoneProgress/create"
	methodWorkspaceDiagnosticRefresh        = "workspace/diagnostic/refresh"
	methodWorkspaceCodeLensRefresh          = "workspace/codeLens/refresh"
	methodWorkspaceInlayHintRefresh         = "workspace/inlayHint/refresh"
	methodWorkspaceInlineValueRefresh       = "workspace/inlineValue/refresh"
	methodWorkspaceSemanticTokensRefresh    = "workspace/semanticTokens/refresh"

	// Notifications received from the server
	methodWindowLogMessage           = "window/logMessage"
	methodWindowShowMessage          = "window/showMessage"
	methodTelemetryEvent             = "telemetry/event"
	methodTextDocumentPublishDiags   = "textDocument/publishDiagnostics"
	methodWindowWorkDoneProgressCancel = "window/workDoneProgress/cancel"

	// Document sync
	methodTextDocumentDidOpen             = "textDocument/didOpen"
	methodTextDocumentDidChange           = "textDocument/didChange"
	methodTextDocumentWillSave            = "textDocument/willSave"
	methodTextDocumentWillSaveWaitUntil   = "textDocument/willSaveWaitUntil"
	methodTextDocumentDidSave             = "textDocument/didSave"
	methodTextDocumentDidClose            = "textDocument/didClose"

	// Workspace notifications/requests
	methodWorkspaceDidChangeConfiguration    = "workspace/didChangeConfiguration"
	methodWorkspaceDidChangeWatchedFiles     = "workspace/didChangeWatchedFiles"
	methodWorkspaceDidChangeWorkspaceFolders = "workspace/didChangeWorkspaceFolders"
	methodWorkspaceExecuteCommand            = "workspace/executeCommand"
	methodWorkspaceWillCreateFiles           = "workspace/willCreateFiles"
	methodWorkspaceWillRenameFiles           = "workspace/willRenameFiles"
	methodWorkspaceWillDeleteFiles           = "workspace/willDeleteFiles"
	methodWorkspaceDidCreateFiles            = "workspace/didCreateFiles"
	methodWorkspaceDidRenameFiles            = "workspace/didRenameFiles"
	methodWorkspaceDidDeleteFiles            = "workspace/didDeleteFiles"

	// Diagnostics
	methodTextDocumentDiagnostic = "textDocument/diagnostic"
	methodWorkspaceDiagnostic    = "workspace/diagnostic"

	// Language features
	methodTextDocumentCompletion            = "textDocument/completion"
	methodCompletionItemResolve             = "completionItem/resolve"
	methodTextDocumentHover                 = "textDocument/hover"
	methodTextDocumentSignatureHelp         = "textDocument/signatureHelp"
	methodTextDocumentDeclaration           = "textDocument/declaration"
	methodTextDocumentDefinition            = "textDocument/definition"
	methodTextDocumentTypeDefinition        = "textDocument/typeDefinition"
	methodTextDocumentImplementation        = "textDocument/implementation"
	methodTextDocumentReferences            = "textDocument/references"
	methodTextDocumentDocumentHighlight     = "textDocument/documentHighlight"
	methodTextDocumentDocumentSymbol        = "textDocument/documentSymbol"
	methodWorkspaceSymbol                   = "workspace/symbol"
	methodTextDocumentCodeAction            = "textDocument/codeAction"
	methodCodeActionResolve                 = "codeAction/resolve"
	methodTextDocumentCodeLens              = "textDocument/codeLens"
	methodCodeLensResolve                   = "codeLens/resolve"
	methodTextDocumentDocumentLink          = "textDocument/documentLink"
	methodDocumentLinkResolve               = "documentLink/resolve"
	methodTextDocumentFormatting            = "textDocument/formatting"
	methodTextDocumentRangeFormatting       = "textDocument/rangeFormatting"
	methodTextDocumentOnTypeFormatting      = "textDocument/onTypeFormatting"
	methodTextDocumentRename                = "textDocument/rename"
	methodTextDocumentPrepareRename         = "textDocument/prepareRename"
	methodTextDocumentFoldingRange          = "textDocument/foldingRange"
	methodTextDocumentSelectionRange        = "textDocument/selectionRange"
	methodTextDocumentDocumentColor         = "textDocument/documentColor"
	methodTextDocumentColorPresentation     = "textDocument/colorPresentation"
	methodTextDocumentPrepareCallHierarchy  = "textDocument/prepareCallHierarchy"
	methodCallHierarchyIncomingCalls        = "callHierarchy/incomingCalls"
	methodCallHierarchyOutgoingCalls        = "callHierarchy/outgoingCalls"
	methodTextDocumentPrepareTypeHierarchy  = "textDocument/prepareTypeHierarchy"
	methodTypeHierarchySupertypes           = "typeHierarchy/supertypes"
	methodTypeHierarchySubtypes             = "typeHierarchy/subtypes"
	methodTextDocumentSemanticTokensFull    = "textDocument/semanticTokens/full"
	methodTextDocumentSemanticTokensDelta   = "textDocument/semanticTokens/full/delta"
	methodTextDocumentSemanticTokensRange   = "textDocument/semanticTokens/range"
	methodTextDocumentInlayHint             = "textDocument/inlayHint"
	methodInlayHintResolve                  = "inlayHint/resolve"
	methodTextDocumentInlineValue           = "textDocument/inlineValue"
	methodTextDocumentLinkedEditingRange    = "textDocument/linkedEditingRange"
)
