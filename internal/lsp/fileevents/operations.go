package fileevents

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

// OperationFilters is the server's negotiated file-operation interest, one
// glob-pattern set per operation kind, from
// ServerCapabilities.Workspace.FileOperations.
type OperationFilters struct {
	WillCreate, DidCreate []protocol.FileOperationFilter
	WillRename, DidRename []protocol.FileOperationFilter
	WillDelete, DidDelete []protocol.FileOperationFilter
}

// Caller is the request-capable superset of Sender that willCreate/
// willRename/willDelete need, since they expect a WorkspaceEdit response.
type Caller interface {
	Sender
	Call(ctx context.Context, method string, params, result interface{}) error
}

// Operations dispatches the will/did file-operation notifications and
// requests (willCreateFiles, willRenameFiles and willDeleteFiles ask the
// server for an edit to apply before the operation completes; the did*
// notifications are fire-and-forget).
type Operations struct {
	conn    Caller
	logger  *zap.Logger
	filters OperationFilters
}

// NewOperations builds an Operations bridge.
func NewOperations(conn Caller, logger *zap.Logger, filters OperationFilters) *Operations {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Operations{conn: conn, logger: logger, filters: filters}
}

func anyMatches(filters []protocol.FileOperationFilter, path string) bool {
	for _, f := range filters {
		if matchGlob(f.Pattern.Glob, path) {
			return true
		}
	}
	return false
}

// WillCreate asks the server for a pre-create workspace edit, if it's
// registered interest in any of the given files. Returns nil if not.
func (o *Operations) WillCreate(ctx context.Context, files []protocol.FileCreate) (*protocol.WorkspaceEdit, error) {
	matched := filterCreates(o.filters.WillCreate, files)
	if len(matched) == 0 {
		return nil, nil
	}
	var edit protocol.WorkspaceEdit
	if err := o.conn.Call(ctx, "workspace/willCreateFiles", &protocol.CreateFilesParams{Files: matched}, &edit); err != nil {
		return nil, err
	}
	return &edit, nil
}

// DidCreate notifies the server files were created.
func (o *Operations) DidCreate(ctx context.Context, files []protocol.FileCreate) {
	matched := filterCreates(o.filters.DidCreate, files)
	if len(matched) == 0 {
		return
	}
	if err := o.conn.Notify(ctx, "workspace/didCreateFiles", &protocol.CreateFilesParams{Files: matched}); err != nil {
		o.logger.Warn("didCreateFiles failed", zap.Error(err))
	}
}

// WillRename asks the server for a pre-rename workspace edit.
func (o *Operations) WillRename(ctx context.Context, files []protocol.FileRename) (*protocol.WorkspaceEdit, error) {
	matched := filterRenames(o.filters.WillRename, files)
	if len(matched) == 0 {
		return nil, nil
	}
	var edit protocol.WorkspaceEdit
	if err := o.conn.Call(ctx, "workspace/willRenameFiles", &protocol.RenameFilesParams{Files: matched}, &edit); err != nil {
		return nil, err
	}
	return &edit, nil
}

// DidRename notifies the server files were renamed.
func (o *Operations) DidRename(ctx context.Context, files []protocol.FileRename) {
	matched := filterRenames(o.filters.DidRename, files)
	if len(matched) == 0 {
		return
	}
	if err := o.conn.Notify(ctx, "workspace/didRenameFiles", &protocol.RenameFilesParams{Files: matched}); err != nil {
		o.logger.Warn("didRenameFiles failed", zap.Error(err))
	}
}

// WillDelete asks the server for a pre-delete workspace edit.
func (o *Operations) WillDelete(ctx context.Context, files []protocol.FileDelete) (*protocol.WorkspaceEdit, error) {
	matched := filterDeletes(o.filters.WillDelete, files)
	if len(matched) == 0 {
		return nil, nil
	}
	var edit protocol.WorkspaceEdit
	if err := o.conn.Call(ctx, "workspace/willDeleteFiles", &protocol.DeleteFilesParams{Files: matched}, &edit); err != nil {
		return nil, err
	}
	return &edit, nil
}

// DidDelete notifies the server files were deleted.
func (o *Operations) DidDelete(ctx context.Context, files []protocol.FileDelete) {
	matched := filterDeletes(o.filters.DidDelete, files)
	if len(matched) == 0 {
		return
	}
	if err := o.conn.Notify(ctx, "workspace/didDeleteFiles", &protocol.DeleteFilesParams{Files: matched}); err != nil {
		o.logger.Warn("didDeleteFiles failed", zap.Error(err))
	}
}

func filterCreates(filters []protocol.FileOperationFilter, files []protocol.FileCreate) []protocol.FileCreate {
	if len(filters) == 0 {
		return nil
	}
	out := make([]protocol.FileCreate, 0, len(files))
	for _, f := range files {
		if anyMatches(filters, f.URI) {
			out = append(out, f)
		}
	}
	return out
}

func filterRenames(filters []protocol.FileOperationFilter, files []protocol.FileRename) []protocol.FileRename {
	if len(filters) == 0 {
		return nil
	}
	out := make([]protocol.FileRename, 0, len(files))
	for _, f := range files {
		if anyMatches(filters, f.NewURI) || anyMatches(filters, f.OldURI) {
			out = append(out, f)
		}
	}
	return out
}

func filterDeletes(filters []protocol.FileOperationFilter, files []protocol.FileDelete) []protocol.FileDelete {
	if len(filters) == 0 {
		return nil
	}
	out := make([]protocol.FileDelete, 0, len(files))
	for _, f := range files {
		if anyMatches(filters, f.URI) {
			out = append(out, f)
		}
	}
	return out
}
