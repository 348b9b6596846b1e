package lsperr

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
)

func TestClassify_Nil(t *testing.T) {
	assert.Nil(t, Classify("x/y", nil))
}

func TestClassify_ContextCancellation(t *testing.T) {
	assert.ErrorIs(t, Classify("x/y", context.Canceled), ErrCancelled)
	assert.ErrorIs(t, Classify("x/y", context.DeadlineExceeded), ErrCancelled)
}

func TestClassify_ContentModified(t *testing.T) {
	err := &jsonrpc2.Error{Code: CodeContentModified, Message: "modified"}
	assert.ErrorIs(t, Classify("textDocument/hover", err), ErrContentModified)
}

func TestClassify_ServerCancelled(t *testing.T) {
	err := &jsonrpc2.Error{Code: CodeServerCancelled, Message: "cancelled"}
	got := Classify("textDocument/diagnostic", err)

	var sc *ServerCancelledError
	require.ErrorAs(t, got, &sc)
	assert.False(t, sc.Retrigger)
}

func TestClassify_ServerCancelled_RetriggerDecodedFromData(t *testing.T) {
	data := json.RawMessage(`{"retriggerRequest":true}`)
	err := &jsonrpc2.Error{Code: CodeServerCancelled, Message: "cancelled", Data: &data}
	got := Classify("textDocument/diagnostic", err)

	var sc *ServerCancelledError
	require.ErrorAs(t, got, &sc)
	assert.True(t, sc.Retrigger)
}

func TestClassify_RequestCancelled(t *testing.T) {
	err := &jsonrpc2.Error{Code: CodeRequestCancelled, Message: "cancelled"}
	assert.ErrorIs(t, Classify("x/y", err), ErrCancelled)
}

func TestClassify_UnknownErrorWrapsAsRequestError(t *testing.T) {
	cause := errors.New("boom")
	got := Classify("textDocument/completion", cause)

	var reqErr *RequestError
	require.ErrorAs(t, got, &reqErr)
	assert.Equal(t, "textDocument/completion", reqErr.Method)
	assert.ErrorIs(t, got, cause)
}

func TestIsCancellation(t *testing.T) {
	assert.True(t, IsCancellation(ErrCancelled))
	assert.True(t, IsCancellation(context.Canceled))
	assert.True(t, IsCancellation(context.DeadlineExceeded))
	assert.False(t, IsCancellation(errors.New("other")))
}

func TestRegistrationError_Unwrap(t *testing.T) {
	cause := errors.New("rejected")
	err := &RegistrationError{ID: "1", Method: "textDocument/completion", Cause: cause}
	assert.ErrorIs(t, err, cause)
}

func TestTransportError_Unwrap(t *testing.T) {
	cause := errors.New("eof")
	err := &TransportError{Count: 3, Cause: cause}
	assert.ErrorIs(t, err, cause)
}
