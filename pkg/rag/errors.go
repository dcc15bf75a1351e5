package rag

import "errors"

var (
	// ErrValidation rejects a request before any processing.
	ErrValidation = errors.New("invalid chat request")
	// ErrUnresolvedEntity means no product, order or customer matched. Handlers
	// answer it with a clarification.
	ErrUnresolvedEntity = errors.New("entity not resolved")
	// ErrUnauthorized is returned for admin-only work requested by a non-admin.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrExternalService wraps LLM, vector and rerank failures.
	ErrExternalService = errors.New("external service failure")
	// ErrExport is an export write failure. It is the one error that reaches
	// the caller of Chat.
	ErrExport = errors.New("export failed")
	// ErrTurnInProgress rejects an overlapping turn for the same session.
	ErrTurnInProgress = errors.New("another turn is in progress for this session")
)
