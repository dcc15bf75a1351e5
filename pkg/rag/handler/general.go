package handler

import (
	"context"

	"commerce-assistant/pkg/rag/intent"
	"commerce-assistant/pkg/rag/response"
)

// General answers with help text.
type General struct{}

func NewGeneral() *General { return &General{} }

func (h *General) Handle(_ context.Context, req *Request) (*Result, error) {
	if req.Role == intent.RoleAdmin {
		return &Result{Answer: response.AdminHelp}, nil
	}
	return &Result{Answer: response.GeneralHelp}, nil
}
