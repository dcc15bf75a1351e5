package handler

import (
	"context"

	"commerce-assistant/pkg/admin/analytics"
	"commerce-assistant/pkg/store"
)

// AdminReporter runs one admin analytics request.
type AdminReporter interface {
	Handle(ctx context.Context, query, previous string, history []store.Turn) (*analytics.Report, error)
}

// Admin answers analytics questions. The role check happens before it is
// reached; it never runs for a non-admin.
type Admin struct {
	reports AdminReporter
}

func NewAdmin(reports AdminReporter) *Admin {
	return &Admin{reports: reports}
}

func (h *Admin) Handle(ctx context.Context, req *Request) (*Result, error) {
	report, err := h.reports.Handle(ctx, req.Message, req.PreviousUserMessage(), req.History())
	if err != nil {
		return nil, err
	}

	res := &Result{
		Answer: report.Answer,
		Type:   report.Type,
		Data:   report.Data,
	}
	if a := report.Attachment; a != nil {
		res.Attachment = &Attachment{Name: a.Name, Type: a.Type, URL: a.URL}
	}
	return res, nil
}
