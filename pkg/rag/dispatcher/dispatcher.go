// Package dispatcher routes a classified turn to its handler. It owns the
// admin role gate, the handler deadline and the fail-soft apology.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commerce-assistant/internal/metrics"
	"commerce-assistant/internal/pkg/logger"
	"commerce-assistant/pkg/rag"
	"commerce-assistant/pkg/rag/handler"
	"commerce-assistant/pkg/rag/intent"
	"commerce-assistant/pkg/rag/response"
	"commerce-assistant/pkg/resilience"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "commerce-assistant/dispatcher"

// Dispatcher holds one handler per intent type.
type Dispatcher struct {
	handlers map[intent.Type]handler.Handler
	policy   resilience.Policy
	tracer   trace.Tracer
	logger   logger.ILogger
}

// New builds an empty dispatcher. policy bounds every handler call; retries
// belong to the dependency clients, so policy.Retries is normally zero.
func New(policy resilience.Policy, log logger.ILogger) *Dispatcher {
	if policy.Name == "" {
		policy.Name = "handler"
	}
	return &Dispatcher{
		handlers: make(map[intent.Type]handler.Handler),
		policy:   policy,
		tracer:   otel.Tracer(tracerName),
		logger:   log,
	}
}

// Register binds h to t. Unknown types are rejected.
func (d *Dispatcher) Register(t intent.Type, h handler.Handler) error {
	if !t.Valid() {
		return fmt.Errorf("register handler: unknown intent %q", t)
	}
	if h == nil {
		return fmt.Errorf("register handler: nil handler for %q", t)
	}
	d.handlers[t] = h
	return nil
}

// Validate fails when an intent type has no handler.
func (d *Dispatcher) Validate() error {
	var missing []intent.Type
	for _, t := range intent.All() {
		if _, ok := d.handlers[t]; !ok {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("no handler registered for %v", missing)
	}
	return nil
}

// Dispatch runs the handler of req.Intent. Only export failures are
// returned as errors; every other failure becomes an apology.
func (d *Dispatcher) Dispatch(ctx context.Context, req *handler.Request) (*handler.Result, error) {
	t := req.Intent.Type
	if !t.Valid() {
		t = intent.General
	}

	ctx, span := d.tracer.Start(ctx, "dispatch",
		trace.WithAttributes(
			attribute.String("session.id", req.SessionID),
			attribute.String("intent", string(t)),
			attribute.Float64("intent.confidence", req.Intent.Confidence),
		))
	defer span.End()

	// The gate reads the role from the intent type itself, never from model
	// output carried on the request.
	if role := t.RequiredRole(); role != "" && req.Role != role {
		metrics.UnauthorizedTotal.Inc()
		metrics.ChatTurnsTotal.WithLabelValues(string(t), metrics.OutcomeDenied).Inc()
		d.logger.Warn("Dispatcher", "admin intent refused", map[string]interface{}{
			"session_id": req.SessionID,
			"user_id":    req.UserID,
			"role":       req.Role,
			"intent":     t,
		})
		span.SetAttributes(attribute.Bool("unauthorized", true))
		return &handler.Result{
			Answer: response.Unauthorized,
			Intent: t,
			Type:   handler.TypeUnauthorized,
		}, nil
	}

	h, ok := d.handlers[t]
	if !ok {
		d.logger.Error("Dispatcher", "no handler for intent", map[string]interface{}{"intent": t})
		return d.apology(t), nil
	}

	start := time.Now()
	res, err := resilience.Do(ctx, d.policy, nil, func(ctx context.Context) (*handler.Result, error) {
		out, err := h.Handle(ctx, req)
		if err != nil && !retryable(err) {
			return nil, resilience.Permanent(err)
		}
		return out, err
	})
	metrics.ChatTurnDuration.WithLabelValues(string(t)).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		details := map[string]interface{}{
			"session_id": req.SessionID,
			"intent":     t,
			"stage":      "handle",
			"error":      err.Error(),
		}
		switch {
		case errors.Is(err, rag.ErrExport):
			span.SetStatus(codes.Error, "export failed")
			metrics.ChatTurnsTotal.WithLabelValues(string(t), metrics.OutcomeError).Inc()
			d.logger.Error("Dispatcher", "export failed", details)
			return nil, err
		case errors.Is(err, rag.ErrUnresolvedEntity):
			metrics.ChatTurnsTotal.WithLabelValues(string(t), metrics.OutcomeOK).Inc()
			d.logger.Info("Dispatcher", "entity not resolved, asking user", details)
			return &handler.Result{Answer: response.ProductNotFound, Intent: t, Type: handler.TypeClarify}, nil
		}
		metrics.ChatTurnsTotal.WithLabelValues(string(t), metrics.OutcomeDegraded).Inc()
		d.logger.Error("Dispatcher", "handler failed, answering with apology", details)
		return d.apology(t), nil
	}
	if res == nil {
		return d.apology(t), nil
	}

	res.Intent = t
	if len(res.SuggestedProducts) > handler.MaxSuggestedProducts {
		res.SuggestedProducts = res.SuggestedProducts[:handler.MaxSuggestedProducts]
	}
	metrics.ChatTurnsTotal.WithLabelValues(string(t), metrics.OutcomeOK).Inc()
	return res, nil
}

func (d *Dispatcher) apology(t intent.Type) *handler.Result {
	return &handler.Result{Answer: response.ErrorGeneric, Intent: t, Type: handler.TypeError}
}

// retryable reports whether a handler error may succeed on a second run.
// Only a timed out attempt qualifies; dependency clients already retried
// their own transport errors.
func retryable(err error) bool {
	return resilience.IsTimeout(err) && !errors.Is(err, rag.ErrExport)
}
