package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/clients/asaas"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/clients/gotrue"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/models"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services")

// Cleanup work must finish even when the caller has gone away.
const detachedTimeout = 30 * time.Second

func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), detachedTimeout)
}

// identityError classifies an auth-server failure under sentinel.
func identityError(err error, sentinel error) *apperr.Error {
	var apiErr *gotrue.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 500 {
			return apperr.UpstreamCommunication(sentinel, apiErr.Error())
		}
		return apperr.UpstreamRejection(sentinel, apiErr.Message, 0)
	}
	return apperr.UpstreamCommunication(sentinel, err.Error())
}

// gatewayError classifies a billing gateway failure under sentinel. With
// keepStatus the gateway's own status code is passed through to the caller.
func gatewayError(err error, sentinel error, keepStatus bool) *apperr.Error {
	var apiErr *asaas.APIError
	if errors.As(err, &apiErr) {
		if keepStatus {
			return apperr.UpstreamRejection(sentinel, apiErr.Description(), apiErr.StatusCode)
		}
		if apiErr.StatusCode >= 500 {
			return apperr.UpstreamCommunication(sentinel, apiErr.Description())
		}
		return apperr.UpstreamRejection(sentinel, apiErr.Description(), 0)
	}
	return apperr.UpstreamCommunication(sentinel, err.Error())
}

func recordIssue(ctx context.Context, issues IssueRecorder, kind string, userID uuid.UUID, ref, detail string) {
	ctx, cancel := detached(ctx)
	defer cancel()

	issue := &models.ReconciliationIssue{
		Kind:        kind,
		UserID:      userID,
		ExternalRef: ref,
		Detail:      detail,
	}
	if err := issues.Record(ctx, issue); err != nil {
		slog.Error("failed to record reconciliation issue",
			"action", "record_issue",
			"kind", kind,
			"user_id", userID.String(),
			"external_ref", ref,
			"error", err,
		)
	}
}

// captureInconsistency reports a cross-system inconsistency to Sentry.
func captureInconsistency(err error, workflow string, userID uuid.UUID, ref string) {
	hub := sentry.CurrentHub().Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("workflow", workflow)
		scope.SetLevel(sentry.LevelError)
		scope.SetUser(sentry.User{ID: userID.String()})
		scope.SetContext("reconciliation", sentry.Context{"external_ref": ref})
		hub.CaptureException(err)
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
