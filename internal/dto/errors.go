package dto

import (
	"errors"
	"net/http"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/apperr"
)

const internalMessage = "Internal server error"

// NewErrorResponse maps err to a status code and body. Unclassified and
// internal errors never expose their detail, and only Public ones show
// their message.
func NewErrorResponse(err error) (int, ErrorResponse) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, ErrorResponse{
			Error:   true,
			Code:    string(apperr.KindInternal),
			Message: internalMessage,
		}
	}

	msg := appErr.Message()
	switch appErr.Kind {
	case apperr.KindInternal:
		if !appErr.Public {
			msg = internalMessage
		}
	case apperr.KindValidation, apperr.KindUpstreamRejection:
		if appErr.Detail != "" {
			msg += ": " + appErr.Detail
		}
	}

	return appErr.HTTPStatus(), ErrorResponse{
		Error:   true,
		Code:    string(appErr.Kind),
		Message: msg,
	}
}
