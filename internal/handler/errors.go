// internal/handler/errors.go
package handler

import (
	"errors"
	"net/http"

	"paylink-service/internal/domain"
	"paylink-service/pkg/response"
	"paylink-service/pkg/xerrors"

	"go.uber.org/zap"
)

// writeError maps usecase errors onto the response envelope. Anything
// unrecognised is logged and reported as a 500 without its message.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		response.ValidationError(w, "Validation failed", verr.Issues)
		return
	}

	switch {
	case errors.Is(err, xerrors.ErrNotFound):
		response.ErrorWithCode(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, xerrors.ErrStepCompleted):
		response.ErrorWithCode(w, http.StatusConflict, "STEP_COMPLETED", err.Error())
	case errors.Is(err, xerrors.ErrStepDisabled):
		response.ErrorWithCode(w, http.StatusConflict, "STEP_DISABLED", err.Error())
	case errors.Is(err, xerrors.ErrInvalidTransition):
		response.ErrorWithCode(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, xerrors.ErrNoWalletToVerify):
		response.ErrorWithCode(w, http.StatusConflict, "NO_WALLET", err.Error())
	case errors.Is(err, xerrors.ErrUnauthorized):
		response.ErrorWithCode(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in to continue")
	case errors.Is(err, xerrors.ErrBuyerMismatch):
		response.ErrorWithCode(w, http.StatusForbidden, "BUYER_MISMATCH", err.Error())
	case errors.Is(err, xerrors.ErrForbidden):
		response.ErrorWithCode(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, xerrors.ErrLinkUnavailable):
		response.ErrorWithCode(w, http.StatusGone, "LINK_UNAVAILABLE", err.Error())
	case errors.Is(err, xerrors.ErrInvalidAddress):
		response.ErrorWithCode(w, http.StatusBadRequest, "INVALID_ADDRESS", err.Error())
	case errors.Is(err, xerrors.ErrUnsupportedChain):
		response.ErrorWithCode(w, http.StatusBadRequest, "UNSUPPORTED_CHAIN", err.Error())
	case errors.Is(err, xerrors.ErrInvalidKYCResult),
		errors.Is(err, xerrors.ErrInvalidRequest):
		response.ErrorWithCode(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
