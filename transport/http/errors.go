package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletauth/core"
)

const (
	codeInvalidRequest   = "invalid_request"
	codeTokenExpired     = "token_expired"
	codeTokenInvalidated = "token_invalidated"
	codeInvalidToken     = "invalid_token"
	codeRateLimited      = "rate_limited"
	codeInternal         = "internal_error"
)

// ErrorBody is the payload of every failed request
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func statusForKind(kind core.Kind) int {
	switch kind {
	case core.KindInvalidAddress, core.KindChallengeNotFound, core.KindChallengeExpired, core.KindMessageMismatch:
		return http.StatusBadRequest
	case core.KindSignatureInvalid:
		return http.StatusUnauthorized
	case core.KindReplayDetected, core.KindWalletConflict:
		return http.StatusConflict
	case core.KindNotAuthorized, core.KindAccountDisabled:
		return http.StatusForbidden
	case core.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError maps err to its status code and stable error code and aborts the request
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrTokenExpired):
		abort(c, http.StatusUnauthorized, codeTokenExpired, "token expired", false)
		return
	case errors.Is(err, core.ErrTokenInvalidated):
		abort(c, http.StatusUnauthorized, codeTokenInvalidated, "token has been invalidated", false)
		return
	case errors.Is(err, core.ErrInvalidToken):
		abort(c, http.StatusUnauthorized, codeInvalidToken, "invalid token", false)
		return
	}

	var ce *core.Error
	if errors.As(err, &ce) {
		if ce.Kind == core.KindStorageUnavailable {
			log.Errorw("request failed", "path", c.FullPath(), "error", err)
		}
		// The cause may carry driver details, only the kind message is exposed
		abort(c, statusForKind(ce.Kind), string(ce.Kind), ce.Msg, ce.Retryable())
		return
	}

	log.Errorw("unexpected error", "path", c.FullPath(), "error", err)
	abort(c, http.StatusInternalServerError, codeInternal, "internal error", false)
}

func badRequest(c *gin.Context, err error) {
	abort(c, http.StatusBadRequest, codeInvalidRequest, "invalid request: "+err.Error(), false)
}

func abort(c *gin.Context, status int, code, message string, retryable bool) {
	c.AbortWithStatusJSON(status, ErrorBody{Error: ErrorDetail{
		Code:      code,
		Message:   message,
		Retryable: retryable,
	}})
}
