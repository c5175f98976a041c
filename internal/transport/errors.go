package transport

import (
	"errors"
	"net/http"

	"buppha/internal/domain"
	"buppha/internal/i18n"
	"buppha/internal/logger"
	"buppha/internal/middleware"
	"buppha/internal/repository"
	"buppha/internal/service"

	"go.uber.org/zap"
)

var errMissingCartSession = errors.New("cart session missing from request context")

// Responder turns service errors into localized error envelopes
type Responder struct {
	localizer *i18n.Localizer
	logger    *zap.Logger
}

func NewResponder(localizer *i18n.Localizer, logger *zap.Logger) *Responder {
	return &Responder{localizer: localizer, logger: logger}
}

func (rs *Responder) message(r *http.Request, key i18n.Key, args ...interface{}) string {
	return rs.localizer.Message(r.Header.Get("Accept-Language"), key, args...)
}

func (rs *Responder) fail(w http.ResponseWriter, r *http.Request, status int, key i18n.Key, reason string) {
	middleware.RespondWithErrorDetails(w, status, rs.message(r, key), map[string]interface{}{"reason": reason})
}

// Error maps err to a status code and a message in the caller's language.
// Anything unrecognized is logged and reported as a 500.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *service.ValidationError
	var stockErr *domain.InsufficientStockError

	switch {
	case errors.As(err, &validationErr):
		middleware.RespondWithErrorDetails(w, http.StatusBadRequest, rs.message(r, i18n.MsgValidationFailed),
			map[string]interface{}{
				"reason": "validation_failed",
				"field":  validationErr.Field,
				"rule":   validationErr.Reason,
			})
	case errors.As(err, &stockErr):
		middleware.RespondWithErrorDetails(w, http.StatusConflict,
			rs.message(r, i18n.MsgInsufficientStock, stockErr.ProductName, stockErr.Requested, stockErr.Available),
			map[string]interface{}{
				"reason":       "insufficient_stock",
				"product_id":   stockErr.ProductID.String(),
				"product_name": stockErr.ProductName,
				"requested":    stockErr.Requested,
				"available":    stockErr.Available,
			})
	case errors.Is(err, service.ErrEmptyCart):
		rs.fail(w, r, http.StatusBadRequest, i18n.MsgEmptyCart, "empty_cart")
	case errors.Is(err, repository.ErrProductNotFound):
		rs.fail(w, r, http.StatusNotFound, i18n.MsgProductNotFound, "not_found")
	case errors.Is(err, repository.ErrOrderNotFound):
		rs.fail(w, r, http.StatusNotFound, i18n.MsgOrderNotFound, "not_found")
	case errors.Is(err, repository.ErrCartItemNotFound):
		rs.fail(w, r, http.StatusNotFound, i18n.MsgCartItemNotFound, "not_found")
	case errors.Is(err, repository.ErrCategoryNotFound):
		rs.fail(w, r, http.StatusNotFound, i18n.MsgCategoryNotFound, "not_found")
	case errors.Is(err, service.ErrInvalidCredentials):
		rs.fail(w, r, http.StatusUnauthorized, i18n.MsgInvalidCredentials, "invalid_credentials")
	case errors.Is(err, service.ErrEmailTaken):
		rs.fail(w, r, http.StatusConflict, i18n.MsgEmailTaken, "email_taken")
	case errors.Is(err, service.ErrOAuthUnavailable):
		rs.fail(w, r, http.StatusServiceUnavailable, i18n.MsgOAuthUnavailable, "oauth_unavailable")
	case errors.Is(err, service.ErrOAuthState):
		rs.fail(w, r, http.StatusBadRequest, i18n.MsgOAuthFailed, "oauth_failed")
	default:
		logger.FromContext(r.Context(), rs.logger).Error("Request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		rs.fail(w, r, http.StatusInternalServerError, i18n.MsgInternal, "internal_error")
	}
}

// BadRequest reports a body that failed to decode or failed tag validation
func (rs *Responder) BadRequest(w http.ResponseWriter, r *http.Request, err error) {
	if fieldErrors := middleware.FormatValidationErrors(err); len(fieldErrors) > 0 {
		middleware.RespondWithValidationErrors(w, rs.message(r, i18n.MsgValidationFailed), fieldErrors)
		return
	}
	rs.InvalidRequest(w, r)
}

// InvalidRequest reports a request whose parameters make no sense
func (rs *Responder) InvalidRequest(w http.ResponseWriter, r *http.Request) {
	rs.fail(w, r, http.StatusBadRequest, i18n.MsgInvalidRequest, "invalid_request")
}
