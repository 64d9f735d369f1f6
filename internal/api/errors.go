package api

import (
	"errors"
	"net/http"

	"github.com/example/ec-order-engine/internal/domain/inventory"
	"github.com/example/ec-order-engine/internal/domain/order"
	"github.com/example/ec-order-engine/internal/domain/payment"
	"github.com/example/ec-order-engine/internal/logging"
	"go.uber.org/zap"
)

const genericErrorMessage = "Something went wrong. Please try again."

type errorResponse struct {
	Error       string `json:"error"`
	ProductID   string `json:"product_id,omitempty"`
	ProductName string `json:"product_name,omitempty"`
	Available   *int   `json:"available,omitempty"`
}

// writeError maps domain errors to HTTP responses. Unexpected errors never leak detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *inventory.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		available := stockErr.Available
		respondJSON(w, http.StatusBadRequest, errorResponse{
			Error:       stockErr.Error(),
			ProductID:   stockErr.ProductID,
			ProductName: stockErr.ProductName,
			Available:   &available,
		})
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, inventory.ErrProductNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, order.ErrForbidden):
		respondJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, order.ErrInvalidState),
		errors.Is(err, payment.ErrAlreadyPaid):
		respondJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrInvalidAddress),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, payment.ErrInvalidRequest):
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		logging.FromContext(r.Context(), nil).Error("request_failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: genericErrorMessage})
	}
}
