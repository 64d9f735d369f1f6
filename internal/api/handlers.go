package api

import (
	"encoding/json"
	"net/http"

	"github.com/example/ec-order-engine/internal/api/middleware"
	"github.com/example/ec-order-engine/internal/command"
	"github.com/example/ec-order-engine/internal/domain/payment"
	"github.com/example/ec-order-engine/internal/model"
	"github.com/example/ec-order-engine/internal/query"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	paymentSvc   *payment.Service
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, paymentSvc *payment.Service) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		paymentSvc:   paymentSvc,
	}
}

type placeOrderRequest struct {
	StreetAddress string `json:"streetAddress"`
	City          string `json:"city"`
	State         string `json:"state"`
	Pincode       string `json:"pincode"`
	Phone         string `json:"phone"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type createPaymentRequest struct {
	OrderID string `json:"orderId"`
}

// Order Handlers

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if !decode(w, r, &req) {
		return
	}

	claims, _ := middleware.GetUserFromContext(r.Context())
	cmd := command.PlaceOrder{
		OwnerID:    claims.UserID,
		OwnerEmail: claims.Email,
		Address: model.Address{
			Street:     req.StreetAddress,
			City:       req.City,
			Region:     req.State,
			PostalCode: req.Pincode,
			Phone:      req.Phone,
		},
	}

	o, err := h.cmdHandler.PlaceOrder(r.Context(), cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, query.NewOrderReadModel(o))
}

func (h *Handlers) GetMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queryHandler.GetMyOrders(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.queryHandler.GetOrderByID(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	cmd := command.CancelOrder{
		OwnerID: middleware.GetUserID(r.Context()),
		OrderID: r.PathValue("id"),
	}
	o, err := h.cmdHandler.CancelOrder(r.Context(), cmd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, query.NewOrderReadModel(o))
}

// Admin Handlers

func (h *Handlers) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queryHandler.GetAllOrders(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decode(w, r, &req) {
		return
	}

	o, err := h.cmdHandler.UpdateOrderStatus(r.Context(), command.UpdateOrderStatus{
		OrderID: r.PathValue("id"),
		Status:  req.Status,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, query.NewOrderReadModel(o))
}

// Payment Handlers

func (h *Handlers) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if !decode(w, r, &req) {
		return
	}
	if req.OrderID == "" {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "orderId is required"})
		return
	}

	intent, err := h.paymentSvc.CreatePaymentIntent(r.Context(), middleware.GetUserID(r.Context()), req.OrderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, intent)
}

func (h *Handlers) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req payment.VerifyRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := h.paymentSvc.VerifyPayment(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	respondJSON(w, status, result)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
