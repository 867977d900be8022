package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/draftea/order-system/order-service/application"
	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/circuitbreaker"
	"github.com/draftea/order-system/shared/logging"
)

// BreakerStates reports the state of every downstream circuit breaker
type BreakerStates interface {
	Snapshot() map[string]circuitbreaker.State
}

// OrderHandlers contains order HTTP handlers
type OrderHandlers struct {
	createOrder    *application.CreateOrder
	getOrder       *application.GetOrder
	listUserOrders *application.ListUserOrders
	breakers       BreakerStates
	logger         *zap.Logger
}

// NewOrderHandlers creates new order handlers
func NewOrderHandlers(
	createOrder *application.CreateOrder,
	getOrder *application.GetOrder,
	listUserOrders *application.ListUserOrders,
	breakers BreakerStates,
	logger *zap.Logger,
) *OrderHandlers {
	return &OrderHandlers{
		createOrder:    createOrder,
		getOrder:       getOrder,
		listUserOrders: listUserOrders,
		breakers:       breakers,
		logger:         logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status   string                          `json:"status"`
	Breakers map[string]circuitbreaker.State `json:"circuit_breakers"`
}

// CreateOrder handles order creation requests
func (h *OrderHandlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd application.CreateOrderCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	response, err := h.createOrder.Execute(r.Context(), &cmd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, response)
}

// GetOrder handles order retrieval requests
func (h *OrderHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	response, err := h.getOrder.Execute(r.Context(), &application.GetOrderQuery{
		OrderID: chi.URLParam(r, "id"),
	})
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "Order not found for this order id"})
			return
		}
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// ListUserOrders handles listing the orders of a user
func (h *OrderHandlers) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	responses, err := h.listUserOrders.Execute(r.Context(), &application.ListUserOrdersQuery{
		UserID: chi.URLParam(r, "id"),
	})
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "No orders found for this user"})
			return
		}
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, responses)
}

// Health reports liveness together with the downstream breaker states
func (h *OrderHandlers) Health(w http.ResponseWriter, r *http.Request) {
	response := healthResponse{Status: "ok", Breakers: map[string]circuitbreaker.State{}}
	if h.breakers != nil {
		response.Breakers = h.breakers.Snapshot()
	}
	writeJSON(w, http.StatusOK, response)
}

// RegisterRoutes registers order routes
func (h *OrderHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/order-health", h.Health)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/{id}", h.GetOrder)
	})
	r.Get("/users/{id}/orders", h.ListUserOrders)
}

func (h *OrderHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logging.WithTrace(r.Context(), h.logger).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
		writeJSON(w, status, errorResponse{Error: http.StatusText(status)})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// StatusFor maps use case errors to HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidOrder):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrProductNotFound):
		return http.StatusUnprocessableEntity
	}

	var sagaErr *application.SagaFailedError
	if errors.As(err, &sagaErr) {
		switch sagaErr.Kind {
		case application.FailureRejected:
			return http.StatusUnprocessableEntity
		case application.FailureUnavailable:
			return http.StatusServiceUnavailable
		}
	}

	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
