package transport

import (
	"net/http"

	"digitronix/internal/auth"
	"digitronix/internal/domain"
	"digitronix/internal/middleware"
	"digitronix/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartLineRequest is one requested product. Prices are never taken from
// the client.
type CartLineRequest struct {
	Product  uuid.UUID `json:"product" validate:"required"`
	Quantity int       `json:"quantity"`
}

// CreateOrderRequest represents the order placement payload
type CreateOrderRequest struct {
	OrderItems       []CartLineRequest `json:"orderItems" validate:"dive"`
	ShippingAddress1 string            `json:"shippingAddress1"`
	ShippingAddress2 string            `json:"shippingAddress2"`
	City             string            `json:"city"`
	Country          string            `json:"country"`
	Phone            string            `json:"phone"`
	User             *uuid.UUID        `json:"user"`
}

// CalculateTotalRequest prices a cart without placing it
type CalculateTotalRequest struct {
	CartItems []CartLineRequest `json:"cartItems" validate:"dive"`
}

// UpdateStateRequest represents the admin state change payload
type UpdateStateRequest struct {
	State string `json:"state" validate:"required"`
}

// OrderResponse wraps an order returned by a mutation.
type OrderResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

func cartLines(lines []CartLineRequest) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, domain.CartLine{ProductID: line.Product, Quantity: line.Quantity})
	}
	return out
}

// OrderHandler handles HTTP requests for orders
type OrderHandler struct {
	orders service.OrderService
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, logger: logger}
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	var req CreateOrderRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	order, err := h.orders.Create(r.Context(), caller, service.CreateOrderInput{
		Items: cartLines(req.OrderItems),
		Shipping: domain.ShippingInfo{
			ShippingAddress1: req.ShippingAddress1,
			ShippingAddress2: req.ShippingAddress2,
			City:             req.City,
			Country:          req.Country,
			Phone:            req.Phone,
		},
		UserID: req.User,
	})
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("caller_id", caller.UserID.String()),
		zap.String("total", order.TotalPrice.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) CalculateTotal(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
	var req CalculateTotalRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	total, err := h.orders.CalculateTotal(r.Context(), cartLines(req.CartItems))
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]decimal.Decimal{"total": total})
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	order, err := h.orders.Get(r.Context(), caller, id)
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) ListByUser(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	userID, err := pathID(r, "userid")
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	orders, err := h.orders.ListByUser(r.Context(), caller, userID)
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// Cancel moves the order to cancelled unless it was already delivered.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	if err := h.orders.Cancel(r.Context(), caller, id); err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Order cancelled", zap.String("order_id", id.String()))
	respondMessage(w, "order cancelled")
}

func (h *OrderHandler) UpdateState(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	var req UpdateStateRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	order, err := h.orders.UpdateState(r.Context(), id, req.State)
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Order state updated",
		zap.String("order_id", id.String()),
		zap.String("state", string(order.State)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, OrderResponse{
		Success: true,
		Message: "order state updated",
		Order:   order,
	})
}

// Delete removes the order and its items permanently.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	if err := h.orders.Delete(r.Context(), id); err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Order deleted", zap.String("order_id", id.String()))
	respondMessage(w, "order deleted permanently")
}

func (h *OrderHandler) TotalSales(w http.ResponseWriter, r *http.Request) {
	total, err := h.orders.TotalSales(r.Context())
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]decimal.Decimal{"totalSales": total})
}

func (h *OrderHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.orders.Count(r.Context())
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]int{"orderCount": count})
}
