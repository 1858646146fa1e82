package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxQuantity is the largest quantity a single order line can hold.
const MaxQuantity = math.MaxInt32

// OrderState is the lifecycle position of an order.
type OrderState string

const (
	OrderPending    OrderState = "pending"
	OrderProcessing OrderState = "processing"
	OrderShipped    OrderState = "shipped"
	OrderDelivered  OrderState = "delivered"
	OrderCancelled  OrderState = "cancelled"
)

var orderStates = map[OrderState]bool{
	OrderPending:    true,
	OrderProcessing: true,
	OrderShipped:    true,
	OrderDelivered:  true,
	OrderCancelled:  true,
}

// ParseOrderState accepts only the known states.
func ParseOrderState(s string) (OrderState, error) {
	state := OrderState(s)
	if !orderStates[state] {
		return "", ErrInvalidOrderState
	}
	return state, nil
}

// CanCancel reports whether the self-service cancel transition is allowed.
// Delivered is the only state that blocks it.
func (s OrderState) CanCancel() bool {
	return s != OrderDelivered
}

// OrderItem is one line of an order. UnitPrice is frozen at creation.
type OrderItem struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	OrderID   uuid.UUID       `json:"-" db:"order_id"`
	ProductID uuid.UUID       `json:"productId" db:"product_id"`
	Product   *Product        `json:"product" db:"-"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice" db:"unit_price"`
	Position  int             `json:"-" db:"position"`
}

// LineTotal is UnitPrice × Quantity.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ShippingInfo is the delivery address of an order.
type ShippingInfo struct {
	ShippingAddress1 string `json:"shippingAddress1" db:"shipping_address1"`
	ShippingAddress2 string `json:"shippingAddress2" db:"shipping_address2"`
	City             string `json:"city" db:"city"`
	Country          string `json:"country" db:"country"`
	Phone            string `json:"phone" db:"phone"`
}

type Order struct {
	ShippingInfo

	ID         uuid.UUID       `json:"id" db:"id"`
	OrderItems []*OrderItem    `json:"orderItems" db:"-"`
	TotalPrice decimal.Decimal `json:"totalPrice" db:"total_price"`
	UserID     *uuid.UUID      `json:"userId" db:"user_id"`
	User       *UserSummary    `json:"user,omitempty" db:"-"`
	State      OrderState      `json:"state" db:"state"`
	CreatedAt  time.Time       `json:"dateOrdered" db:"created_at"`
}

// OwnedBy reports whether userID owns the order. Guest orders have no owner.
func (o *Order) OwnedBy(userID uuid.UUID) bool {
	return o.UserID != nil && *o.UserID == userID
}

// CartLine is a requested product and quantity, before pricing.
type CartLine struct {
	ProductID uuid.UUID `json:"product"`
	Quantity  int       `json:"quantity"`
}

// SumLines adds up the line totals of items.
func SumLines(items []*OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
