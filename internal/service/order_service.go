package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"digitronix/internal/auth"
	"digitronix/internal/domain"
	"digitronix/internal/metrics"
	"digitronix/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var phonePattern = regexp.MustCompile(`^[0-9]{11}$`)

// CreateOrderInput is a cart plus where to ship it. UserID is honored
// only for admin callers.
type CreateOrderInput struct {
	Items    []domain.CartLine
	Shipping domain.ShippingInfo
	UserID   *uuid.UUID
}

// OrderService defines the interface for order business logic
type OrderService interface {
	Create(ctx context.Context, caller auth.Identity, in CreateOrderInput) (*domain.Order, error)
	CalculateTotal(ctx context.Context, lines []domain.CartLine) (decimal.Decimal, error)
	Get(ctx context.Context, caller auth.Identity, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
	ListByUser(ctx context.Context, caller auth.Identity, userID uuid.UUID) ([]*domain.Order, error)
	Cancel(ctx context.Context, caller auth.Identity, id uuid.UUID) error
	UpdateState(ctx context.Context, id uuid.UUID, state string) (*domain.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
	TotalSales(ctx context.Context) (decimal.Decimal, error)
}

type orderService struct {
	orders  repository.OrderRepository
	catalog CatalogLookup
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(orders repository.OrderRepository, catalog CatalogLookup, m *metrics.Metrics) OrderService {
	return &orderService{
		orders:  orders,
		catalog: catalog,
		metrics: m,
		now:     time.Now,
	}
}

func validateShipping(s domain.ShippingInfo) error {
	switch {
	case strings.TrimSpace(s.ShippingAddress1) == "":
		return domain.Validation("shippingAddress1 is required")
	case strings.TrimSpace(s.City) == "":
		return domain.Validation("city is required")
	case strings.TrimSpace(s.Country) == "":
		return domain.Validation("country is required")
	case !phonePattern.MatchString(s.Phone):
		return domain.Validation("phone must be exactly 11 digits")
	}
	return nil
}

func validateLines(lines []domain.CartLine) error {
	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return domain.Validation("item %d: product is required", i)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("item %d: %w", i, domain.ErrInvalidQuantity)
		}
		if line.Quantity > domain.MaxQuantity {
			return fmt.Errorf("item %d: %w", i, domain.ErrQuantityTooLarge)
		}
	}
	return nil
}

// priceLines resolves every line against the catalog and freezes the
// current unit price. Any unresolvable product fails the whole cart, as
// does a total too large to store.
func (s *orderService) priceLines(ctx context.Context, lines []domain.CartLine) ([]*domain.OrderItem, error) {
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	items := make([]*domain.OrderItem, 0, len(lines))
	for i, line := range lines {
		product, err := s.catalog.Product(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, &domain.OrderItem{
			ID:        uuid.New(),
			ProductID: product.ID,
			Product:   product,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
	}

	if !domain.SumLines(items).LessThan(domain.MaxOrderTotal) {
		return nil, domain.ErrOrderTotalTooLarge
	}

	return items, nil
}

// Create prices the cart from the catalog and persists the order with its
// items atomically. Non-admin callers always order for themselves.
func (s *orderService) Create(ctx context.Context, caller auth.Identity, in CreateOrderInput) (*domain.Order, error) {
	owner := in.UserID
	if !caller.IsAdmin {
		if owner != nil && *owner != caller.UserID {
			return nil, domain.ErrOrderAccessForbidden
		}
		id := caller.UserID
		owner = &id
	}

	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	if err := validateShipping(in.Shipping); err != nil {
		return nil, err
	}

	items, err := s.priceLines(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:           uuid.New(),
		ShippingInfo: in.Shipping,
		OrderItems:   items,
		TotalPrice:   domain.SumLines(items),
		UserID:       owner,
		State:        domain.OrderPending,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.metrics.OrderCreated()
	return order, nil
}

// CalculateTotal prices a cart without persisting anything.
func (s *orderService) CalculateTotal(ctx context.Context, lines []domain.CartLine) (decimal.Decimal, error) {
	items, err := s.priceLines(ctx, lines)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.SumLines(items), nil
}

func (s *orderService) Get(ctx context.Context, caller auth.Identity, id uuid.UUID) (*domain.Order, error) {
	order, err := s.findAccessible(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if err := s.populateProducts(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

func (s *orderService) findAccessible(ctx context.Context, caller auth.Identity, id uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin && !order.OwnedBy(caller.UserID) {
		return nil, domain.ErrOrderAccessForbidden
	}
	return order, nil
}

// List returns every order with its owner summary
func (s *orderService) List(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) ListByUser(ctx context.Context, caller auth.Identity, userID uuid.UUID) ([]*domain.Order, error) {
	if !caller.CanAccess(&userID) {
		return nil, domain.ErrOrderAccessForbidden
	}

	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user orders: %w", err)
	}

	if err := s.populateProducts(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// populateProducts attaches the current product to every item. Products
// deleted since the order was placed stay nil.
func (s *orderService) populateProducts(ctx context.Context, orders []*domain.Order) error {
	seen := make(map[uuid.UUID]*domain.Product)
	for _, order := range orders {
		for _, item := range order.OrderItems {
			product, ok := seen[item.ProductID]
			if !ok {
				var err error
				product, err = s.catalog.Product(ctx, item.ProductID)
				if err != nil && !errors.Is(err, domain.ErrProductNotFound) {
					return fmt.Errorf("failed to load product %s: %w", item.ProductID, err)
				}
				seen[item.ProductID] = product
			}
			item.Product = product
		}
	}
	return nil
}

// Cancel moves an order to cancelled unless it has been delivered.
func (s *orderService) Cancel(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	if _, err := s.findAccessible(ctx, caller, id); err != nil {
		return err
	}

	if err := s.orders.Cancel(ctx, id); err != nil {
		return err
	}

	s.metrics.OrderTransition(string(domain.OrderCancelled))
	return nil
}

// UpdateState sets any recognized state; unknown states are rejected.
func (s *orderService) UpdateState(ctx context.Context, id uuid.UUID, state string) (*domain.Order, error) {
	next, err := domain.ParseOrderState(strings.ToLower(strings.TrimSpace(state)))
	if err != nil {
		return nil, err
	}

	if err := s.orders.UpdateState(ctx, id, next); err != nil {
		return nil, err
	}
	s.metrics.OrderTransition(string(next))

	return s.orders.FindByID(ctx, id)
}

// Delete permanently removes an order and its items.
func (s *orderService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.orders.Delete(ctx, id)
}

// Count counts orders that are not cancelled
func (s *orderService) Count(ctx context.Context) (int, error) {
	return s.orders.CountActive(ctx)
}

// TotalSales sums delivered orders only
func (s *orderService) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	return s.orders.TotalSales(ctx)
}
