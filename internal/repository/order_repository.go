package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"digitronix/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderRepository persists orders together with the items they own.
type OrderRepository interface {
	// Create writes the order and all of its items in one transaction.
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	UpdateState(ctx context.Context, id uuid.UUID, state domain.OrderState) error
	// Cancel moves the order to cancelled unless it is delivered.
	Cancel(ctx context.Context, id uuid.UUID) error
	// Delete removes the order and its items in one transaction.
	Delete(ctx context.Context, id uuid.UUID) error
	CountActive(ctx context.Context) (int, error)
	TotalSales(ctx context.Context) (decimal.Decimal, error)
}

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderSelect = `
	SELECT o.id, o.shipping_address1, o.shipping_address2, o.city, o.country, o.phone,
	       o.total_price, o.user_id, o.state, o.created_at, u.name, u.email
	FROM orders o
	LEFT JOIN users u ON u.id = o.user_id
`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (id, shipping_address1, shipping_address2, city, country, phone,
				total_price, user_id, state, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			order.ID,
			order.ShippingAddress1,
			order.ShippingAddress2,
			order.City,
			order.Country,
			order.Phone,
			order.TotalPrice,
			order.UserID,
			string(order.State),
			order.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		for i, item := range order.OrderItems {
			item.OrderID = order.ID
			item.Position = i
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, position)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				item.ID,
				item.OrderID,
				item.ProductID,
				item.Quantity,
				item.UnitPrice,
				item.Position,
			)
			if err != nil {
				return fmt.Errorf("failed to create order item %d: %w", i, err)
			}
		}

		return nil
	})
}

func scanOrder(row scanner) (*domain.Order, error) {
	order := &domain.Order{}
	var (
		userID    uuid.NullUUID
		state     string
		userName  sql.NullString
		userEmail sql.NullString
	)

	err := row.Scan(
		&order.ID,
		&order.ShippingAddress1,
		&order.ShippingAddress2,
		&order.City,
		&order.Country,
		&order.Phone,
		&order.TotalPrice,
		&userID,
		&state,
		&order.CreatedAt,
		&userName,
		&userEmail,
	)
	if err != nil {
		return nil, err
	}

	order.State = domain.OrderState(state)
	order.OrderItems = []*domain.OrderItem{}
	if userID.Valid {
		id := userID.UUID
		order.UserID = &id
		if userName.Valid {
			order.User = &domain.UserSummary{ID: id, Name: userName.String, Email: userEmail.String}
		}
	}

	return order, nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, orderSelect+` WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	if err := r.attachItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// List returns every order, newest first
func (r *orderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.queryOrders(ctx, orderSelect+` ORDER BY o.created_at DESC`)
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return r.queryOrders(ctx, orderSelect+` WHERE o.user_id = $1 ORDER BY o.created_at DESC`, userID)
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...interface{}) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// attachItems loads the items of all given orders in one query, keeping
// their insertion order.
func (r *orderRepository) attachItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	ids := make([]uuid.UUID, 0, len(orders))
	for _, order := range orders {
		byID[order.ID] = order
		ids = append(ids, order.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, position
		FROM order_items
		WHERE order_id = ANY($1::uuid[])
		ORDER BY order_id, position`,
		uuidStrings(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item := &domain.OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.Position); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if order, ok := byID[item.OrderID]; ok {
			order.OrderItems = append(order.OrderItems, item)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}

func (r *orderRepository) UpdateState(ctx context.Context, id uuid.UUID, state domain.OrderState) error {
	result, err := r.db.ExecContext(ctx, `UPDATE orders SET state = $2 WHERE id = $1`, id, string(state))
	if err != nil {
		return fmt.Errorf("failed to update order state: %w", err)
	}

	return expectOneRow(result, domain.ErrOrderNotFound)
}

// Cancel is a single conditional update so a concurrent delivery cannot be
// overwritten between the check and the write.
func (r *orderRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET state = $2 WHERE id = $1 AND state <> $3`,
		id, string(domain.OrderCancelled), string(domain.OrderDelivered),
	)
	if err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 1 {
		return nil
	}

	var state string
	err = r.db.QueryRowContext(ctx, `SELECT state FROM orders WHERE id = $1`, id).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read order state: %w", err)
	}

	return domain.ErrCancelDelivered
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}

		return expectOneRow(result, domain.ErrOrderNotFound)
	})
}

// CountActive counts every order that is not cancelled
func (r *orderRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE state <> $1`, string(domain.OrderCancelled),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// TotalSales sums the totals of delivered orders only
func (r *orderRepository) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total_price), 0) FROM orders WHERE state = $1`, string(domain.OrderDelivered),
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum sales: %w", err)
	}
	return total, nil
}
