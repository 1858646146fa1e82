package service

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"

	"digitronix/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mock repositories for testing

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return domain.ErrEmailTaken
	}
	for _, existing := range m.users {
		if existing.Phone == user.Phone {
			return domain.ErrPhoneTaken
		}
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	users := []*domain.User{}
	for _, user := range m.users {
		users = append(users, user)
	}
	return users, nil
}

func (m *mockUserRepository) Count(ctx context.Context) (int, error) {
	return len(m.users), nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	for email, user := range m.users {
		if user.ID == id {
			delete(m.users, email)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

type mockCategoryRepository struct {
	categories map[uuid.UUID]*domain.Category
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[uuid.UUID]*domain.Category)}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	copied := *category
	m.categories[category.ID] = &copied
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	if _, ok := m.categories[category.ID]; !ok {
		return domain.ErrCategoryNotFound
	}
	copied := *category
	m.categories[category.ID] = &copied
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.categories[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	categories := []*domain.Category{}
	for _, category := range m.categories {
		categories = append(categories, category)
	}
	return categories, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, ok := m.categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	copied := *category
	return &copied, nil
}

func (m *mockCategoryRepository) Count(ctx context.Context) (int, error) {
	return len(m.categories), nil
}

type mockProductRepository struct {
	products map[uuid.UUID]*domain.Product
	// findErr, when set, is returned by FindByID
	findErr error
	// writeErr, when set, is returned by Create and Update
	writeErr error
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uuid.UUID]*domain.Product)}
}

func (m *mockProductRepository) add(name, price string) *domain.Product {
	product := &domain.Product{
		ID:     uuid.New(),
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Images: []string{},
	}
	m.products[product.ID] = product
	return product
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	copied := *product
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	if _, ok := m.products[product.ID]; !ok {
		return domain.ErrProductNotFound
	}
	copied := *product
	m.products[product.ID] = &copied
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	product, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	copied := *product
	return &copied, nil
}

func (m *mockProductRepository) List(ctx context.Context, categoryIDs []uuid.UUID) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for _, product := range m.products {
		if len(categoryIDs) == 0 {
			products = append(products, product)
			continue
		}
		for _, id := range categoryIDs {
			if product.CategoryID == id {
				products = append(products, product)
				break
			}
		}
	}
	return products, nil
}

func (m *mockProductRepository) Search(ctx context.Context, keyword string) ([]*domain.Product, error) {
	products := []*domain.Product{}
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return products, nil
	}
	for _, product := range m.products {
		if strings.Contains(strings.ToLower(product.Name), keyword) {
			products = append(products, product)
		}
	}
	return products, nil
}

func (m *mockProductRepository) Featured(ctx context.Context) ([]*domain.Product, error) {
	products := []*domain.Product{}
	for _, product := range m.products {
		if product.IsFeatured {
			products = append(products, product)
		}
	}
	return products, nil
}

func (m *mockProductRepository) Count(ctx context.Context) (int, error) {
	return len(m.products), nil
}

func (m *mockProductRepository) RewriteImageBaseURL(ctx context.Context, baseURL string) (int64, error) {
	return 0, nil
}

type mockOrderRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
	// createErr, when set, makes Create fail without storing anything
	createErr error
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func cloneOrder(order *domain.Order) *domain.Order {
	copied := *order
	copied.OrderItems = make([]*domain.OrderItem, len(order.OrderItems))
	for i, item := range order.OrderItems {
		itemCopy := *item
		itemCopy.Product = nil
		copied.OrderItems[i] = &itemCopy
	}
	return &copied
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.orders[order.ID] = cloneOrder(order)
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

func (m *mockOrderRepository) sorted(keep func(*domain.Order) bool) []*domain.Order {
	orders := []*domain.Order{}
	for _, order := range m.orders {
		if keep(order) {
			orders = append(orders, cloneOrder(order))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders
}

func (m *mockOrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(*domain.Order) bool { return true }), nil
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sorted(func(o *domain.Order) bool { return o.OwnedBy(userID) }), nil
}

func (m *mockOrderRepository) UpdateState(ctx context.Context, id uuid.UUID, state domain.OrderState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.State = state
	return nil
}

func (m *mockOrderRepository) Cancel(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if !order.State.CanCancel() {
		return domain.ErrCancelDelivered
	}
	order.State = domain.OrderCancelled
	return nil
}

func (m *mockOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *mockOrderRepository) CountActive(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, order := range m.orders {
		if order.State != domain.OrderCancelled {
			count++
		}
	}
	return count, nil
}

func (m *mockOrderRepository) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, order := range m.orders {
		if order.State == domain.OrderDelivered {
			total = total.Add(order.TotalPrice)
		}
	}
	return total, nil
}

type mockImageStore struct {
	saved   []string
	removed []string
	err     error
}

func (m *mockImageStore) SaveImage(ctx context.Context, originalName string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	url := "http://localhost:3000/public/uploads/" + originalName
	m.saved = append(m.saved, url)
	return url, nil
}

func (m *mockImageStore) RemoveImage(ctx context.Context, url string) error {
	m.removed = append(m.removed, url)
	return nil
}
