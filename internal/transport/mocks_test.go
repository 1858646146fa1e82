package transport

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"digitronix/internal/auth"
	"digitronix/internal/domain"
	"digitronix/internal/middleware"
	"digitronix/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const testSecret = "transport-test-secret"

// Mock user repository backing a real UserService

type mockUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.Email]; exists {
		return domain.ErrEmailTaken
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, exists := m.users[email]; exists {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := []*domain.User{}
	for _, user := range m.users {
		users = append(users, user)
	}
	return users, nil
}

func (m *mockUserRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, user := range m.users {
		if user.ID == id {
			delete(m.users, email)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

// stubCatalog records what reached the service layer.
type stubCatalog struct {
	mu         sync.Mutex
	calls      int
	lastInput  service.ProductInput
	lastImage  []byte
	lastName   string
	categories []uuid.UUID
	products   []*domain.Product
}

func (s *stubCatalog) record() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *stubCatalog) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubCatalog) ListProducts(ctx context.Context, categoryIDs []uuid.UUID) ([]*domain.Product, error) {
	s.record()
	s.categories = categoryIDs
	if s.products == nil {
		return []*domain.Product{}, nil
	}
	return s.products, nil
}

func (s *stubCatalog) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	s.record()
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (s *stubCatalog) SearchProducts(ctx context.Context, keyword string) ([]*domain.Product, error) {
	s.record()
	return []*domain.Product{}, nil
}

func (s *stubCatalog) FeaturedProducts(ctx context.Context) ([]*domain.Product, error) {
	s.record()
	return []*domain.Product{}, nil
}

func (s *stubCatalog) CountProducts(ctx context.Context) (int, error) {
	s.record()
	return len(s.products), nil
}

func (s *stubCatalog) CreateProduct(ctx context.Context, in service.ProductInput, image *service.ImageUpload) (*domain.Product, error) {
	s.record()
	s.lastInput = in
	if image == nil {
		return nil, domain.ErrImageRequired
	}
	data, err := io.ReadAll(image.Content)
	if err != nil {
		return nil, err
	}
	s.lastImage = data
	s.lastName = image.Filename
	return &domain.Product{
		ID:         uuid.New(),
		Name:       in.Name,
		Price:      in.Price,
		CategoryID: in.CategoryID,
		Image:      "http://localhost:3000/public/uploads/" + image.Filename,
		Images:     []string{},
	}, nil
}

func (s *stubCatalog) UpdateProduct(ctx context.Context, id uuid.UUID, in service.ProductInput, image *service.ImageUpload) (*domain.Product, error) {
	s.record()
	s.lastInput = in
	s.lastName = ""
	if image != nil {
		s.lastName = image.Filename
	}
	return &domain.Product{ID: id, Name: in.Name, Price: in.Price, Images: []string{}}, nil
}

func (s *stubCatalog) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	s.record()
	return nil
}

func (s *stubCatalog) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	s.record()
	return []*domain.Category{}, nil
}

func (s *stubCatalog) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	s.record()
	return nil, domain.ErrCategoryNotFound
}

func (s *stubCatalog) CountCategories(ctx context.Context) (int, error) {
	s.record()
	return 3, nil
}

func (s *stubCatalog) CreateCategory(ctx context.Context, name string, image *service.ImageUpload) (*domain.Category, error) {
	s.record()
	s.lastName = name
	return &domain.Category{ID: uuid.New(), Name: name}, nil
}

func (s *stubCatalog) UpdateCategory(ctx context.Context, id uuid.UUID, name string, image *service.ImageUpload) (*domain.Category, error) {
	s.record()
	s.lastName = name
	return &domain.Category{ID: id, Name: name}, nil
}

func (s *stubCatalog) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	s.record()
	return domain.ErrCategoryNotFound
}

// stubOrders records the caller and input of each order call.
type stubOrders struct {
	mu         sync.Mutex
	calls      int
	lastCaller auth.Identity
	lastInput  service.CreateOrderInput
	lastLines  []domain.CartLine
	lastState  string
	cancelErr  error
}

func (s *stubOrders) record(caller auth.Identity) {
	s.mu.Lock()
	s.calls++
	s.lastCaller = caller
	s.mu.Unlock()
}

func (s *stubOrders) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubOrders) Create(ctx context.Context, caller auth.Identity, in service.CreateOrderInput) (*domain.Order, error) {
	s.record(caller)
	s.lastInput = in
	owner := caller.UserID
	return &domain.Order{
		ID:           uuid.New(),
		ShippingInfo: in.Shipping,
		OrderItems:   []*domain.OrderItem{},
		TotalPrice:   decimal.RequireFromString("25"),
		UserID:       &owner,
		State:        domain.OrderPending,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

func (s *stubOrders) CalculateTotal(ctx context.Context, lines []domain.CartLine) (decimal.Decimal, error) {
	s.record(auth.Identity{})
	s.lastLines = lines
	return decimal.RequireFromString("25.5"), nil
}

func (s *stubOrders) Get(ctx context.Context, caller auth.Identity, id uuid.UUID) (*domain.Order, error) {
	s.record(caller)
	if !caller.IsAdmin {
		return nil, domain.ErrOrderAccessForbidden
	}
	return &domain.Order{ID: id, State: domain.OrderPending, OrderItems: []*domain.OrderItem{}}, nil
}

func (s *stubOrders) List(ctx context.Context) ([]*domain.Order, error) {
	s.record(auth.Identity{})
	return []*domain.Order{}, nil
}

func (s *stubOrders) ListByUser(ctx context.Context, caller auth.Identity, userID uuid.UUID) ([]*domain.Order, error) {
	s.record(caller)
	return []*domain.Order{}, nil
}

func (s *stubOrders) Cancel(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	s.record(caller)
	return s.cancelErr
}

func (s *stubOrders) UpdateState(ctx context.Context, id uuid.UUID, state string) (*domain.Order, error) {
	s.record(auth.Identity{})
	s.lastState = state
	parsed, err := domain.ParseOrderState(state)
	if err != nil {
		return nil, err
	}
	return &domain.Order{ID: id, State: parsed, OrderItems: []*domain.OrderItem{}}, nil
}

func (s *stubOrders) Delete(ctx context.Context, id uuid.UUID) error {
	s.record(auth.Identity{})
	return nil
}

func (s *stubOrders) Count(ctx context.Context) (int, error) {
	s.record(auth.Identity{})
	return 7, nil
}

func (s *stubOrders) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	s.record(auth.Identity{})
	return decimal.RequireFromString("125.5"), nil
}

type testAPI struct {
	router  http.Handler
	tokens  *auth.TokenManager
	users   service.UserService
	catalog *stubCatalog
	orders  *stubOrders
}

// newTestAPI mounts every route behind the auth and admin gates.
func newTestAPI() *testAPI {
	logger := zap.NewNop()
	tokens := auth.NewTokenManager(testSecret, 48*time.Hour)
	users := service.NewUserService(newMockUserRepository(), tokens, nil)
	catalog := &stubCatalog{}
	orders := &stubOrders{}

	r := chi.NewRouter()
	r.Use(middleware.AuthMiddleware(tokens, middleware.AuthConfig{
		CookieName: "token",
		Exempt:     middleware.DefaultExemptRoutes,
	}, logger))

	RegisterRoutes(r, Handlers{
		Users:      NewUserHandler(users, SessionCookie{Name: "token", Secure: true, MaxAge: tokens.Expiry()}, logger),
		Products:   NewProductHandler(catalog, logger),
		Categories: NewCategoryHandler(catalog, logger),
		Orders:     NewOrderHandler(orders, logger),
	}, middleware.RequireAdmin(logger), nil)

	return &testAPI{router: r, tokens: tokens, users: users, catalog: catalog, orders: orders}
}

func (a *testAPI) token(isAdmin bool) (string, uuid.UUID) {
	id := uuid.New()
	token, err := a.tokens.Issue(auth.Identity{UserID: id, IsAdmin: isAdmin})
	if err != nil {
		panic(err)
	}
	return token, id
}
