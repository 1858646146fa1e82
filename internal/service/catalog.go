package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"digitronix/internal/domain"
	"digitronix/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogLookup resolves product and category ids to their current state.
type CatalogLookup interface {
	Product(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Category(ctx context.Context, id uuid.UUID) (*domain.Category, error)
}

type repositoryCatalog struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
}

// NewCatalogLookup creates a CatalogLookup backed by the repositories
func NewCatalogLookup(products repository.ProductRepository, categories repository.CategoryRepository) CatalogLookup {
	return &repositoryCatalog{products: products, categories: categories}
}

func (c *repositoryCatalog) Product(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return c.products.FindByID(ctx, id)
}

func (c *repositoryCatalog) Category(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return c.categories.FindByID(ctx, id)
}

// ImageStore persists uploaded images and returns their public URL.
type ImageStore interface {
	SaveImage(ctx context.Context, originalName string, r io.Reader) (string, error)
	RemoveImage(ctx context.Context, url string) error
}

// ImageUpload is an image attached to a create or update request.
type ImageUpload struct {
	Filename string
	Content  io.Reader
}

// ProductInput carries the writable fields of a product.
type ProductInput struct {
	Name            string
	Description     string
	RichDescription string
	Brand           string
	Price           decimal.Decimal
	CategoryID      uuid.UUID
	CountInStock    int
	Rating          float64
	NumReviews      int
	IsFeatured      bool
	Images          []string
}

// CatalogService defines the interface for product and category business logic
type CatalogService interface {
	ListProducts(ctx context.Context, categoryIDs []uuid.UUID) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	SearchProducts(ctx context.Context, keyword string) ([]*domain.Product, error)
	FeaturedProducts(ctx context.Context) ([]*domain.Product, error)
	CountProducts(ctx context.Context) (int, error)
	CreateProduct(ctx context.Context, in ProductInput, image *ImageUpload) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput, image *ImageUpload) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	CountCategories(ctx context.Context) (int, error)
	CreateCategory(ctx context.Context, name string, image *ImageUpload) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name string, image *ImageUpload) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	images     ImageStore
	now        func() time.Time
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	images ImageStore,
) CatalogService {
	return &catalogService{
		products:   products,
		categories: categories,
		images:     images,
		now:        time.Now,
	}
}

func (s *catalogService) ListProducts(ctx context.Context, categoryIDs []uuid.UUID) ([]*domain.Product, error) {
	products, err := s.products.List(ctx, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *catalogService) SearchProducts(ctx context.Context, keyword string) ([]*domain.Product, error) {
	products, err := s.products.Search(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return products, nil
}

func (s *catalogService) FeaturedProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.products.Featured(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	return products, nil
}

func (s *catalogService) CountProducts(ctx context.Context) (int, error) {
	return s.products.Count(ctx)
}

func validateProduct(in ProductInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return domain.Validation("name is required")
	case in.Price.IsNegative():
		return domain.Validation("price must not be negative")
	case !in.Price.LessThan(domain.MaxPrice):
		return domain.Validation("price must be less than %s", domain.MaxPrice)
	case !in.Price.Equal(in.Price.Truncate(domain.PriceScale)):
		return domain.Validation("price must have at most %d decimal places", domain.PriceScale)
	case in.CountInStock < 0 || in.CountInStock > domain.MaxCountInStock:
		return domain.Validation("countInStock must be between 0 and %d", domain.MaxCountInStock)
	case math.IsNaN(in.Rating) || in.Rating < 0 || in.Rating > domain.MaxRating:
		return domain.Validation("rating must be between 0 and %d", domain.MaxRating)
	case in.NumReviews < 0 || in.NumReviews > domain.MaxNumReviews:
		return domain.Validation("numReviews must be between 0 and %d", domain.MaxNumReviews)
	}
	return nil
}

// requireCategory turns an unresolvable category into a validation error.
func (s *catalogService) requireCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return domain.ErrInvalidCategory
		}
		return fmt.Errorf("failed to check category: %w", err)
	}
	return nil
}

func (s *catalogService) saveImage(ctx context.Context, image *ImageUpload) (string, error) {
	url, err := s.images.SaveImage(ctx, image.Filename, image.Content)
	if err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return url, nil
}

// discardImage removes an image whose row was never written and returns
// cause, joined with the removal failure if there is one.
func (s *catalogService) discardImage(ctx context.Context, url string, cause error) error {
	if err := s.images.RemoveImage(context.WithoutCancel(ctx), url); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to remove image: %w", err))
	}
	return cause
}

// CreateProduct validates the product, checks its category and stores the
// mandatory image before inserting the row.
func (s *catalogService) CreateProduct(ctx context.Context, in ProductInput, image *ImageUpload) (*domain.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	if image == nil {
		return nil, domain.ErrImageRequired
	}

	imageURL, err := s.saveImage(ctx, image)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{
		ID:          uuid.New(),
		Image:       imageURL,
		DateCreated: s.now().UTC(),
	}
	applyProductInput(product, in)

	if err := s.products.Create(ctx, product); err != nil {
		return nil, s.discardImage(ctx, imageURL, fmt.Errorf("failed to create product: %w", err))
	}

	return s.products.FindByID(ctx, product.ID)
}

// UpdateProduct overwrites the product; the stored image and gallery are
// kept when none are supplied.
func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, in ProductInput, image *ImageUpload) (*domain.Product, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}
	if err := s.requireCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var saved string
	if image != nil {
		if saved, err = s.saveImage(ctx, image); err != nil {
			return nil, err
		}
		product.Image = saved
	}
	if in.Images == nil {
		in.Images = product.Images
	}
	applyProductInput(product, in)

	if err := s.products.Update(ctx, product); err != nil {
		err = fmt.Errorf("failed to update product: %w", err)
		if saved != "" {
			err = s.discardImage(ctx, saved, err)
		}
		return nil, err
	}

	return s.products.FindByID(ctx, id)
}

func applyProductInput(product *domain.Product, in ProductInput) {
	product.Name = strings.TrimSpace(in.Name)
	product.Description = in.Description
	product.RichDescription = in.RichDescription
	product.Brand = in.Brand
	product.Price = in.Price
	product.CategoryID = in.CategoryID
	product.CountInStock = in.CountInStock
	product.Rating = in.Rating
	product.NumReviews = in.NumReviews
	product.IsFeatured = in.IsFeatured
	product.Images = in.Images
	if product.Images == nil {
		product.Images = []string{}
	}
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.products.Delete(ctx, id)
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *catalogService) GetCategory(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.categories.FindByID(ctx, id)
}

func (s *catalogService) CountCategories(ctx context.Context) (int, error) {
	return s.categories.Count(ctx)
}

func (s *catalogService) CreateCategory(ctx context.Context, name string, image *ImageUpload) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validation("name is required")
	}

	category := &domain.Category{ID: uuid.New(), Name: name}
	if image != nil {
		url, err := s.saveImage(ctx, image)
		if err != nil {
			return nil, err
		}
		category.Image = url
	}

	if err := s.categories.Create(ctx, category); err != nil {
		err = fmt.Errorf("failed to create category: %w", err)
		if category.Image != "" {
			err = s.discardImage(ctx, category.Image, err)
		}
		return nil, err
	}

	return category, nil
}

// UpdateCategory keeps the current name and image when none are given.
func (s *catalogService) UpdateCategory(ctx context.Context, id uuid.UUID, name string, image *ImageUpload) (*domain.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name = strings.TrimSpace(name); name != "" {
		category.Name = name
	}
	var saved string
	if image != nil {
		if saved, err = s.saveImage(ctx, image); err != nil {
			return nil, err
		}
		category.Image = saved
	}

	if err := s.categories.Update(ctx, category); err != nil {
		err = fmt.Errorf("failed to update category: %w", err)
		if saved != "" {
			err = s.discardImage(ctx, saved, err)
		}
		return nil, err
	}

	return category, nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.categories.Delete(ctx, id)
}
