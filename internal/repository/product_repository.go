package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"digitronix/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// pgTypes scans PostgreSQL arrays through database/sql
var pgTypes = pgtype.NewMap()

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, categoryIDs []uuid.UUID) ([]*domain.Product, error)
	Search(ctx context.Context, keyword string) ([]*domain.Product, error)
	Featured(ctx context.Context) ([]*domain.Product, error)
	Count(ctx context.Context) (int, error)
	RewriteImageBaseURL(ctx context.Context, baseURL string) (int64, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productSelect = `
	SELECT p.id, p.name, p.description, p.rich_description, p.image, p.images, p.brand,
	       p.price, p.category_id, p.count_in_stock, p.rating, p.is_featured, p.num_reviews,
	       p.date_created, c.id, c.name, c.image
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
`

func scanProduct(row scanner) (*domain.Product, error) {
	product := &domain.Product{}
	var (
		categoryID    uuid.NullUUID
		categoryName  sql.NullString
		categoryImage sql.NullString
	)

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.RichDescription,
		&product.Image,
		pgTypes.SQLScanner(&product.Images),
		&product.Brand,
		&product.Price,
		&product.CategoryID,
		&product.CountInStock,
		&product.Rating,
		&product.IsFeatured,
		&product.NumReviews,
		&product.DateCreated,
		&categoryID,
		&categoryName,
		&categoryImage,
	)
	if err != nil {
		return nil, err
	}

	// Dangling category references stay nil
	if categoryID.Valid {
		product.Category = &domain.Category{
			ID:    categoryID.UUID,
			Name:  categoryName.String,
			Image: categoryImage.String,
		}
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	return product, nil
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

func nonNilImages(images []string) []string {
	if images == nil {
		return []string{}
	}
	return images
}

// Create inserts a new product into the database using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, description, rich_description, image, images, brand, price,
			category_id, count_in_stock, rating, is_featured, num_reviews, date_created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.RichDescription,
		product.Image,
		nonNilImages(product.Images),
		product.Brand,
		product.Price,
		product.CategoryID,
		product.CountInStock,
		product.Rating,
		product.IsFeatured,
		product.NumReviews,
		product.DateCreated,
	)

	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update overwrites every mutable field of a product
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, rich_description = $4, image = $5, images = $6,
		    brand = $7, price = $8, category_id = $9, count_in_stock = $10, rating = $11,
		    is_featured = $12, num_reviews = $13
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.RichDescription,
		product.Image,
		nonNilImages(product.Images),
		product.Brand,
		product.Price,
		product.CategoryID,
		product.CountInStock,
		product.Rating,
		product.IsFeatured,
		product.NumReviews,
	)

	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	return expectOneRow(result, domain.ErrProductNotFound)
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return expectOneRow(result, domain.ErrProductNotFound)
}

// FindByID retrieves a product with its category populated
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// List retrieves products, optionally restricted to a set of categories
func (r *productRepository) List(ctx context.Context, categoryIDs []uuid.UUID) ([]*domain.Product, error) {
	if len(categoryIDs) == 0 {
		return r.queryProducts(ctx, productSelect+` ORDER BY p.date_created DESC`)
	}

	return r.queryProducts(ctx,
		productSelect+` WHERE p.category_id = ANY($1::uuid[]) ORDER BY p.date_created DESC`,
		uuidStrings(categoryIDs),
	)
}

// Search matches product names case-insensitively. A blank keyword matches nothing.
func (r *productRepository) Search(ctx context.Context, keyword string) ([]*domain.Product, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return []*domain.Product{}, nil
	}

	pattern := "%" + escapeLike(keyword) + "%"
	return r.queryProducts(ctx,
		productSelect+` WHERE p.name ILIKE $1 ESCAPE '\' ORDER BY p.name ASC`,
		pattern,
	)
}

func (r *productRepository) Featured(ctx context.Context) ([]*domain.Product, error) {
	return r.queryProducts(ctx, productSelect+` WHERE p.is_featured ORDER BY p.date_created DESC`)
}

func (r *productRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// RewriteImageBaseURL moves legacy image URLs (plain http or localhost) onto
// baseURL, keeping their paths. It returns the number of products changed.
func (r *productRepository) RewriteImageBaseURL(ctx context.Context, baseURL string) (int64, error) {
	query := `
		UPDATE products
		SET image = regexp_replace(image, '^https?://[^/]+', $1)
		WHERE image LIKE 'http://%' OR image LIKE '%localhost%'
	`

	result, err := r.db.ExecContext(ctx, query, strings.TrimRight(baseURL, "/"))
	if err != nil {
		return 0, fmt.Errorf("failed to rewrite image urls: %w", err)
	}

	return result.RowsAffected()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
