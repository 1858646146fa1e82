package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	MaxCountInStock = 200
	MaxRating       = 5
	MaxNumReviews   = math.MaxInt32

	// PriceScale is the number of decimal places stored for money.
	PriceScale = 2
)

// Upper bounds (exclusive) of the NUMERIC(12,2) price and NUMERIC(14,2)
// order total columns.
var (
	MaxPrice      = decimal.New(1, 10)
	MaxOrderTotal = decimal.New(1, 12)
)

// Product represents a product in the catalog
type Product struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	Name            string          `json:"name" db:"name"`
	Description     string          `json:"description" db:"description"`
	RichDescription string          `json:"richDescription" db:"rich_description"`
	Image           string          `json:"image" db:"image"`
	Images          []string        `json:"images" db:"images"`
	Brand           string          `json:"brand" db:"brand"`
	Price           decimal.Decimal `json:"price" db:"price"`
	CategoryID      uuid.UUID       `json:"categoryId" db:"category_id"`
	Category        *Category       `json:"category,omitempty" db:"-"`
	CountInStock    int             `json:"countInStock" db:"count_in_stock"`
	Rating          float64         `json:"rating" db:"rating"`
	IsFeatured      bool            `json:"isFeatured" db:"is_featured"`
	NumReviews      int             `json:"numReviews" db:"num_reviews"`
	DateCreated     time.Time       `json:"dateCreated" db:"date_created"`
}

// Category represents a product category
type Category struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Name  string    `json:"name" db:"name"`
	Image string    `json:"image" db:"image"`
}
