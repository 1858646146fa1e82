package transport

import (
	"net/http"
	"strconv"
	"strings"

	"digitronix/internal/domain"
	"digitronix/internal/middleware"
	"digitronix/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalog service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, logger: logger}
}

// parseCategoryFilter reads ?categories=id1,id2. An absent filter is nil.
func parseCategoryFilter(r *http.Request) ([]uuid.UUID, error) {
	raw := r.URL.Query().Get("categories")
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, domain.Validation("invalid category id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	categoryIDs, err := parseCategoryFilter(r)
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	products, err := h.catalog.ListProducts(r.Context(), categoryIDs)
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.SearchProducts(r.Context(), r.URL.Query().Get("keyword"))
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Featured(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.FeaturedProducts(r.Context())
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.catalog.CountProducts(r.Context())
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]int{"productCount": count})
}

// productFromForm reads the writable product fields from a parsed form.
// Numeric fields left empty default to zero.
func productFromForm(r *http.Request) (service.ProductInput, error) {
	in := service.ProductInput{
		Name:            r.FormValue("name"),
		Description:     r.FormValue("description"),
		RichDescription: r.FormValue("richDescription"),
		Brand:           r.FormValue("brand"),
		Images:          r.Form["images"],
	}

	price := strings.TrimSpace(r.FormValue("price"))
	if price == "" {
		return in, domain.Validation("price is required")
	}
	var err error
	if in.Price, err = decimal.NewFromString(price); err != nil {
		return in, domain.Validation("price must be a number")
	}

	if in.CategoryID, err = uuid.Parse(strings.TrimSpace(r.FormValue("category"))); err != nil {
		return in, domain.ErrInvalidCategory
	}

	if in.CountInStock, err = formInt(r, "countInStock"); err != nil {
		return in, err
	}
	if in.NumReviews, err = formInt(r, "numReviews"); err != nil {
		return in, err
	}
	if raw := strings.TrimSpace(r.FormValue("rating")); raw != "" {
		if in.Rating, err = strconv.ParseFloat(raw, 64); err != nil {
			return in, domain.Validation("rating must be a number")
		}
	}
	if raw := strings.TrimSpace(r.FormValue("isFeatured")); raw != "" {
		if in.IsFeatured, err = strconv.ParseBool(raw); err != nil {
			return in, domain.Validation("isFeatured must be true or false")
		}
	}

	return in, nil
}

func formInt(r *http.Request, field string) (int, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Validation("%s must be an integer", field)
	}
	return n, nil
}

// Create handles a multipart product upload; the image part is mandatory.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	image, release, err := parseForm(w, r)
	defer release()
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	in, err := productFromForm(r)
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), in, image)
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	image, release, err := parseForm(w, r)
	defer release()
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	in, err := productFromForm(r)
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id, in, image)
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id.String()))
	respondMessage(w, "product deleted")
}

// CategoryHandler handles HTTP requests for categories
type CategoryHandler struct {
	catalog service.CatalogService
	logger  *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(catalog service.CatalogService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{catalog: catalog, logger: logger}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	category, err := h.catalog.GetCategory(r.Context(), id)
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.catalog.CountCategories(r.Context())
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]int{"categoryCount": count})
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	image, release, err := parseForm(w, r)
	defer release()
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	category, err := h.catalog.CreateCategory(r.Context(), r.FormValue("name"), image)
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Category created", zap.String("category_id", category.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// Update keeps the stored name and image when the form omits them.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	image, release, err := parseForm(w, r)
	defer release()
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	category, err := h.catalog.UpdateCategory(r.Context(), id, r.FormValue("name"), image)
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	if err := h.catalog.DeleteCategory(r.Context(), id); err != nil {
		middleware.RespondWithAppError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Category deleted", zap.String("category_id", id.String()))
	respondMessage(w, "category deleted")
}
