package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/service"
	"github.com/GTDGit/pdv_api/internal/utils"
)

// Catalog manages attractions and products.
type Catalog interface {
	ListAttractions(ctx context.Context, includeInactive bool) ([]models.Attraction, error)
	GetAttraction(ctx context.Context, id int) (*models.Attraction, error)
	CreateAttraction(ctx context.Context, req service.AttractionRequest) (*models.Attraction, error)
	UpdateAttraction(ctx context.Context, id int, req service.AttractionRequest) (*models.Attraction, error)
	DeactivateAttraction(ctx context.Context, id int) error

	ListProducts(ctx context.Context, attractionID *int) ([]models.Product, error)
	GetProduct(ctx context.Context, id int) (*models.Product, error)
	CreateProduct(ctx context.Context, req service.ProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int, req service.ProductRequest) (*models.Product, error)
	DeactivateProduct(ctx context.Context, id int) error
}

// CatalogHandler serves attraction and product endpoints.
type CatalogHandler struct {
	catalog Catalog
}

func NewCatalogHandler(catalog Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListAttractions handles GET /api/attractions?all=true
func (h *CatalogHandler) ListAttractions(c *gin.Context) {
	list, err := h.catalog.ListAttractions(c.Request.Context(), c.Query("all") == "true")
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Attractions retrieved", list)
}

// GetAttraction handles GET /api/attractions/:id
func (h *CatalogHandler) GetAttraction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	a, err := h.catalog.GetAttraction(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Attraction retrieved", a)
}

// CreateAttraction handles POST /api/attractions
func (h *CatalogHandler) CreateAttraction(c *gin.Context) {
	var req service.AttractionRequest
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.catalog.CreateAttraction(c.Request.Context(), req)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 201, "Attraction created", a)
}

// UpdateAttraction handles PUT /api/attractions/:id
func (h *CatalogHandler) UpdateAttraction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.AttractionRequest
	if !bindJSON(c, &req) {
		return
	}
	a, err := h.catalog.UpdateAttraction(c.Request.Context(), id, req)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Attraction updated", a)
}

// DeactivateAttraction handles DELETE /api/attractions/:id
func (h *CatalogHandler) DeactivateAttraction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeactivateAttraction(c.Request.Context(), id); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Attraction deactivated", nil)
}

// ListProducts handles GET /api/products?attractionId=
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	attractionID, ok := optionalInt(c, "attractionId")
	if !ok {
		return
	}
	list, err := h.catalog.ListProducts(c.Request.Context(), attractionID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Products retrieved", list)
}

// GetProduct handles GET /api/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Product retrieved", p)
}

// CreateProduct handles POST /api/products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req service.ProductRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.catalog.CreateProduct(c.Request.Context(), req)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 201, "Product created", p)
}

// UpdateProduct handles PUT /api/products/:id
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.ProductRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.catalog.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Product updated", p)
}

// DeactivateProduct handles DELETE /api/products/:id
func (h *CatalogHandler) DeactivateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeactivateProduct(c.Request.Context(), id); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, 200, "Product deactivated", nil)
}
