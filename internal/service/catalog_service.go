package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/utils"
)

// AttractionStore persists attractions.
type AttractionStore interface {
	List(ctx context.Context, includeInactive bool) ([]models.Attraction, error)
	GetByID(ctx context.Context, id int) (*models.Attraction, error)
	Create(ctx context.Context, a *models.Attraction) error
	Update(ctx context.Context, a *models.Attraction) error
	Deactivate(ctx context.Context, id int) error
}

// ProductStore persists products.
type ProductStore interface {
	ListActive(ctx context.Context) ([]models.Product, error)
	ListByAttraction(ctx context.Context, attractionID int) ([]models.Product, error)
	GetByID(ctx context.Context, id int) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Deactivate(ctx context.Context, id int) error
}

// AttractionRequest is the body for creating or editing an attraction.
type AttractionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Manager     string `json:"manager"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
}

// ProductRequest is the body for creating or editing a product.
type ProductRequest struct {
	Name            string          `json:"name" binding:"required"`
	Price           decimal.Decimal `json:"price"`
	Description     string          `json:"description"`
	AttractionID    *int            `json:"attractionId"`
	CommissionType  string          `json:"commissionType"`
	CommissionValue decimal.Decimal `json:"commissionValue"`
}

// CatalogService manages attractions and their products.
type CatalogService struct {
	attractions AttractionStore
	products    ProductStore
}

func NewCatalogService(attractions AttractionStore, products ProductStore) *CatalogService {
	return &CatalogService{attractions: attractions, products: products}
}

func (s *CatalogService) ListAttractions(ctx context.Context, includeInactive bool) ([]models.Attraction, error) {
	return s.attractions.List(ctx, includeInactive)
}

func (s *CatalogService) GetAttraction(ctx context.Context, id int) (*models.Attraction, error) {
	a, err := s.attractions.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "attraction")
	}
	return a, nil
}

func (s *CatalogService) CreateAttraction(ctx context.Context, req AttractionRequest) (*models.Attraction, error) {
	a, err := attractionFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.attractions.Create(ctx, a); err != nil {
		return nil, err
	}
	log.Info().Int("attraction_id", a.ID).Str("name", a.Name).Msg("Attraction created")
	return a, nil
}

func (s *CatalogService) UpdateAttraction(ctx context.Context, id int, req AttractionRequest) (*models.Attraction, error) {
	a, err := attractionFromRequest(req)
	if err != nil {
		return nil, err
	}
	a.ID = id
	if err := s.attractions.Update(ctx, a); err != nil {
		return nil, notFound(err, "attraction")
	}
	return a, nil
}

func (s *CatalogService) DeactivateAttraction(ctx context.Context, id int) error {
	if err := s.attractions.Deactivate(ctx, id); err != nil {
		return notFound(err, "attraction")
	}
	log.Info().Int("attraction_id", id).Msg("Attraction deactivated")
	return nil
}

// ListProducts returns active products, optionally only those of one attraction.
func (s *CatalogService) ListProducts(ctx context.Context, attractionID *int) ([]models.Product, error) {
	if attractionID != nil {
		return s.products.ListByAttraction(ctx, *attractionID)
	}
	return s.products.ListActive(ctx)
}

func (s *CatalogService) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req ProductRequest) (*models.Product, error) {
	p, err := s.productFromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	log.Info().Int("product_id", p.ID).Str("name", p.Name).Msg("Product created")
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int, req ProductRequest) (*models.Product, error) {
	p, err := s.productFromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	p.ID = id
	if err := s.products.Update(ctx, p); err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

func (s *CatalogService) DeactivateProduct(ctx context.Context, id int) error {
	if err := s.products.Deactivate(ctx, id); err != nil {
		return notFound(err, "product")
	}
	log.Info().Int("product_id", id).Msg("Product deactivated")
	return nil
}

func attractionFromRequest(req AttractionRequest) (*models.Attraction, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, utils.Validationf("name is required")
	}
	return &models.Attraction{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Manager:     strings.TrimSpace(req.Manager),
		Phone:       strings.TrimSpace(req.Phone),
		Email:       strings.TrimSpace(req.Email),
	}, nil
}

func (s *CatalogService) productFromRequest(ctx context.Context, req ProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, utils.Validationf("name is required")
	}
	if req.Price.IsNegative() {
		return nil, utils.Validationf("price must not be negative")
	}
	ctype, err := ParseCommissionType(req.CommissionType)
	if err != nil {
		return nil, err
	}
	if req.CommissionValue.IsNegative() {
		return nil, utils.Validationf("commission must not be negative")
	}
	if ctype == models.CommissionPercentage && req.CommissionValue.GreaterThan(decimal.NewFromInt(100)) {
		return nil, utils.Validationf("percentage commission must not exceed 100")
	}
	if req.AttractionID != nil {
		if _, err := s.attractions.GetByID(ctx, *req.AttractionID); err != nil {
			return nil, notFound(err, "attraction")
		}
	}
	rule := models.NewCommissionRule(ctype, req.CommissionValue)
	return &models.Product{
		Name:            name,
		Price:           req.Price,
		Description:     strings.TrimSpace(req.Description),
		AttractionID:    req.AttractionID,
		CommissionType:  rule.Type,
		CommissionValue: rule.Value,
	}, nil
}

// ParseCommissionType accepts the commission type names and their legacy
// Portuguese aliases. An empty type is a percentage.
func ParseCommissionType(s string) (models.CommissionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "percentual", string(models.CommissionPercentage):
		return models.CommissionPercentage, nil
	case "fixo", string(models.CommissionFixed):
		return models.CommissionFixed, nil
	}
	return "", utils.Validationf("invalid commission type %q", s)
}
