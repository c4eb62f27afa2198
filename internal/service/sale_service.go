package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/pdv_api/internal/metrics"
	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/internal/repository"
	"github.com/GTDGit/pdv_api/internal/sse"
	"github.com/GTDGit/pdv_api/internal/utils"
)

const recentSalesLimit = 100

// SaleStore persists point-of-sale sales.
type SaleStore interface {
	LastCode(ctx context.Context) (string, error)
	Create(ctx context.Context, s *models.Sale, next repository.CodeAllocator) error
	GetByID(ctx context.Context, id int) (*models.Sale, error)
	ListRecent(ctx context.Context, limit int) ([]models.Sale, error)
	Delete(ctx context.Context, id int) error
	UpdateDelivery(ctx context.Context, id int, sent bool, deliveryErr *string) error
}

// ProductGetter resolves catalog products.
type ProductGetter interface {
	GetByID(ctx context.Context, id int) (*models.Product, error)
}

// TicketDeliverer sends a sale's ticket to a phone number.
type TicketDeliverer interface {
	Deliver(ctx context.Context, sale *models.Sale, phone string) DeliveryResult
}

// TicketImager renders a sale's ticket.
type TicketImager interface {
	Render(sale *models.Sale) ([]byte, error)
}

// SaleAmounts is the price breakdown of a sale.
type SaleAmounts struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// CreateSaleResult is returned to the POS after a sale is recorded.
type CreateSaleResult struct {
	ID       int            `json:"id"`
	Code     string         `json:"code"`
	Sale     *models.Sale   `json:"sale"`
	Delivery DeliveryResult `json:"delivery"`
}

// SaleService records point-of-sale sales and delivers their tickets.
type SaleService struct {
	sales    SaleStore
	products ProductGetter
	delivery TicketDeliverer
	tickets  TicketImager
	notifier sse.Notifier
}

// NewSaleService constructs a SaleService.
func NewSaleService(sales SaleStore, products ProductGetter, delivery TicketDeliverer, tickets TicketImager) *SaleService {
	return &SaleService{
		sales:    sales,
		products: products,
		delivery: delivery,
		tickets:  tickets,
		notifier: sse.NopNotifier{},
	}
}

// SetNotifier sets the SSE notifier for real-time sale updates.
func (s *SaleService) SetNotifier(notifier sse.Notifier) {
	s.notifier = notifier
}

// ParseDiscountType accepts the API discount type names. An empty value means
// no type, which is treated as a fixed amount.
func ParseDiscountType(v string) (*models.DiscountType, error) {
	var t models.DiscountType
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return nil, nil
	case "percentage", "percentual", "percent":
		t = models.DiscountPercentage
	case "fixed", "fixo", "valor":
		t = models.DiscountFixed
	default:
		return nil, utils.Validationf("unknown discount type %q", v)
	}
	return &t, nil
}

// ComputeSaleAmounts prices quantity units at price. A percentage discount is
// taken from the subtotal, any other discount is a flat amount; the discount
// never exceeds the subtotal so the total cannot go negative.
func ComputeSaleAmounts(price decimal.Decimal, quantity int, discount decimal.Decimal, discountType *models.DiscountType) (SaleAmounts, error) {
	if quantity <= 0 {
		return SaleAmounts{}, utils.Validationf("quantity must be greater than zero")
	}
	if discount.IsNegative() {
		return SaleAmounts{}, utils.Validationf("discount cannot be negative")
	}

	subtotal := price.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	amount := discount
	if discountType != nil && *discountType == models.DiscountPercentage {
		amount = subtotal.Mul(discount).Div(decimal.NewFromInt(100))
	}
	amount = decimal.Min(amount.Round(2), subtotal)

	return SaleAmounts{
		Subtotal: subtotal,
		Discount: amount,
		Total:    subtotal.Sub(amount),
	}, nil
}

// NextSaleCode returns the code following last, zero-padded to four digits.
// An empty last code yields "0001".
func NextSaleCode(last string) (string, error) {
	last = strings.TrimSpace(last)
	if last == "" {
		return "0001", nil
	}
	n, err := strconv.ParseInt(last, 10, 64)
	if err != nil || n < 0 {
		return "", fmt.Errorf("invalid sale code %q", last)
	}
	return fmt.Sprintf("%04d", n+1), nil
}

// PreviewNextCode returns the code the next sale would get. The code is only
// reserved when the sale is created.
func (s *SaleService) PreviewNextCode(ctx context.Context) (string, error) {
	last, err := s.sales.LastCode(ctx)
	if err != nil {
		return "", err
	}
	return NextSaleCode(last)
}

// CreateSale validates and records a sale, then delivers its ticket when a
// phone number was given. Delivery failures are recorded on the sale and
// returned in the result.
func (s *SaleService) CreateSale(ctx context.Context, actor Actor, req *models.CreateSaleRequest) (*CreateSaleResult, error) {
	name := strings.TrimSpace(req.ClientName)
	if name == "" {
		return nil, utils.Validationf("client name is required")
	}
	if req.ProductID <= 0 {
		return nil, utils.Validationf("product is required")
	}
	discountType, err := ParseDiscountType(req.DiscountType)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if !product.IsActive {
		return nil, utils.Validationf("product %d is inactive", product.ID)
	}

	amounts, err := ComputeSaleAmounts(product.Price, req.Quantity, req.Discount, discountType)
	if err != nil {
		return nil, err
	}

	sale := &models.Sale{
		ClientName:   name,
		ProductID:    product.ID,
		ProductName:  product.Name,
		UnitPrice:    product.Price,
		Quantity:     req.Quantity,
		Subtotal:     amounts.Subtotal,
		Discount:     amounts.Discount,
		DiscountType: discountType,
		Total:        amounts.Total,
		OperatorID:   actor.OperatorID,
		OperatorName: actor.Name,
		Online:       req.Online,
	}
	if phone := strings.TrimSpace(req.ClientPhone); phone != "" {
		sale.ClientPhone = &phone
	}

	if err := s.sales.Create(ctx, sale, NextSaleCode); err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}
	metrics.SalesCreated.Inc()
	log.Info().
		Int("sale_id", sale.ID).
		Str("code", sale.Code).
		Int("operator_id", actor.OperatorID).
		Str("total", sale.Total.StringFixed(2)).
		Msg("Sale created")

	result := &CreateSaleResult{ID: sale.ID, Code: sale.Code, Sale: sale}
	if sale.ClientPhone != nil {
		// the sale is already committed; a client disconnect must not cut delivery short
		result.Delivery = s.deliver(context.WithoutCancel(ctx), sale)
	}

	s.notifier.NotifySaleCreated(sale, product.AttractionID)
	return result, nil
}

// deliver sends the ticket and records the outcome on the sale.
func (s *SaleService) deliver(ctx context.Context, sale *models.Sale) DeliveryResult {
	res := s.delivery.Deliver(ctx, sale, *sale.ClientPhone)

	var deliveryErr *string
	if !res.Sent && res.Error != "" {
		msg := res.Error
		deliveryErr = &msg
	}
	sale.DeliverySent = res.Sent
	sale.DeliveryError = deliveryErr
	if err := s.sales.UpdateDelivery(ctx, sale.ID, res.Sent, deliveryErr); err != nil {
		log.Error().Err(err).Int("sale_id", sale.ID).Msg("Failed to record ticket delivery")
	}
	return res
}

// ResendTicket delivers the ticket of an existing sale again.
func (s *SaleService) ResendTicket(ctx context.Context, id int) (DeliveryResult, error) {
	sale, err := s.sales.GetByID(ctx, id)
	if err != nil {
		return DeliveryResult{}, notFound(err, "sale")
	}
	if sale.ClientPhone == nil || strings.TrimSpace(*sale.ClientPhone) == "" {
		return DeliveryResult{}, utils.Validationf("sale has no phone number")
	}
	return s.deliver(ctx, sale), nil
}

// TicketImage renders the ticket of a sale and returns it with its file name.
func (s *SaleService) TicketImage(ctx context.Context, id int) ([]byte, string, error) {
	sale, err := s.sales.GetByID(ctx, id)
	if err != nil {
		return nil, "", notFound(err, "sale")
	}
	img, err := s.tickets.Render(sale)
	if err != nil {
		return nil, "", err
	}
	return img, TicketFileName(sale.Code), nil
}

// Get returns one sale.
func (s *SaleService) Get(ctx context.Context, id int) (*models.Sale, error) {
	sale, err := s.sales.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "sale")
	}
	return sale, nil
}

// ListRecent returns the latest sales.
func (s *SaleService) ListRecent(ctx context.Context) ([]models.Sale, error) {
	return s.sales.ListRecent(ctx, recentSalesLimit)
}

// Delete removes a sale.
func (s *SaleService) Delete(ctx context.Context, id int) error {
	if err := s.sales.Delete(ctx, id); err != nil {
		return notFound(err, "sale")
	}
	log.Info().Int("sale_id", id).Msg("Sale deleted")
	return nil
}
