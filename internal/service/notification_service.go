package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/pdv_api/internal/metrics"
	"github.com/GTDGit/pdv_api/internal/models"
	"github.com/GTDGit/pdv_api/pkg/evoapi"
)

// Delivery failure reasons recorded on the sale.
const (
	DeliveryDisabled   = "Envio desativado"
	DeliveryIncomplete = "Configurações incompletas"
	DeliveryNoPhone    = "Sem telefone"
)

// DeliveryResult is the outcome of sending a ticket to the customer.
type DeliveryResult struct {
	Attempted bool   `json:"attempted"`
	Sent      bool   `json:"sent"`
	Error     string `json:"error,omitempty"`
}

// MediaSender delivers media messages through the messaging gateway.
type MediaSender interface {
	SendMedia(ctx context.Context, cfg evoapi.Config, msg evoapi.MediaMessage) (json.RawMessage, error)
}

// MessagingSource provides the current messaging settings.
type MessagingSource interface {
	Messaging() MessagingSettings
}

// TicketDispatcher renders tickets and sends them to customers.
type TicketDispatcher struct {
	sender   MediaSender
	settings MessagingSource
	renderer *TicketRenderer
}

// NewTicketDispatcher constructs a TicketDispatcher.
func NewTicketDispatcher(sender MediaSender, settings MessagingSource, renderer *TicketRenderer) *TicketDispatcher {
	return &TicketDispatcher{sender: sender, settings: settings, renderer: renderer}
}

// Deliver sends the ticket of sale to phone. Failures are reported in the
// result, never as an error.
func (d *TicketDispatcher) Deliver(ctx context.Context, sale *models.Sale, phone string) DeliveryResult {
	if strings.TrimSpace(phone) == "" {
		return DeliveryResult{Error: DeliveryNoPhone}
	}
	cfg := d.settings.Messaging()
	if !cfg.Active {
		metrics.TicketDeliveries.WithLabelValues("disabled").Inc()
		return DeliveryResult{Error: DeliveryDisabled}
	}
	if !cfg.Gateway.Complete() {
		metrics.TicketDeliveries.WithLabelValues("disabled").Inc()
		return DeliveryResult{Error: DeliveryIncomplete}
	}

	res := DeliveryResult{Attempted: true}
	number, err := FormatPhone(phone)
	if err != nil {
		res.Error = err.Error()
		metrics.TicketDeliveries.WithLabelValues("failed").Inc()
		return res
	}
	img, err := d.renderer.Render(sale)
	if err != nil {
		log.Error().Err(err).Str("code", sale.Code).Msg("Failed to render ticket")
		res.Error = err.Error()
		metrics.TicketDeliveries.WithLabelValues("failed").Inc()
		return res
	}

	msg := evoapi.NewImageMessage(number, img, TicketFileName(sale.Code), RenderCaption(cfg.Template, sale))
	if _, err := d.sender.SendMedia(ctx, cfg.Gateway, msg); err != nil {
		res.Error = deliveryError(err)
		log.Error().Err(err).Str("code", sale.Code).Str("number", number).Msg("Ticket delivery failed")
		metrics.TicketDeliveries.WithLabelValues("failed").Inc()
		return res
	}

	log.Info().Str("code", sale.Code).Str("number", number).Msg("Ticket delivered")
	metrics.TicketDeliveries.WithLabelValues("sent").Inc()
	res.Sent = true
	return res
}

func deliveryError(err error) string {
	var apiErr *evoapi.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("Erro da API: %d - %s", apiErr.StatusCode, apiErr.Body)
	}
	return err.Error()
}

// FormatPhone keeps the digits of phone and prefixes the Brazilian country code.
func FormatPhone(phone string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
	if len(digits) < 8 {
		return "", fmt.Errorf("invalid phone number %q", phone)
	}
	if !strings.HasPrefix(digits, "55") {
		digits = "55" + digits
	}
	return digits, nil
}

// RenderCaption fills the {nome} and {codigo} placeholders of template.
func RenderCaption(template string, sale *models.Sale) string {
	if template == "" {
		template = defaultMessageTemplate
	}
	return strings.NewReplacer("{nome}", sale.ClientName, "{codigo}", sale.Code).Replace(template)
}

// TicketFileName is the attachment name of a sale's ticket.
func TicketFileName(code string) string {
	return fmt.Sprintf("ingresso_%s.jpg", code)
}

// SendTest delivers a synthetic ticket to phone so an admin can check the
// gateway settings.
func (d *TicketDispatcher) SendTest(ctx context.Context, phone string) DeliveryResult {
	sale := &models.Sale{
		Code:        "0000",
		ClientName:  "Teste",
		ProductName: "Ingresso de teste",
		Quantity:    1,
		CreatedAt:   time.Now(),
	}
	return d.Deliver(ctx, sale, phone)
}
