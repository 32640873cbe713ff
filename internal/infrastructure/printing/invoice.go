package printing

import (
	"context"
	_ "embed"
	"time"

	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/trade"
	"github.com/smartstore/backend/internal/infrastructure/messaging"
)

//go:embed templates/invoice.html
var invoiceTemplate string

// InvoiceData is everything an invoice shows
type InvoiceData struct {
	Organization *identity.Organization
	Customer     *partner.Customer
	Order        *trade.Order
	IssuedAt     time.Time
}

// ObjectArchive stores rendered documents
type ObjectArchive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// InvoiceGenerator renders invoices to HTML and PDF
type InvoiceGenerator struct {
	renderer PDFRenderer
	archive  ObjectArchive
	logger   *zap.Logger
}

// NewInvoiceGenerator creates an InvoiceGenerator. archive may be nil.
func NewInvoiceGenerator(renderer PDFRenderer, archive ObjectArchive, logger *zap.Logger) *InvoiceGenerator {
	return &InvoiceGenerator{renderer: renderer, archive: archive, logger: logger}
}

// HTML renders the invoice document
func (g *InvoiceGenerator) HTML(data InvoiceData) (string, error) {
	locale := data.Organization.Settings.Locale
	return messaging.NewTemplateRenderer(locale).RenderHTML("invoice", invoiceTemplate, data)
}

// PDF renders the invoice and converts it to PDF. When an archive is set,
// the PDF is also stored under archiveKey; archive failures are logged only.
func (g *InvoiceGenerator) PDF(ctx context.Context, data InvoiceData, archiveKey string) ([]byte, error) {
	html, err := g.HTML(data)
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "failed to render invoice template", err)
	}
	pdf, err := g.renderer.Render(ctx, html)
	if err != nil {
		return nil, err
	}

	if g.archive != nil && archiveKey != "" {
		if err := g.archive.Put(ctx, archiveKey, pdf, "application/pdf"); err != nil {
			g.logger.Warn("Failed to archive invoice",
				zap.String("order_number", data.Order.OrderNumber),
				zap.String("key", archiveKey),
				zap.Error(err))
		}
	}
	return pdf, nil
}
