package printing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/identity"
	"github.com/smartstore/backend/internal/domain/partner"
	"github.com/smartstore/backend/internal/domain/trade"
	"github.com/smartstore/backend/internal/infrastructure/config"
)

type fakeRenderer struct {
	html string
	err  error
}

func (f *fakeRenderer) Render(_ context.Context, html string) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7 fake"), nil
}

func (f *fakeRenderer) Close() error { return nil }

type fakeArchive struct {
	key         string
	contentType string
	data        []byte
	err         error
}

func (f *fakeArchive) Put(_ context.Context, key string, data []byte, contentType string) error {
	f.key, f.data, f.contentType = key, data, contentType
	return f.err
}

func invoiceData() InvoiceData {
	org := &identity.Organization{Name: "Acme Goods", Email: "billing@acme.test", Settings: identity.DefaultOrganizationSettings()}
	order := &trade.Order{
		OrderNumber:     "ORD-20260105-K7Q2ZP",
		Currency:        "USD",
		PaymentStatus:   trade.PaymentStatusPaid,
		Subtotal:        decimal.RequireFromString("1200"),
		DiscountAmount:  decimal.RequireFromString("120"),
		CouponCode:      "SPRING10",
		ShippingAmount:  decimal.RequireFromString("15"),
		TotalAmount:     decimal.RequireFromString("1095"),
		ShippingAddress: partner.Address{Line1: "1 Main St", City: "Austin", PostalCode: "73301", Country: "US"},
		Items: []trade.OrderItem{
			{SKU: "DESK-1", Name: "Standing <Desk>", Quantity: 2, UnitPrice: decimal.RequireFromString("600"), LineTotal: decimal.RequireFromString("1200")},
		},
	}
	customer := &partner.Customer{FirstName: "Ana", LastName: "Lopez", Email: "ana@example.com"}
	return InvoiceData{Organization: org, Customer: customer, Order: order, IssuedAt: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)}
}

func TestInvoiceGenerator_HTML(t *testing.T) {
	g := NewInvoiceGenerator(&fakeRenderer{}, nil, zap.NewNop())

	html, err := g.HTML(invoiceData())
	require.NoError(t, err)

	assert.Contains(t, html, "ORD-20260105-K7Q2ZP")
	assert.Contains(t, html, "Acme Goods")
	assert.Contains(t, html, "Ana Lopez")
	assert.Contains(t, html, "2026-01-05")
	assert.Contains(t, html, "USD 1,200.00")
	assert.Contains(t, html, "Discount (SPRING10)")
	assert.Contains(t, html, "USD 1,095.00")
	assert.Contains(t, html, "Standing &lt;Desk&gt;")
	assert.Contains(t, html, "Paid")
	assert.NotContains(t, html, "Loyalty points")
	assert.NotContains(t, html, "Refunded")
}

func TestInvoiceGenerator_PDF(t *testing.T) {
	t.Run("archives the rendered PDF", func(t *testing.T) {
		archive := &fakeArchive{}
		renderer := &fakeRenderer{}
		g := NewInvoiceGenerator(renderer, archive, zap.NewNop())

		pdf, err := g.PDF(t.Context(), invoiceData(), "tenants/t1/invoices/ORD-20260105-K7Q2ZP.pdf")
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.7 fake", string(pdf))
		assert.Contains(t, renderer.html, "<!DOCTYPE html>")
		assert.Equal(t, "tenants/t1/invoices/ORD-20260105-K7Q2ZP.pdf", archive.key)
		assert.Equal(t, "application/pdf", archive.contentType)
		assert.Equal(t, pdf, archive.data)
	})

	t.Run("archive failure does not fail the download", func(t *testing.T) {
		archive := &fakeArchive{err: errors.New("bucket unreachable")}
		g := NewInvoiceGenerator(&fakeRenderer{}, archive, zap.NewNop())

		pdf, err := g.PDF(t.Context(), invoiceData(), "k.pdf")
		require.NoError(t, err)
		assert.NotEmpty(t, pdf)
	})

	t.Run("render failure is returned", func(t *testing.T) {
		g := NewInvoiceGenerator(&fakeRenderer{err: NewRenderError(ErrCodeRenderTimeout, "timed out", nil)}, nil, zap.NewNop())

		_, err := g.PDF(t.Context(), invoiceData(), "")
		var re *RenderError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, ErrCodeRenderTimeout, re.Code)
	})
}

func TestNewRenderer_Disabled(t *testing.T) {
	r := NewRenderer(config.PrintingConfig{Enabled: false}, zap.NewNop())
	defer r.Close()

	_, err := r.Render(t.Context(), "<html></html>")
	var re *RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeDisabled, re.Code)
}

func TestChromedpRenderer_RejectsEmptyHTML(t *testing.T) {
	r := NewChromedpRenderer(config.PrintingConfig{}, zap.NewNop())
	defer r.Close()

	assert.Equal(t, defaultRenderTimeout, r.timeout)
	assert.Equal(t, defaultPaperWidthIn, r.paperWidth)

	_, err := r.Render(t.Context(), "   ")
	var re *RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeInvalidHTML, re.Code)
}
