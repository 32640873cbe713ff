package trade

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smartstore/backend/internal/domain/shared"
	"github.com/smartstore/backend/internal/infrastructure/printing"
)

type stubRenderer struct{ html string }

func (r *stubRenderer) Render(_ context.Context, html string) ([]byte, error) {
	r.html = html
	return []byte("%PDF-1.4 stub"), nil
}

func (r *stubRenderer) Close() error { return nil }

type memoryArchive struct{ keys []string }

func (a *memoryArchive) Put(_ context.Context, key string, _ []byte, _ string) error {
	a.keys = append(a.keys, key)
	return nil
}

func TestInvoiceService_RendersAndArchives(t *testing.T) {
	f := newTradeFixture(t)
	ctx := t.Context()
	order := f.place(t, 2)

	renderer := &stubRenderer{}
	archive := &memoryArchive{}
	svc := NewInvoiceService(
		f.orderRepo,
		f.customerRepo,
		f.orgRepo,
		printing.NewInvoiceGenerator(renderer, archive, zap.NewNop()),
		zap.NewNop(),
	)

	html, err := svc.HTML(ctx, f.tenantID, order.ID)
	require.NoError(t, err)
	assert.Contains(t, html, order.OrderNumber)
	assert.Contains(t, html, "Trade Shop")

	invoice, err := svc.PDF(ctx, f.tenantID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber+".pdf", invoice.Filename)
	assert.Equal(t, "application/pdf", invoice.ContentType)
	assert.Equal(t, []byte("%PDF-1.4 stub"), invoice.Content)
	assert.Contains(t, renderer.html, order.OrderNumber)
	require.Len(t, archive.keys, 1)
	assert.Equal(t, "tenants/"+f.tenantID.String()+"/invoices/"+order.OrderNumber+".pdf", archive.keys[0])

	_, err = svc.PDF(ctx, f.tenantID, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
