package services_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/internal/domain"
	"shopfront/internal/services"
)

func createCustomer(t *testing.T, f *fixture) string {
	t.Helper()
	c, err := f.customers.Create(context.Background(), services.NewCustomer{Name: "Ana", Phone: "0961112222"})
	require.NoError(t, err)
	return c.ID
}

func TestOrderPipeline_CreateOrderDefaults(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	cid := createCustomer(t, f)

	o, err := f.pipeline.CreateOrder(ctx, cid, "sid-1", "Lusaka", dec("19.99"), []domain.CartItem{
		{ProductID: "p1", UnitPrice: dec("19.99"), Quantity: 1},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, domain.OrderPending, o.Status)
	assert.Equal(t, domain.PaymentPending, o.PaymentStatus)
	assert.Equal(t, domain.PipelineCreated, o.PipelineState)
	assert.Empty(t, o.Products)
	assert.True(t, o.TotalAmount.Equal(dec("19.99")))
	assert.Len(t, o.CartSnapshot, 1)
}

func TestOrderPipeline_UploadOrderImages(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	o, err := f.pipeline.CreateOrder(ctx, createCustomer(t, f), "sid-1", "", dec("3"), nil)
	require.NoError(t, err)

	staged := f.stage(t, "abc_photo.jpg", "jpeg-bytes")
	items := []domain.CartItem{
		{ProductID: "p1", Quantity: 2, Instruction: "blue icing", LocalImagePath: staged},
		{ProductID: "p2", Quantity: 1},
	}
	m, err := f.pipeline.UploadOrderImages(ctx, o.ID, items)
	require.NoError(t, err)
	require.Len(t, m, 2)
	assert.Equal(t, "http://shop.test/media/orders/"+o.ID+"/abc_photo.jpg", m[0].ImageURL)
	assert.Equal(t, 2, m[0].Quantity)
	assert.Equal(t, "blue icing", m[0].Instruction)
	assert.Empty(t, m[1].ImageURL)

	data, err := os.ReadFile(filepath.Join(f.mediaDir, "orders", o.ID, "abc_photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	got, err := f.orders.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PipelineImagesUploaded, got.PipelineState)
}

func TestOrderPipeline_UploadMissingStagedFileIsIsolated(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	o, err := f.pipeline.CreateOrder(ctx, createCustomer(t, f), "sid-1", "", dec("3"), nil)
	require.NoError(t, err)

	ok := f.stage(t, "ok.png", "x")
	m, err := f.pipeline.UploadOrderImages(ctx, o.ID, []domain.CartItem{
		{ProductID: "p1", Quantity: 1, LocalImagePath: filepath.Join(f.stageDir, "gone.png")},
		{ProductID: "p2", Quantity: 1, LocalImagePath: ok},
	})
	require.Error(t, err)
	require.Len(t, m, 2)
	assert.Empty(t, m[0].ImageURL)
	assert.NotEmpty(t, m[1].ImageURL)
}

func TestOrderPipeline_ResumeAttachesInterruptedOrder(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	staged := f.stage(t, "card.png", "png")
	snapshot := []domain.CartItem{
		{ProductID: "p1", Name: "Card", UnitPrice: dec("4"), Quantity: 3, LocalImagePath: staged},
	}
	o, err := f.pipeline.CreateOrder(ctx, createCustomer(t, f), "sid-1", "", dec("12"), snapshot)
	require.NoError(t, err)

	n, err := f.pipeline.ResumeIncomplete(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.pipeline.Order(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PipelineAttached, got.PipelineState)
	require.Len(t, got.Products, 1)
	assert.Equal(t, 3, got.Products[0].Quantity)
	assert.Equal(t, "http://shop.test/media/orders/"+o.ID+"/card.png", got.Products[0].ImageURL)
	assert.Equal(t, 3, got.NumberOfItems())

	_, err = os.Stat(staged)
	assert.True(t, os.IsNotExist(err))

	// nothing left to resume
	n, err = f.pipeline.ResumeIncomplete(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestOrderPipeline_ResumeReusesUploadedBlob(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	staged := f.stage(t, "card.png", "png")
	snapshot := []domain.CartItem{{ProductID: "p1", Quantity: 1, LocalImagePath: staged}}
	o, err := f.pipeline.CreateOrder(ctx, createCustomer(t, f), "sid-1", "", dec("1"), snapshot)
	require.NoError(t, err)

	_, err = f.pipeline.UploadOrderImages(ctx, o.ID, snapshot)
	require.NoError(t, err)
	// staged copy lost after upload, before attach
	require.NoError(t, os.Remove(staged))

	got, err := f.pipeline.Resume(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PipelineAttached, got.PipelineState)
	assert.NotEmpty(t, got.Products[0].ImageURL)
}

func TestOrderPipeline_ResumeUnknownOrder(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.pipeline.Resume(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
