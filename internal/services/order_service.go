package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"shopfront/internal/domain"
	applog "shopfront/internal/log"
)

// OrderPipeline turns a cart snapshot into a stored order in three steps:
// create, upload images, attach manifest. Each step is recorded on the order
// as its pipeline_state so an interrupted run can be resumed.
type OrderPipeline struct {
	orders     OrderStore
	blobs      BlobStore
	businessID string
}

func NewOrderPipeline(orders OrderStore, blobs BlobStore, businessID string) *OrderPipeline {
	return &OrderPipeline{orders: orders, blobs: blobs, businessID: businessID}
}

func (p *OrderPipeline) CreateOrder(ctx context.Context, customerID, sessionID, location string, total decimal.Decimal, snapshot []domain.CartItem) (*domain.Order, error) {
	o, err := p.orders.Insert(ctx, domain.Order{
		BusinessID:        p.businessID,
		CustomerID:        customerID,
		CheckoutSessionID: sessionID,
		TotalAmount:       total,
		Status:            domain.OrderPending,
		PaymentStatus:     domain.PaymentPending,
		DeliveryLocation:  location,
		Products:          domain.Manifest{},
		PipelineState:     domain.PipelineCreated,
		CartSnapshot:      snapshot,
	})
	if err != nil {
		applog.Error(nil, "order.create.fail", err, map[string]any{"customer_id": customerID})
		return nil, fmt.Errorf("create order: %w", err)
	}
	applog.Audit(nil, "order.create", map[string]any{"order_id": o.ID, "customer_id": customerID, "total": total.StringFixed(2)})
	return o, nil
}

// UploadOrderImages builds the manifest for items, uploading each staged
// image to orders/{order_id}/{filename}. A failed upload leaves that entry
// without a URL; the full manifest is always returned and the failures are
// joined into the error.
func (p *OrderPipeline) UploadOrderImages(ctx context.Context, orderID string, items []domain.CartItem) (domain.Manifest, error) {
	manifest := make(domain.Manifest, 0, len(items))
	var errs []error
	for _, it := range items {
		entry := domain.ManifestEntry{
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			Instruction: it.Instruction,
		}
		if it.LocalImagePath != "" {
			url, err := p.uploadOne(ctx, orderID, it.LocalImagePath)
			if err != nil {
				applog.Warn(nil, "order.upload.fail", err, map[string]any{"order_id": orderID, "product_id": it.ProductID})
				errs = append(errs, fmt.Errorf("upload %s: %w", it.ProductID, err))
			} else {
				entry.ImageURL = url
			}
		}
		manifest = append(manifest, entry)
	}
	if err := p.orders.SetPipelineState(ctx, orderID, domain.PipelineImagesUploaded); err != nil {
		applog.Error(nil, "order.pipeline_state.fail", err, map[string]any{"order_id": orderID})
	}
	return manifest, errors.Join(errs...)
}

// uploadOne reuses a blob already stored under the order's key.
func (p *OrderPipeline) uploadOne(ctx context.Context, orderID, localPath string) (string, error) {
	key := "orders/" + orderID + "/" + filepath.Base(localPath)
	if ok, err := p.blobs.Exists(ctx, key); err == nil && ok {
		return p.blobs.PublicURL(key), nil
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}
	if err := p.blobs.Upload(ctx, key, data); err != nil {
		return "", err
	}
	return p.blobs.PublicURL(key), nil
}

func (p *OrderPipeline) AttachProducts(ctx context.Context, orderID string, m domain.Manifest) error {
	if err := p.orders.AttachProducts(ctx, orderID, m); err != nil {
		applog.Error(nil, "order.attach.fail", err, map[string]any{"order_id": orderID})
		return fmt.Errorf("attach products: %w", err)
	}
	return nil
}

func (p *OrderPipeline) Order(ctx context.Context, orderID string) (*domain.Order, error) {
	return p.orders.Get(ctx, orderID)
}

// UnfinishedForSession returns the unattached order placed from sessionID,
// or ErrOrderNotFound.
func (p *OrderPipeline) UnfinishedForSession(ctx context.Context, sessionID string) (*domain.Order, error) {
	return p.orders.FindUnattachedBySession(ctx, p.businessID, sessionID)
}

// Resume finishes the pipeline of an unattached order from its cart snapshot.
// Attached orders are returned as they are.
func (p *OrderPipeline) Resume(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := p.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.PipelineState == domain.PipelineAttached {
		return o, nil
	}
	items := []domain.CartItem(o.CartSnapshot)
	manifest, uerr := p.UploadOrderImages(ctx, orderID, items)
	if err := p.AttachProducts(ctx, orderID, manifest); err != nil {
		return nil, err
	}
	p.DiscardStaged(items)
	applog.Audit(nil, "order.resume", map[string]any{"order_id": orderID, "upload_errors": uerr != nil})
	return p.orders.Get(ctx, orderID)
}

// ResumeIncomplete resumes every unattached order of the business and
// reports how many were attached.
func (p *OrderPipeline) ResumeIncomplete(ctx context.Context) (int, error) {
	pending, err := p.orders.ListUnattached(ctx, p.businessID)
	if err != nil {
		return 0, fmt.Errorf("list unattached orders: %w", err)
	}
	n := 0
	var errs []error
	for _, o := range pending {
		if _, err := p.Resume(ctx, o.ID); err != nil {
			errs = append(errs, fmt.Errorf("resume %s: %w", o.ID, err))
			continue
		}
		n++
	}
	return n, errors.Join(errs...)
}

// DiscardStaged removes the local staged images of items.
func (p *OrderPipeline) DiscardStaged(items []domain.CartItem) {
	for _, it := range items {
		removeStaged(it.LocalImagePath)
	}
}
