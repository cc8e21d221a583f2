package services_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"shopfront/internal/blob"
	"shopfront/internal/cache"
	"shopfront/internal/repos"
	"shopfront/internal/services"
)

const testBusiness = "biz-1"

type fixture struct {
	db        *sqlx.DB
	orders    *repos.OrderRepo
	sessions  *repos.CheckoutSessionRepo
	customers *services.CustomerDirectory
	carts     *services.CartService
	pipeline  *services.OrderPipeline
	guard     *services.CheckoutGuard
	blobs     services.BlobStore
	mediaDir  string
	stageDir  string
}

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newFixture wires the checkout stack on an in-memory database. blobs may be
// nil to use a filesystem store under a temp dir.
func newFixture(t *testing.T, blobs services.BlobStore) *fixture {
	t.Helper()
	db := memdb(t)
	f := &fixture{
		db:       db,
		orders:   repos.NewOrderRepo(db),
		sessions: repos.NewCheckoutSessionRepo(db),
		mediaDir: t.TempDir(),
		stageDir: t.TempDir(),
	}
	if blobs == nil {
		blobs = blob.NewFSStore(f.mediaDir, "http://shop.test")
	}
	f.blobs = blobs
	f.customers = services.NewCustomerDirectory(repos.NewCustomerRepo(db), testBusiness)
	f.carts = services.NewCartService(cache.NewMemoryCache())
	f.rewire(f.orders, f.sessions)
	return f
}

// rewire rebuilds the pipeline and guard over the given stores, keeping the
// fixture's carts and customers.
func (f *fixture) rewire(orders services.OrderStore, sessions services.SessionStore) {
	f.pipeline = services.NewOrderPipeline(orders, f.blobs, testBusiness)
	f.guard = services.NewCheckoutGuard(sessions, f.customers, f.pipeline, f.carts)
}

// stage writes a staged upload the way the customize handler does.
func (f *fixture) stage(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(f.stageDir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

// knownCustomer moves sid to CustomerKnown with a fresh customer.
func (f *fixture) knownCustomer(t *testing.T, sid string) {
	t.Helper()
	ctx := context.Background()
	out := f.guard.SubmitPhone(ctx, sid, "0971234567", "Plot 12, Lusaka")
	require.Equal(t, services.StepCustomer, out.Next, out.Message)
	out = f.guard.SubmitCustomer(ctx, sid, services.NewCustomer{Name: "Mwila", Location: "Kitwe"})
	require.Equal(t, services.StepPayout, out.Next, out.Message)
}

func (f *fixture) countOrders(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.Get(&n, `SELECT COUNT(*) FROM orders`))
	return n
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
