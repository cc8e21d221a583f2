package handlers

import (
	"github.com/jmoiron/sqlx"

	"shopfront/internal/cache"
	"shopfront/internal/config"
	"shopfront/internal/repos"
	"shopfront/internal/services"
)

type Deps struct {
	ProductHandler  *ProductHandler
	CartHandler     *CartHandler
	CheckoutHandler *CheckoutHandler
	AdminHandler    *AdminHandler

	Cart     *services.CartService
	Pipeline *services.OrderPipeline
}

func NewDeps(db *sqlx.DB, cfg config.Config, carts cache.CartCache, blobs services.BlobStore) *Deps {
	prodRepo := repos.NewProductRepo(db)
	custRepo := repos.NewCustomerRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	sessRepo := repos.NewCheckoutSessionRepo(db)

	catalogSvc := services.NewCatalogService(prodRepo, cfg.BusinessID)
	cartSvc := services.NewCartService(carts)
	customers := services.NewCustomerDirectory(custRepo, cfg.BusinessID)
	pipeline := services.NewOrderPipeline(orderRepo, blobs, cfg.BusinessID)
	guard := services.NewCheckoutGuard(sessRepo, customers, pipeline, cartSvc)

	return &Deps{
		ProductHandler:  &ProductHandler{Catalog: catalogSvc},
		CartHandler:     &CartHandler{Cart: cartSvc, Catalog: catalogSvc, StagingDir: cfg.StagingDir},
		CheckoutHandler: &CheckoutHandler{Guard: guard, Cart: cartSvc},
		AdminHandler:    &AdminHandler{Orders: orderRepo, Pipeline: pipeline, BusinessID: cfg.BusinessID},
		Cart:            cartSvc,
		Pipeline:        pipeline,
	}
}
