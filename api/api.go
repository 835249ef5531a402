package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/wshao/campus-market/api/middleware"
	"github.com/wshao/campus-market/api/web"
	"github.com/wshao/campus-market/core/account"
	"github.com/wshao/campus-market/core/auth"
	"github.com/wshao/campus-market/core/cart"
	"github.com/wshao/campus-market/core/checkout"
	"github.com/wshao/campus-market/core/membership"
	"github.com/wshao/campus-market/core/order"
	"github.com/wshao/campus-market/core/product"
	"github.com/wshao/campus-market/core/promo"
	"github.com/wshao/campus-market/core/store"
	"github.com/wshao/campus-market/rate"
)

type APIConfig struct {
	CorsOrigin    string
	Log           logrus.FieldLogger
	DB            *sqlx.DB
	Session       *scs.SessionManager
	Carts         *cart.Registry
	Engine        *checkout.Engine
	Limiter       *rate.Limiter
	MembershipFee decimal.Decimal
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

// APIMux builds the routing table with the common middleware chain applied
// to every route.
func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	// Cors runs before RateLimit so even a 429 carries the CORS headers
	// browsers need to surface the response.
	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	if cfg.Limiter != nil {
		a.mw = append(a.mw, middleware.RateLimit(cfg.Limiter))
	}

	authen := auth.Authenticate(cfg.Session)
	admin := auth.Admin(cfg.Session)
	eng := cfg.Engine

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB))
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session, cfg.Carts))

	a.Handle(http.MethodGet, "/products/categories", product.HandleCategories(cfg.DB))
	a.Handle(http.MethodGet, "/products/{id}", product.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/products", product.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/products", product.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/products/{id}", product.HandleUpdate(cfg.DB), admin)
	a.Handle(http.MethodDelete, "/products/{id}", product.HandleDelete(cfg.DB), admin)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.DB, cfg.Carts, eng.Pricing()), authen)
	a.Handle(http.MethodDelete, "/cart", cart.HandleClear(cfg.Carts), authen)
	a.Handle(http.MethodPost, "/cart/items", cart.HandleAddItem(cfg.DB, cfg.Carts), authen)
	a.Handle(http.MethodPut, "/cart/items/{product_id}", cart.HandleUpdateItem(cfg.DB, cfg.Carts), authen)
	a.Handle(http.MethodDelete, "/cart/items/{product_id}", cart.HandleRemoveItem(cfg.Carts), authen)

	a.Handle(http.MethodPost, "/checkout/preview", checkout.HandlePreview(cfg.DB, eng, cfg.Carts), authen)
	a.Handle(http.MethodPost, "/checkout", checkout.HandleCheckout(cfg.DB, eng, cfg.Carts), authen)

	a.Handle(http.MethodGet, "/orders/{id}/items", order.HandleShowItems(cfg.DB), authen)
	a.Handle(http.MethodGet, "/orders", order.HandleList(cfg.DB), authen)

	a.Handle(http.MethodGet, "/account", account.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodPost, "/account/topup", account.HandleTopUp(cfg.DB), authen)

	a.Handle(http.MethodGet, "/membership", membership.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodPost, "/membership", membership.HandlePurchase(cfg.DB, cfg.MembershipFee), authen)
	a.Handle(http.MethodDelete, "/membership", membership.HandleCancel(cfg.DB), authen)

	a.Handle(http.MethodGet, "/stores/{id}", store.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/stores", store.HandleList(cfg.DB))

	a.Handle(http.MethodGet, "/promos", promo.HandleList(cfg.DB), admin)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {
	handler = web.WrapMiddleware(mw, handler)
	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {
			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
