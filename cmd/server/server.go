package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexedwards/scs/v2"
	"github.com/ardanlabs/conf/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/wshao/campus-market/api"
	"github.com/wshao/campus-market/config"
	"github.com/wshao/campus-market/core/account"
	"github.com/wshao/campus-market/core/cart"
	"github.com/wshao/campus-market/core/checkout"
	"github.com/wshao/campus-market/core/membership"
	"github.com/wshao/campus-market/core/order"
	"github.com/wshao/campus-market/core/payment"
	"github.com/wshao/campus-market/core/pricing"
	"github.com/wshao/campus-market/core/product"
	"github.com/wshao/campus-market/core/promo"
	"github.com/wshao/campus-market/database"
	"github.com/wshao/campus-market/rate"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	logger.Infof("starting server")
	defer logger.Info("shutdown complete")

	const prefix = "CAMPUS"
	var cfg config.Config
	if _, err := conf.Parse(prefix, &cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	db, err := database.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open db connection: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrating db: %w", err)
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.Session.Lifetime

	deliveryFee, err := decimal.NewFromString(cfg.Store.DeliveryFee)
	if err != nil {
		return fmt.Errorf("parsing delivery fee: %w", err)
	}
	membershipFee, err := decimal.NewFromString(cfg.Store.MembershipFee)
	if err != nil {
		return fmt.Errorf("parsing membership fee: %w", err)
	}

	prc := pricing.Resolver{
		StudentDomain: cfg.Store.StudentDomain,
		StaffDomain:   cfg.Store.StaffDomain,
		DeliveryFee:   deliveryFee,
	}

	carts := cart.NewRegistry()

	engine := checkout.New(checkout.Config{
		Log:      logger,
		Accounts: account.Store{DB: db},
		Products: product.Store{DB: db},
		Orders:   order.Ledger{DB: db},
		Payments: payment.Ledger{DB: db},
		Members:  membership.Lookup{DB: db},
		Pricing:  prc,
		Promos:   promo.Resolver{Catalog: promo.Catalog{DB: db}},
	})

	limiter := rate.NewLimiter(cfg.Rate.Burst, cfg.Rate.ExpiryMinutes, cfg.Rate.RequestsPerS)

	mux := api.APIMux(api.APIConfig{
		CorsOrigin:    cfg.Cors.Origin,
		Log:           logger,
		DB:            db,
		Session:       sessionManager,
		Carts:         carts,
		Engine:        engine,
		Limiter:       limiter,
		MembershipFee: membershipFee,
	})

	api := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}
	return nil
}
