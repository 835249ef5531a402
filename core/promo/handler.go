package promo

import (
	"context"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/wshao/campus-market/api/web"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		promos, err := FetchAll(ctx, db)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, promos, http.StatusOK)
	}
}
