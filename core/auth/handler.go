package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/wshao/campus-market/api/web"
	"github.com/wshao/campus-market/api/weberr"
	"github.com/wshao/campus-market/core/cart"
	"github.com/wshao/campus-market/core/claims"
	"github.com/wshao/campus-market/core/user"
	"github.com/wshao/campus-market/validate"
	"golang.org/x/crypto/bcrypt"
)

func HandleSignup(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var us user.UserSignup
		if err := web.Decode(w, r, &us); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(us); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(us.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		now := time.Now().UTC()
		u := user.User{
			ID:           validate.GenerateID(),
			Email:        strings.ToLower(strings.TrimSpace(us.Email)),
			Name:         strings.TrimSpace(us.Name),
			Role:         claims.RoleCustomer,
			PasswordHash: string(hash),
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if _, err := user.FetchByEmail(ctx, db, u.Email); err == nil {
			return weberr.Unprocessable(user.ErrDuplicate)
		} else if !errors.Is(err, user.ErrNotFound) {
			return err
		}

		// The existence check above can lose a race to a concurrent signup;
		// the unique constraint surfaces that as the same rejection.
		if err := user.Create(ctx, db, u); err != nil {
			if errors.Is(err, user.ErrDuplicate) {
				return weberr.Unprocessable(err)
			}
			return err
		}

		return web.Respond(ctx, w, u, http.StatusCreated)
	}
}

func HandleLogin(db *sqlx.DB, sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var ul user.UserLogin
		if err := web.Decode(w, r, &ul); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(ul); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		u, err := user.FetchByEmail(ctx, db, strings.ToLower(strings.TrimSpace(ul.Email)))
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				return weberr.NotAuthorized(errors.New("wrong credentials"))
			}
			return err
		}

		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(ul.Password)); err != nil {
			return weberr.NotAuthorized(errors.New("wrong credentials"))
		}

		if err := sm.RenewToken(ctx); err != nil {
			return fmt.Errorf("renewing session token: %w", err)
		}

		sm.Put(ctx, sessionEmail, u.Email)
		sm.Put(ctx, sessionName, u.Name)
		sm.Put(ctx, sessionRole, u.Role)

		return web.Respond(ctx, w, u, http.StatusOK)
	}
}

// HandleLogout destroys the session and drops the customer's in-memory
// cart.
func HandleLogout(sm *scs.SessionManager, carts *cart.Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if email := sm.GetString(ctx, sessionEmail); email != "" {
			carts.Drop(email)
		}

		if err := sm.Destroy(ctx); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
