package membership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNoMembership is returned when the customer has no membership record.
var ErrNoMembership = errors.New("no membership")

func Fetch(ctx context.Context, db sqlx.ExtContext, email string) (Membership, error) {
	const q = `SELECT * FROM memberships WHERE email = $1`

	var m Membership
	if err := sqlx.GetContext(ctx, db, &m, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Membership{}, ErrNoMembership
		}
		return Membership{}, fmt.Errorf("fetching membership of %s: %w", email, err)
	}

	return m, nil
}

func Upsert(ctx context.Context, db sqlx.ExtContext, m Membership) error {
	const q = `
	INSERT INTO memberships (email, plan, status, start_date, end_date, updated_at)
	VALUES (:email, :plan, :status, :start_date, :end_date, :updated_at)
	ON CONFLICT (email) DO UPDATE SET
		plan = EXCLUDED.plan,
		status = EXCLUDED.status,
		start_date = EXCLUDED.start_date,
		end_date = EXCLUDED.end_date,
		updated_at = EXCLUDED.updated_at`

	m.UpdatedAt = time.Now().UTC()
	if _, err := sqlx.NamedExecContext(ctx, db, q, m); err != nil {
		return fmt.Errorf("upserting membership of %s: %w", m.Email, err)
	}

	return nil
}

// Lookup adapts the memberships table to the checkout engine. Customers
// without a record are simply not members.
type Lookup struct {
	DB *sqlx.DB
}

func (l Lookup) IsActive(ctx context.Context, email string) (bool, error) {
	m, err := Fetch(ctx, l.DB, email)
	if err != nil {
		if errors.Is(err, ErrNoMembership) {
			return false, nil
		}
		return false, err
	}
	return m.Active(time.Now().UTC()), nil
}
