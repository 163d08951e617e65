package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"review_hero/internal/domain"
)

const errDuplicateEntry = 1062

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}

func valBool(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}

func ptrNullStr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func ptrNullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func ptrNullBool(b sql.NullBool) *bool {
	if !b.Valid {
		return nil
	}
	v := b.Bool
	return &v
}

func isDuplicate(err error) bool {
	var me *gomysql.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}

// notFound turns sql.ErrNoRows into domain.ErrNotFound with some context.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return err
}

func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

// Repo implements domain.Store on MySQL. q is either the pool or the
// transaction the Repo was scoped to by WithTx.
type Repo struct {
	db *sqlx.DB
	q  sqlx.ExtContext
}

func New(db *sqlx.DB) *Repo { return &Repo{db: db, q: db} }

var _ domain.Store = (*Repo)(nil)

func (r *Repo) WithTx(ctx context.Context, fn func(domain.Store) error) error {
	if _, nested := r.q.(*sqlx.Tx); nested {
		return fn(r)
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Repo{db: r.db, q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	return tx.Commit()
}
