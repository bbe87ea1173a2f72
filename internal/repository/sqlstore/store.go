// Package sqlstore implements the repository interfaces on top of sqlx and
// squirrel. The same code serves lib/pq, pgx and sqlite3 connections.
package sqlstore

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/hashicorp/go-multierror"
	"github.com/jmoiron/sqlx"

	"github.com/Kerhoff/wishbot/internal/repository"
)

// conn is what every repository needs: something to run statements on and
// a builder producing the right placeholders for the driver.
type conn struct {
	ext sqlx.ExtContext
	sb  sq.StatementBuilderType
}

// Store is the SQL backed repository.Store
type Store struct {
	db *sqlx.DB
	tx *sqlx.Tx
	conn
}

// New creates a store over an open database handle
func New(db *sqlx.DB) *Store {
	sb := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if sqlx.BindType(db.DriverName()) == sqlx.DOLLAR {
		sb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return &Store{db: db, conn: conn{ext: db, sb: sb}}
}

func (s *Store) Households() repository.HouseholdRepository {
	return &householdRepository{conn: s.conn}
}

func (s *Store) Members() repository.MemberRepository {
	return &memberRepository{conn: s.conn}
}

func (s *Store) Categories() repository.CategoryRepository {
	return &categoryRepository{conn: s.conn}
}

func (s *Store) Items() repository.ItemRepository {
	return &itemRepository{conn: s.conn}
}

func (s *Store) Images() repository.ItemImageRepository {
	return &imageRepository{conn: s.conn}
}

func (s *Store) Drafts() repository.DraftRepository {
	return &draftRepository{conn: s.conn}
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithinTx runs fn inside a transaction. Nested calls join the outer
// transaction. The transaction is rolled back when fn returns an error or
// panics.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	txStore := &Store{db: s.db, tx: tx, conn: conn{ext: tx, sb: s.sb}}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return multierror.Append(err, fmt.Errorf("failed to roll back: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
