// store/store.go

// Package store persists notes and folders in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/vinizap/lumi-notes/apperr"
	"github.com/vinizap/lumi-notes/config"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Store struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// New wraps an open database handle.
func New(db *sqlx.DB, log zerolog.Logger) *Store {
	return &Store{db: db, log: log}
}

// Open connects through the pgx driver and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*Store, error) {
	db, err := sqlx.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(db, log), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// translate maps driver errors onto apperr codes. notFound is the message for
// a missing row, fkMessage the one for a dangling folder reference.
func translate(err error, notFound, fkMessage string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(notFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return apperr.Wrap(err, apperr.CodeConflict, "Record already exists")
		case pgerrcode.ForeignKeyViolation:
			return apperr.Wrap(err, apperr.CodeValidation, fkMessage)
		case pgerrcode.StringDataRightTruncationDataException:
			return apperr.Wrap(err, apperr.CodeValidation, "Value too long")
		case pgerrcode.NotNullViolation:
			return apperr.Wrap(err, apperr.CodeValidation, "Missing required value")
		}
	}
	return err
}

// nullableID converts an optional id into a driver argument.
func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func idPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func withDefault(v sql.NullString, def string) string {
	if !v.Valid || v.String == "" {
		return def
	}
	return v.String
}

func columnList(cols []string) string {
	return strings.Join(cols, ", ")
}
