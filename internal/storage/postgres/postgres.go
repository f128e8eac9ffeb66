package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"signal-arena/internal/domain"
	"signal-arena/internal/storage"
)

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a new Postgres connection pool and verifies it with a ping.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// PostgreSQL error codes
const (
	pgErrUniqueViolation   = "23505" // unique_violation
	pgErrCheckViolation    = "23514" // check_violation
	pgErrNumericOutOfRange = "22003" // numeric_value_out_of_range
)

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isDuplicateKeyError checks if error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	return err != nil && pgErrCode(err) == pgErrUniqueViolation
}

// isRangeError checks if error is a CHECK or numeric range violation.
func isRangeError(err error) bool {
	if err == nil {
		return false
	}
	code := pgErrCode(err)
	return code == pgErrCheckViolation || code == pgErrNumericOutOfRange
}

// isNotFoundError checks if error indicates no rows found.
func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// codec converts between ledger values and column values. Amounts are
// unsigned in the domain and BIGINT in the schema; any value that does not
// fit fails the whole statement instead of wrapping.
type codec struct {
	err error
}

func (c *codec) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// bigint encodes an unsigned amount.
func (c *codec) bigint(v uint64) int64 {
	if v > math.MaxInt64 {
		c.fail(fmt.Errorf("%w: %d exceeds BIGINT", storage.ErrInvalidInput, v))
		return 0
	}
	return int64(v)
}

// u64 decodes a BIGINT amount.
func (c *codec) u64(v int64) uint64 {
	if v < 0 {
		c.fail(fmt.Errorf("negative amount %d in ledger", v))
		return 0
	}
	return uint64(v)
}

// u32 decodes a BIGINT counter that is 32-bit in the domain.
func (c *codec) u32(v int64) uint32 {
	if v < 0 || v > math.MaxUint32 {
		c.fail(fmt.Errorf("counter %d out of uint32 range", v))
		return 0
	}
	return uint32(v)
}

// addr decodes a base58 address column.
func (c *codec) addr(s string) domain.Address {
	a, err := domain.ParseAddress(s)
	if err != nil {
		c.fail(err)
	}
	return a
}

// closedEnum is a string enumeration with a fixed set of values.
type closedEnum interface {
	~string
	IsValid() bool
}

// enum decodes a status, rank or badge column, rejecting values the domain
// does not know.
func enum[T closedEnum](c *codec, s string) T {
	v := T(s)
	if !v.IsValid() {
		c.fail(fmt.Errorf("unknown %T %q in ledger", v, s))
	}
	return v
}

// hash decodes a 32-byte BYTEA column.
func (c *codec) hash(b []byte) [domain.HashLen]byte {
	var h [domain.HashLen]byte
	if len(b) != domain.HashLen {
		c.fail(fmt.Errorf("hash has %d bytes", len(b)))
		return h
	}
	copy(h[:], b)
	return h
}
