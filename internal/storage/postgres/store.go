package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ammLedger/internal/model"
	"ammLedger/internal/storage"
)

const uniqueViolation = "23505"

// Store provides Postgres persistence for the pool ledger and its journal.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ storage.LedgerStore = (*Store)(nil)
	_ storage.EventSink   = (*Store)(nil)
)

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Migrate creates the ledger tables if they are missing.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Store) CreateAdmin(ctx context.Context, admin model.Admin) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO admins (authority, created_at) VALUES ($1, $2)
	`, admin.Authority, admin.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("admin %s: %w", admin.Authority, storage.ErrAlreadyExists)
	}
	return err
}

func (s *Store) GetAdmin(ctx context.Context, authority string) (model.Admin, error) {
	var admin model.Admin
	row := s.pool.QueryRow(ctx, `SELECT authority, created_at FROM admins WHERE authority=$1`, authority)
	if err := row.Scan(&admin.Authority, &admin.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Admin{}, fmt.Errorf("admin %s: %w", authority, storage.ErrNotFound)
		}
		return model.Admin{}, err
	}
	return admin, nil
}

func (s *Store) CreatePool(ctx context.Context, pool model.Pool) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pools (
			pool_id, authority, asset_a, asset_b, lp_token, reserve_a, reserve_b, liquidity_supply, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6::text::numeric, $7::text::numeric, $8::text::numeric, $9, $10)
	`,
		pool.ID,
		pool.Authority,
		pool.AssetA,
		pool.AssetB,
		pool.LPToken,
		formatUint(pool.ReserveA),
		formatUint(pool.ReserveB),
		formatUint(pool.LiquiditySupply),
		pool.CreatedAt,
		pool.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("pool %s: %w", pool.ID, storage.ErrAlreadyExists)
	}
	return err
}

const poolColumns = `pool_id, authority, asset_a, asset_b, lp_token,
	reserve_a::text, reserve_b::text, liquidity_supply::text, created_at, updated_at`

func (s *Store) GetPool(ctx context.Context, id string) (model.Pool, error) {
	return getPool(ctx, s.pool, `SELECT `+poolColumns+` FROM pools WHERE pool_id=$1`, id)
}

func (s *Store) ListPools(ctx context.Context, authority string) ([]model.Pool, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+poolColumns+` FROM pools
		WHERE $1 = '' OR authority = $1
		ORDER BY pool_id
	`, authority)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Pool{}
	for rows.Next() {
		pool, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pool)
	}
	return out, rows.Err()
}

func (s *Store) GetPosition(ctx context.Context, poolID, owner string) (model.Position, error) {
	return getPosition(ctx, s.pool, `SELECT liquidity::text FROM positions WHERE pool_id=$1 AND owner=$2`, poolID, owner)
}

// Apply locks the pool row, runs fn and writes pool and position in one
// transaction.
func (s *Store) Apply(ctx context.Context, poolID, owner string, fn storage.Mutation) (model.Pool, model.Position, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return model.Pool{}, model.Position{}, err
	}
	defer tx.Rollback(ctx)

	pool, err := getPool(ctx, tx, `SELECT `+poolColumns+` FROM pools WHERE pool_id=$1 FOR UPDATE`, poolID)
	if err != nil {
		return model.Pool{}, model.Position{}, err
	}
	pos, err := getPosition(ctx, tx, `SELECT liquidity::text FROM positions WHERE pool_id=$1 AND owner=$2 FOR UPDATE`, poolID, owner)
	if err != nil {
		return model.Pool{}, model.Position{}, err
	}

	nextPool, nextPos, err := fn(pool, pos)
	if err != nil {
		return model.Pool{}, model.Position{}, err
	}
	nextPool.ID = poolID
	nextPos.PoolID, nextPos.Owner = poolID, owner

	batch := &pgx.Batch{}
	batch.Queue(`
		UPDATE pools SET
			reserve_a = $2::text::numeric,
			reserve_b = $3::text::numeric,
			liquidity_supply = $4::text::numeric,
			updated_at = $5
		WHERE pool_id = $1
	`, poolID, formatUint(nextPool.ReserveA), formatUint(nextPool.ReserveB), formatUint(nextPool.LiquiditySupply), nextPool.UpdatedAt)
	batch.Queue(`
		INSERT INTO positions (pool_id, owner, liquidity, updated_at)
		VALUES ($1, $2, $3::text::numeric, now())
		ON CONFLICT (pool_id, owner)
		DO UPDATE SET liquidity = EXCLUDED.liquidity, updated_at = now()
	`, poolID, owner, formatUint(nextPos.Liquidity))

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return model.Pool{}, model.Position{}, err
		}
	}
	if err := br.Close(); err != nil {
		return model.Pool{}, model.Position{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Pool{}, model.Position{}, err
	}
	return nextPool, nextPos, nil
}

// PutEventBatch inserts journal events.
func (s *Store) PutEventBatch(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(`
			INSERT INTO events (
				kind, pool_id, actor, amount_a, amount_b, liquidity, input, output, output_is_b, genesis,
				reserve_a, reserve_b, liquidity_supply, ts
			) VALUES ($1,$2,$3,$4::text::numeric,$5::text::numeric,$6::text::numeric,$7::text::numeric,$8::text::numeric,$9,$10,
				$11::text::numeric,$12::text::numeric,$13::text::numeric,$14)
		`,
			string(ev.Kind),
			ev.PoolID,
			ev.Actor,
			formatUint(ev.AmountA),
			formatUint(ev.AmountB),
			formatUint(ev.Liquidity),
			formatUint(ev.Input),
			formatUint(ev.Output),
			ev.OutputIsB,
			ev.Genesis,
			formatUint(ev.ReserveA),
			formatUint(ev.ReserveB),
			formatUint(ev.LiquiditySupply),
			ev.Timestamp,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getPool(ctx context.Context, q querier, sql string, id string) (model.Pool, error) {
	pool, err := scanPool(q.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Pool{}, fmt.Errorf("pool %s: %w", id, storage.ErrNotFound)
		}
		return model.Pool{}, err
	}
	return pool, nil
}

func getPosition(ctx context.Context, q querier, sql string, poolID, owner string) (model.Position, error) {
	pos := model.Position{PoolID: poolID, Owner: owner}
	var liquidity string
	if err := q.QueryRow(ctx, sql, poolID, owner).Scan(&liquidity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pos, nil
		}
		return model.Position{}, err
	}
	v, err := parseUint("liquidity", liquidity)
	if err != nil {
		return model.Position{}, err
	}
	pos.Liquidity = v
	return pos, nil
}

func scanPool(row pgx.Row) (model.Pool, error) {
	var (
		pool                 model.Pool
		reserveA, reserveB   string
		supply               string
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(
		&pool.ID, &pool.Authority, &pool.AssetA, &pool.AssetB, &pool.LPToken,
		&reserveA, &reserveB, &supply, &createdAt, &updatedAt,
	); err != nil {
		return model.Pool{}, err
	}
	var err error
	if pool.ReserveA, err = parseUint("reserve_a", reserveA); err != nil {
		return model.Pool{}, err
	}
	if pool.ReserveB, err = parseUint("reserve_b", reserveB); err != nil {
		return model.Pool{}, err
	}
	if pool.LiquiditySupply, err = parseUint("liquidity_supply", supply); err != nil {
		return model.Pool{}, err
	}
	pool.CreatedAt, pool.UpdatedAt = createdAt.UTC(), updatedAt.UTC()
	return pool, nil
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseUint(column, v string) (uint64, error) {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", column, v, err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
