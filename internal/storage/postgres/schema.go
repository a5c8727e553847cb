package postgres

// Amounts are NUMERIC(20,0) so the full uint64 range round-trips.
const schema = `
CREATE TABLE IF NOT EXISTS admins (
	authority  TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS pools (
	pool_id          TEXT PRIMARY KEY,
	authority        TEXT NOT NULL REFERENCES admins (authority),
	asset_a          TEXT NOT NULL,
	asset_b          TEXT NOT NULL,
	lp_token         TEXT NOT NULL,
	reserve_a        NUMERIC(20,0) NOT NULL DEFAULT 0,
	reserve_b        NUMERIC(20,0) NOT NULL DEFAULT 0,
	liquidity_supply NUMERIC(20,0) NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS pools_authority_idx ON pools (authority);

CREATE TABLE IF NOT EXISTS positions (
	pool_id    TEXT NOT NULL REFERENCES pools (pool_id),
	owner      TEXT NOT NULL,
	liquidity  NUMERIC(20,0) NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (pool_id, owner)
);

CREATE TABLE IF NOT EXISTS events (
	id               BIGSERIAL PRIMARY KEY,
	kind             TEXT NOT NULL,
	pool_id          TEXT NOT NULL,
	actor            TEXT NOT NULL,
	amount_a         NUMERIC(20,0) NOT NULL,
	amount_b         NUMERIC(20,0) NOT NULL,
	liquidity        NUMERIC(20,0) NOT NULL,
	input            NUMERIC(20,0) NOT NULL,
	output           NUMERIC(20,0) NOT NULL,
	output_is_b      BOOLEAN NOT NULL,
	genesis          BOOLEAN NOT NULL,
	reserve_a        NUMERIC(20,0) NOT NULL,
	reserve_b        NUMERIC(20,0) NOT NULL,
	liquidity_supply NUMERIC(20,0) NOT NULL,
	ts               TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS events_pool_idx ON events (pool_id, ts);
`
