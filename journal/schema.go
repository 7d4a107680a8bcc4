package journal

// Money columns are stored as TEXT to keep decimal values exact; times are
// RFC3339 strings so range queries compare lexicographically.
const Schema = `
CREATE TABLE IF NOT EXISTS closed_trades (
	id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity TEXT NOT NULL,
	entry_price TEXT NOT NULL,
	exit_price TEXT NOT NULL,
	entry_time TEXT NOT NULL,
	exit_time TEXT NOT NULL,
	commission TEXT NOT NULL,
	gross_pl TEXT NOT NULL,
	net_pl TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_closed_exit_time ON closed_trades(exit_time);
CREATE INDEX IF NOT EXISTS idx_closed_symbol ON closed_trades(symbol);
`
