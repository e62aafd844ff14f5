package repository

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Tables are created on startup, the way the original prototype did it.
// Real migrations are overkill for a two-table demo schema
var tables = []string{
	`CREATE TABLE IF NOT EXISTS demo_accounts (
		demo_id SERIAL PRIMARY KEY,
		user_id INT NOT NULL UNIQUE,
		allocated_amount DECIMAL(12, 2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions (
		transaction_id SERIAL PRIMARY KEY,
		demo_id INT NOT NULL REFERENCES demo_accounts (demo_id) ON DELETE CASCADE,
		transaction_type VARCHAR(4) NOT NULL CHECK (transaction_type IN ('BUY', 'SELL')),
		stock_symbol VARCHAR(10) NOT NULL,
		quantity INT NOT NULL CHECK (quantity > 0),
		price DECIMAL(12, 2) NOT NULL,
		margin_held DECIMAL(12, 2) NOT NULL DEFAULT 0,
		status VARCHAR(10) NOT NULL DEFAULT 'OPEN' CHECK (status IN ('OPEN', 'CLOSED')),
		closes_transaction_id INT REFERENCES transactions (transaction_id),
		timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// Migrate creates the schema if it does not exist yet
func (r *Repository) Migrate(ctx context.Context) error {
	for _, table := range tables {
		if _, err := r.pool.Exec(ctx, table); err != nil {
			return connErr("migrate", err)
		}
	}
	log.Info("database schema is up to date")
	return nil
}
