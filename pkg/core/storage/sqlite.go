// Package storage persists the ledger state observed by the oracle: its outputs,
// the units it authored, their stability and the data feeds they carried.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/fact"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/ledger"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = ledger.ErrNotFound
	// ErrUnitStable is returned when discarding a unit that is already stable.
	ErrUnitStable = errors.New("unit-stable")
)

var pragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA busy_timeout=5000;",
	"PRAGMA temp_store=MEMORY;",
	"PRAGMA foreign_keys=ON;",
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS units(
		unit TEXT PRIMARY KEY,
		is_stable BOOL NOT NULL DEFAULT false,
		block_height INTEGER,
		created_at TEXT NOT NULL DEFAULT current_timestamp,
		updated_at TEXT NOT NULL DEFAULT current_timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS unit_authors(
		unit TEXT NOT NULL REFERENCES units(unit),
		address TEXT NOT NULL,
		PRIMARY KEY(unit, address)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_unit_authors_address ON unit_authors(address)`,
	`CREATE TABLE IF NOT EXISTS outputs(
		unit TEXT NOT NULL REFERENCES units(unit),
		output_index INTEGER NOT NULL,
		address TEXT NOT NULL,
		amount BIGINT NOT NULL,
		asset TEXT,
		script BLOB,
		is_spent BOOL NOT NULL DEFAULT false,
		created_at TEXT NOT NULL DEFAULT current_timestamp,
		PRIMARY KEY(unit, output_index)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outputs_address_spent ON outputs(address, is_spent)`,
	`CREATE TABLE IF NOT EXISTS fee_credits(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		address TEXT NOT NULL,
		amount BIGINT NOT NULL,
		is_spent BOOL NOT NULL DEFAULT false,
		created_at TEXT NOT NULL DEFAULT current_timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS data_feeds(
		unit TEXT NOT NULL REFERENCES units(unit),
		fact_key TEXT NOT NULL,
		feed_name TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY(unit, feed_name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_data_feeds_fact_key ON data_feeds(fact_key)`,
}

// SQLiteStorage keeps a single-connection writer and a pooled reader over the same database file.
type SQLiteStorage struct {
	wDB *sql.DB
	rDB *sql.DB
}

// NewSQLiteStorage opens (and migrates) the database identified by conn.
func NewSQLiteStorage(conn string) (*SQLiteStorage, error) {
	wdb, err := open(conn)
	if err != nil {
		return nil, err
	}
	for _, stmt := range schema {
		if _, err := wdb.Exec(stmt); err != nil {
			wdb.Close() //nolint:errcheck
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	rdb, err := open(conn)
	if err != nil {
		wdb.Close() //nolint:errcheck
		return nil, err
	}
	wdb.SetMaxOpenConns(1)
	return &SQLiteStorage{wDB: wdb, rDB: rdb}, nil
}

func open(conn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", conn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close() //nolint:errcheck
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	return db, nil
}

// SpendableOutputs returns the stable, unspent, asset-less outputs of address.
func (s *SQLiteStorage) SpendableOutputs(ctx context.Context, address string) ([]*ledger.SpendableOutput, error) {
	rows, err := s.rDB.QueryContext(ctx, `
		SELECT o.unit, o.output_index, o.amount, o.script
		FROM outputs o JOIN units u ON u.unit = o.unit
		WHERE o.address = ? AND u.is_stable = 1 AND o.asset IS NULL AND o.is_spent = 0
		ORDER BY o.amount DESC`,
		address,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var outputs []*ledger.SpendableOutput
	for rows.Next() {
		o := &ledger.SpendableOutput{Address: address, IsStable: true}
		if err := rows.Scan(&o.Txid, &o.Vout, &o.Amount, &o.LockingScript); err != nil {
			return nil, err
		}
		outputs = append(outputs, o)
	}
	return outputs, rows.Err()
}

// SaveUnit records a unit about to be broadcast: the unit itself (unstable), its author,
// the outputs it spent, the outputs it created for the author and its data feeds.
func (s *SQLiteStorage) SaveUnit(ctx context.Context, unit *ledger.Unit) error {
	tx, err := s.wDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO units(unit) VALUES(?)
		ON CONFLICT(unit) DO NOTHING`,
		unit.ID,
	); err != nil {
		return err
	} else if _, err = tx.ExecContext(ctx, `
		INSERT INTO unit_authors(unit, address) VALUES(?, ?)
		ON CONFLICT(unit, address) DO NOTHING`,
		unit.ID,
		unit.Author,
	); err != nil {
		return err
	}

	for _, spent := range unit.Spent {
		if _, err = tx.ExecContext(ctx, `
			UPDATE outputs SET is_spent = 1
			WHERE unit = ? AND output_index = ?`,
			spent.Txid,
			spent.Vout,
		); err != nil {
			return err
		}
	}
	for _, o := range unit.Outputs {
		if err = insertOutput(ctx, tx, &o); err != nil {
			return err
		}
	}
	for _, feed := range unit.DataFeeds {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO data_feeds(unit, fact_key, feed_name, value) VALUES(?, ?, ?, ?)
			ON CONFLICT(unit, feed_name) DO NOTHING`,
			unit.ID,
			feed.FactKey.String(),
			feed.Name,
			feed.Value,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DiscardUnit removes a unit the network rejected: the outputs it spent become unspent
// again and every row SaveUnit created for it is deleted. Unknown units are ignored.
func (s *SQLiteStorage) DiscardUnit(ctx context.Context, unit *ledger.Unit) error {
	tx, err := s.wDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	var stable bool
	err = tx.QueryRowContext(ctx, `SELECT is_stable FROM units WHERE unit = ?`, unit.ID).Scan(&stable)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	} else if err != nil {
		return err
	}
	if stable {
		return fmt.Errorf("%w: %s", ErrUnitStable, unit.ID)
	}

	for _, spent := range unit.Spent {
		if _, err = tx.ExecContext(ctx, `
			UPDATE outputs SET is_spent = 0
			WHERE unit = ? AND output_index = ?`,
			spent.Txid,
			spent.Vout,
		); err != nil {
			return err
		}
	}
	for _, stmt := range []string{
		`DELETE FROM data_feeds WHERE unit = ?`,
		`DELETE FROM outputs WHERE unit = ?`,
		`DELETE FROM unit_authors WHERE unit = ?`,
		`DELETE FROM units WHERE unit = ?`,
	} {
		if _, err = tx.ExecContext(ctx, stmt, unit.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// InsertFundingOutput registers an externally created output paying the oracle
// address. The unit carrying it is treated as stable.
func (s *SQLiteStorage) InsertFundingOutput(ctx context.Context, o *ledger.SpendableOutput) error {
	tx, err := s.wDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO units(unit, is_stable) VALUES(?, 1)
		ON CONFLICT(unit) DO UPDATE SET is_stable = 1, updated_at = current_timestamp`,
		o.Txid,
	); err != nil {
		return err
	} else if err = insertOutput(ctx, tx, o); err != nil {
		return err
	}
	return tx.Commit()
}

// InsertFeeCredit registers an unspent auxiliary fee credit of address.
func (s *SQLiteStorage) InsertFeeCredit(ctx context.Context, address string, amount uint64) error {
	_, err := s.wDB.ExecContext(ctx, `
		INSERT INTO fee_credits(address, amount) VALUES(?, ?)`,
		address,
		amount,
	)
	return err
}

func insertOutput(ctx context.Context, tx *sql.Tx, o *ledger.SpendableOutput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO outputs(unit, output_index, address, amount, asset, script, is_spent)
		VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(unit, output_index) DO NOTHING`,
		o.Txid,
		o.Vout,
		o.Address,
		o.Amount,
		o.Asset,
		o.LockingScript,
		o.IsSpent,
	)
	return err
}

// CountBigOutputs counts the payable outputs of address worth at least unitCost.
func (s *SQLiteStorage) CountBigOutputs(ctx context.Context, address string, unitCost uint64) (int, error) {
	var count int
	err := s.rDB.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM outputs o JOIN units u ON u.unit = o.unit
		WHERE o.address = ? AND u.is_stable = 1 AND o.amount >= ? AND o.asset IS NULL AND o.is_spent = 0`,
		address,
		unitCost,
	).Scan(&count)
	return count, err
}

// SumSmallOutputsAndCredits sums the payable outputs of address worth less than
// unitCost together with its unspent fee credits.
func (s *SQLiteStorage) SumSmallOutputsAndCredits(ctx context.Context, address string, unitCost uint64) (uint64, error) {
	var total uint64
	err := s.rDB.QueryRowContext(ctx, `
		SELECT
			(SELECT COALESCE(SUM(o.amount), 0) FROM outputs o JOIN units u ON u.unit = o.unit
				WHERE o.address = ? AND u.is_stable = 1 AND o.amount < ? AND o.asset IS NULL AND o.is_spent = 0)
			+
			(SELECT COALESCE(SUM(amount), 0) FROM fee_credits
				WHERE address = ? AND is_spent = 0)`,
		address,
		unitCost,
		address,
	).Scan(&total)
	return total, err
}

// LargestPayableOutput returns the amount of the biggest payable output of address
// worth at least minAmount. The boolean is false when no output qualifies.
func (s *SQLiteStorage) LargestPayableOutput(ctx context.Context, address string, minAmount uint64) (uint64, bool, error) {
	var amount uint64
	err := s.rDB.QueryRowContext(ctx, `
		SELECT o.amount FROM outputs o JOIN units u ON u.unit = o.unit
		WHERE o.address = ? AND u.is_stable = 1 AND o.amount >= ? AND o.asset IS NULL AND o.is_spent = 0
		ORDER BY o.amount DESC LIMIT 1`,
		address,
		minAmount,
	).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	return amount, true, nil
}

// FindPublication looks up a prior publication of key authored by address.
// It returns ErrNotFound when the fact was never published.
func (s *SQLiteStorage) FindPublication(ctx context.Context, address string, key fact.Key) (bool, error) {
	var stable bool
	err := s.rDB.QueryRowContext(ctx, `
		SELECT u.is_stable
		FROM data_feeds d
		JOIN unit_authors a ON a.unit = d.unit
		JOIN units u ON u.unit = d.unit
		WHERE a.address = ? AND d.fact_key = ?
		ORDER BY u.is_stable DESC
		LIMIT 1`,
		address,
		key.String(),
	).Scan(&stable)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	} else if err != nil {
		return false, err
	}
	return stable, nil
}

// FactKeysForUnits returns the distinct fact keys carried by the given units.
func (s *SQLiteStorage) FactKeysForUnits(ctx context.Context, units []string) ([]fact.Key, error) {
	if len(units) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(units))
	for _, u := range units {
		args = append(args, u)
	}
	rows, err := s.rDB.QueryContext(ctx, `
		SELECT DISTINCT fact_key FROM data_feeds
		WHERE unit IN (`+placeholders(len(units))+`)
		ORDER BY fact_key`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var keys []fact.Key
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, fact.Key(k))
	}
	return keys, rows.Err()
}

// MarkUnitsStable flags the given units as durably confirmed at blockHeight and
// returns how many units changed state.
func (s *SQLiteStorage) MarkUnitsStable(ctx context.Context, units []string, blockHeight uint32) (int64, error) {
	if len(units) == 0 {
		return 0, nil
	}

	args := make([]any, 0, len(units)+1)
	args = append(args, blockHeight)
	for _, u := range units {
		args = append(args, u)
	}
	res, err := s.wDB.ExecContext(ctx, `
		UPDATE units SET is_stable = 1, block_height = ?, updated_at = current_timestamp
		WHERE is_stable = 0 AND unit IN (`+placeholders(len(units))+`)`,
		args...,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close releases both database handles.
func (s *SQLiteStorage) Close() error {
	s.rDB.Close() //nolint:errcheck
	return s.wDB.Close()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return "?" + strings.Repeat(",?", n-1)
}
