package repository

import (
	"auction-escrow/internal/biddingerrors"
	"auction-escrow/internal/models"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// SQLiteRepo is the durable implementation of AuctionDB, TransactionDB and ReputationDB.
// Entities are stored as JSON payloads next to the columns needed for lookups and version checks.
type SQLiteRepo struct {
	db *sql.DB
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS auctions (
		auction_id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		end_time INTEGER NOT NULL,
		settled INTEGER NOT NULL DEFAULT 0,
		version INTEGER NOT NULL,
		payload BLOB NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_auctions_due ON auctions (status, end_time);`,
	`CREATE TABLE IF NOT EXISTS bids (
		bid_id TEXT PRIMARY KEY,
		auction_id TEXT NOT NULL REFERENCES auctions(auction_id),
		seq INTEGER NOT NULL,
		payload BLOB NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_bids_auction ON bids (auction_id, seq);`,
	`CREATE TABLE IF NOT EXISTS transactions (
		transaction_id TEXT PRIMARY KEY,
		auction_id TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL,
		version INTEGER NOT NULL,
		payload BLOB NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS reputation (
		user_id TEXT PRIMARY KEY,
		score INTEGER NOT NULL
	);`,
}

// NewSQLiteRepo opens (or creates) the database at dbPath and applies the schema
func NewSQLiteRepo(dbPath string) (*SQLiteRepo, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// single writer connection; entity ordering is already decided by the engine
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return &SQLiteRepo{db: db}, nil
}

// Close closes the database connection
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepo) CreateAuction(ctx context.Context, auction models.Auction) error {
	if auction.AuctionID == "" {
		return fmt.Errorf("create auction: %w", biddingerrors.ErrInvalidAuction)
	}
	payload, err := json.Marshal(auction)
	if err != nil {
		return fmt.Errorf("failed to marshal auction: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		"INSERT INTO auctions (auction_id, status, end_time, settled, version, payload) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(auction_id) DO NOTHING",
		auction.AuctionID, string(auction.Status), auction.EndTime.UnixNano(), auction.Settled, auction.Version, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert auction %s: %w", auction.AuctionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("create auction %s: %w", auction.AuctionID, biddingerrors.ErrAuctionExists)
	}
	return nil
}

func (r *SQLiteRepo) LoadAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, "SELECT payload FROM auctions WHERE auction_id = ?", auctionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Auction{}, fmt.Errorf("load auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return models.Auction{}, fmt.Errorf("failed to query auction %s: %w", auctionID, err)
	}

	var a models.Auction
	if err := json.Unmarshal(payload, &a); err != nil {
		return models.Auction{}, fmt.Errorf("failed to unmarshal auction %s: %w", auctionID, err)
	}
	return a, nil
}

func (r *SQLiteRepo) SaveAuction(ctx context.Context, auction models.Auction) error {
	payload, err := json.Marshal(auction)
	if err != nil {
		return fmt.Errorf("failed to marshal auction: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE auctions SET status = ?, end_time = ?, settled = ?, version = ?, payload = ? WHERE auction_id = ? AND version < ?",
		string(auction.Status), auction.EndTime.UnixNano(), auction.Settled, auction.Version, payload, auction.AuctionID, auction.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update auction %s: %w", auction.AuctionID, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return r.requireRow(ctx, "SELECT 1 FROM auctions WHERE auction_id = ?", auction.AuctionID,
		fmt.Errorf("save auction %s: %w", auction.AuctionID, biddingerrors.ErrAuctionNotFound))
}

func (r *SQLiteRepo) AppendBid(ctx context.Context, bid models.Bid) error {
	payload, err := json.Marshal(bid)
	if err != nil {
		return fmt.Errorf("failed to marshal bid: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO bids (bid_id, auction_id, seq, payload) VALUES (?, ?, ?, ?) ON CONFLICT(bid_id) DO NOTHING",
		bid.BidID, bid.AuctionID, bid.Seq, payload,
	)
	if err != nil {
		if rowErr := r.requireRow(ctx, "SELECT 1 FROM auctions WHERE auction_id = ?", bid.AuctionID, nil); rowErr != nil {
			return fmt.Errorf("append bid for auction %s: %w", bid.AuctionID, biddingerrors.ErrAuctionNotFound)
		}
		return fmt.Errorf("failed to insert bid %s: %w", bid.BidID, err)
	}
	return nil
}

func (r *SQLiteRepo) GetBidsByAuction(ctx context.Context, auctionID string) ([]models.Bid, error) {
	if err := r.requireRow(ctx, "SELECT 1 FROM auctions WHERE auction_id = ?", auctionID,
		fmt.Errorf("get bids for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, "SELECT payload FROM bids WHERE auction_id = ? ORDER BY seq ASC", auctionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bids: %w", err)
	}
	defer rows.Close()

	bids := []models.Bid{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		var b models.Bid
		if err := json.Unmarshal(payload, &b); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bid: %w", err)
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return bids, nil
}

func (r *SQLiteRepo) ListDueAuctions(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT auction_id FROM auctions
		 WHERE (status = ? AND end_time <= ?) OR (status <> ? AND settled = 0)
		 ORDER BY auction_id`,
		string(models.AuctionActive), now.UnixNano(), string(models.AuctionActive),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query due auctions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan auction id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SQLiteRepo) CreateTransaction(ctx context.Context, tx models.Transaction) error {
	payload, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin: %w", err)
	}
	defer dbTx.Rollback()

	var existing string
	err = dbTx.QueryRowContext(ctx, "SELECT transaction_id FROM transactions WHERE auction_id = ?", tx.AuctionID).Scan(&existing)
	switch {
	case err == nil && existing == tx.TransactionID:
		return nil
	case err == nil:
		return fmt.Errorf("create transaction %s for auction %s (existing %s): %w",
			tx.TransactionID, tx.AuctionID, existing, biddingerrors.ErrConcurrencyConflict)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to query transaction: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx,
		"INSERT INTO transactions (transaction_id, auction_id, status, version, payload) VALUES (?, ?, ?, ?, ?)",
		tx.TransactionID, tx.AuctionID, string(tx.Status), tx.Version, payload,
	); err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", tx.TransactionID, err)
	}
	return dbTx.Commit()
}

func (r *SQLiteRepo) LoadTransaction(ctx context.Context, transactionID string) (models.Transaction, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, "SELECT payload FROM transactions WHERE transaction_id = ?", transactionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, fmt.Errorf("load transaction %s: %w", transactionID, biddingerrors.ErrTransactionNotFound)
	}
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to query transaction %s: %w", transactionID, err)
	}

	var tx models.Transaction
	if err := json.Unmarshal(payload, &tx); err != nil {
		return models.Transaction{}, fmt.Errorf("failed to unmarshal transaction %s: %w", transactionID, err)
	}
	return tx, nil
}

func (r *SQLiteRepo) SaveTransaction(ctx context.Context, tx models.Transaction) error {
	payload, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET status = ?, version = ?, payload = ? WHERE transaction_id = ? AND version < ?",
		string(tx.Status), tx.Version, payload, tx.TransactionID, tx.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", tx.TransactionID, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return r.requireRow(ctx, "SELECT 1 FROM transactions WHERE transaction_id = ?", tx.TransactionID,
		fmt.Errorf("save transaction %s: %w", tx.TransactionID, biddingerrors.ErrTransactionNotFound))
}

func (r *SQLiteRepo) AdjustReputation(ctx context.Context, userID string, delta int) (int, error) {
	var score int
	err := r.db.QueryRowContext(ctx,
		"INSERT INTO reputation (user_id, score) VALUES (?, ?) ON CONFLICT(user_id) DO UPDATE SET score = score + excluded.score RETURNING score",
		userID, delta,
	).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("failed to adjust reputation for %s: %w", userID, err)
	}
	return score, nil
}

func (r *SQLiteRepo) GetReputation(ctx context.Context, userID string) (int, error) {
	var score int
	err := r.db.QueryRowContext(ctx, "SELECT score FROM reputation WHERE user_id = ?", userID).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get reputation for %s: %w", userID, err)
	}
	return score, nil
}

// requireRow returns notFound when query yields no row
func (r *SQLiteRepo) requireRow(ctx context.Context, query, key string, notFound error) error {
	var one int
	err := r.db.QueryRowContext(ctx, query, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		if notFound == nil {
			return sql.ErrNoRows
		}
		return notFound
	}
	return err
}
