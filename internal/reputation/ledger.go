package reputation

import (
	"context"
	"fmt"

	"auction-escrow/internal/repository"
	"auction-escrow/utils"
)

// Ledger receives the rating of a completed transaction
type Ledger interface {
	Record(ctx context.Context, userID string, rating int) error
}

// RepoLedger keeps scores in the repository
type RepoLedger struct {
	repo repository.ReputationDB
}

// NewRepoLedger creates a ledger backed by repo
func NewRepoLedger(repo repository.ReputationDB) *RepoLedger {
	return &RepoLedger{repo: repo}
}

// Record adds rating (+1 or -1) to the user's score
func (l *RepoLedger) Record(ctx context.Context, userID string, rating int) error {
	score, err := l.repo.AdjustReputation(ctx, userID, rating)
	if err != nil {
		return fmt.Errorf("reputation: record %d for %s: %w", rating, userID, err)
	}
	utils.Info("reputation updated", map[string]any{"user_id": userID, "rating": rating, "score": score})
	return nil
}

// Score returns the user's current score
func (l *RepoLedger) Score(ctx context.Context, userID string) (int, error) {
	score, err := l.repo.GetReputation(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("reputation: score for %s: %w", userID, err)
	}
	return score, nil
}
