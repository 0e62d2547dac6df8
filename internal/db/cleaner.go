package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// PruneRevisions deletes revisions saved before cutoff (unix seconds) that are
// not the latest revision of their sheet. It returns the number removed.
func PruneRevisions(ctx context.Context, db *sql.DB, cutoff int64) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT MAX(id) FROM sheet_revisions GROUP BY deployment_id, sheet
	`)
	if err != nil {
		return 0, fmt.Errorf("select latest revisions: %w", err)
	}
	var keep []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan: %w", err)
		}
		keep = append(keep, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate latest revisions: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		DELETE FROM sheet_revisions
		 WHERE saved_at < $1
		   AND NOT (id = ANY($2))
	`, cutoff, pq.Array(keep))
	if err != nil {
		return 0, fmt.Errorf("delete revisions: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	removed, _ := res.RowsAffected()
	return removed, nil
}

// StartRevisionPruner runs PruneRevisions every interval until ctx is done.
func StartRevisionPruner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention).Unix()
				removed, err := PruneRevisions(ctx, db, cutoff)
				if err != nil {
					log.Error("failed to prune sheet revisions", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("pruned sheet revisions", zap.Int64("removed", removed))
				}
			}
		}
	}()
}
