// Package service holds the business logic of the reference sheet endpoint,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/storystudio/ledger/internal/models"
	"github.com/storystudio/ledger/internal/sheet"
)

// ErrNothingToSave is returned by Save when neither table was supplied.
var ErrNothingToSave = errors.New("no tables to save")

// SheetRepository defines the persistence operations needed by the SheetService.
type SheetRepository interface {
	// LatestRevision returns the newest revision of a sheet, or nil if it was never saved.
	LatestRevision(ctx context.Context, deploymentID, sheet string) (*models.Revision, error)
	// SaveRevisions appends revisions atomically.
	SaveRevisions(ctx context.Context, revs []models.Revision) error
}

// SheetService reads and writes the Transactions and Users sheets of a deployment.
type SheetService struct {
	repo SheetRepository
	now  func() time.Time
}

// NewSheetService constructs a SheetService with the provided repository.
func NewSheetService(repo SheetRepository) *SheetService {
	return &SheetService{repo: repo, now: time.Now}
}

// Load returns both sheets. A sheet that was never saved is returned as its
// header row alone, like a freshly created spreadsheet.
func (s *SheetService) Load(ctx context.Context, deploymentID string) (*sheet.Payload, error) {
	txs, err := s.table(ctx, deploymentID, models.SheetTransactions, sheet.EncodeTransactions(nil))
	if err != nil {
		return nil, err
	}
	users, err := s.table(ctx, deploymentID, models.SheetUsers, sheet.EncodeUsers(nil))
	if err != nil {
		return nil, err
	}
	return &sheet.Payload{Transactions: txs, Users: users}, nil
}

func (s *SheetService) table(ctx context.Context, deploymentID, name string, empty sheet.WireTable) (sheet.WireTable, error) {
	rev, err := s.repo.LatestRevision(ctx, deploymentID, name)
	if err != nil {
		return nil, err
	}
	if rev == nil {
		return empty, nil
	}
	var t sheet.WireTable
	if err := json.Unmarshal(rev.Rows, &t); err != nil {
		return nil, fmt.Errorf("decode %s revision %d: %w", name, rev.ID, err)
	}
	return t, nil
}

// Save overwrites the supplied sheets with new revisions. A nil table leaves
// that sheet as it was.
func (s *SheetService) Save(ctx context.Context, deploymentID string, txs, users sheet.WireTable) error {
	savedAt := s.now().Unix()
	var revs []models.Revision
	for _, t := range []struct {
		name  string
		table sheet.WireTable
	}{
		{models.SheetTransactions, txs},
		{models.SheetUsers, users},
	} {
		if t.table == nil {
			continue
		}
		rows, err := json.Marshal(t.table)
		if err != nil {
			return fmt.Errorf("encode %s: %w", t.name, err)
		}
		revs = append(revs, models.Revision{
			DeploymentID: deploymentID,
			Sheet:        t.name,
			Rows:         rows,
			SavedAt:      savedAt,
		})
	}
	if len(revs) == 0 {
		return ErrNothingToSave
	}
	return s.repo.SaveRevisions(ctx, revs)
}
