// Package storage is the on-device cache mirroring the full data set:
// session, transactions, users and sync configuration, each under its own key.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/storystudio/ledger/internal/models"
)

// Keys under which each part of the snapshot is stored independently.
const (
	KeySession      = "story_session"
	KeyTransactions = "story_accounting_data"
	KeyUsers        = "story_users"
	KeyConfig       = "story_config"
)

// encodeSnapshot renders every present part of snap as JSON, keyed by storage key.
// A nil Session is left out; sessions are removed with ClearSession.
func encodeSnapshot(snap models.Snapshot) (map[string][]byte, error) {
	parts := map[string]any{
		KeyTransactions: nonNil(snap.Transactions),
		KeyUsers:        nonNil(snap.Users),
	}
	if snap.Config != nil {
		parts[KeyConfig] = snap.Config
	}
	if snap.Session != nil {
		parts[KeySession] = snap.Session
	}

	out := make(map[string][]byte, len(parts))
	for key, v := range parts {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		out[key] = b
	}
	return out, nil
}

// decodeSnapshot rebuilds a snapshot from raw values. It returns nil when no key was stored.
func decodeSnapshot(raw map[string][]byte) (*models.Snapshot, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	snap := &models.Snapshot{}
	targets := map[string]any{
		KeySession:      &snap.Session,
		KeyTransactions: &snap.Transactions,
		KeyUsers:        &snap.Users,
		KeyConfig:       &snap.Config,
	}
	for key, b := range raw {
		target, ok := targets[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(b, target); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
	}
	if raw[KeyTransactions] != nil && snap.Transactions == nil {
		snap.Transactions = []models.Transaction{}
	}
	if raw[KeyUsers] != nil && snap.Users == nil {
		snap.Users = []models.User{}
	}
	return snap, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
