package models

import (
	"encoding/json"
	"time"
)

// Access controls who may call a deployment.
type Access string

const (
	// AccessAnyone lets unauthenticated clients load and save.
	AccessAnyone Access = "anyone"
	// AccessPrivate answers every call with a sign-in page.
	AccessPrivate Access = "private"
)

// Sheet names stored by the reference endpoint.
const (
	SheetTransactions = "Transactions"
	SheetUsers        = "Users"
)

// Deployment is one published sheet endpoint.
type Deployment struct {
	ID        string    `json:"id"`
	Access    Access    `json:"access"`
	CreatedAt time.Time `json:"createdAt"`
}

// Revision is a full copy of one sheet as written by a save.
type Revision struct {
	ID           int64
	DeploymentID string
	Sheet        string
	// Rows is the JSON-encoded table, header row first.
	Rows    json.RawMessage
	SavedAt int64
}
