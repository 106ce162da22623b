package billing

import (
	"context"
	"time"

	"garageflow/internal/core/id"
)

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -source=alert.go -destination=mock_alert.go -package=billing

// CommitFailure describes a document that was stored while its counter was not
// advanced. The next peek will show the same number again until an operator
// fixes the counter.
type CommitFailure struct {
	GarageID   id.ID
	DocumentID id.ID
	Category   Category
	Number     string
	Cause      string
	OccurredAt time.Time
}

// Alerter notifies an operator.
type Alerter interface {
	NumberingCommitFailed(ctx context.Context, failure CommitFailure) error
}
