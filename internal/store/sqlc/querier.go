package sqlc

import (
	"context"
)

type Querier interface {
	DeleteSnapshot(ctx context.Context, conversationID string) (int64, error)
	ListSnapshots(ctx context.Context) ([]ConversationSnapshot, error)
	UpsertSnapshot(ctx context.Context, arg UpsertSnapshotParams) error
}

var _ Querier = (*Queries)(nil)
