package sqlc

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const deleteSnapshot = `-- name: DeleteSnapshot :execrows
DELETE FROM conversation_snapshots WHERE conversation_id = $1
`

func (q *Queries) DeleteSnapshot(ctx context.Context, conversationID string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteSnapshot, conversationID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const listSnapshots = `-- name: ListSnapshots :many
SELECT conversation_id, snapshot, created_at, updated_at FROM conversation_snapshots
ORDER BY conversation_id
`

func (q *Queries) ListSnapshots(ctx context.Context) ([]ConversationSnapshot, error) {
	rows, err := q.db.Query(ctx, listSnapshots)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ConversationSnapshot
	for rows.Next() {
		var i ConversationSnapshot
		if err := rows.Scan(
			&i.ConversationID,
			&i.Snapshot,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertSnapshot = `-- name: UpsertSnapshot :exec
INSERT INTO conversation_snapshots (conversation_id, snapshot, created_at, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (conversation_id) DO UPDATE
SET snapshot = EXCLUDED.snapshot, created_at = EXCLUDED.created_at, updated_at = EXCLUDED.updated_at
`

type UpsertSnapshotParams struct {
	ConversationID string             `json:"conversation_id"`
	Snapshot       []byte             `json:"snapshot"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpsertSnapshot(ctx context.Context, arg UpsertSnapshotParams) error {
	_, err := q.db.Exec(ctx, upsertSnapshot,
		arg.ConversationID,
		arg.Snapshot,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}
