package sqlc

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type ConversationSnapshot struct {
	ConversationID string             `json:"conversation_id"`
	Snapshot       []byte             `json:"snapshot"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}
