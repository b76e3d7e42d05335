package api

import (
	"bytes"
	"time"

	"github.com/goccy/go-json"
	"github.com/lewisedginton/dating_coach/internal/advice"
	"github.com/lewisedginton/dating_coach/internal/conversation"
)

type errorResponse struct {
	Error string `json:"error"`
}

type initResponse struct {
	ConversationID string    `json:"conversation_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type deleteResponse struct {
	ConversationID string    `json:"conversation_id"`
	DeletedAt      time.Time `json:"deleted_at"`
}

// messageID accepts a JSON string or number.
type messageID string

func (id *messageID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = messageID(s)
		return nil
	}
	if len(data) == 0 || bytes.IndexFunc(data, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return conversation.Validationf("message_id must be a string or a non-negative integer, got %s", data)
	}
	*id = messageID(data)
	return nil
}

type messageBody struct {
	MessageID messageID  `json:"message_id"`
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type messageRequest struct {
	Message *messageBody `json:"message"`
}

// toMessage validates the request into a domain message.
func (req messageRequest) toMessage() (conversation.Message, error) {
	if req.Message == nil {
		return conversation.Message{}, conversation.Validationf("message is required")
	}
	role, err := conversation.ParseRole(req.Message.Role)
	if err != nil {
		return conversation.Message{}, err
	}
	var ts time.Time
	if req.Message.Timestamp != nil {
		ts = *req.Message.Timestamp
	}
	return conversation.NewMessage(string(req.Message.MessageID), role, req.Message.Content, ts)
}

type scoresResponse struct {
	Scores    conversation.Scores `json:"scores"`
	Duplicate bool                `json:"duplicate,omitempty"`
}

type partnerMemoryResponse struct {
	PartnerMemory conversation.PartnerMemory `json:"partner_memory"`
}

type recommendationResponse struct {
	AdviceMetadatas []advice.Summary `json:"advice_metadatas"`
}

type adviceResponse struct {
	AdviceID    string             `json:"advice_id"`
	ContentType advice.ContentType `json:"content_type"`
	Advice      advice.Content     `json:"advice"`
}

type reportResponse struct {
	ReportID    string `json:"report_id"`
	FinalReport string `json:"final_report"`
}

// streamReply answers one websocket frame.
type streamReply struct {
	MessageID string               `json:"message_id,omitempty"`
	Scores    *conversation.Scores `json:"scores,omitempty"`
	Duplicate bool                 `json:"duplicate,omitempty"`
	Error     string               `json:"error,omitempty"`
}
