// Package conversation holds the state owned by a single live conversation:
// the append-only message log, the categorized notes about the partner and the
// rolling engagement scores derived from both.
package conversation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Role identifies who authored a message.
type Role string

const (
	// RoleSelf is the coached user.
	RoleSelf Role = "나"
	// RolePartner is the person the user is talking to.
	RolePartner Role = "파트너"
)

// ParseRole accepts the canonical Korean role names as well as the English aliases
// "self"/"user" and "partner".
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RoleSelf), "self", "user", "me":
		return RoleSelf, nil
	case string(RolePartner), "partner":
		return RolePartner, nil
	default:
		return "", Validationf("unknown role %q", s)
	}
}

// Valid reports whether r is one of the two conversation roles.
func (r Role) Valid() bool {
	return r == RoleSelf || r == RolePartner
}

// Message is a single chat line. Messages are values and never mutated after creation.
type Message struct {
	ID        string    `json:"message_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage validates its inputs and builds a Message. A zero timestamp is replaced by
// the current time.
func NewMessage(id string, role Role, content string, ts time.Time) (Message, error) {
	if strings.TrimSpace(id) == "" {
		return Message{}, Validationf("message id cannot be empty")
	}
	if !role.Valid() {
		return Message{}, Validationf("unknown role %q", role)
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	return Message{ID: id, Role: role, Content: content, Timestamp: ts}, nil
}

// Prompt renders the message as a single prompt line.
func (m Message) Prompt() string {
	return fmt.Sprintf("%s: %s\n", m.Role, m.Content)
}

// Length is the content length in characters, used for talk share.
func (m Message) Length() int {
	return utf8.RuneCountInString(m.Content)
}

// CompareIDs orders two message ids. Ids that are both unsigned integers compare
// numerically so that "10" follows "9"; anything else compares lexicographically.
func CompareIDs(a, b string) int {
	an, aErr := strconv.ParseUint(a, 10, 64)
	bn, bErr := strconv.ParseUint(b, 10, 64)
	if aErr == nil && bErr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
