// Package prefixed_uuid builds identifiers of the form "<prefix>-<uuid>", such as
// "rpt-9b2c...", so an id names the kind of thing it refers to.
package prefixed_uuid //nolint:revive // var-naming: using underscores for domain clarity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const separator = "-"

// ErrInvalid is returned for strings that are not prefixed UUIDs.
var ErrInvalid = errors.New("invalid prefixed uuid")

// PrefixedUUID is a random UUID tagged with a kind prefix.
type PrefixedUUID struct {
	Prefix string
	UUID   uuid.UUID
}

// New returns a fresh random id with prefix.
func New(prefix string) PrefixedUUID {
	return PrefixedUUID{Prefix: prefix, UUID: uuid.New()}
}

// FromString parses any "<prefix>-<uuid>" string. The prefix must be non-empty and
// may not contain the separator.
func FromString(s string) (PrefixedUUID, error) {
	prefix, rest, ok := strings.Cut(s, separator)
	if !ok || prefix == "" {
		return PrefixedUUID{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return PrefixedUUID{}, fmt.Errorf("%w: %q: %w", ErrInvalid, s, err)
	}
	return PrefixedUUID{Prefix: prefix, UUID: id}, nil
}

// Parse is FromString that also requires the given prefix.
func Parse(prefix, s string) (PrefixedUUID, error) {
	p, err := FromString(s)
	if err != nil {
		return PrefixedUUID{}, err
	}
	if p.Prefix != prefix {
		return PrefixedUUID{}, fmt.Errorf("%w: want prefix %q, got %q", ErrInvalid, prefix, p.Prefix)
	}
	return p, nil
}

func (p PrefixedUUID) String() string {
	return p.Prefix + separator + p.UUID.String()
}

// IsZero reports whether p is the zero value.
func (p PrefixedUUID) IsZero() bool {
	return p.Prefix == "" && p.UUID == uuid.Nil
}

// MarshalText encodes p as its string form, which also covers JSON and YAML.
func (p PrefixedUUID) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes the string form.
func (p *PrefixedUUID) UnmarshalText(text []byte) error {
	parsed, err := FromString(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
