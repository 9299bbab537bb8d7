package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser     = "user"
	PrefixBoard    = "board"
	PrefixStroke   = "stroke"
	PrefixNote     = "note"
	PrefixSnapshot = "snap"
	PrefixTexture  = "tex"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string     { return New(PrefixUser) }
func NewBoardID() string    { return New(PrefixBoard) }
func NewStrokeID() string   { return New(PrefixStroke) }
func NewNoteID() string     { return New(PrefixNote) }
func NewSnapshotID() string { return New(PrefixSnapshot) }
func NewTextureID() string  { return New(PrefixTexture) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
