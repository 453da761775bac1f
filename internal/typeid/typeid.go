package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixUser    = "user"
	PrefixSketch  = "sketch"
	PrefixPoint   = "pt"
	PrefixSegment = "seg"
	PrefixRun     = "run"
	PrefixOp      = "op"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewUserID() string    { return New(PrefixUser) }
func NewSketchID() string  { return New(PrefixSketch) }
func NewPointID() string   { return New(PrefixPoint) }
func NewSegmentID() string { return New(PrefixSegment) }
func NewRunID() string     { return New(PrefixRun) }
func NewOpID() string      { return New(PrefixOp) }

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
