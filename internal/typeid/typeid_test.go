package typeid

import (
	"strings"
	"testing"
)

func TestNewAndValidate(t *testing.T) {
	tests := []struct {
		prefix string
		gen    func() string
	}{
		{PrefixUser, NewUserID},
		{PrefixSketch, NewSketchID},
		{PrefixPoint, NewPointID},
		{PrefixSegment, NewSegmentID},
		{PrefixRun, NewRunID},
		{PrefixOp, NewOpID},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			id := tt.gen()
			if !strings.HasPrefix(id, tt.prefix+"_") {
				t.Errorf("id %q lacks prefix %q", id, tt.prefix)
			}
			if err := Validate(id, tt.prefix); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestValidateRejects(t *testing.T) {
	if err := Validate(NewSketchID(), PrefixRun); err == nil {
		t.Error("sketch id validated as a run id")
	}
	if err := Validate("not an id", PrefixSketch); err == nil {
		t.Error("garbage validated")
	}
}
