package sketch

import (
	"errors"
	"fmt"
)

// Error kinds reported by FindFaces. Match them with errors.Is.
var (
	ErrDegenerateArc   = errors.New("degenerate arc")
	ErrDegenerateCurve = errors.New("degenerate curve")
	ErrAlreadyUsed     = errors.New("segment direction already used")
	ErrAmbiguousTurn   = errors.New("ambiguous turn")
	ErrNoClosureFound  = errors.New("no closure found")
	ErrOrphanHole      = errors.New("orphan hole")
)

// Error carries the failing kind plus where in the sketch it happened.
// Segment is -1 when the failure is not tied to a single segment.
type Error struct {
	Kind    error
	PointID PointID
	Segment int
	Detail  string
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Segment >= 0 {
		msg = fmt.Sprintf("%s: segment %d", msg, e.Segment)
	}
	if e.PointID != "" {
		msg = fmt.Sprintf("%s at point %s", msg, e.PointID)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, segment int, pointID PointID, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		PointID: pointID,
		Segment: segment,
		Detail:  fmt.Sprintf(format, args...),
	}
}

// KindOf returns the sentinel kind of err, or nil when err did not come from
// this package.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrDegenerateArc,
		ErrDegenerateCurve,
		ErrAlreadyUsed,
		ErrAmbiguousTurn,
		ErrNoClosureFound,
		ErrOrphanHole,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
