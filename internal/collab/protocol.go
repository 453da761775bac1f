package collab

import (
	"encoding/json"

	"github.com/inamate/facefinder/internal/document"
)

type Message struct {
	Type     string          `json:"type"`
	SketchID string          `json:"sketchId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
}

type DocSyncPayload struct {
	Document  *document.Sketch `json:"document"`
	ServerSeq int64            `json:"serverSeq"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Document sync
	TypeDocSync = "doc.sync"

	// Operation message types
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"

	// Solved faces of the room's document, sent after every applied op.
	// The payload is {"faces": [...]} or {"error": code, "detail": text}.
	TypeFacesUpdate = "faces.update"
)

// --- Operation Types ---

const (
	OpPointMove     = "point.move"
	OpPointAdd      = "point.add"
	OpPointRemove   = "point.remove"
	OpSegmentAdd    = "segment.add"
	OpSegmentRemove = "segment.remove"
	OpSketchRename  = "sketch.rename"
)

// Operation represents a sketch mutation
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	ClientSeq int64  `json:"clientSeq"`

	// For point.*
	PointID  string          `json:"pointId,omitempty"`
	Point    *document.Point `json:"point,omitempty"`
	Previous *document.Point `json:"previous,omitempty"`

	// For segment.add
	Segment *document.Segment `json:"segment,omitempty"`
	// Insert position for segment.add; appended when nil or out of range
	Index *int `json:"index,omitempty"`

	// For segment.remove
	SegmentID string `json:"segmentId,omitempty"`

	// For sketch.rename
	Name         string `json:"name,omitempty"`
	PreviousName string `json:"previousName,omitempty"`
}

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages
type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

// OperationNackPayload is the payload for op.nack messages
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload is the payload for op.broadcast messages
type OperationBroadcastPayload struct {
	Operation Operation `json:"operation"`
	UserID    string    `json:"userId"`
	ServerSeq int64     `json:"serverSeq"`
}
