package collab

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/inamate/facefinder/internal/document"
	"github.com/inamate/facefinder/internal/engine"
	"github.com/inamate/facefinder/internal/sketch"
)

// DocumentState holds the authoritative sketch for a room and the faces
// solved from it.
type DocumentState struct {
	mu        sync.Mutex
	doc       *document.Sketch
	engine    *engine.Engine
	serverSeq int64
	opLog     []Operation // Operation history since the room opened
	dirty     bool        // Unsaved operations
}

// NewDocumentState creates a document state from an initial sketch. opts are
// passed to every solve.
func NewDocumentState(doc *document.Sketch, opts ...sketch.Option) *DocumentState {
	if doc.Points == nil {
		doc.Points = map[string]document.Point{}
	}
	eng := engine.NewEngine(opts...)
	eng.SetDocument(doc.Clone())
	return &DocumentState{
		doc:    doc,
		engine: eng,
		opLog:  make([]Operation, 0),
	}
}

// Document returns a copy of the current sketch.
func (ds *DocumentState) Document() *document.Sketch {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.doc.Clone()
}

// Sync returns a copy of the current sketch with the sequence number it
// reflects.
func (ds *DocumentState) Sync() DocSyncPayload {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return DocSyncPayload{Document: ds.doc.Clone(), ServerSeq: ds.serverSeq}
}

// ApplyOperation applies an operation to the sketch and returns the server
// sequence. A rejected operation leaves the sketch unchanged.
func (ds *DocumentState) ApplyOperation(op Operation) (int64, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if err := ds.applyOperationLocked(op); err != nil {
		return 0, err
	}

	ds.serverSeq++
	ds.opLog = append(ds.opLog, op)
	ds.dirty = true
	ds.engine.SetDocument(ds.doc.Clone())

	return ds.serverSeq, nil
}

// applyOperationLocked applies the operation without locking (caller must hold lock)
func (ds *DocumentState) applyOperationLocked(op Operation) error {
	switch op.Type {
	case OpPointMove:
		return ds.applyPointMove(op)
	case OpPointAdd:
		return ds.applyPointAdd(op)
	case OpPointRemove:
		return ds.applyPointRemove(op)
	case OpSegmentAdd:
		return ds.applySegmentAdd(op)
	case OpSegmentRemove:
		return ds.applySegmentRemove(op)
	case OpSketchRename:
		return ds.applyRename(op)
	default:
		return fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

func (ds *DocumentState) applyPointMove(op Operation) error {
	if _, ok := ds.doc.Points[op.PointID]; !ok {
		return fmt.Errorf("point not found: %s", op.PointID)
	}
	if op.Point == nil {
		return fmt.Errorf("point.move without a position")
	}
	ds.doc.Points[op.PointID] = *op.Point
	return nil
}

func (ds *DocumentState) applyPointAdd(op Operation) error {
	if op.PointID == "" || op.Point == nil {
		return fmt.Errorf("point.add needs an id and a position")
	}
	if _, ok := ds.doc.Points[op.PointID]; ok {
		return fmt.Errorf("point already exists: %s", op.PointID)
	}
	ds.doc.Points[op.PointID] = *op.Point
	return nil
}

func (ds *DocumentState) applyPointRemove(op Operation) error {
	if _, ok := ds.doc.Points[op.PointID]; !ok {
		return fmt.Errorf("point not found: %s", op.PointID)
	}
	for _, seg := range ds.doc.Segments {
		if seg.Start == op.PointID || seg.End == op.PointID || seg.Transit == op.PointID {
			return fmt.Errorf("point %s is used by segment %s", op.PointID, seg.ID)
		}
	}
	delete(ds.doc.Points, op.PointID)
	return nil
}

func (ds *DocumentState) applySegmentAdd(op Operation) error {
	if op.Segment == nil {
		return fmt.Errorf("segment.add without a segment")
	}
	seg := *op.Segment
	if seg.ID == "" {
		return fmt.Errorf("segment.add needs a segment id")
	}
	if ds.doc.SegmentIndex(seg.ID) >= 0 {
		return fmt.Errorf("segment already exists: %s", seg.ID)
	}

	refs := []string{seg.Start, seg.End}
	switch seg.Type {
	case document.SegmentTypeLine:
		seg.Transit = ""
	case document.SegmentTypeArc:
		if seg.Transit == "" {
			return fmt.Errorf("arc %s has no transit point", seg.ID)
		}
		refs = append(refs, seg.Transit)
	default:
		return fmt.Errorf("unknown segment type: %q", seg.Type)
	}
	for _, id := range refs {
		if _, ok := ds.doc.Points[id]; !ok {
			return fmt.Errorf("point not found: %s", id)
		}
	}

	if op.Index != nil && *op.Index >= 0 && *op.Index <= len(ds.doc.Segments) {
		ds.doc.Segments = slices.Insert(ds.doc.Segments, *op.Index, seg)
	} else {
		ds.doc.Segments = append(ds.doc.Segments, seg)
	}
	return nil
}

func (ds *DocumentState) applySegmentRemove(op Operation) error {
	i := ds.doc.SegmentIndex(op.SegmentID)
	if i < 0 {
		return fmt.Errorf("segment not found: %s", op.SegmentID)
	}
	ds.doc.Segments = slices.Delete(ds.doc.Segments, i, i+1)
	return nil
}

func (ds *DocumentState) applyRename(op Operation) error {
	if op.Name == "" {
		return fmt.Errorf("sketch.rename needs a name")
	}
	ds.doc.Name = op.Name
	return nil
}

// FacesPayload returns the solved faces of the current sketch as the payload
// of a faces.update message.
func (ds *DocumentState) FacesPayload() json.RawMessage {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return json.RawMessage(ds.engine.FacesJSON())
}

// TakeDirty returns a copy of the sketch and clears the dirty flag, or
// reports false when nothing changed since the last call.
func (ds *DocumentState) TakeDirty() (*document.Sketch, bool) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if !ds.dirty {
		return nil, false
	}
	ds.dirty = false
	return ds.doc.Clone(), true
}

// MarkDirty flags the sketch for saving again, after a failed save.
func (ds *DocumentState) MarkDirty() {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.dirty = true
}

// OpLog returns the operations applied since the room opened.
func (ds *DocumentState) OpLog() []Operation {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return slices.Clone(ds.opLog)
}

// GetServerTimestamp returns the current server timestamp
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
