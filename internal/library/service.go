package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/inamate/facefinder/internal/db"
	"github.com/inamate/facefinder/internal/document"
	"github.com/inamate/facefinder/internal/engine"
	"github.com/inamate/facefinder/internal/sketch"
	"github.com/inamate/facefinder/internal/typeid"
)

var (
	ErrNotFound  = errors.New("sketch not found")
	ErrForbidden = errors.New("forbidden")
	ErrTooLarge  = errors.New("sketch has too many segments")
)

// Store is the slice of db.Queries the library needs.
type Store interface {
	CreateSketch(ctx context.Context, arg db.CreateSketchParams) (db.Sketch, error)
	GetSketch(ctx context.Context, id string) (db.Sketch, error)
	ListSketchesForOwner(ctx context.Context, ownerID string) ([]db.Sketch, error)
	DeleteSketch(ctx context.Context, id string) error
	UpdateSketchVersion(ctx context.Context, arg db.UpdateSketchVersionParams) error
	CreateRevision(ctx context.Context, arg db.CreateRevisionParams) (db.SketchRevision, error)
	GetLatestRevision(ctx context.Context, sketchID string) (db.SketchRevision, error)
	CreateFaceRun(ctx context.Context, arg db.CreateFaceRunParams) (db.FaceRun, error)
	GetLatestFaceRun(ctx context.Context, sketchID string) (db.FaceRun, error)
}

type Service struct {
	store       Store
	maxSegments int
	opts        []sketch.Option
}

// NewService returns a library over store. Documents with more than
// maxSegments segments are rejected (no limit when maxSegments <= 0); opts
// are passed to every solve.
func NewService(store Store, maxSegments int, opts ...sketch.Option) *Service {
	return &Service{store: store, maxSegments: maxSegments, opts: opts}
}

type Sketch struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	Version   int    `json:"version"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// FaceRun is one stored solve of a sketch revision. Exactly one of Faces or
// Error is set.
type FaceRun struct {
	ID        string          `json:"id"`
	SketchID  string          `json:"sketchId"`
	Version   int             `json:"version"`
	Faces     []document.Face `json:"faces,omitempty"`
	Error     string          `json:"error,omitempty"`
	Detail    string          `json:"detail,omitempty"`
	CreatedAt string          `json:"createdAt"`
}

func (s *Service) Create(ctx context.Context, name, ownerID string) (*Sketch, error) {
	sketchID := typeid.NewSketchID()

	dbSketch, err := s.store.CreateSketch(ctx, db.CreateSketchParams{
		ID:      sketchID,
		OwnerID: ownerID,
		Name:    name,
	})
	if err != nil {
		return nil, fmt.Errorf("create sketch: %w", err)
	}

	// Seed empty revision
	emptyDoc := document.NewEmptySketch(sketchID, name)
	emptyDoc.CreatedAt = timestamp(dbSketch.CreatedAt.Time)
	emptyDoc.UpdatedAt = emptyDoc.CreatedAt
	docJSON, err := json.Marshal(emptyDoc)
	if err != nil {
		return nil, fmt.Errorf("marshal empty document: %w", err)
	}

	_, err = s.store.CreateRevision(ctx, db.CreateRevisionParams{
		SketchID: sketchID,
		Version:  1,
		Document: docJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("create initial revision: %w", err)
	}

	return dbSketchToSketch(dbSketch), nil
}

func (s *Service) Get(ctx context.Context, sketchID, userID string) (*Sketch, error) {
	dbSketch, err := s.owned(ctx, sketchID, userID)
	if err != nil {
		return nil, err
	}
	return dbSketchToSketch(dbSketch), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Sketch, error) {
	dbSketches, err := s.store.ListSketchesForOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sketches: %w", err)
	}

	sketches := make([]Sketch, len(dbSketches))
	for i, sk := range dbSketches {
		sketches[i] = *dbSketchToSketch(sk)
	}

	return sketches, nil
}

func (s *Service) Delete(ctx context.Context, sketchID, userID string) error {
	if _, err := s.owned(ctx, sketchID, userID); err != nil {
		return err
	}
	return s.store.DeleteSketch(ctx, sketchID)
}

// CanEdit reports whether userID may open a live session on the sketch.
func (s *Service) CanEdit(ctx context.Context, sketchID, userID string) error {
	_, err := s.owned(ctx, sketchID, userID)
	return err
}

// Validate checks that doc converts to a solvable sketch.
func (s *Service) Validate(doc *document.Sketch) error {
	if s.maxSegments > 0 && len(doc.Segments) > s.maxSegments {
		return fmt.Errorf("%w: %d > %d", ErrTooLarge, len(doc.Segments), s.maxSegments)
	}
	if _, err := doc.ToCore(); err != nil {
		return err
	}
	return nil
}

// SaveRevision stores doc as the next revision of the sketch.
func (s *Service) SaveRevision(ctx context.Context, sketchID, userID string, doc *document.Sketch) (*Sketch, error) {
	dbSketch, err := s.owned(ctx, sketchID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(doc); err != nil {
		return nil, err
	}
	if err := s.saveRevision(ctx, dbSketch, doc); err != nil {
		return nil, err
	}
	return s.Get(ctx, sketchID, userID)
}

// SaveDocument stores doc as the next revision without an ownership check.
// The collaboration hub uses it for rooms it already authorised.
func (s *Service) SaveDocument(ctx context.Context, sketchID string, doc *document.Sketch) error {
	dbSketch, err := s.store.GetSketch(ctx, sketchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get sketch: %w", err)
	}
	return s.saveRevision(ctx, dbSketch, doc)
}

func (s *Service) saveRevision(ctx context.Context, dbSketch db.Sketch, doc *document.Sketch) error {
	next := dbSketch.Version + 1

	doc = doc.Clone()
	doc.ID = dbSketch.ID
	doc.Version = int(next)
	doc.UpdatedAt = timestamp(time.Now())
	if doc.Name == "" {
		doc.Name = dbSketch.Name
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	_, err = s.store.CreateRevision(ctx, db.CreateRevisionParams{
		SketchID: dbSketch.ID,
		Version:  next,
		Document: docJSON,
	})
	if err != nil {
		return fmt.Errorf("create revision: %w", err)
	}

	err = s.store.UpdateSketchVersion(ctx, db.UpdateSketchVersionParams{
		ID:      dbSketch.ID,
		Name:    doc.Name,
		Version: next,
	})
	if err != nil {
		return fmt.Errorf("update sketch version: %w", err)
	}
	return nil
}

func (s *Service) Latest(ctx context.Context, sketchID, userID string) (*document.Sketch, error) {
	if _, err := s.owned(ctx, sketchID, userID); err != nil {
		return nil, err
	}
	return s.LoadDocument(ctx, sketchID)
}

// LoadDocument returns the latest revision without an ownership check.
func (s *Service) LoadDocument(ctx context.Context, sketchID string) (*document.Sketch, error) {
	rev, err := s.store.GetLatestRevision(ctx, sketchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get revision: %w", err)
	}

	var doc document.Sketch
	if err := json.Unmarshal(rev.Document, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal revision %d: %w", rev.Version, err)
	}
	return &doc, nil
}

// Solve extracts the faces of the latest revision and records the run. A
// sketch that cannot be solved is not an error here: the run carries the
// failure kind instead.
func (s *Service) Solve(ctx context.Context, sketchID, userID string) (*FaceRun, error) {
	doc, err := s.Latest(ctx, sketchID, userID)
	if err != nil {
		return nil, err
	}

	params := db.CreateFaceRunParams{
		ID:       typeid.NewRunID(),
		SketchID: sketchID,
		Version:  int32(doc.Version),
	}
	faces, err := engine.Solve(doc, s.opts...)
	if err != nil {
		params.ErrorCode = engine.ErrorCode(err)
		params.ErrorDetail = err.Error()
	} else {
		wire := document.FacesFromCore(faces, doc.Segments)
		params.FaceCount = int32(len(wire))
		params.Faces, err = json.Marshal(wire)
		if err != nil {
			return nil, fmt.Errorf("marshal faces: %w", err)
		}
	}

	run, err := s.store.CreateFaceRun(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create face run: %w", err)
	}
	return dbRunToRun(run)
}

func (s *Service) LatestRun(ctx context.Context, sketchID, userID string) (*FaceRun, error) {
	if _, err := s.owned(ctx, sketchID, userID); err != nil {
		return nil, err
	}

	run, err := s.store.GetLatestFaceRun(ctx, sketchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get face run: %w", err)
	}
	return dbRunToRun(run)
}

func (s *Service) owned(ctx context.Context, sketchID, userID string) (db.Sketch, error) {
	dbSketch, err := s.store.GetSketch(ctx, sketchID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Sketch{}, ErrNotFound
		}
		return db.Sketch{}, fmt.Errorf("get sketch: %w", err)
	}
	if dbSketch.OwnerID != userID {
		return db.Sketch{}, ErrForbidden
	}
	return dbSketch, nil
}

func dbSketchToSketch(s db.Sketch) *Sketch {
	return &Sketch{
		ID:        s.ID,
		Name:      s.Name,
		OwnerID:   s.OwnerID,
		Version:   int(s.Version),
		CreatedAt: timestamp(s.CreatedAt.Time),
		UpdatedAt: timestamp(s.UpdatedAt.Time),
	}
}

func dbRunToRun(r db.FaceRun) (*FaceRun, error) {
	run := &FaceRun{
		ID:        r.ID,
		SketchID:  r.SketchID,
		Version:   int(r.Version),
		Error:     r.ErrorCode,
		Detail:    r.ErrorDetail,
		CreatedAt: timestamp(r.CreatedAt.Time),
	}
	if len(r.Faces) > 0 {
		if err := json.Unmarshal(r.Faces, &run.Faces); err != nil {
			return nil, fmt.Errorf("unmarshal faces: %w", err)
		}
	}
	return run, nil
}

func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}
