package db

import (
	"context"
)

const createSketch = `
INSERT INTO sketches (id, owner_id, name)
VALUES ($1, $2, $3)
RETURNING id, owner_id, name, version, created_at, updated_at
`

type CreateSketchParams struct {
	ID      string
	OwnerID string
	Name    string
}

func (q *Queries) CreateSketch(ctx context.Context, arg CreateSketchParams) (Sketch, error) {
	row := q.db.QueryRow(ctx, createSketch, arg.ID, arg.OwnerID, arg.Name)
	var i Sketch
	err := row.Scan(&i.ID, &i.OwnerID, &i.Name, &i.Version, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getSketch = `
SELECT id, owner_id, name, version, created_at, updated_at FROM sketches WHERE id = $1
`

func (q *Queries) GetSketch(ctx context.Context, id string) (Sketch, error) {
	row := q.db.QueryRow(ctx, getSketch, id)
	var i Sketch
	err := row.Scan(&i.ID, &i.OwnerID, &i.Name, &i.Version, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listSketchesForOwner = `
SELECT id, owner_id, name, version, created_at, updated_at FROM sketches
WHERE owner_id = $1
ORDER BY updated_at DESC
`

func (q *Queries) ListSketchesForOwner(ctx context.Context, ownerID string) ([]Sketch, error) {
	rows, err := q.db.Query(ctx, listSketchesForOwner, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Sketch
	for rows.Next() {
		var i Sketch
		if err := rows.Scan(&i.ID, &i.OwnerID, &i.Name, &i.Version, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteSketch = `
DELETE FROM sketches WHERE id = $1
`

func (q *Queries) DeleteSketch(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, deleteSketch, id)
	return err
}

const updateSketchVersion = `
UPDATE sketches SET name = $2, version = $3, updated_at = now() WHERE id = $1
`

type UpdateSketchVersionParams struct {
	ID      string
	Name    string
	Version int32
}

func (q *Queries) UpdateSketchVersion(ctx context.Context, arg UpdateSketchVersionParams) error {
	_, err := q.db.Exec(ctx, updateSketchVersion, arg.ID, arg.Name, arg.Version)
	return err
}

const createRevision = `
INSERT INTO sketch_revisions (sketch_id, version, document)
VALUES ($1, $2, $3)
RETURNING sketch_id, version, document, created_at
`

type CreateRevisionParams struct {
	SketchID string
	Version  int32
	Document []byte
}

func (q *Queries) CreateRevision(ctx context.Context, arg CreateRevisionParams) (SketchRevision, error) {
	row := q.db.QueryRow(ctx, createRevision, arg.SketchID, arg.Version, arg.Document)
	var i SketchRevision
	err := row.Scan(&i.SketchID, &i.Version, &i.Document, &i.CreatedAt)
	return i, err
}

const getLatestRevision = `
SELECT sketch_id, version, document, created_at FROM sketch_revisions
WHERE sketch_id = $1
ORDER BY version DESC
LIMIT 1
`

func (q *Queries) GetLatestRevision(ctx context.Context, sketchID string) (SketchRevision, error) {
	row := q.db.QueryRow(ctx, getLatestRevision, sketchID)
	var i SketchRevision
	err := row.Scan(&i.SketchID, &i.Version, &i.Document, &i.CreatedAt)
	return i, err
}
