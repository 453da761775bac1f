package db

import (
	"context"
)

const createFaceRun = `
INSERT INTO face_runs (id, sketch_id, version, face_count, faces, error_code, error_detail)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, sketch_id, version, face_count, faces, error_code, error_detail, created_at
`

type CreateFaceRunParams struct {
	ID          string
	SketchID    string
	Version     int32
	FaceCount   int32
	Faces       []byte
	ErrorCode   string
	ErrorDetail string
}

func (q *Queries) CreateFaceRun(ctx context.Context, arg CreateFaceRunParams) (FaceRun, error) {
	row := q.db.QueryRow(ctx, createFaceRun,
		arg.ID,
		arg.SketchID,
		arg.Version,
		arg.FaceCount,
		arg.Faces,
		arg.ErrorCode,
		arg.ErrorDetail,
	)
	var i FaceRun
	err := row.Scan(
		&i.ID,
		&i.SketchID,
		&i.Version,
		&i.FaceCount,
		&i.Faces,
		&i.ErrorCode,
		&i.ErrorDetail,
		&i.CreatedAt,
	)
	return i, err
}

const getLatestFaceRun = `
SELECT id, sketch_id, version, face_count, faces, error_code, error_detail, created_at FROM face_runs
WHERE sketch_id = $1
ORDER BY created_at DESC
LIMIT 1
`

func (q *Queries) GetLatestFaceRun(ctx context.Context, sketchID string) (FaceRun, error) {
	row := q.db.QueryRow(ctx, getLatestFaceRun, sketchID)
	var i FaceRun
	err := row.Scan(
		&i.ID,
		&i.SketchID,
		&i.Version,
		&i.FaceCount,
		&i.Faces,
		&i.ErrorCode,
		&i.ErrorDetail,
		&i.CreatedAt,
	)
	return i, err
}
