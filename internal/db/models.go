package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	CreatedAt   pgtype.Timestamptz
}

type Sketch struct {
	ID        string
	OwnerID   string
	Name      string
	Version   int32
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type SketchRevision struct {
	SketchID  string
	Version   int32
	Document  []byte
	CreatedAt pgtype.Timestamptz
}

type FaceRun struct {
	ID          string
	SketchID    string
	Version     int32
	FaceCount   int32
	Faces       []byte
	ErrorCode   string
	ErrorDetail string
	CreatedAt   pgtype.Timestamptz
}
