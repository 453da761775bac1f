package db

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id           TEXT PRIMARY KEY,
	email        TEXT NOT NULL UNIQUE,
	password     TEXT NOT NULL,
	display_name TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sketches (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	version    INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS sketches_owner_idx ON sketches(owner_id);

CREATE TABLE IF NOT EXISTS sketch_revisions (
	sketch_id  TEXT NOT NULL REFERENCES sketches(id) ON DELETE CASCADE,
	version    INTEGER NOT NULL,
	document   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (sketch_id, version)
);

CREATE TABLE IF NOT EXISTS face_runs (
	id           TEXT PRIMARY KEY,
	sketch_id    TEXT NOT NULL REFERENCES sketches(id) ON DELETE CASCADE,
	version      INTEGER NOT NULL,
	face_count   INTEGER NOT NULL,
	faces        JSONB,
	error_code   TEXT NOT NULL DEFAULT '',
	error_detail TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS face_runs_sketch_idx ON face_runs(sketch_id, created_at DESC);
`

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
