package db

import (
	"context"
)

const createUser = `
INSERT INTO users (id, email, password, display_name)
VALUES ($1, $2, $3, $4)
RETURNING id, email, password, display_name, created_at
`

type CreateUserParams struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.ID, arg.Email, arg.Password, arg.DisplayName)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.Password, &i.DisplayName, &i.CreatedAt)
	return i, err
}

const getUserByEmail = `
SELECT id, email, password, display_name, created_at FROM users WHERE email = $1
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.Password, &i.DisplayName, &i.CreatedAt)
	return i, err
}

const getUserByID = `
SELECT id, email, password, display_name, created_at FROM users WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	var i User
	err := row.Scan(&i.ID, &i.Email, &i.Password, &i.DisplayName, &i.CreatedAt)
	return i, err
}
