package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/inamate/facefinder/internal/db"
	"github.com/inamate/facefinder/internal/typeid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrMissingFields      = errors.New("email, password, and displayName are required")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidToken       = errors.New("invalid token")
	ErrWrongSketch        = errors.New("token is for another sketch")
)

const (
	issuer         = "facefinder"
	sessionTTL     = 24 * time.Hour
	sketchTokenTTL = 7 * 24 * time.Hour
	minPasswordLen = 8
)

// UserStore is the slice of db.Queries the account service needs.
type UserStore interface {
	CreateUser(ctx context.Context, arg db.CreateUserParams) (db.User, error)
	GetUserByEmail(ctx context.Context, email string) (db.User, error)
	GetUserByID(ctx context.Context, id string) (db.User, error)
}

// Claims are carried by every token the service signs. Session tokens leave
// SketchID empty; a sketch token lets its holder join that one sketch's
// live room on behalf of the owner who issued it.
type Claims struct {
	jwt.RegisteredClaims
	SketchID string `json:"sketch,omitempty"`
}

type Service struct {
	users     UserStore
	jwtSecret []byte
	cost      int
	now       func() time.Time
}

func NewService(users UserStore, jwtSecret string) *Service {
	return &Service{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		cost:      12,
		now:       time.Now,
	}
}

type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Register creates an account and signs a session token for it. Emails are
// compared case-insensitively.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*AuthResult, error) {
	email, displayName = normalizeEmail(email), strings.TrimSpace(displayName)
	if email == "" || password == "" || displayName == "" {
		return nil, ErrMissingFields
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	dbUser, err := s.users.CreateUser(ctx, db.CreateUserParams{
		ID:          typeid.NewUserID(),
		Email:       email,
		Password:    string(hash),
		DisplayName: displayName,
	})
	if isDuplicateKeyError(err) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.session(dbUser)
}

// Login checks a password and signs a new session token.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	dbUser, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(dbUser.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.session(dbUser)
}

func (s *Service) session(u db.User) (*AuthResult, error) {
	token, err := s.sign(u.ID, "", sessionTTL)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: dbUserToUser(u)}, nil
}

// IssueSketchToken signs a token that admits its holder to the live room of
// sketchID. Callers check that ownerID may edit the sketch first.
func (s *Service) IssueSketchToken(ownerID, sketchID string) (string, time.Time, error) {
	expires := s.now().Add(sketchTokenTTL)
	token, err := s.sign(ownerID, sketchID, sketchTokenTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires.Truncate(time.Second), nil
}

// ParseToken verifies a token of either kind and returns its claims.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return &claims, nil
}

// ValidateToken returns the user of a session token. Sketch tokens are
// rejected.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return "", err
	}
	if claims.SketchID != "" {
		return "", fmt.Errorf("%w: sketch token used as a session", ErrInvalidToken)
	}
	return claims.Subject, nil
}

func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	dbUser, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u := dbUserToUser(dbUser)
	return &u, nil
}

func (s *Service) sign(subject, sketchID string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		SketchID: sketchID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func dbUserToUser(u db.User) User {
	return User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
	}
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" // unique_violation
}
