package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/inamate/facefinder/internal/db"
)

func diff(t *testing.T, want, got any) {
	t.Helper()
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]db.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]db.User)}
}

func (m *memUsers) CreateUser(_ context.Context, arg db.CreateUserParams) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == arg.Email {
			return db.User{}, &pgconn.PgError{Code: "23505"}
		}
	}
	u := db.User{ID: arg.ID, Email: arg.Email, Password: arg.Password, DisplayName: arg.DisplayName}
	m.users[u.ID] = u
	return u, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return db.User{}, pgx.ErrNoRows
}

func (m *memUsers) GetUserByID(_ context.Context, id string) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return db.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func newTestService() *Service {
	s := NewService(newMemUsers(), "test-secret")
	s.cost = bcrypt.MinCost
	return s
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	reg, err := s.Register(ctx, "ada@example.com", "correct horse", "Ada")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(reg.User.ID, "user_") {
		t.Errorf("got user id %q, want a user_ typeid", reg.User.ID)
	}

	if _, err := s.Register(ctx, "ada@example.com", "another one", "Ada 2"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate register: got %v, want %v", err, ErrEmailTaken)
	}

	login, err := s.Login(ctx, "ada@example.com", "correct horse")
	if err != nil {
		t.Fatal(err)
	}
	userID, err := s.ValidateToken(login.Token)
	if err != nil {
		t.Fatal(err)
	}
	if userID != reg.User.ID {
		t.Errorf("token subject %q, want %q", userID, reg.User.ID)
	}

	if _, err := s.Login(ctx, "  ADA@example.com ", "correct horse"); err != nil {
		t.Errorf("login with differently cased email: %v", err)
	}
	if _, err := s.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want %v", err, ErrInvalidCredentials)
	}
	if _, err := s.Login(ctx, "nobody@example.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v, want %v", err, ErrInvalidCredentials)
	}

	u, err := s.GetUser(ctx, reg.User.ID)
	if err != nil {
		t.Fatal(err)
	}
	if u.DisplayName != "Ada" {
		t.Errorf("got display name %q, want Ada", u.DisplayName)
	}
	if _, err := s.GetUser(ctx, "user_missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("got %v, want %v", err, ErrUserNotFound)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	s := newTestService()

	other := NewService(newMemUsers(), "other-secret")
	foreign, err := other.sign("user_x", "", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ValidateToken(foreign); err == nil {
		t.Error("token signed with another secret accepted")
	}

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user_x",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := expired.SignedString(s.jwtSecret)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ValidateToken(signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: got %v, want %v", err, ErrInvalidToken)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user_x", "iss": issuer})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ValidateToken(unsigned); err == nil {
		t.Error("unsigned token accepted")
	}

	shared, _, err := s.IssueSketchToken("user_x", "sketch_1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ValidateToken(shared); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("sketch token as session: got %v, want %v", err, ErrInvalidToken)
	}
}

func TestRegisterValidation(t *testing.T) {
	s := newTestService()
	tests := []struct {
		name                         string
		email, password, displayName string
		want                         error
	}{
		{"missing email", " ", "long enough", "A", ErrMissingFields},
		{"blank name", "a@b.c", "long enough", "  ", ErrMissingFields},
		{"bad email", "not-an-address", "long enough", "A", ErrInvalidEmail},
		{"short password", "a@b.c", "short", "A", ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tt.email, tt.password, tt.displayName)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	reg, err := s.Register(context.Background(), " Grace@Example.com", "long enough", " Grace ")
	if err != nil {
		t.Fatal(err)
	}
	diff(t, User{ID: reg.User.ID, Email: "grace@example.com", DisplayName: "Grace"}, reg.User)
}

func TestJoinSketch(t *testing.T) {
	s := newTestService()
	session, err := s.sign("user_owner", "", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	shared, expires, err := s.IssueSketchToken("user_owner", "sketch_1")
	if err != nil {
		t.Fatal(err)
	}
	if !expires.After(time.Now().Add(sketchTokenTTL - time.Minute)) {
		t.Errorf("sketch token expires at %v", expires)
	}

	tests := []struct {
		name    string
		token   string
		want    RoomAccess
		wantErr error
	}{
		{"session", session, RoomAccess{UserID: "user_owner"}, nil},
		{"sketch token", shared, RoomAccess{UserID: "user_owner", Guest: true}, nil},
		{"missing", "", RoomAccess{}, ErrMissingToken},
		{"garbage", "nope", RoomAccess{}, ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ws/sketch/sketch_1?token="+tt.token, nil)
			got, err := s.JoinSketch(req, "sketch_1")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			diff(t, tt.want, got)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/ws/sketch/sketch_2?token="+shared, nil)
	if _, err := s.JoinSketch(req, "sketch_2"); !errors.Is(err, ErrWrongSketch) {
		t.Errorf("got %v, want %v", err, ErrWrongSketch)
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestService()
	token, err := s.sign("user_abc", "", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	var seen string
	h := s.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserIDFromContext(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("got status %d, want %d", rec.Code, tt.want)
			}
		})
	}
	if seen != "user_abc" {
		t.Errorf("handler saw user %q, want user_abc", seen)
	}
}

func TestAuthenticateQueryToken(t *testing.T) {
	s := newTestService()
	token, err := s.sign("user_abc", "", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/ws/sketch/x?token="+token, nil)
	if _, err := s.Authenticate(req, false); !errors.Is(err, ErrMissingToken) {
		t.Errorf("query token accepted without allowQuery: %v", err)
	}
	got, err := s.Authenticate(req, true)
	if err != nil || got != "user_abc" {
		t.Errorf("got %q, %v", got, err)
	}

	req.Header.Set("Authorization", "Bearer")
	if _, err := s.Authenticate(req, true); !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("got %v, want %v", err, ErrMalformedHeader)
	}
}

func TestRegisterHandler(t *testing.T) {
	h := NewHandler(newTestService())

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", "{", http.StatusBadRequest},
		{"missing fields", `{"email":"a@b.c"}`, http.StatusBadRequest},
		{"bad email", `{"email":"nope","password":"long enough","displayName":"A"}`, http.StatusBadRequest},
		{"short password", `{"email":"a@b.c","password":"short","displayName":"A"}`, http.StatusBadRequest},
		{"created", `{"email":"a@b.c","password":"long enough","displayName":"A"}`, http.StatusCreated},
		{"taken", `{"email":"a@b.c","password":"long enough","displayName":"A"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Register(rec, req)
			if rec.Code != tt.want {
				t.Errorf("got status %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestMeHandler(t *testing.T) {
	s := newTestService()
	reg, err := s.Register(context.Background(), "me@example.com", "long enough", "Me")
	if err != nil {
		t.Fatal(err)
	}
	h := s.AuthMiddleware(http.HandlerFunc(NewHandler(s).Me))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+reg.Token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"displayName":"Me"`) {
		t.Errorf("got %d %s", rec.Code, rec.Body)
	}
}
