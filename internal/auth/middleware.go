package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const UserIDKey contextKey = "userID"

var (
	ErrMissingToken    = errors.New("missing authorization header")
	ErrMalformedHeader = errors.New("invalid authorization format")
)

// bearer extracts the raw token from the Authorization header. With
// allowQuery the token query parameter is accepted too, since browser
// websockets cannot set headers.
func bearer(r *http.Request, allowQuery bool) (string, error) {
	token := ""
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if !ok || scheme != "Bearer" || value == "" {
			return "", ErrMalformedHeader
		}
		token = value
	} else if allowQuery {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// Authenticate returns the user behind the request's session token.
func (s *Service) Authenticate(r *http.Request, allowQuery bool) (string, error) {
	token, err := bearer(r, allowQuery)
	if err != nil {
		return "", err
	}
	return s.ValidateToken(token)
}

// RoomAccess says who is joining a sketch's live room. Guests hold a sketch
// token; UserID is then the owner who issued it.
type RoomAccess struct {
	UserID string
	Guest  bool
}

// JoinSketch authorizes a websocket request for sketchID from either a
// session token or a sketch token issued for that sketch. Session users
// still need an ownership check.
func (s *Service) JoinSketch(r *http.Request, sketchID string) (RoomAccess, error) {
	token, err := bearer(r, true)
	if err != nil {
		return RoomAccess{}, err
	}
	claims, err := s.ParseToken(token)
	if err != nil {
		return RoomAccess{}, err
	}
	switch claims.SketchID {
	case "":
		return RoomAccess{UserID: claims.Subject}, nil
	case sketchID:
		return RoomAccess{UserID: claims.Subject, Guest: true}, nil
	default:
		return RoomAccess{}, ErrWrongSketch
	}
}

func (s *Service) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.Authenticate(r, false)
		switch {
		case errors.Is(err, ErrMissingToken), errors.Is(err, ErrMalformedHeader):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
			return
		case err != nil:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": ErrInvalidToken.Error()})
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}
