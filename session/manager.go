package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Manager binds Store records to signed cookies.
type Manager struct {
	store  Store
	name   string
	secret []byte
	maxAge time.Duration
	secure bool
}

func NewManager(store Store, name, secret string, maxAge time.Duration, secure bool) *Manager {
	return &Manager{store: store, name: name, secret: []byte(secret), maxAge: maxAge, secure: secure}
}

// Load returns the session named by the request cookie. A missing, tampered
// or expired cookie yields a fresh empty session; only store failures are errors.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	c, err := r.Cookie(m.name)
	if err != nil {
		return &Session{}, nil
	}
	id, err := m.parse(c.Value)
	if err != nil {
		return &Session{}, nil
	}
	sess, err := m.store.Get(r.Context(), id, m.maxAge)
	if errors.Is(err, ErrNotFound) {
		return &Session{}, nil
	}
	if err != nil {
		return &Session{}, err
	}
	return sess, nil
}

// Save persists s and (re)issues the cookie. A session without an id gets one.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if err := m.store.Set(ctx, s, m.maxAge); err != nil {
		return err
	}
	token, err := m.sign(s.ID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.maxAge / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Regenerate moves s to a new id, dropping the old record, and saves it.
func (m *Manager) Regenerate(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s.ID != "" {
		if err := m.store.Delete(ctx, s.ID); err != nil {
			return err
		}
	}
	s.ID = uuid.NewString()
	return m.Save(ctx, w, s)
}

// Destroy deletes the record and expires the cookie.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s.ID != "" {
		if err := m.store.Delete(ctx, s.ID); err != nil {
			return err
		}
	}
	s.Reset()
	s.ID = ""
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (m *Manager) sign(id string) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:       id,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *Manager) parse(value string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid session cookie: %w", err)
	}
	if claims.ID == "" {
		return "", errors.New("session cookie has no id")
	}
	return claims.ID, nil
}
