// Package session keeps admin sessions in Valkey. The browser holds only a
// random id in a cookie; the session payload lives under "session:<id>" as
// JSON and expires with the key's TTL.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// CookieName is the name of the session cookie sent to the browser.
	CookieName = "starling_session"

	// DefaultTTL is how long an idle session survives.
	DefaultTTL = 12 * time.Hour

	keyPrefix = "session:"
	idBytes   = 32
)

// ErrNoSession is returned by Update and Rotate when the request carries
// no session cookie.
var ErrNoSession = errors.New("session: no session cookie")

// Data is the session payload.
type Data struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	TwoFADone   bool      `json:"two_fa_done"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store reads and writes sessions.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	secure bool
}

// NewStore creates a session store. secure marks the cookie HTTPS-only.
func NewStore(client *redis.Client, secure bool) *Store {
	return &Store{client: client, ttl: DefaultTTL, secure: secure}
}

// Create starts a new session for data and sets the cookie. It returns the
// session id.
func (s *Store) Create(ctx context.Context, w http.ResponseWriter, data *Data) (string, error) {
	data.CreatedAt = time.Now()
	id, err := s.insert(ctx, data)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, s.cookie(id, s.ttl))
	return id, nil
}

// Get loads the session named by the request cookie. A missing cookie or
// an expired session yields nil without error.
func (s *Store) Get(ctx context.Context, r *http.Request) (*Data, error) {
	id, ok := cookieID(r)
	if !ok {
		return nil, nil
	}

	raw, err := s.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	data := &Data{}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return data, nil
}

// Update overwrites the current session in place and refreshes its TTL.
func (s *Store) Update(ctx context.Context, r *http.Request, data *Data) error {
	id, ok := cookieID(r)
	if !ok {
		return ErrNoSession
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+id, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Rotate moves data to a fresh session id and drops the old one. Use it
// whenever the privilege of a session changes, such as after the second
// factor is verified.
func (s *Store) Rotate(ctx context.Context, w http.ResponseWriter, r *http.Request, data *Data) error {
	oldID, ok := cookieID(r)
	if !ok {
		return ErrNoSession
	}
	id, err := s.insert(ctx, data)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, keyPrefix+oldID).Err(); err != nil {
		return fmt.Errorf("drop rotated session: %w", err)
	}
	http.SetCookie(w, s.cookie(id, s.ttl))
	return nil
}

// Destroy deletes the session and expires the cookie. Without a cookie it
// does nothing.
func (s *Store) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id, ok := cookieID(r)
	if !ok {
		return nil
	}
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	http.SetCookie(w, s.cookie("", -1))
	return nil
}

func (s *Store) insert(ctx context.Context, data *Data) (string, error) {
	id, err := newID()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+id, raw, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return id, nil
}

// cookie builds the session cookie. A negative ttl deletes it.
func (s *Store) cookie(value string, ttl time.Duration) *http.Cookie {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/admin",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

func cookieID(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func newID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
