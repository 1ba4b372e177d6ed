// Package session issues and verifies the signed session cookie.
//
// The cookie carries an HS256 JWT with the user's name, id and role. Every
// token has a unique id (jti) so logout can revoke it before it expires.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/crucial707/hci-todo/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrNoSession means the request carried no session cookie.
	ErrNoSession = errors.New("no session")
	// ErrInvalidSession covers bad signatures, expired tokens and revoked sessions.
	ErrInvalidSession = errors.New("invalid session")
)

// Claims are the identity attributes embedded in the session token.
// Subject holds the user id.
type Claims struct {
	Username string `json:"name"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (int, error) {
	return strconv.Atoi(c.Subject)
}

type Options struct {
	Secret     []byte
	CookieName string
	TTL        time.Duration
	Secure     bool
	Revoker    Revoker
}

type Manager struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	revoker    Revoker
	now        func() time.Time
}

func NewManager(opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "todo_session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.Revoker == nil {
		opts.Revoker = NewMemoryRevoker()
	}
	return &Manager{
		secret:     opts.Secret,
		cookieName: opts.CookieName,
		ttl:        opts.TTL,
		secure:     opts.Secure,
		revoker:    opts.Revoker,
		now:        time.Now,
	}
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// Issue signs a new session for user and sets it as a cookie on w.
func (m *Manager) Issue(w http.ResponseWriter, user *models.User) (*Claims, error) {
	now := m.now()
	role := user.Role
	if role == "" {
		role = models.RoleUser
	}
	claims := &Claims{
		Username: user.Username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    signed,
		Path:     "/",
		Expires:  now.Add(m.ttl),
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return claims, nil
}

// FromRequest verifies the session cookie on r.
func (m *Manager) FromRequest(r *http.Request) (*Claims, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	claims, err := m.parse(cookie.Value)
	if err != nil {
		return nil, err
	}

	revoked, err := m.revoker.IsRevoked(r.Context(), claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: revocation check: %v", ErrInvalidSession, err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: revoked", ErrInvalidSession)
	}
	return claims, nil
}

// Clear revokes the presented session, if it is still valid, and expires the
// cookie. It never fails: logout succeeds whether or not a session existed.
func (m *Manager) Clear(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		if claims, err := m.parse(cookie.Value); err == nil {
			m.revoke(r.Context(), claims)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) revoke(ctx context.Context, claims *Claims) {
	until := m.now().Add(m.ttl)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	// Best effort; the cookie is cleared regardless.
	_ = m.revoker.Revoke(ctx, claims.ID, until)
}

func (m *Manager) parse(value string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(value, claims,
		func(t *jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing claims", ErrInvalidSession)
	}
	return claims, nil
}
