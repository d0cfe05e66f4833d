package session

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

const (
	CookieName  = "session_id"
	usernameKey = "username"
)

// Manager owns the session store. Handlers receive it explicitly instead of
// sharing ambient state.
type Manager struct {
	store *session.Store
}

// NewManager creates a cookie-keyed session store. A nil storage keeps
// sessions in process memory.
func NewManager(storage fiber.Storage, ttl time.Duration, secureCookie bool) *Manager {
	cfg := session.Config{
		Expiration:     ttl,
		KeyLookup:      "cookie:" + CookieName,
		CookieHTTPOnly: true,
		CookieSecure:   secureCookie,
		CookieSameSite: "Lax",
		KeyGenerator:   func() string { return uuid.New().String() },
	}
	if storage != nil {
		cfg.Storage = storage
	}
	return &Manager{store: session.New(cfg)}
}

// Username returns the identity held by the request's session, or "".
func (m *Manager) Username(c *fiber.Ctx) (string, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return "", err
	}
	username, _ := sess.Get(usernameKey).(string)
	return username, nil
}

// Login stores username in a freshly issued session.
func (m *Manager) Login(c *fiber.Ctx, username string) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(usernameKey, username)
	return sess.Save()
}

// Logout destroys the request's session.
func (m *Manager) Logout(c *fiber.Ctx) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}
