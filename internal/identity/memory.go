// internal/identity/memory.go
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxFailedAttempts = 5
	lockoutDuration   = 15 * time.Minute
	tokenIssuer       = "backcheck-local"
)

type memoryUser struct {
	uid         string
	email       string
	hash        []byte
	disabled    bool
	generation  int
	failures    int
	lockedUntil time.Time
}

type sessionClaims struct {
	Generation int `json:"gen"`
	jwt.RegisteredClaims
}

// Memory is a self-contained Provider for local runs and tests. Passwords
// are bcrypt hashed; ID tokens are HS256 JWTs carrying a per-principal
// generation that SignOut bumps to revoke them.
type Memory struct {
	mu      sync.Mutex
	byUID   map[string]*memoryUser
	byEmail map[string]*memoryUser

	secret   []byte
	ttl      time.Duration
	validate *validator.Validate
	now      func() time.Time
	cost     int
}

func NewMemory(secret string, ttl time.Duration) *Memory {
	return &Memory{
		byUID:    make(map[string]*memoryUser),
		byEmail:  make(map[string]*memoryUser),
		secret:   []byte(secret),
		ttl:      ttl,
		validate: validator.New(),
		now:      time.Now,
		cost:     bcrypt.DefaultCost,
	}
}

// SetClock replaces time.Now, for tests.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// SetCost sets the bcrypt cost; tests lower it to bcrypt.MinCost.
func (m *Memory) SetCost(cost int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cost = cost
}

func (m *Memory) CreatePrincipal(ctx context.Context, email, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	email = normalizeEmail(email)
	if err := m.validate.Var(email, "required,email"); err != nil {
		return "", newError(CodeInvalidEmail, err)
	}
	if len(password) < MinPasswordLength {
		return "", newError(CodeWeakPassword, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byEmail[email]; exists {
		return "", newError(CodeEmailInUse, nil)
	}
	u := &memoryUser{
		uid:   strings.ReplaceAll(uuid.NewString(), "-", "")[:28],
		email: email,
		hash:  hash,
	}
	m.byUID[u.uid] = u
	m.byEmail[email] = u
	return u.uid, nil
}

func (m *Memory) Authenticate(ctx context.Context, email, password string) (*Credentials, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	email = normalizeEmail(email)

	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, newError(CodeUserNotFound, nil)
	}
	if u.disabled {
		return nil, newError(CodeUserDisabled, nil)
	}
	now := m.now()
	if now.Before(u.lockedUntil) {
		return nil, newError(CodeTooManyRequests, nil)
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(password)); err != nil {
		u.failures++
		if u.failures >= maxFailedAttempts {
			u.failures = 0
			u.lockedUntil = now.Add(lockoutDuration)
		}
		return nil, newError(CodeWrongPassword, nil)
	}
	u.failures = 0

	token, err := m.sign(u, now)
	if err != nil {
		return nil, err
	}
	return &Credentials{UID: u.uid, IDToken: token, ExpiresIn: m.ttl}, nil
}

func (m *Memory) sign(u *memoryUser, now time.Time) (string, error) {
	claims := sessionClaims{
		Generation: u.generation,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   u.uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *Memory) VerifyToken(ctx context.Context, idToken string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	now := m.now
	m.mu.Unlock()

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(idToken, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		return "", newError(CodeInvalidToken, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byUID[claims.Subject]
	switch {
	case !ok:
		return "", newError(CodeInvalidToken, errors.New("unknown principal"))
	case u.disabled:
		return "", newError(CodeUserDisabled, nil)
	case u.generation != claims.Generation:
		return "", newError(CodeInvalidToken, errors.New("token revoked"))
	}
	return u.uid, nil
}

func (m *Memory) SignOut(ctx context.Context, uid string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byUID[uid]; ok {
		u.generation++
	}
	return nil
}

func (m *Memory) DeletePrincipal(ctx context.Context, uid string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byUID[uid]; ok {
		delete(m.byUID, uid)
		delete(m.byEmail, u.email)
	}
	return nil
}

// Disable blocks sign-in and token verification for uid.
func (m *Memory) Disable(uid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byUID[uid]; ok {
		u.disabled = true
	}
}

// Exists reports whether a principal with uid is registered.
func (m *Memory) Exists(uid string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byUID[uid]
	return ok
}

func (m *Memory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byUID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
