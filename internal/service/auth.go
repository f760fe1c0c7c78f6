package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/folioapp/folio/internal/config"
	"github.com/folioapp/folio/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrMissingCredentials = errors.New("email and password are required")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrSigningKeyMissing  = errors.New("jwt signing secret is not configured")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

const (
	// TokenTTL is the fixed lifetime of an admin token.
	TokenTTL = 30 * 24 * time.Hour

	// TokenIssuer is the iss claim on every token.
	TokenIssuer = "folio"

	// MinPasswordLength applies to passwords set through the CLI.
	MinPasswordLength = 8
)

// Claims is the payload of an admin token.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Token string
	Admin model.Admin
}

// AuthService authenticates the admin and issues and verifies tokens.
type AuthService struct {
	store      *config.Store
	jwtSecret  []byte
	now        func() time.Time
	bcryptCost int

	dummyOnce sync.Once
	dummyHash []byte
}

// Option customizes an AuthService.
type Option func(*AuthService)

// WithClock replaces the time source used for issuing and verifying tokens.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// WithBcryptCost sets the cost used when hashing new passwords.
func WithBcryptCost(cost int) Option {
	return func(s *AuthService) { s.bcryptCost = cost }
}

func NewAuthService(store *config.Store, jwtSecret string, opts ...Option) *AuthService {
	s := &AuthService{
		store:      store,
		jwtSecret:  []byte(jwtSecret),
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login checks the email and password and returns a fresh token. Unknown
// emails and wrong passwords both return ErrInvalidCredentials, and both
// pay for one bcrypt comparison.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	admin, err := s.store.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up admin: %w", err)
	}

	if !VerifyPassword(admin.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.IssueToken(admin)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.store.UpdateAdminLastLogin(ctx, admin.ID, now); err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("record login: %w", err)
	}
	admin.LastLoginAt = &now

	return &LoginResult{Token: token, Admin: admin.Public()}, nil
}

// IssueToken signs a token carrying the admin's identity claims.
func (s *AuthService) IssueToken(admin *model.Admin) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", ErrSigningKeyMissing
	}

	now := s.now()
	claims := Claims{
		ID:    admin.ID,
		Email: admin.Email,
		Role:  admin.Role,
		Name:  admin.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			Issuer:    TokenIssuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks a token's signature, algorithm and expiry and returns
// its claims. Expired tokens yield ErrTokenExpired; every other failure
// yields ErrTokenInvalid.
func (s *AuthService) VerifyToken(tokenStr string) (*Claims, error) {
	if len(s.jwtSecret) == 0 {
		return nil, ErrSigningKeyMissing
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (interface{}, error) { return s.jwtSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing id claim", ErrTokenInvalid)
	}
	return claims, nil
}

// ResolveAdmin loads the account named by the token's id claim. The result
// never carries the password hash. Returns config.ErrNotFound when the
// account no longer exists.
func (s *AuthService) ResolveAdmin(ctx context.Context, claims *Claims) (*model.Admin, error) {
	admin, err := s.store.GetAdmin(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	public := admin.Public()
	return &public, nil
}

// HashPassword returns a bcrypt hash of password.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether candidate matches the bcrypt hash.
func VerifyPassword(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

// CreateAdmin hashes password and stores a new admin account.
func (s *AuthService) CreateAdmin(ctx context.Context, email, password, name, role string) (*model.Admin, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	if role == "" {
		role = model.RoleAdmin
	}
	if !model.ValidRole(role) {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if name == "" {
		name = model.NameFromEmail(email)
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}
	admin := &model.Admin{Email: email, PasswordHash: hash, Name: name, Role: role}
	if err := s.store.CreateAdmin(ctx, admin); err != nil {
		return nil, err
	}
	public := admin.Public()
	return &public, nil
}

// ResetPassword replaces the password of the admin with the given email.
func (s *AuthService) ResetPassword(ctx context.Context, email, password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	admin, err := s.store.GetAdminByEmail(ctx, email)
	if err != nil {
		return err
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return err
	}
	return s.store.UpdateAdminPassword(ctx, admin.ID, hash)
}

// EnsureAdmin creates the bootstrap account when no admin with that email
// exists. It reports whether an account was created. An existing account is
// left untouched, including its password.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password, name string) (bool, error) {
	if _, err := s.store.GetAdminByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, config.ErrNotFound) {
		return false, fmt.Errorf("look up bootstrap admin: %w", err)
	}

	if email == "" || password == "" {
		return false, ErrMissingCredentials
	}
	hash, err := s.HashPassword(password)
	if err != nil {
		return false, err
	}
	if name == "" {
		name = model.NameFromEmail(email)
	}
	admin := &model.Admin{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         model.RoleSuperAdmin,
	}
	if err := s.store.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, config.ErrConflict) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("folio-timing-parity"), s.bcryptCost)
	})
	return s.dummyHash
}
