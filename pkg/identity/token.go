package identity

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labbuddy/platform/pkg/common/errs"
	"github.com/labbuddy/platform/pkg/common/models"
)

type TokenManager struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	nowFunc    func() time.Time
}

func NewTokenManager(secret, issuer string, ttl time.Duration) (*TokenManager, error) {
	if len(secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenManager{
		signingKey: []byte(secret),
		issuer:     issuer,
		ttl:        ttl,
		nowFunc:    time.Now,
	}, nil
}

type Claims struct {
	UserID     uint        `json:"uid"`
	Role       models.Role `json:"role"`
	LabID      *uint       `json:"lab_id,omitempty"`
	HospitalID *uint       `json:"hospital_id,omitempty"`
	jwt.RegisteredClaims
}

func (m *TokenManager) Issue(user models.User) (string, error) {
	now := m.nowFunc()
	claims := Claims{
		UserID:     user.ID,
		Role:       user.Role,
		LabID:      user.LabID,
		HospitalID: user.HospitalID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.signingKey)
}

// Authenticator ties token verification to a live user lookup; it is the
// concrete implementation behind the HTTP authentication middleware.
type Authenticator struct {
	tokens *TokenManager
	users  *Service
}

func NewAuthenticator(tokens *TokenManager, users *Service) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

func (a *Authenticator) AuthenticateToken(ctx context.Context, token string) (models.User, error) {
	claims, err := a.tokens.Verify(token)
	if err != nil {
		return models.User{}, err
	}
	user, err := a.users.GetUser(ctx, claims.UserID)
	if err != nil {
		return models.User{}, errs.Auth("invalid or expired credential")
	}
	if !user.IsActive {
		return models.User{}, errs.Auth("account deactivated")
	}
	return user, nil
}

func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, errs.Auth("missing credential")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.signingKey, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithTimeFunc(m.nowFunc))
	if err != nil || !token.Valid {
		return nil, errs.Auth("invalid or expired credential")
	}

	return claims, nil
}
