package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"kaizen/internal/config"
	"kaizen/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the parsed content of a token the issuer accepted.
type Claims struct {
	UserID    uint
	Username  string
	TokenType models.TokenType
	JTI       string
	ExpiresAt time.Time
}

// TokenPair is an access token plus the refresh token that can renew it.
type TokenPair struct {
	Access           string
	Refresh          string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer builds an issuer from the JWT_* settings.
func NewTokenIssuer(cfg *config.Config) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(cfg.JWTSecret),
		issuer:     cfg.JWTIssuer,
		audience:   cfg.JWTAudience,
		accessTTL:  cfg.JWTAccessTTL,
		refreshTTL: cfg.JWTRefreshTTL,
		now:        time.Now,
	}
}

func (i *TokenIssuer) AccessTTL() time.Duration  { return i.accessTTL }
func (i *TokenIssuer) RefreshTTL() time.Duration { return i.refreshTTL }

// IssuePair signs a fresh access and refresh token for the user.
func (i *TokenIssuer) IssuePair(userID uint, username string) (*TokenPair, error) {
	now := i.now()
	access, accessExp, err := i.sign(userID, username, models.TokenTypeAccess, i.accessTTL, now)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := i.sign(userID, username, models.TokenTypeRefresh, i.refreshTTL, now)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (i *TokenIssuer) sign(userID uint, username string, typ models.TokenType, ttl time.Duration, now time.Time) (string, time.Time, error) {
	if len(i.secret) == 0 {
		return "", time.Time{}, errors.New("JWT secret not configured")
	}

	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":        strconv.FormatUint(uint64(userID), 10),
		"username":   username,
		"token_type": string(typ),
		"iss":        i.issuer,
		"aud":        i.audience,
		"exp":        exp.Unix(),
		"iat":        now.Unix(),
		"nbf":        now.Unix(),
		"jti":        generateJTI(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, time.Unix(exp.Unix(), 0), nil
}

// Parse verifies signature, issuer, audience and expiry, and checks that
// the token is of the expected type and carries a subject and jti.
func (i *TokenIssuer) Parse(tokenString string, expected models.TokenType) (*Claims, error) {
	if tokenString == "" {
		return nil, errors.New("empty token")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	if typ, _ := claims["token_type"].(string); typ != string(expected) {
		return nil, fmt.Errorf("expected %s token, got %q", expected, typ)
	}
	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, errors.New("invalid subject claim")
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil, errors.New("missing jti claim")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.New("invalid exp claim")
	}
	username, _ := claims["username"].(string)

	return &Claims{
		UserID:    uint(userID),
		Username:  username,
		TokenType: expected,
		JTI:       jti,
		ExpiresAt: exp.Time,
	}, nil
}

// generateJTI creates a unique token id.
func generateJTI() string {
	return uuid.NewString()
}
