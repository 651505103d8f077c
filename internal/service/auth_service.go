package service

import (
	"context"
	"log/slog"
	"time"

	"kaizen/internal/cache"
	"kaizen/internal/middleware"
	"kaizen/internal/models"
	"kaizen/internal/observability"
	"kaizen/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgBadCredentials = "No active account found with the given credentials"
	msgInvalidToken   = "Token is invalid or expired"
	msgBlacklisted    = "Token is blacklisted"
)

// LoginResult carries the new token pair and the profile snapshot the
// login response exposes.
type LoginResult struct {
	Tokens    *TokenPair
	Username  string
	Email     string
	FirstName string
	LastName  string
	Gender    string
}

// AuthService issues, rotates and revokes session tokens.
type AuthService struct {
	users                  repository.UserRepository
	tokens                 repository.TokenRepository
	issuer                 *TokenIssuer
	blacklistAfterRotation bool
}

func NewAuthService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	issuer *TokenIssuer,
	blacklistAfterRotation bool,
) *AuthService {
	return &AuthService{
		users:                  users,
		tokens:                 tokens,
		issuer:                 issuer,
		blacklistAfterRotation: blacklistAfterRotation,
	}
}

// Issuer exposes the token issuer so handlers can read the configured TTLs.
func (s *AuthService) Issuer() *TokenIssuer {
	return s.issuer
}

func (s *AuthService) Login(ctx context.Context, username, password string) (_ *LoginResult, err error) {
	ctx, span := observability.StartSpan(ctx, "auth.login")
	defer func() { observability.EndSpan(span, err) }()

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		observability.TokenEvents.WithLabelValues("login", "rejected").Inc()
		return nil, models.NewUnauthorizedError(msgBadCredentials)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		observability.TokenEvents.WithLabelValues("login", "rejected").Inc()
		return nil, models.NewUnauthorizedError(msgBadCredentials)
	}

	pair, err := s.issuer.IssuePair(user.ID, user.Username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.TokenEvents.WithLabelValues("login", "ok").Inc()

	result := &LoginResult{Tokens: pair}
	profile, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "login profile snapshot failed", slog.String("error", err.Error()))
	}
	if profile != nil {
		result.Username = profile.Username
		result.Email = profile.Email
		result.FirstName = profile.FirstName
		result.LastName = profile.LastName
		result.Gender = string(profile.Gender)
	}
	return result, nil
}

// Refresh exchanges a refresh token for a new pair. With rotation
// blacklisting on, the presented token is revoked in the same step and a
// second use of it fails.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (_ *TokenPair, err error) {
	ctx, span := observability.StartSpan(ctx, "auth.refresh")
	defer func() { observability.EndSpan(span, err) }()

	claims, err := s.issuer.Parse(refreshToken, models.TokenTypeRefresh)
	if err != nil {
		observability.TokenEvents.WithLabelValues("refresh", "invalid").Inc()
		return nil, models.NewUnauthorizedError(msgInvalidToken)
	}
	span.SetAttributes(attribute.Int("user.id", int(claims.UserID)))

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError(msgInvalidToken)
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, models.NewUnauthorizedError(msgInvalidToken)
	}

	if s.blacklistAfterRotation {
		created, err := s.tokens.Blacklist(ctx, blacklistEntry(claims))
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if !created {
			observability.TokenEvents.WithLabelValues("refresh", "reused").Inc()
			return nil, models.NewUnauthorizedError(msgBlacklisted)
		}
		s.cacheRevocation(ctx, claims)
	} else {
		listed, err := s.IsBlacklisted(ctx, claims.JTI)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		if listed {
			observability.TokenEvents.WithLabelValues("refresh", "reused").Inc()
			return nil, models.NewUnauthorizedError(msgBlacklisted)
		}
	}

	pair, err := s.issuer.IssuePair(user.ID, user.Username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	observability.TokenEvents.WithLabelValues("refresh", "ok").Inc()
	return pair, nil
}

// Logout revokes whatever valid tokens were presented. It never fails:
// an unparseable or already revoked token leaves the caller logged out
// all the same.
func (s *AuthService) Logout(ctx context.Context, refreshToken, accessToken string) {
	if refreshToken != "" {
		claims, err := s.issuer.Parse(refreshToken, models.TokenTypeRefresh)
		if err != nil {
			middleware.Logger.DebugContext(ctx, "logout: refresh token not usable", slog.String("error", err.Error()))
		} else {
			s.revoke(ctx, claims)
		}
	}

	if accessToken != "" {
		claims, err := s.issuer.Parse(accessToken, models.TokenTypeAccess)
		if err != nil {
			middleware.Logger.DebugContext(ctx, "logout: access token not usable", slog.String("error", err.Error()))
		} else {
			s.revoke(ctx, claims)
		}
	}
	observability.TokenEvents.WithLabelValues("logout", "ok").Inc()
}

func (s *AuthService) revoke(ctx context.Context, claims *Claims) {
	if _, err := s.tokens.Blacklist(ctx, blacklistEntry(claims)); err != nil {
		middleware.Logger.DebugContext(ctx, "logout: blacklist insert failed",
			slog.String("jti", claims.JTI),
			slog.String("error", err.Error()),
		)
	}
	s.cacheRevocation(ctx, claims)
}

func (s *AuthService) cacheRevocation(ctx context.Context, claims *Claims) {
	ttl := time.Until(claims.ExpiresAt)
	if err := cache.MarkWithTTL(ctx, cache.BlacklistKey(claims.JTI), ttl); err != nil {
		middleware.Logger.DebugContext(ctx, "blacklist cache write failed", slog.String("error", err.Error()))
	}
}

// VerifyAccess parses an access token and rejects revoked ones.
func (s *AuthService) VerifyAccess(ctx context.Context, accessToken string) (*Claims, error) {
	claims, err := s.issuer.Parse(accessToken, models.TokenTypeAccess)
	if err != nil {
		return nil, models.NewUnauthorizedError(msgInvalidToken)
	}
	listed, err := s.IsBlacklisted(ctx, claims.JTI)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if listed {
		return nil, models.NewUnauthorizedError("Token has been revoked")
	}
	return claims, nil
}

// IsBlacklisted checks Redis first and falls back to the database. A
// database hit is written back to Redis.
func (s *AuthService) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	found, err := cache.Exists(ctx, cache.BlacklistKey(jti))
	if err == nil && found {
		return true, nil
	}

	listed, dbErr := s.tokens.IsBlacklisted(ctx, jti)
	if dbErr != nil {
		return false, dbErr
	}
	if listed {
		_ = cache.MarkWithTTL(ctx, cache.BlacklistKey(jti), s.issuer.RefreshTTL())
	}
	return listed, nil
}

// FlushExpired removes revocation entries for tokens that have expired on
// their own. The cron job calls it.
func (s *AuthService) FlushExpired(ctx context.Context) (int64, error) {
	removed, err := s.tokens.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	observability.BlacklistFlushed.Add(float64(removed))
	return removed, nil
}

func blacklistEntry(claims *Claims) *models.BlacklistedToken {
	return &models.BlacklistedToken{
		JTI:       claims.JTI,
		UserID:    claims.UserID,
		TokenType: claims.TokenType,
		ExpiresAt: claims.ExpiresAt,
	}
}

