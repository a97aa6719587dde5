// Package auth provides HMAC-based API key authentication for the gRPC API.
//
// Keys are bound to a user. The authenticated user ID is injected into the
// request context and is the only identity playlist handlers trust.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/solatis/smartplaylist/internal/types"
)

type contextKey string

const userIDKey = contextKey("user_id")

// Queries is the subset of *db.Queries authentication needs.
type Queries interface {
	Get(ctx context.Context, name string, dest any, args ...any) error
	Exec(ctx context.Context, name string, args ...any) (sql.Result, error)
}

// Authenticator validates API keys against HMAC secrets and stored hashes.
type Authenticator struct {
	secrets map[string][]byte
	queries Queries
	logger  zerolog.Logger
}

// NewAuthenticator creates an authenticator with HMAC secrets and query interface.
func NewAuthenticator(secrets map[string][]byte, queries Queries, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		secrets: secrets,
		queries: queries,
		logger:  logger,
	}
}

// apiKeyRow mirrors the get-api-key-by-hash result.
type apiKeyRow struct {
	APIKeyID   string        `db:"api_key_id"`
	UserID     string        `db:"user_id"`
	RevokedMs  sql.NullInt64 `db:"revoked_ms"`
	LastUsedMs sql.NullInt64 `db:"last_used_ms"`
}

// Authenticate validates apiKey and returns the owning user.
func (a *Authenticator) Authenticate(ctx context.Context, apiKey string) (types.UserID, error) {
	secretID, _, err := ParseAPIKey(apiKey)
	if err != nil {
		return "", err
	}

	secret, ok := a.secrets[secretID]
	if !ok {
		return "", ErrUnknownKey
	}

	var row apiKeyRow
	err = a.queries.Get(ctx, "get-api-key-by-hash", &row, HashAPIKey(secret, apiKey))
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrInvalidKey
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDatabase, err)
	}

	if row.RevokedMs.Valid {
		return "", ErrKeyRevoked
	}

	// Throttled to one write per minute per key
	if shouldUpdateLastUsed(row.LastUsedMs, time.Now()) {
		if _, err := a.queries.Exec(ctx, "update-last-used", time.Now().UnixMilli(), row.APIKeyID); err != nil {
			a.logger.Warn().Err(err).Str("api_key_id", row.APIKeyID).Msg("failed to record key usage")
		}
	}

	return types.UserID(row.UserID), nil
}

func shouldUpdateLastUsed(lastUsedMs sql.NullInt64, now time.Time) bool {
	if !lastUsedMs.Valid {
		return true
	}
	return now.Sub(time.UnixMilli(lastUsedMs.Int64)) > time.Minute
}

// UnaryInterceptor returns gRPC interceptor that authenticates requests.
func (a *Authenticator) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		apiKeys := md.Get("x-api-key")
		if len(apiKeys) == 0 {
			return nil, status.Error(codes.Unauthenticated, ErrMissingKey.Error())
		}

		userID, err := a.Authenticate(ctx, apiKeys[0])
		if err != nil {
			switch {
			case errors.Is(err, ErrKeyRevoked):
				return nil, status.Error(codes.PermissionDenied, err.Error())
			case errors.Is(err, ErrDatabase):
				a.logger.Error().Err(err).Str("method", info.FullMethod).Msg("authentication lookup failed")
				return nil, status.Error(codes.Unavailable, err.Error())
			default:
				return nil, status.Error(codes.Unauthenticated, err.Error())
			}
		}

		return handler(WithUserID(ctx, userID), req)
	}
}

// WithUserID returns ctx carrying an authenticated user ID.
func WithUserID(ctx context.Context, userID types.UserID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the authenticated user ID.
// Returns empty string if not found.
func UserIDFromContext(ctx context.Context) types.UserID {
	if userID, ok := ctx.Value(userIDKey).(types.UserID); ok {
		return userID
	}
	return ""
}
