package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/pulverlogic/newsboard/internal/models"
)

const (
	timeFormat   = "2006-01-02 15:04:05"
	tokenKeyTpl  = "token:%s" // token:${token}
	userKeyTpl   = "user:%s"  // user:${username}
	tokenPrefix  = "sk-pulver-"
	bearerPrefix = "Bearer "
)

var ErrInvalidToken = errors.New("invalid token")

// TokenManager issues and checks API bearer tokens kept in redis. Each
// token is a hash with its owner and usage counters; user:<name> points
// back to the current token so a user keeps one token.
type TokenManager struct {
	redis *redis.Client
}

func NewTokenManager(client *redis.Client) *TokenManager {
	return &TokenManager{redis: client}
}

// ConnectTokenManager parses a redis URL and checks the server answers.
func ConnectTokenManager(ctx context.Context, redisURL string) (*TokenManager, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewTokenManager(client), nil
}

func generateToken() (string, error) {
	randomBytes := make([]byte, 12)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return tokenPrefix + hex.EncodeToString(randomBytes), nil
}

// FetchOrCreate returns the user's token, creating one on first use. The
// bool reports whether the token is new.
func (tm *TokenManager) FetchOrCreate(ctx context.Context, u models.User) (*models.TokenInfo, bool, error) {
	userKey := fmt.Sprintf(userKeyTpl, u.Username)

	token, err := tm.redis.Get(ctx, userKey).Result()
	if err != nil && err != redis.Nil {
		return nil, false, fmt.Errorf("failed to check token: %w", err)
	}
	if err == nil {
		info, err := tm.info(ctx, token)
		if err == nil {
			return info, false, nil
		}
		if !errors.Is(err, ErrInvalidToken) {
			return nil, false, err
		}
		// dangling pointer, issue a fresh token below
	}

	token, err = generateToken()
	if err != nil {
		return nil, false, err
	}
	now := time.Now().UTC().Format(timeFormat)

	pipe := tm.redis.TxPipeline()
	pipe.HSet(ctx, fmt.Sprintf(tokenKeyTpl, token), map[string]interface{}{
		"username":              u.Username,
		"role":                  string(u.Role),
		"request_count":         0,
		"last_request_dttm_utc": now,
		"created_dttm_utc":      now,
	})
	pipe.Set(ctx, userKey, token, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to create token: %w", err)
	}

	info, err := tm.info(ctx, token)
	if err != nil {
		return nil, false, err
	}
	return info, true, nil
}

// Validate checks a token and bumps its usage counters.
func (tm *TokenManager) Validate(ctx context.Context, token string) (*models.TokenInfo, error) {
	key := fmt.Sprintf(tokenKeyTpl, token)

	exists, err := tm.redis.Exists(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}
	if exists == 0 {
		logger.Debug.Printf("Token not found: %s", key)
		return nil, ErrInvalidToken
	}

	pipe := tm.redis.Pipeline()
	pipe.HIncrBy(ctx, key, "request_count", 1)
	pipe.HSet(ctx, key, "last_request_dttm_utc", time.Now().UTC().Format(timeFormat))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to update token stats: %w", err)
	}
	return tm.info(ctx, token)
}

// ValidateHeader accepts an Authorization header value.
func (tm *TokenManager) ValidateHeader(ctx context.Context, header string) (*models.TokenInfo, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, fmt.Errorf("%w: expected a bearer token", ErrInvalidToken)
	}
	return tm.Validate(ctx, strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix)))
}

// Revoke removes the user's current token.
func (tm *TokenManager) Revoke(ctx context.Context, username string) error {
	userKey := fmt.Sprintf(userKeyTpl, username)
	token, err := tm.redis.Get(ctx, userKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to look up token: %w", err)
	}
	return tm.redis.Del(ctx, userKey, fmt.Sprintf(tokenKeyTpl, token)).Err()
}

func (tm *TokenManager) info(ctx context.Context, token string) (*models.TokenInfo, error) {
	values, err := tm.redis.HGetAll(ctx, fmt.Sprintf(tokenKeyTpl, token)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get token info: %w", err)
	}
	if len(values) == 0 {
		return nil, ErrInvalidToken
	}

	lastReqTime, _ := time.Parse(timeFormat, values["last_request_dttm_utc"])
	createdTime, _ := time.Parse(timeFormat, values["created_dttm_utc"])
	reqCount, _ := strconv.Atoi(values["request_count"])

	return &models.TokenInfo{
		Token:           token,
		Username:        values["username"],
		Role:            models.Role(values["role"]),
		RequestCount:    reqCount,
		LastRequestTime: lastReqTime,
		CreatedTime:     createdTime,
	}, nil
}

func (tm *TokenManager) Close() error {
	if tm.redis != nil {
		return tm.redis.Close()
	}
	return nil
}
