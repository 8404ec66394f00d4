package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "auth:session:"

// SessionStore 保存服务端会话记录；删除记录即立刻吊销会话。
type SessionStore interface {
	Put(ctx context.Context, sessionID string, userID uint, ttl time.Duration) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// RedisSessionStore 基于 Redis 的会话记录实现。
type RedisSessionStore struct {
	client redis.UniversalClient
}

// NewRedisSessionStore 构造 Redis 会话存储。
func NewRedisSessionStore(client redis.UniversalClient) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Put(ctx context.Context, sessionID string, userID uint, ttl time.Duration) error {
	key := sessionKeyPrefix + sessionID
	if err := s.client.Set(ctx, key, strconv.FormatUint(uint64(userID), 10), ttl).Err(); err != nil {
		return fmt.Errorf("store session %q: %w", sessionID, err)
	}
	return nil
}

func (s *RedisSessionStore) Exists(ctx context.Context, sessionID string) (bool, error) {
	err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return false, fmt.Errorf("lookup session %q: %w", sessionID, err)
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("delete session %q: %w", sessionID, err)
	}
	return nil
}

// SessionClaims 表示会话令牌中的业务字段，便于中间件读取用户信息。
type SessionClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// SessionService 负责会话令牌的签发、校验与吊销。
// 令牌本身是 HS256 JWT，但有效性同时取决于服务端会话记录是否存在，
// 因此 logout 会立刻生效，而不必等待令牌过期。
type SessionService struct {
	secret []byte
	ttl    time.Duration
	store  SessionStore
}

// NewSessionService 构造会话服务。
func NewSessionService(secret []byte, ttl time.Duration, store SessionStore) (*SessionService, error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	if store == nil {
		return nil, errors.New("session store is required")
	}
	return &SessionService{secret: secret, ttl: ttl, store: store}, nil
}

// Issue 为用户建立新会话并返回签名令牌。
func (s *SessionService) Issue(ctx context.Context, userID uint) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	if err := s.store.Put(ctx, claims.ID, userID, s.ttl); err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Validate 解析令牌并确认服务端会话记录仍然存在。
func (s *SessionService) Validate(ctx context.Context, tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, errors.New("token string is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.ID == "" {
		return nil, errors.New("token missing session id")
	}

	alive, err := s.store.Exists(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if !alive {
		return nil, errors.New("session revoked or expired")
	}

	return claims, nil
}

// Revoke 删除服务端会话记录，使对应令牌立刻失效。
func (s *SessionService) Revoke(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.store.Delete(ctx, sessionID)
}

// TTL 暴露会话有效期，用于设置 Cookie MaxAge。
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}
