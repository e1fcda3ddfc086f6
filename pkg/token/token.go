package token

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/hertz-contrib/jwt"

	"TourAdmin/config"
)

const (
	IdentityKey = "admin"
	RoleKey     = "role"
	RoleAdmin   = "admin"
)

var (
	errGeneratorNotInitialized = errors.New("token generator is not initialized")
	errUnexpectedSigningMethod = errors.New("unexpected signing method")
	errInvalidToken            = errors.New("invalid token")

	// 这个实例会被 middleware 和 token 包共同使用
	sharedGenerator *jwt.HertzJWTMiddleware
)

func Init() error {
	var err error
	sharedGenerator, err = jwt.New(&jwt.HertzJWTMiddleware{
		Key:         []byte(config.Cfg.JWTSecret),
		Timeout:     time.Duration(config.Cfg.JWTExpireMinutes) * time.Minute,
		MaxRefresh:  time.Duration(config.Cfg.JWTExpireMinutes) * time.Minute,
		IdentityKey: IdentityKey,
		TimeFunc:    time.Now,
	})

	if err != nil {
		return fmt.Errorf("failed to initialize token generator: %w", err)
	}

	return nil
}

// GetGenerator 获取共享的 token 生成器（供 middleware 使用）
func GetGenerator() *jwt.HertzJWTMiddleware {
	return sharedGenerator
}

// IssueAdminToken 为后台操作员签发 access token。
func IssueAdminToken(operator string, ttl time.Duration) (string, time.Time, error) {
	if sharedGenerator == nil {
		return "", time.Time{}, errGeneratorNotInitialized
	}
	if ttl <= 0 {
		ttl = sharedGenerator.Timeout
	}

	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := jwtv5.MapClaims{
		IdentityKey: operator,
		RoleKey:     RoleAdmin,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
	}

	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(sharedGenerator.Key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign admin token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseAdminToken 校验签名与角色，返回操作员标识。
func ParseAdminToken(tokenString string) (string, error) {
	tok, err := jwtv5.Parse(tokenString, func(t *jwtv5.Token) (interface{}, error) {
		if t.Method != jwtv5.SigningMethodHS256 {
			return nil, fmt.Errorf("%w: %v, expected HS256", errUnexpectedSigningMethod, t.Header["alg"])
		}
		return []byte(config.Cfg.JWTSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok || !tok.Valid {
		return "", errInvalidToken
	}
	if role, _ := claims[RoleKey].(string); role != RoleAdmin {
		return "", errInvalidToken
	}
	operator, ok := claims[IdentityKey].(string)
	if !ok || operator == "" {
		return "", errInvalidToken
	}
	return operator, nil
}
