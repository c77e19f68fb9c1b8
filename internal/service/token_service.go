package service

import (
	"errors"
	"strings"
	"time"

	"github.com/bookstore-next/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken token 无效
var ErrInvalidToken = errors.New("invalid token")

// UserJWTClaims 用户 JWT 声明
type UserJWTClaims struct {
	UserID uint `json:"user_id"`
	jwt.RegisteredClaims
}

// AdminJWTClaims 管理员 JWT 声明
type AdminJWTClaims struct {
	AdminID  uint   `json:"admin_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService 令牌签发与解析，账号体系由外部系统负责
type TokenService struct {
	userCfg  config.JWTConfig
	adminCfg config.JWTConfig
}

// NewTokenService 创建令牌服务
func NewTokenService(userCfg, adminCfg config.JWTConfig) *TokenService {
	return &TokenService{userCfg: userCfg, adminCfg: adminCfg}
}

// IssueUserToken 签发用户 token
func (s *TokenService) IssueUserToken(userID uint) (string, time.Time, error) {
	expiresAt := time.Now().Add(resolveExpireHours(s.userCfg))
	claims := UserJWTClaims{
		UserID:           userID,
		RegisteredClaims: buildRegisteredClaims(expiresAt),
	}
	return signToken(claims, s.userCfg.SecretKey, expiresAt)
}

// ParseUserToken 解析用户 token
func (s *TokenService) ParseUserToken(tokenString string) (*UserJWTClaims, error) {
	claims := &UserJWTClaims{}
	if err := parseToken(tokenString, s.userCfg.SecretKey, claims); err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssueAdminToken 签发管理员 token
func (s *TokenService) IssueAdminToken(adminID uint, username, role string) (string, time.Time, error) {
	expiresAt := time.Now().Add(resolveExpireHours(s.adminCfg))
	claims := AdminJWTClaims{
		AdminID:          adminID,
		Username:         strings.TrimSpace(username),
		Role:             strings.TrimSpace(role),
		RegisteredClaims: buildRegisteredClaims(expiresAt),
	}
	return signToken(claims, s.adminCfg.SecretKey, expiresAt)
}

// ParseAdminToken 解析管理员 token
func (s *TokenService) ParseAdminToken(tokenString string) (*AdminJWTClaims, error) {
	claims := &AdminJWTClaims{}
	if err := parseToken(tokenString, s.adminCfg.SecretKey, claims); err != nil {
		return nil, err
	}
	if claims.AdminID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func buildRegisteredClaims(expiresAt time.Time) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
}

func signToken(claims jwt.Claims, secret string, expiresAt time.Time) (string, time.Time, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

func parseToken(tokenString, secret string, claims jwt.Claims) error {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

func resolveExpireHours(cfg config.JWTConfig) time.Duration {
	if cfg.ExpireHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(cfg.ExpireHours) * time.Hour
}
