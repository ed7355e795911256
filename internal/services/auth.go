package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/packlabs/packvault-backend/internal/authz"
	"github.com/packlabs/packvault-backend/internal/logger"
	"github.com/packlabs/packvault-backend/internal/requestdata"
	"github.com/packlabs/packvault-backend/internal/vaulterr"
)

type AuthService interface {
	IssueToken(subject string, role authz.Role, ttl time.Duration) (string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetTokenTTL() time.Duration
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey string
	tokenTTL     time.Duration
}

func NewAuthService(log *logger.Logger, jwtSecretKey string, tokenTTL time.Duration) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		log:          serviceLog,
		jwtSecretKey: jwtSecretKey,
		tokenTTL:     tokenTTL,
	}
}

func (as *authService) IssueToken(subject string, role authz.Role, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", vaulterr.New(vaulterr.KindValidation, "missing_subject", fmt.Errorf("token subject required"))
	}
	if _, ok := authz.ParseRole(string(role)); !ok {
		return "", vaulterr.Newf(vaulterr.KindValidation, "invalid_role", "unknown role %q", role)
	}
	if ttl <= 0 {
		ttl = as.tokenTTL
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": string(role),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return nil, vaulterr.New(vaulterr.KindAuthorization, "invalid_token", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, vaulterr.New(vaulterr.KindAuthorization, "invalid_token", fmt.Errorf("unexpected claims shape"))
	}
	subject, _ := claims["sub"].(string)
	rawRole, _ := claims["role"].(string)
	role, ok := authz.ParseRole(rawRole)
	if subject == "" || !ok {
		return nil, vaulterr.New(vaulterr.KindAuthorization, "invalid_token", fmt.Errorf("missing subject or role claim"))
	}

	rd := &requestdata.RequestData{
		TokenString: tokenString,
		Subject:     subject,
		Role:        role,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetTokenTTL() time.Duration {
	return as.tokenTTL
}
