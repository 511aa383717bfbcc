package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/qtrack/clinic-api/internal/model"
)

type JWTService interface {
	GenerateAccessToken(staff *model.Staff) (string, error)
	GenerateRefreshToken(staff *model.Staff) (string, error)
	ValidateToken(token string) (*model.TokenClaims, error)
	ValidateRefreshToken(token string) (*model.TokenClaims, error)
	AccessExpiry() time.Duration
	RefreshExpiry() time.Duration
}

type Config struct {
	Secret        string
	RefreshSecret string
	ExpiryHours   int
	RefreshHours  int
}

type jwtService struct {
	cfg Config
}

func NewJWTService(cfg Config) JWTService {
	if cfg.ExpiryHours <= 0 {
		cfg.ExpiryHours = 24
	}
	if cfg.RefreshHours <= 0 {
		cfg.RefreshHours = 24 * 7
	}
	return &jwtService{cfg: cfg}
}

func (s *jwtService) AccessExpiry() time.Duration {
	return time.Duration(s.cfg.ExpiryHours) * time.Hour
}

func (s *jwtService) RefreshExpiry() time.Duration {
	return time.Duration(s.cfg.RefreshHours) * time.Hour
}

func (s *jwtService) GenerateAccessToken(staff *model.Staff) (string, error) {
	return s.sign(staff, s.cfg.Secret, s.AccessExpiry())
}

func (s *jwtService) GenerateRefreshToken(staff *model.Staff) (string, error) {
	return s.sign(staff, s.cfg.RefreshSecret, s.RefreshExpiry())
}

func (s *jwtService) sign(staff *model.Staff, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"staff_id":  staff.ID.String(),
		"email":     staff.Email,
		"full_name": staff.FullName,
		"role":      string(staff.Role),
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *jwtService) ValidateToken(token string) (*model.TokenClaims, error) {
	return s.parse(token, s.cfg.Secret)
}

func (s *jwtService) ValidateRefreshToken(token string) (*model.TokenClaims, error) {
	return s.parse(token, s.cfg.RefreshSecret)
}

func (s *jwtService) parse(tokenStr, secret string) (*model.TokenClaims, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	rawID, ok := claims["staff_id"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	staffID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid staff ID in token")
	}

	email, _ := claims["email"].(string)
	fullName, _ := claims["full_name"].(string)
	role, _ := claims["role"].(string)

	return &model.TokenClaims{
		StaffID:  staffID,
		Email:    email,
		FullName: fullName,
		Role:     model.StaffRole(role),
	}, nil
}
