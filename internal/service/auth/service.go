package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/qtrack/clinic-api/internal/email"
	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
	pkgauth "github.com/qtrack/clinic-api/pkg/auth"
	"github.com/qtrack/clinic-api/pkg/security"
)

// Auth failures map to a small fixed set of user-facing messages;
// anything else surfaces generically.
var (
	ErrUnknownAccount  = errors.New("no account exists for this email")
	ErrWrongCredential = errors.New("incorrect email or password")
	ErrMalformedEmail  = errors.New("email address is malformed")
	ErrTooManyAttempts = errors.New("too many failed attempts, try again later")
	ErrAccountDisabled = errors.New("this account has been disabled")
	ErrEmailTaken      = errors.New("email already registered")
)

const (
	maxLoginAttempts  = 5
	lockoutDuration   = 15 * time.Minute
	resetTokenExpiry  = 1 * time.Hour
	verifyTokenExpiry = 48 * time.Hour
)

type Service struct {
	staffRepo repository.StaffRepository
	tokenRepo repository.TokenRepository
	jwtSvc    pkgauth.JWTService
	hasher    security.PasswordHasher
	emailSvc  email.Service
}

func NewService(staffRepo repository.StaffRepository, tokenRepo repository.TokenRepository,
	jwtSvc pkgauth.JWTService, hasher security.PasswordHasher, emailSvc email.Service) *Service {
	return &Service{
		staffRepo: staffRepo,
		tokenRepo: tokenRepo,
		jwtSvc:    jwtSvc,
		hasher:    hasher,
		emailSvc:  emailSvc,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.Staff, error) {
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, ErrMalformedEmail
	}

	existing, err := s.staffRepo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	staff := &model.Staff{
		Email:          req.Email,
		FullName:       req.FullName,
		Phone:          req.Phone,
		Role:           req.Role,
		Specialization: req.Specialization,
		PasswordHash:   hash,
		Status:         model.StaffStatusPending,
	}

	if err := s.staffRepo.Create(ctx, staff); err != nil {
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}

	if err := s.SendVerification(ctx, staff); err != nil {
		// Non-critical; registration succeeded and verification can be
		// re-sent.
		log.Error().Err(err).Str("email", staff.Email).Msg("failed to send verification email")
	}

	return staff, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, ErrMalformedEmail
	}

	staff, err := s.staffRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownAccount
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if staff.Status == model.StaffStatusDisabled {
		return nil, ErrAccountDisabled
	}
	if staff.LockedUntil != nil && time.Now().Before(*staff.LockedUntil) {
		return nil, ErrTooManyAttempts
	}

	if err := s.hasher.Compare(staff.PasswordHash, req.Password); err != nil {
		staff.FailedLoginAttempts++
		if staff.FailedLoginAttempts >= maxLoginAttempts {
			until := time.Now().Add(lockoutDuration)
			staff.LockedUntil = &until
			staff.FailedLoginAttempts = 0
		}
		if updateErr := s.staffRepo.Update(ctx, staff); updateErr != nil {
			return nil, fmt.Errorf("failed to update login attempts: %w", updateErr)
		}
		return nil, ErrWrongCredential
	}

	staff.FailedLoginAttempts = 0
	staff.LockedUntil = nil
	now := time.Now()
	staff.LastLoginAt = &now
	if err := s.staffRepo.Update(ctx, staff); err != nil {
		return nil, fmt.Errorf("failed to update login timestamp: %w", err)
	}

	return s.generateTokens(staff)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	revoked, err := s.tokenRepo.IsRefreshTokenRevoked(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, fmt.Errorf("failed to check refresh token: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("refresh token has been revoked")
	}

	staff, err := s.staffRepo.Get(ctx, claims.StaffID)
	if err != nil {
		return nil, fmt.Errorf("account not found: %w", err)
	}
	if staff.Status == model.StaffStatusDisabled {
		return nil, ErrAccountDisabled
	}

	return s.generateTokens(staff)
}

func (s *Service) ValidateToken(ctx context.Context, token string) (*model.TokenClaims, error) {
	return s.jwtSvc.ValidateToken(token)
}

// Logout revokes the session's refresh token so it can no longer mint
// access tokens. Access tokens stay valid until their short expiry; an
// already-invalid refresh token is treated as logged out.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if _, err := s.jwtSvc.ValidateRefreshToken(refreshToken); err != nil {
		return nil
	}
	expiry := time.Now().Add(s.jwtSvc.RefreshExpiry())
	if err := s.tokenRepo.RevokeRefreshToken(ctx, hashToken(refreshToken), expiry); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// SendVerification issues a fresh verification token and mails it.
func (s *Service) SendVerification(ctx context.Context, staff *model.Staff) error {
	token, err := randomToken()
	if err != nil {
		return err
	}
	if err := s.tokenRepo.StoreVerificationToken(ctx, staff.ID, token, time.Now().Add(verifyTokenExpiry)); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}
	return s.emailSvc.SendVerification(ctx, staff.Email, token)
}

// VerifyEmail consumes a verification token and activates the account.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	staffID, err := s.tokenRepo.ValidateVerificationToken(ctx, token)
	if err != nil {
		return fmt.Errorf("invalid or expired verification token: %w", err)
	}

	staff, err := s.staffRepo.Get(ctx, staffID)
	if err != nil {
		return fmt.Errorf("account not found: %w", err)
	}

	staff.EmailVerified = true
	if staff.Status == model.StaffStatusPending {
		staff.Status = model.StaffStatusActive
	}
	if err := s.staffRepo.Update(ctx, staff); err != nil {
		return fmt.Errorf("failed to activate account: %w", err)
	}

	if err := s.tokenRepo.InvalidateToken(ctx, token); err != nil {
		log.Error().Err(err).Msg("failed to invalidate verification token")
	}
	if err := s.emailSvc.SendWelcome(ctx, staff.Email, staff.FullName); err != nil {
		log.Error().Err(err).Str("email", staff.Email).Msg("failed to send welcome email")
	}
	return nil
}

// ForgotPassword mails a reset token. An unknown email is reported to
// the caller as success so addresses cannot be probed.
func (s *Service) ForgotPassword(ctx context.Context, emailAddr string) error {
	if _, err := mail.ParseAddress(emailAddr); err != nil {
		return ErrMalformedEmail
	}

	staff, err := s.staffRepo.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	if err := s.tokenRepo.StoreResetToken(ctx, staff.ID, token, time.Now().Add(resetTokenExpiry)); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return s.emailSvc.SendPasswordReset(ctx, staff.Email, token)
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	staffID, err := s.tokenRepo.ValidateResetToken(ctx, token)
	if err != nil {
		return fmt.Errorf("invalid or expired reset token: %w", err)
	}

	staff, err := s.staffRepo.Get(ctx, staffID)
	if err != nil {
		return fmt.Errorf("account not found: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	staff.PasswordHash = hash
	staff.LockedUntil = nil
	staff.FailedLoginAttempts = 0

	if err := s.staffRepo.Update(ctx, staff); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.tokenRepo.InvalidateToken(ctx, token); err != nil {
		log.Error().Err(err).Msg("failed to invalidate reset token")
	}
	return nil
}

func (s *Service) generateTokens(staff *model.Staff) (*model.TokenResponse, error) {
	access, err := s.jwtSvc.GenerateAccessToken(staff)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwtSvc.GenerateRefreshToken(staff)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.jwtSvc.AccessExpiry().Seconds()),
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
