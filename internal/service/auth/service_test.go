package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/qtrack/clinic-api/internal/email"
	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
	pkgauth "github.com/qtrack/clinic-api/pkg/auth"
	"github.com/qtrack/clinic-api/pkg/security"
)

type fakeStaffRepo struct {
	staff map[uuid.UUID]*model.Staff
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{staff: make(map[uuid.UUID]*model.Staff)}
}

func (r *fakeStaffRepo) Create(_ context.Context, s *model.Staff) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.staff[s.ID] = s
	return nil
}

func (r *fakeStaffRepo) Get(_ context.Context, id uuid.UUID) (*model.Staff, error) {
	s, ok := r.staff[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeStaffRepo) GetByEmail(_ context.Context, addr string) (*model.Staff, error) {
	for _, s := range r.staff {
		if strings.EqualFold(s.Email, addr) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeStaffRepo) Update(_ context.Context, s *model.Staff) error {
	if _, ok := r.staff[s.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *s
	r.staff[s.ID] = &cp
	return nil
}

func (r *fakeStaffRepo) List(_ context.Context, role model.StaffRole) ([]*model.Staff, error) {
	var out []*model.Staff
	for _, s := range r.staff {
		if role == "" || s.Role == role {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeTokenRepo struct {
	tokens  map[string]uuid.UUID
	revoked map[string]bool
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{
		tokens:  make(map[string]uuid.UUID),
		revoked: make(map[string]bool),
	}
}

func (r *fakeTokenRepo) StoreVerificationToken(_ context.Context, staffID uuid.UUID, token string, _ time.Time) error {
	r.tokens[token] = staffID
	return nil
}

func (r *fakeTokenRepo) ValidateVerificationToken(_ context.Context, token string) (uuid.UUID, error) {
	id, ok := r.tokens[token]
	if !ok {
		return uuid.Nil, repository.ErrNotFound
	}
	return id, nil
}

func (r *fakeTokenRepo) StoreResetToken(_ context.Context, staffID uuid.UUID, token string, _ time.Time) error {
	r.tokens[token] = staffID
	return nil
}

func (r *fakeTokenRepo) ValidateResetToken(_ context.Context, token string) (uuid.UUID, error) {
	id, ok := r.tokens[token]
	if !ok {
		return uuid.Nil, repository.ErrNotFound
	}
	return id, nil
}

func (r *fakeTokenRepo) InvalidateToken(_ context.Context, token string) error {
	delete(r.tokens, token)
	return nil
}

func (r *fakeTokenRepo) RevokeRefreshToken(_ context.Context, tokenHash string, _ time.Time) error {
	r.revoked[tokenHash] = true
	return nil
}

func (r *fakeTokenRepo) IsRefreshTokenRevoked(_ context.Context, tokenHash string) (bool, error) {
	return r.revoked[tokenHash], nil
}

func newTestService() (*Service, *fakeStaffRepo, *fakeTokenRepo) {
	staffRepo := newFakeStaffRepo()
	tokenRepo := newFakeTokenRepo()
	jwtSvc := pkgauth.NewJWTService(pkgauth.Config{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh-secret",
	})
	svc := NewService(staffRepo, tokenRepo, jwtSvc, security.NewBcryptHasher(bcrypt.MinCost), &email.NoopService{})
	return svc, staffRepo, tokenRepo
}

func registerActive(t *testing.T, svc *Service, repo *fakeStaffRepo, addr, password string) *model.Staff {
	t.Helper()
	staff, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    addr,
		Password: password,
		FullName: "Dr. Asha Rao",
		Role:     model.StaffRoleDoctor,
	})
	require.NoError(t, err)

	staff.Status = model.StaffStatusActive
	require.NoError(t, repo.Update(context.Background(), staff))
	return staff
}

func TestRegisterAndLogin(t *testing.T) {
	svc, repo, _ := newTestService()
	registerActive(t, svc, repo, "asha@clinic.example.com", "s3cretpass")

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "asha@clinic.example.com",
		Password: "s3cretpass",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Greater(t, tokens.ExpiresIn, int64(0))

	claims, err := svc.ValidateToken(context.Background(), tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "asha@clinic.example.com", claims.Email)
	assert.Equal(t, model.StaffRoleDoctor, claims.Role)
}

func TestLoginErrorTaxonomy(t *testing.T) {
	svc, repo, _ := newTestService()
	registerActive(t, svc, repo, "asha@clinic.example.com", "s3cretpass")

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "not-an-email",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, ErrMalformedEmail)

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@clinic.example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, ErrUnknownAccount)

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "asha@clinic.example.com",
		Password: "wrongpass",
	})
	assert.ErrorIs(t, err, ErrWrongCredential)
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	svc, repo, _ := newTestService()
	registerActive(t, svc, repo, "asha@clinic.example.com", "s3cretpass")

	for i := 0; i < 5; i++ {
		_, err := svc.Login(context.Background(), &model.LoginRequest{
			Email:    "asha@clinic.example.com",
			Password: "wrongpass",
		})
		assert.ErrorIs(t, err, ErrWrongCredential)
	}

	// even the right password is refused while locked
	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "asha@clinic.example.com",
		Password: "s3cretpass",
	})
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestLoginDisabledAccount(t *testing.T) {
	svc, repo, _ := newTestService()
	staff := registerActive(t, svc, repo, "asha@clinic.example.com", "s3cretpass")

	staff.Status = model.StaffStatusDisabled
	require.NoError(t, repo.Update(context.Background(), staff))

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "asha@clinic.example.com",
		Password: "s3cretpass",
	})
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, repo, _ := newTestService()
	registerActive(t, svc, repo, "asha@clinic.example.com", "s3cretpass")

	_, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "asha@clinic.example.com",
		Password: "otherpass1",
		FullName: "Someone Else",
		Role:     model.StaffRoleReceptionist,
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestVerifyEmailActivatesPendingAccount(t *testing.T) {
	svc, repo, tokenRepo := newTestService()

	staff, err := svc.Register(context.Background(), &model.RegisterRequest{
		Email:    "asha@clinic.example.com",
		Password: "s3cretpass",
		FullName: "Dr. Asha Rao",
		Role:     model.StaffRoleDoctor,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StaffStatusPending, staff.Status)

	// Register stored a verification token; find it
	var token string
	for tok := range tokenRepo.tokens {
		token = tok
	}
	require.NotEmpty(t, token)

	require.NoError(t, svc.VerifyEmail(context.Background(), token))

	refreshed, err := repo.Get(context.Background(), staff.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.EmailVerified)
	assert.Equal(t, model.StaffStatusActive, refreshed.Status)

	// the token is single-use
	assert.Error(t, svc.VerifyEmail(context.Background(), token))
}

func TestPasswordResetFlow(t *testing.T) {
	svc, repo, tokenRepo := newTestService()
	registerActive(t, svc, repo, "asha@clinic.example.com", "s3cretpass")

	// clear the registration verification token so the reset token is
	// the only one left
	tokenRepo.tokens = map[string]uuid.UUID{}

	require.NoError(t, svc.ForgotPassword(context.Background(), "asha@clinic.example.com"))

	var token string
	for tok := range tokenRepo.tokens {
		token = tok
	}
	require.NotEmpty(t, token)

	require.NoError(t, svc.ResetPassword(context.Background(), token, "newpassword1"))

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "asha@clinic.example.com",
		Password: "newpassword1",
	})
	assert.NoError(t, err)

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "asha@clinic.example.com",
		Password: "s3cretpass",
	})
	assert.ErrorIs(t, err, ErrWrongCredential)
}

func TestForgotPasswordUnknownEmailIsSilent(t *testing.T) {
	svc, _, tokenRepo := newTestService()

	require.NoError(t, svc.ForgotPassword(context.Background(), "nobody@clinic.example.com"))
	assert.Empty(t, tokenRepo.tokens)
}

func TestRefreshRotatesTokens(t *testing.T) {
	svc, repo, _ := newTestService()
	registerActive(t, svc, repo, "asha@clinic.example.com", "s3cretpass")

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "asha@clinic.example.com",
		Password: "s3cretpass",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// an access token is not a refresh token
	_, err = svc.Refresh(context.Background(), tokens.AccessToken)
	assert.Error(t, err)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, repo, _ := newTestService()
	registerActive(t, svc, repo, "asha@clinic.example.com", "s3cretpass")

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "asha@clinic.example.com",
		Password: "s3cretpass",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), tokens.RefreshToken))

	_, err = svc.Refresh(context.Background(), tokens.RefreshToken)
	assert.Error(t, err)

	// garbage tokens are already logged out
	assert.NoError(t, svc.Logout(context.Background(), "not-a-token"))
}
