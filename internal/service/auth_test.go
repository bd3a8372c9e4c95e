package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/infra/memstore"
	"github.com/elevare/elevare-backend-go/internal/infra/resilience"
	"github.com/elevare/elevare-backend-go/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []domain.Mail
}

func (m *captureMailer) Send(_ context.Context, msg domain.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type authFixture struct {
	svc    *service.AuthService
	users  *memstore.Repository[domain.User]
	tokens *service.Tokens
	mailer *captureMailer
}

func newAuth(t *testing.T, expose bool) *authFixture {
	t.Helper()
	users := newRepo[domain.User](connected(), "User", "email")
	tokens := service.NewTokens("test-secret", time.Hour)
	mailer := &captureMailer{}
	svc := service.NewAuthService(users, tokens, mailer, resilience.NewBulkhead(4),
		service.AuthOptions{ExposeResetToken: expose, AppURL: "http://localhost:5173"}, zap.NewNop())
	return &authFixture{svc: svc, users: users, tokens: tokens, mailer: mailer}
}

func registerAlice(t *testing.T, f *authFixture) *domain.AuthResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), &domain.RegisterRequest{
		FullName: "Alice Reyes",
		Email:    "  Alice@Example.com ",
		Password: "password123",
		Phone:    "+63 900 000 0000",
		Company:  "Elevare Realty",
	})
	require.NoError(t, err)
	return resp
}

func TestRegister(t *testing.T) {
	f := newAuth(t, false)
	resp := registerAlice(t, f)

	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Equal(t, domain.RoleAgent, resp.User.Role)
	assert.True(t, resp.User.IsActive)
	assert.NotEqual(t, "password123", resp.User.PasswordHash)

	claims, err := f.tokens.Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.Sub)

	assert.Eventually(t, func() bool { return f.mailer.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestRegister_DuplicateEmailCaseInsensitive(t *testing.T) {
	f := newAuth(t, false)
	registerAlice(t, f)

	_, err := f.svc.Register(context.Background(), &domain.RegisterRequest{
		FullName: "Other", Email: "ALICE@example.COM", Password: "password123", Phone: "1", Company: "C",
	})
	requireAs[*domain.ErrConflict](t, err)
	assert.Equal(t, 1, f.users.Len())
}

func TestRegister_RejectsPrivilegedRoles(t *testing.T) {
	f := newAuth(t, false)
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleCEO, domain.RoleCoach} {
		_, err := f.svc.Register(context.Background(), &domain.RegisterRequest{
			FullName: "X", Email: "x@example.com", Password: "password123", Phone: "1", Company: "C", Role: role,
		})
		requireAs[*domain.ErrValidation](t, err)
	}
	assert.Zero(t, f.users.Len())
}

func TestLogin(t *testing.T) {
	f := newAuth(t, false)
	registerAlice(t, f)
	ctx := context.Background()

	resp, err := f.svc.Login(ctx, &domain.LoginRequest{Email: "ALICE@example.com", Password: "password123"})
	require.NoError(t, err)
	require.NotNil(t, resp.User.LastLogin)

	_, errWrong := f.svc.Login(ctx, &domain.LoginRequest{Email: "alice@example.com", Password: "nope-nope"})
	_, errUnknown := f.svc.Login(ctx, &domain.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	wrong := requireAs[*domain.ErrUnauthorized](t, errWrong)
	unknown := requireAs[*domain.ErrUnauthorized](t, errUnknown)
	assert.Equal(t, "Invalid credentials", wrong.Error())
	assert.Equal(t, wrong.Error(), unknown.Error())
}

func TestLogin_InactiveUser(t *testing.T) {
	f := newAuth(t, false)
	resp := registerAlice(t, f)
	ctx := context.Background()

	u := resp.User
	u.IsActive = false
	require.NoError(t, f.users.Replace(ctx, u.ID, domain.GlobalScope(), nil, u))

	_, err := f.svc.Login(ctx, &domain.LoginRequest{Email: "alice@example.com", Password: "password123"})
	assert.EqualError(t, err, "Invalid credentials")
}

func TestChangePassword(t *testing.T) {
	f := newAuth(t, false)
	resp := registerAlice(t, f)
	ctx := context.Background()
	p := resp.User.Principal()

	_, err := f.svc.ChangePassword(ctx, p, &domain.ChangePasswordRequest{CurrentPassword: "bad", NewPassword: "newpassword1"})
	requireAs[*domain.ErrUnauthorized](t, err)

	_, err = f.svc.ChangePassword(ctx, p, &domain.ChangePasswordRequest{CurrentPassword: "password123", NewPassword: "newpassword1"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, &domain.LoginRequest{Email: "alice@example.com", Password: "newpassword1"})
	require.NoError(t, err)
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newAuth(t, true)
	registerAlice(t, f)
	ctx := context.Background()

	unknown, err := f.svc.ForgotPassword(ctx, &domain.ForgotPasswordRequest{Email: "nobody@example.com"})
	require.NoError(t, err)
	assert.Empty(t, unknown.ResetToken)

	forgot, err := f.svc.ForgotPassword(ctx, &domain.ForgotPasswordRequest{Email: "alice@example.com"})
	require.NoError(t, err)
	require.Len(t, forgot.ResetToken, 40)

	_, err = f.svc.ResetPassword(ctx, "0000", &domain.ResetPasswordRequest{Password: "brandnew123"})
	assert.EqualError(t, err, "Validation error: Invalid or expired token")

	resp, err := f.svc.ResetPassword(ctx, forgot.ResetToken, &domain.ResetPasswordRequest{Password: "brandnew123"})
	require.NoError(t, err)
	assert.Empty(t, resp.User.ResetPasswordToken)

	_, err = f.svc.ResetPassword(ctx, forgot.ResetToken, &domain.ResetPasswordRequest{Password: "another123"})
	requireAs[*domain.ErrValidation](t, err)

	_, err = f.svc.Login(ctx, &domain.LoginRequest{Email: "alice@example.com", Password: "brandnew123"})
	require.NoError(t, err)
}

func TestForgotPassword_HidesTokenOutsideDevelopment(t *testing.T) {
	f := newAuth(t, false)
	registerAlice(t, f)

	forgot, err := f.svc.ForgotPassword(context.Background(), &domain.ForgotPasswordRequest{Email: "alice@example.com"})
	require.NoError(t, err)
	assert.Empty(t, forgot.ResetToken)
}

func TestPasswordLengthLimit(t *testing.T) {
	f := newAuth(t, true)
	long := strings.Repeat("x", 80)

	_, err := f.svc.Register(context.Background(), &domain.RegisterRequest{
		FullName: "Long", Email: "long@example.com", Password: long, Phone: "1", Company: "E",
	})
	ve := requireAs[*domain.ErrValidation](t, err)
	assert.Contains(t, ve.Errors, `"password" length must be less than or equal to 72 characters long`)
	assert.Equal(t, 0, f.users.Len())

	resp := registerAlice(t, f)
	p := resp.User.Principal()
	_, err = f.svc.ChangePassword(context.Background(), p, &domain.ChangePasswordRequest{
		CurrentPassword: "password123", NewPassword: long,
	})
	requireAs[*domain.ErrValidation](t, err)

	fp, err := f.svc.ForgotPassword(context.Background(), &domain.ForgotPasswordRequest{Email: "alice@example.com"})
	require.NoError(t, err)
	_, err = f.svc.ResetPassword(context.Background(), fp.ResetToken, &domain.ResetPasswordRequest{Password: long})
	requireAs[*domain.ErrValidation](t, err)
}
