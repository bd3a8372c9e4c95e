package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/infra/resilience"
	"github.com/elevare/elevare-backend-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

const (
	resetTokenBytes = 20
	resetTokenTTL   = 10 * time.Minute
	mailTimeout     = 30 * time.Second
)

var errInvalidCredentials = &domain.ErrUnauthorized{Message: "Invalid credentials"}

// AuthOptions configures AuthService.
type AuthOptions struct {
	// ExposeResetToken returns the raw reset token from ForgotPassword.
	// Development only.
	ExposeResetToken bool
	// AppURL is the frontend base used in password reset links.
	AppURL string
}

// AuthService handles registration, login, password changes and resets.
type AuthService struct {
	users    port.Repository[domain.User]
	tokens   *Tokens
	mailer   port.Mailer
	bulkhead *resilience.Bulkhead
	opts     AuthOptions
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService creates a new auth service. Mail is sent in the background
// and bounded by bulkhead.
func NewAuthService(users port.Repository[domain.User], tokens *Tokens, mailer port.Mailer, bulkhead *resilience.Bulkhead, opts AuthOptions, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		mailer:   mailer,
		bulkhead: bulkhead,
		opts:     opts,
		logger:   logger,
		now:      now,
	}
}

// ============================================================
// Register: POST /api/v1/auth/register
// ============================================================

func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	req.Email = normalizeEmail(req.Email)
	if err := domain.Validate(req); err != nil {
		return nil, err
	}
	if req.Role == domain.RoleAdmin || req.Role == domain.RoleCEO {
		return nil, domain.NewValidation(fmt.Sprintf("%q cannot be self-assigned", req.Role))
	}

	existing, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &domain.ErrConflict{Message: "User already exists"}
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		FullName:     strings.TrimSpace(req.FullName),
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Company:      req.Company,
		Role:         req.Role,
		IsActive:     true,
		Preferences:  domain.NewUserPreferences(),
	}
	u.ApplyDefaults()
	u.Stamp(s.now())
	if err := domain.Validate(u); err != nil {
		return nil, err
	}
	if err := s.users.Insert(ctx, u); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.logger.Info("user registered",
		zap.String("user_id", u.ID),
		zap.String("role", string(u.Role)),
	)

	s.sendAsync(ctx, domain.Mail{
		To:      u.Email,
		ToName:  u.FullName,
		Subject: "Welcome to Elevare",
		Text:    fmt.Sprintf("Hi %s,\n\nYour Elevare account is ready. Sign in at %s.", u.FullName, s.opts.AppURL),
	})

	return s.session(u)
}

// ============================================================
// Login: POST /api/v1/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	req.Email = normalizeEmail(req.Email)
	if err := domain.Validate(req); err != nil {
		return nil, err
	}

	u, err := s.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	t := s.now()
	u.LastLogin = &t
	u.UpdatedAt = t
	if err := s.users.Replace(ctx, u.ID, domain.GlobalScope(), nil, u); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}

	s.logger.Info("user logged in", zap.String("user_id", u.ID))
	return s.session(u)
}

// VerifyCredentials returns the active user with the given email and
// password. Unknown email, wrong password and deactivated accounts all fail
// with the same error.
func (s *AuthService) VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.VerifyCredentials")
	defer span.End()

	u, err := s.findByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	hash := ""
	if u != nil {
		hash = u.PasswordHash
	}
	if !CheckPassword(hash, password) || !u.IsActive {
		span.SetAttributes(attribute.Bool("auth.failed", true))
		return nil, errInvalidCredentials
	}
	return u, nil
}

// ============================================================
// Me: GET /api/v1/auth/me
// ============================================================

func (s *AuthService) Me(ctx context.Context, p domain.Principal) (*domain.User, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Me")
	defer span.End()

	u, err := s.users.Get(ctx, p.UserID, domain.GlobalScope())
	if err != nil {
		return nil, fmt.Errorf("me: %w", err)
	}
	return u, nil
}

// ============================================================
// ChangePassword: PUT /api/v1/auth/password
// ============================================================

func (s *AuthService) ChangePassword(ctx context.Context, p domain.Principal, req *domain.ChangePasswordRequest) (*domain.AuthResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.ChangePassword")
	defer span.End()

	if err := domain.Validate(req); err != nil {
		return nil, err
	}

	u, err := s.users.Get(ctx, p.UserID, domain.GlobalScope())
	if err != nil {
		return nil, fmt.Errorf("change password: %w", err)
	}
	if !CheckPassword(u.PasswordHash, req.CurrentPassword) {
		return nil, &domain.ErrUnauthorized{Message: "Password is incorrect"}
	}

	if err := s.setPassword(ctx, u, req.NewPassword); err != nil {
		return nil, err
	}

	s.logger.Info("password changed", zap.String("user_id", u.ID))
	return s.session(u)
}

// ============================================================
// ForgotPassword: POST /api/v1/auth/forgot-password
// ============================================================

// ForgotPassword stores a hashed single-use token on the account and mails
// the raw token. The response is the same whether or not the email exists.
func (s *AuthService) ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest) (*domain.ForgotPasswordResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.ForgotPassword")
	defer span.End()

	req.Email = normalizeEmail(req.Email)
	if err := domain.Validate(req); err != nil {
		return nil, err
	}

	u, err := s.findByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return &domain.ForgotPasswordResponse{}, nil
	}

	raw, err := newResetToken()
	if err != nil {
		return nil, err
	}
	expires := s.now().Add(resetTokenTTL)
	u.ResetPasswordToken = hashToken(raw)
	u.ResetPasswordExpire = &expires
	u.UpdatedAt = s.now()
	if err := s.users.Replace(ctx, u.ID, domain.GlobalScope(), nil, u); err != nil {
		return nil, fmt.Errorf("store reset token: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password/%s", strings.TrimRight(s.opts.AppURL, "/"), raw)
	s.sendAsync(ctx, domain.Mail{
		To:      u.Email,
		ToName:  u.FullName,
		Subject: "Password reset",
		Text:    fmt.Sprintf("A password reset was requested for your account. The link is valid for 10 minutes:\n\n%s", link),
	})

	s.logger.Info("password reset requested", zap.String("user_id", u.ID))

	resp := &domain.ForgotPasswordResponse{}
	if s.opts.ExposeResetToken {
		resp.ResetToken = raw
	}
	return resp, nil
}

// ============================================================
// ResetPassword: PUT /api/v1/auth/reset-password/{token}
// ============================================================

func (s *AuthService) ResetPassword(ctx context.Context, rawToken string, req *domain.ResetPasswordRequest) (*domain.AuthResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.ResetPassword")
	defer span.End()

	if err := domain.Validate(req); err != nil {
		return nil, err
	}

	invalid := domain.NewValidation("Invalid or expired token")
	if rawToken == "" {
		return nil, invalid
	}
	users, err := s.users.List(ctx, domain.GlobalScope(), domain.Query{
		Match: domain.Match{"resetPasswordToken": hashToken(rawToken)},
		After: &domain.TimeBound{Field: "resetPasswordExpire", Time: s.now()},
		Limit: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("find reset token: %w", err)
	}
	if len(users) == 0 {
		return nil, invalid
	}
	u := &users[0]

	u.ResetPasswordToken = ""
	u.ResetPasswordExpire = nil
	if err := s.setPassword(ctx, u, req.Password); err != nil {
		return nil, err
	}

	s.logger.Info("password reset completed", zap.String("user_id", u.ID))
	return s.session(u)
}

// ============================================================
// Internal helpers
// ============================================================

func (s *AuthService) findByEmail(ctx context.Context, email string) (*domain.User, error) {
	users, err := s.users.List(ctx, domain.GlobalScope(), domain.Query{
		Match: domain.Match{"email": email},
		Limit: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (s *AuthService) setPassword(ctx context.Context, u *domain.User, plain string) error {
	hash, err := HashPassword(plain)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now()
	if err := s.users.Replace(ctx, u.ID, domain.GlobalScope(), nil, u); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

func (s *AuthService) session(u *domain.User) (*domain.AuthResponse, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResponse{Token: token, User: u}, nil
}

// sendAsync delivers mail off the request path. Failures are logged and a
// full bulkhead drops the message.
func (s *AuthService) sendAsync(ctx context.Context, m domain.Mail) {
	if s.mailer == nil {
		return
	}
	if s.bulkhead != nil && !s.bulkhead.TryAcquire() {
		s.logger.Warn("mail dropped: too many in flight", zap.String("subject", m.Subject))
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailTimeout)
	go func() {
		defer cancel()
		if s.bulkhead != nil {
			defer s.bulkhead.Release()
		}
		if err := s.mailer.Send(ctx, m); err != nil {
			s.logger.Warn("mail delivery failed", zap.String("subject", m.Subject), zap.Error(err))
		}
	}()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
