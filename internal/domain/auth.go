package domain

// ============================================================
// Auth: Request / Response types
// ============================================================

// RegisterRequest is the body for POST /api/v1/auth/register.
type RegisterRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Phone    string `json:"phone" validate:"required"`
	Company  string `json:"company" validate:"required"`
	Role     Role   `json:"role" validate:"omitempty,role"`
}

// LoginRequest is the body for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register, login and password changes.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// ForgotPasswordRequest is the body for POST /api/v1/auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPasswordResponse carries the raw reset token only when the server
// is configured to expose it (development).
type ForgotPasswordResponse struct {
	ResetToken string `json:"resetToken,omitempty"`
}

// ResetPasswordRequest is the body for PUT /api/v1/auth/reset-password/{token}.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// ChangePasswordRequest is the body for PUT /api/v1/auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

// FeedbackRequest is the body for POST /api/v1/calls/{id}/feedback.
type FeedbackRequest struct {
	Feedback          string   `json:"feedback" validate:"required"`
	Rating            int      `json:"rating" validate:"required,min=1,max=5"`
	Strengths         []string `json:"strengths"`
	Improvements      []string `json:"improvements"`
	CorrectiveScripts []string `json:"correctiveScripts"`
}

// ResolveTaskRequest is the body for PUT /api/v1/tasks/{id}/resolve.
type ResolveTaskRequest struct {
	Response string `json:"response"`
}
