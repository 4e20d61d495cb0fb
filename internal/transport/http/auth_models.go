package http

import (
	"time"

	"github.com/njprem/account-core/internal/domain"
	"github.com/njprem/account-core/internal/service"
)

// ErrorResponse represents a generic error payload.
type ErrorResponse struct {
	Error string `json:"error" example:"invalid verification code"`
	Kind  string `json:"kind,omitempty" example:"invalid_credential"`
}

type AuthRole struct {
	ID          string    `json:"id" example:"f4bb0e02-5f91-4ce0-a6c0-7f63f3a8d5e2"`
	RoleName    string    `json:"role_name" example:"user"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" example:"2024-01-01T12:00:00Z"`
	UpdatedAt   time.Time `json:"updated_at" example:"2024-01-01T12:00:00Z"`
}

// AuthUser is the sanitized user representation. Credentials and the reset
// pointer are never exposed.
type AuthUser struct {
	ID           string     `json:"id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	Email        string     `json:"email" example:"user@example.com"`
	FullName     *string    `json:"full_name,omitempty" example:"Jane Doe"`
	Phone        *string    `json:"phone,omitempty" example:"+66812345678"`
	Address      *string    `json:"address,omitempty"`
	UserImageURL *string    `json:"user_image_url,omitempty" example:"https://cdn.example.com/avatar.png"`
	Verified     bool       `json:"verified" example:"true"`
	Status       string     `json:"status" example:"offline"`
	Roles        []AuthRole `json:"roles,omitempty"`
	CreatedAt    time.Time  `json:"created_at" example:"2024-01-01T12:00:00Z"`
	UpdatedAt    time.Time  `json:"updated_at" example:"2024-01-02T09:30:00Z"`
}

type OTPIssueResponse struct {
	UserID    string `json:"user_id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	ExpiresAt string `json:"expires_at" example:"2024-01-02T09:35:00Z"`
}

// AuthTokenResponse is returned by endpoints that issue session tokens.
type AuthTokenResponse struct {
	Token        string            `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt    string            `json:"expires_at" example:"2024-01-02T09:30:00Z"`
	User         AuthUser          `json:"user"`
	Verification *OTPIssueResponse `json:"verification,omitempty"`
}

type AuthUserResponse struct {
	User AuthUser `json:"user"`
}

type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

type UsersMeta struct {
	Limit  int `json:"limit" example:"20"`
	Offset int `json:"offset" example:"0"`
	Count  int `json:"count" example:"2"`
}

type UsersListResponse struct {
	Users []AuthUser `json:"users"`
	Meta  UsersMeta  `json:"meta"`
}

type RegisterRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"StrongPass!234"`
}

type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"StrongPass!234"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type OTPRequest struct {
	Email  string `json:"email" example:"user@example.com"`
	Resend bool   `json:"resend" example:"false"`
}

type OTPVerifyRequest struct {
	Email string `json:"email" example:"user@example.com"`
	Code  string `json:"code" example:"4821"`
}

type PasswordResetRequest struct {
	Email string `json:"email" example:"user@example.com"`
}

type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password" example:"StrongPass!234"`
}

type ResetTokenVerifyResponse struct {
	Valid bool `json:"valid" example:"true"`
}

type StatusResponse struct {
	Status string `json:"status" example:"online"`
}

type SetStatusRequest struct {
	Status string `json:"status" example:"online"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
}

func toAuthUser(u *domain.User) AuthUser {
	out := AuthUser{
		ID:           u.ID.String(),
		Email:        u.Email,
		FullName:     u.FullName,
		Phone:        u.Phone,
		Address:      u.Address,
		UserImageURL: u.ImageURL,
		Verified:     u.Verified,
		Status:       string(u.Status),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	for _, r := range u.Roles {
		out.Roles = append(out.Roles, AuthRole{
			ID:          r.ID.String(),
			RoleName:    r.Name,
			Description: r.Description,
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
		})
	}
	return out
}

func toOTPIssueResponse(r *service.OTPIssueResult) *OTPIssueResponse {
	if r == nil {
		return nil
	}
	return &OTPIssueResponse{UserID: r.UserID.String(), ExpiresAt: r.ExpiresAt.UTC().Format(time.RFC3339)}
}

func toAuthTokenResponse(r *service.AuthResult) AuthTokenResponse {
	return AuthTokenResponse{
		Token:        r.Token,
		ExpiresAt:    r.ExpiresAt.UTC().Format(time.RFC3339),
		User:         toAuthUser(r.User),
		Verification: toOTPIssueResponse(r.Verification),
	}
}
