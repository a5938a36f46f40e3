package accounts

import "time"

// Profile is the storefront's user document, kept alongside the provider's
// own account record. AccountClass separates storefront shoppers from the
// back-office users sharing the same project.
type Profile struct {
	UserID        string    `json:"uid"`
	DisplayName   string    `json:"displayName"`
	Email         string    `json:"email"`
	EmailVerified bool      `json:"emailVerified"`
	AccountClass  string    `json:"accountClass"`
	CreatedAt     time.Time `json:"createdAt"`
	LastLoginAt   time.Time `json:"lastLoginAt"`
}

// SignUpRequest carries the registration form.
type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	DisplayName string `json:"displayName" validate:"required,max=80"`
}

// SignInRequest carries the login form. GuestID, when present, identifies
// the anonymous state to merge into the account after authentication.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	GuestID  string `json:"guestId"`
}

// SignInResponse returns the provider session plus the storefront profile.
type SignInResponse struct {
	Profile      Profile `json:"profile"`
	IDToken      string  `json:"idToken"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresInSec int64   `json:"expiresIn"`
}

// ChangePasswordRequest re-authenticates before setting the new password.
type ChangePasswordRequest struct {
	Email           string `json:"email" validate:"required,email"`
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}
