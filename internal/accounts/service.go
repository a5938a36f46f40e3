package accounts

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/monisha-uniforms/storefront-backend/pkg/identity"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
	"github.com/monisha-uniforms/storefront-backend/pkg/mailer"
)

const wrongClassMessage = "this account is not authorized for the storefront"

// Service owns the account lifecycle against the hosted auth provider.
type Service interface {
	SignUp(ctx context.Context, req SignUpRequest) (Profile, error)
	SignIn(ctx context.Context, req SignInRequest) (SignInResponse, error)
	SignOut(ctx context.Context, userID string) error
	SendPasswordReset(ctx context.Context, email string) error
	ResendVerification(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, req ChangePasswordRequest) error
	ProfileOf(ctx context.Context, userID string) (Profile, error)
}

type profileRepository interface {
	Get(ctx context.Context, userID string) (Profile, bool, error)
	Create(ctx context.Context, profile Profile) error
	StampLastLogin(ctx context.Context, userID string, at time.Time) error
}

type providerAdmin interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	RevokeSessions(ctx context.Context, userID string) error
	VerificationLink(ctx context.Context, email string) (string, error)
	ResetLink(ctx context.Context, email string) (string, error)
}

type stateMerger interface {
	MergeGuestCart(ctx context.Context, guestID, userID string) error
	MergeGuestWishlist(ctx context.Context, guestID, userID string) error
}

type service struct {
	profiles     profileRepository
	admin        providerAdmin
	passwords    identity.PasswordClient
	mail         mailer.Sender
	merger       stateMerger
	accountClass string
	logg         *logger.Logger
	now          func() time.Time
}

// ServiceParams bundles the dependencies required to build an accounts
// service. Mail is optional; link delivery is skipped when absent.
type ServiceParams struct {
	Profiles     profileRepository
	Admin        providerAdmin
	Passwords    identity.PasswordClient
	Mail         mailer.Sender
	Merger       stateMerger
	AccountClass string
	Logger       *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Profiles == nil {
		return nil, fmt.Errorf("profile repository is required")
	}
	if params.Admin == nil {
		return nil, fmt.Errorf("provider admin is required")
	}
	if params.Passwords == nil {
		return nil, fmt.Errorf("password client is required")
	}
	if params.Merger == nil {
		return nil, fmt.Errorf("state merger is required")
	}
	if params.AccountClass == "" {
		return nil, fmt.Errorf("account class is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		profiles:     params.Profiles,
		admin:        params.Admin,
		passwords:    params.Passwords,
		mail:         params.Mail,
		merger:       params.Merger,
		accountClass: params.AccountClass,
		logg:         params.Logger,
		now:          time.Now,
	}, nil
}

// SignUp registers the account with the provider, writes the storefront
// profile, and delivers the verification link. A mail failure does not undo
// the registration; the user can request the link again.
func (s *service) SignUp(ctx context.Context, req SignUpRequest) (Profile, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	displayName := strings.TrimSpace(req.DisplayName)
	if email == "" || req.Password == "" || displayName == "" {
		return Profile{}, pkgerrors.New(pkgerrors.CodeValidation, "email, password and display name are required")
	}

	userID, err := s.admin.CreateUser(ctx, email, req.Password, displayName)
	if err != nil {
		return Profile{}, err
	}

	now := s.now()
	profile := Profile{
		UserID:       userID,
		DisplayName:  displayName,
		Email:        email,
		AccountClass: s.accountClass,
		CreatedAt:    now,
		LastLoginAt:  now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return Profile{}, pkgerrors.Wrap(pkgerrors.CodeRemote, err, "writing profile")
	}

	s.deliverVerification(ctx, email, displayName)
	return profile, nil
}

// SignIn authenticates, enforces the account class, stamps the login, and
// folds the guest's cart and wishlist into the account before returning.
func (s *service) SignIn(ctx context.Context, req SignInRequest) (SignInResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return SignInResponse{}, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	session, err := s.passwords.SignInWithPassword(ctx, email, req.Password)
	if err != nil {
		return SignInResponse{}, err
	}

	profile, found, err := s.profiles.Get(ctx, session.UserID)
	if err != nil {
		return SignInResponse{}, pkgerrors.Wrap(pkgerrors.CodeRemote, err, "reading profile")
	}
	if !found || profile.AccountClass != s.accountClass {
		// The credentials belong to another application sharing the
		// project. Revoke the session the provider just issued.
		if revokeErr := s.admin.RevokeSessions(ctx, session.UserID); revokeErr != nil {
			s.logg.Error(ctx, "revoking out-of-class session failed", revokeErr)
		}
		return SignInResponse{}, pkgerrors.New(pkgerrors.CodeForbidden, wrongClassMessage)
	}

	now := s.now()
	if err := s.profiles.StampLastLogin(ctx, session.UserID, now); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("stamping last login failed for %s: %v", session.UserID, err))
	}
	profile.LastLoginAt = now

	if guestID := strings.TrimSpace(req.GuestID); guestID != "" {
		s.mergeGuestState(ctx, guestID, session.UserID)
	}

	return SignInResponse{
		Profile:      profile,
		IDToken:      session.IDToken,
		RefreshToken: session.RefreshToken,
		ExpiresInSec: int64(session.ExpiresIn.Seconds()),
	}, nil
}

// SignOut revokes the user's refresh tokens so every device's session ends.
func (s *service) SignOut(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.admin.RevokeSessions(ctx, userID)
}

// SendPasswordReset mails the reset link. An unknown address reports
// success so the endpoint cannot be used to probe for accounts.
func (s *service) SendPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	link, err := s.admin.ResetLink(ctx, email)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil
		}
		return err
	}
	if s.mail == nil {
		s.logg.Warn(ctx, "mailer not configured, password reset link not delivered")
		return nil
	}
	if err := s.mail.SendPasswordResetLink(ctx, email, "", link); err != nil {
		return err
	}
	return nil
}

// ResendVerification mails a fresh verification link to a signed-in user.
func (s *service) ResendVerification(ctx context.Context, userID string) error {
	profile, err := s.ProfileOf(ctx, userID)
	if err != nil {
		return err
	}
	if profile.EmailVerified {
		return pkgerrors.New(pkgerrors.CodeConflict, "email is already verified")
	}
	s.deliverVerification(ctx, profile.Email, profile.DisplayName)
	return nil
}

// ChangePassword re-authenticates with the current password and then sets
// the new one with the fresh session token.
func (s *service) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "current and new passwords are required")
	}
	if req.CurrentPassword == req.NewPassword {
		return pkgerrors.New(pkgerrors.CodeValidation, "new password must differ from the current one")
	}
	session, err := s.passwords.SignInWithPassword(ctx, strings.ToLower(strings.TrimSpace(req.Email)), req.CurrentPassword)
	if err != nil {
		return err
	}
	return s.passwords.ChangePassword(ctx, session.IDToken, req.NewPassword)
}

func (s *service) ProfileOf(ctx context.Context, userID string) (Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return Profile{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	profile, found, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return Profile{}, pkgerrors.Wrap(pkgerrors.CodeRemote, err, "reading profile")
	}
	if !found {
		return Profile{}, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
	}
	return profile, nil
}

// mergeGuestState folds anonymous cart and wishlist state into the account.
// Failures leave the guest snapshots in place for the next sign-in.
func (s *service) mergeGuestState(ctx context.Context, guestID, userID string) {
	if err := s.merger.MergeGuestCart(ctx, guestID, userID); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("guest cart merge failed for %s: %v", guestID, err))
	}
	if err := s.merger.MergeGuestWishlist(ctx, guestID, userID); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("guest wishlist merge failed for %s: %v", guestID, err))
	}
}

func (s *service) deliverVerification(ctx context.Context, email, name string) {
	link, err := s.admin.VerificationLink(ctx, email)
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("building verification link failed for %s: %v", email, err))
		return
	}
	if s.mail == nil {
		s.logg.Warn(ctx, "mailer not configured, verification link not delivered")
		return
	}
	if err := s.mail.SendVerificationLink(ctx, email, name, link); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("delivering verification link failed for %s: %v", email, err))
	}
}
