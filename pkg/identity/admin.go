package identity

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/monisha-uniforms/storefront-backend/pkg/config"
	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
)

// Claims is the verified identity attached to a request.
type Claims struct {
	UserID        string
	Email         string
	EmailVerified bool
}

// Verifier checks bearer tokens. Satisfied by Admin.
type Verifier interface {
	VerifyToken(ctx context.Context, idToken string) (Claims, error)
}

// Admin wraps the provider's admin surface: token verification, account
// creation, session revocation, and action-link generation.
type Admin struct {
	auth *fbauth.Client
}

func NewAdmin(ctx context.Context, cfg config.FirebaseConfig, logg *logger.Logger) (*Admin, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firebase project id is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing identity admin: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing identity admin auth: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "identity admin initialized")
	}
	return &Admin{auth: client}, nil
}

// VerifyToken validates an ID token, including the revocation check so that
// signed-out sessions stop working immediately.
func (a *Admin) VerifyToken(ctx context.Context, idToken string) (Claims, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return Claims{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	token, err := a.auth.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return Claims{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid credentials")
	}
	claims := Claims{UserID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		claims.Email = email
	}
	if verified, ok := token.Claims["email_verified"].(bool); ok {
		claims.EmailVerified = verified
	}
	return claims, nil
}

// CreateUser registers a new account and returns its uid.
func (a *Admin) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&fbauth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)
	record, err := a.auth.CreateUser(ctx, params)
	if err != nil {
		if fbauth.IsEmailAlreadyExists(err) {
			return "", pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeRemote, err, "creating account")
	}
	return record.UID, nil
}

// RevokeSessions invalidates every refresh token the user holds.
func (a *Admin) RevokeSessions(ctx context.Context, userID string) error {
	if err := a.auth.RevokeRefreshTokens(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemote, err, "revoking sessions")
	}
	return nil
}

// VerificationLink builds the email-verification action link for an address.
func (a *Admin) VerificationLink(ctx context.Context, email string) (string, error) {
	link, err := a.auth.EmailVerificationLink(ctx, email)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeRemote, err, "building verification link")
	}
	return link, nil
}

// ResetLink builds the password-reset action link for an address.
func (a *Admin) ResetLink(ctx context.Context, email string) (string, error) {
	link, err := a.auth.PasswordResetLink(ctx, email)
	if err != nil {
		if fbauth.IsUserNotFound(err) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "no account with this email")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeRemote, err, "building reset link")
	}
	return link, nil
}
