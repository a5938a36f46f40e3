package accounts

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/monisha-uniforms/storefront-backend/pkg/config"
	"github.com/monisha-uniforms/storefront-backend/pkg/db"
)

type profileDoc struct {
	UserID        string    `firestore:"uid"`
	DisplayName   string    `firestore:"displayName"`
	Email         string    `firestore:"email"`
	EmailVerified bool      `firestore:"emailVerified"`
	AccountClass  string    `firestore:"accountClass"`
	CreatedAt     time.Time `firestore:"createdAt"`
	LastLoginAt   time.Time `firestore:"lastLoginAt"`
}

func toDoc(p Profile) profileDoc {
	return profileDoc{
		UserID:        p.UserID,
		DisplayName:   p.DisplayName,
		Email:         p.Email,
		EmailVerified: p.EmailVerified,
		AccountClass:  p.AccountClass,
		CreatedAt:     p.CreatedAt,
		LastLoginAt:   p.LastLoginAt,
	}
}

func fromDoc(doc profileDoc) Profile {
	return Profile{
		UserID:        doc.UserID,
		DisplayName:   doc.DisplayName,
		Email:         doc.Email,
		EmailVerified: doc.EmailVerified,
		AccountClass:  doc.AccountClass,
		CreatedAt:     doc.CreatedAt,
		LastLoginAt:   doc.LastLoginAt,
	}
}

// Repo persists storefront profiles, one document per provider uid.
type Repo struct {
	client *firestore.Client
	col    string
}

func NewRepo(client *db.Client, cfg config.FirebaseConfig) (*Repo, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &Repo{client: client.DB(), col: cfg.UsersCollection}, nil
}

func (r *Repo) Get(ctx context.Context, userID string) (Profile, bool, error) {
	snap, err := r.client.Collection(r.col).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Profile{}, false, nil
		}
		return Profile{}, false, fmt.Errorf("reading profile %s: %w", userID, err)
	}
	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return Profile{}, false, fmt.Errorf("decoding profile %s: %w", userID, err)
	}
	profile := fromDoc(doc)
	profile.UserID = snap.Ref.ID
	return profile, true, nil
}

func (r *Repo) Create(ctx context.Context, profile Profile) error {
	_, err := r.client.Collection(r.col).Doc(profile.UserID).Set(ctx, toDoc(profile))
	if err != nil {
		return fmt.Errorf("creating profile %s: %w", profile.UserID, err)
	}
	return nil
}

func (r *Repo) StampLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.client.Collection(r.col).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "lastLoginAt", Value: at},
	})
	if err != nil {
		return fmt.Errorf("stamping last login for %s: %w", userID, err)
	}
	return nil
}

func (r *Repo) SetEmailVerified(ctx context.Context, userID string, verified bool) error {
	_, err := r.client.Collection(r.col).Doc(userID).Update(ctx, []firestore.Update{
		{Path: "emailVerified", Value: verified},
	})
	if err != nil {
		return fmt.Errorf("updating verification flag for %s: %w", userID, err)
	}
	return nil
}
