package reviews

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
	"github.com/monisha-uniforms/storefront-backend/pkg/types"
)

// Store is the review persistence surface.
type Store interface {
	List(ctx context.Context, productID string) ([]Review, error)
	Get(ctx context.Context, productID, reviewID string) (Review, bool, error)
	Create(ctx context.Context, productID string, review Review) (Review, error)
	Update(ctx context.Context, productID string, review Review) error
	Delete(ctx context.Context, productID, reviewID string) error
	Vote(ctx context.Context, productID, reviewID, userID string, kind VoteKind) (found bool, err error)
	Rollup(ctx context.Context, productID string) error
}

// Input carries the caller-editable review fields.
type Input struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Title   string `json:"title" validate:"max=120"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

// Service owns review CRUD and voting. Writing requires an authenticated
// owner; update and delete are restricted to the review's author.
type Service interface {
	ForProduct(ctx context.Context, productID string) ([]Review, error)
	Add(ctx context.Context, owner types.Owner, userName, productID string, input Input) (Review, error)
	Update(ctx context.Context, owner types.Owner, productID, reviewID string, input Input) (Review, error)
	Delete(ctx context.Context, owner types.Owner, productID, reviewID string) error
	Vote(ctx context.Context, owner types.Owner, productID, reviewID string, kind VoteKind) error
}

type service struct {
	store Store
	logg  *logger.Logger
	now   func() time.Time
}

// NewService builds the review service.
func NewService(store Store, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("review store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{store: store, logg: logg, now: time.Now}, nil
}

// ForProduct returns the product's reviews.
func (s *service) ForProduct(ctx context.Context, productID string) ([]Review, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	out, err := s.store.List(ctx, productID)
	if err != nil {
		return nil, asRemoteErr(err, "listing reviews")
	}
	if out == nil {
		out = []Review{}
	}
	return out, nil
}

// Add creates a review and refreshes the product rating rollup.
func (s *service) Add(ctx context.Context, owner types.Owner, userName, productID string, input Input) (Review, error) {
	if err := s.requireAuthor(owner); err != nil {
		return Review{}, err
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Review{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := validateInput(input); err != nil {
		return Review{}, err
	}

	now := s.now()
	review := Review{
		ProductID:       productID,
		UserID:          owner.ID,
		UserName:        strings.TrimSpace(userName),
		Rating:          input.Rating,
		Title:           strings.TrimSpace(input.Title),
		Comment:         strings.TrimSpace(input.Comment),
		HelpfulVotes:    []string{},
		NotHelpfulVotes: []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	created, err := s.store.Create(ctx, productID, review)
	if err != nil {
		return Review{}, asRemoteErr(err, "creating review")
	}
	s.rollup(ctx, productID)
	return created, nil
}

// Update edits the caller's own review and refreshes the rollup.
func (s *service) Update(ctx context.Context, owner types.Owner, productID, reviewID string, input Input) (Review, error) {
	existing, err := s.ownedReview(ctx, owner, productID, reviewID)
	if err != nil {
		return Review{}, err
	}
	if err := validateInput(input); err != nil {
		return Review{}, err
	}

	existing.Rating = input.Rating
	existing.Title = strings.TrimSpace(input.Title)
	existing.Comment = strings.TrimSpace(input.Comment)
	existing.UpdatedAt = s.now()
	if err := s.store.Update(ctx, productID, existing); err != nil {
		return Review{}, asRemoteErr(err, "updating review")
	}
	s.rollup(ctx, productID)
	return existing, nil
}

// Delete removes the caller's own review and refreshes the rollup.
func (s *service) Delete(ctx context.Context, owner types.Owner, productID, reviewID string) error {
	if _, err := s.ownedReview(ctx, owner, productID, reviewID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, productID, reviewID); err != nil {
		return asRemoteErr(err, "deleting review")
	}
	s.rollup(ctx, productID)
	return nil
}

// Vote records a helpful / not-helpful vote. A repeat vote retracts it and an
// opposite vote switches it.
func (s *service) Vote(ctx context.Context, owner types.Owner, productID, reviewID string, kind VoteKind) error {
	if err := s.requireAuthor(owner); err != nil {
		return err
	}
	if !kind.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown vote kind")
	}
	found, err := s.store.Vote(ctx, productID, reviewID, owner.ID, kind)
	if err != nil {
		return asRemoteErr(err, "voting on review")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	return nil
}

func (s *service) ownedReview(ctx context.Context, owner types.Owner, productID, reviewID string) (Review, error) {
	if err := s.requireAuthor(owner); err != nil {
		return Review{}, err
	}
	productID = strings.TrimSpace(productID)
	reviewID = strings.TrimSpace(reviewID)
	if productID == "" || reviewID == "" {
		return Review{}, pkgerrors.New(pkgerrors.CodeValidation, "product and review ids are required")
	}
	existing, found, err := s.store.Get(ctx, productID, reviewID)
	if err != nil {
		return Review{}, asRemoteErr(err, "reading review")
	}
	if !found {
		return Review{}, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	if existing.UserID != owner.ID {
		return Review{}, pkgerrors.New(pkgerrors.CodeForbidden, "reviews can only be changed by their author")
	}
	return existing, nil
}

func (s *service) requireAuthor(owner types.Owner) error {
	if !owner.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to review products")
	}
	return nil
}

// rollup refreshes the product rating. A failure is logged, not surfaced,
// since the review write itself already succeeded.
func (s *service) rollup(ctx context.Context, productID string) {
	if err := s.store.Rollup(ctx, productID); err != nil {
		s.logg.Error(ctx, "product rating rollup failed", err)
	}
}

func validateInput(input Input) error {
	if input.Rating < 1 || input.Rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	if strings.TrimSpace(input.Comment) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "comment is required")
	}
	return nil
}

func asRemoteErr(err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeRemote, err, message)
}
