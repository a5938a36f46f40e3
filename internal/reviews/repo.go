package reviews

import (
	"context"
	"fmt"
	"time"

	firestore "cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/monisha-uniforms/storefront-backend/pkg/config"
	"github.com/monisha-uniforms/storefront-backend/pkg/db"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type reviewDoc struct {
	UserID          string    `firestore:"userId"`
	UserName        string    `firestore:"userName"`
	Rating          int       `firestore:"rating"`
	Title           string    `firestore:"title"`
	Comment         string    `firestore:"comment"`
	HelpfulVotes    []string  `firestore:"helpfulVotes"`
	NotHelpfulVotes []string  `firestore:"notHelpfulVotes"`
	CreatedAt       time.Time `firestore:"createdAt"`
	UpdatedAt       time.Time `firestore:"updatedAt"`
}

func toDoc(review Review) reviewDoc {
	return reviewDoc{
		UserID:          review.UserID,
		UserName:        review.UserName,
		Rating:          review.Rating,
		Title:           review.Title,
		Comment:         review.Comment,
		HelpfulVotes:    review.HelpfulVotes,
		NotHelpfulVotes: review.NotHelpfulVotes,
		CreatedAt:       review.CreatedAt,
		UpdatedAt:       review.UpdatedAt,
	}
}

func fromDoc(productID, reviewID string, doc reviewDoc) Review {
	helpful := doc.HelpfulVotes
	if helpful == nil {
		helpful = []string{}
	}
	notHelpful := doc.NotHelpfulVotes
	if notHelpful == nil {
		notHelpful = []string{}
	}
	return Review{
		ID:              reviewID,
		ProductID:       productID,
		UserID:          doc.UserID,
		UserName:        doc.UserName,
		Rating:          doc.Rating,
		Title:           doc.Title,
		Comment:         doc.Comment,
		HelpfulVotes:    helpful,
		NotHelpfulVotes: notHelpful,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}
}

// Repo persists reviews in per-product subcollections and keeps the product's
// rating rollup in step with them.
type Repo struct {
	client   *firestore.Client
	products string
	sub      string
}

// NewRepo wires the review repository onto the shared document store.
func NewRepo(client *db.Client, cfg config.FirebaseConfig) (*Repo, error) {
	if client == nil {
		return nil, fmt.Errorf("document store client required")
	}
	return &Repo{
		client:   client.DB(),
		products: cfg.ProductsCollection,
		sub:      cfg.ReviewsSubcollection,
	}, nil
}

func (r *Repo) col(productID string) *firestore.CollectionRef {
	return r.client.Collection(r.products).Doc(productID).Collection(r.sub)
}

// List returns every review on the product, newest first.
func (r *Repo) List(ctx context.Context, productID string) ([]Review, error) {
	it := r.col(productID).OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer it.Stop()

	var out []Review
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing reviews: %w", err)
		}
		var doc reviewDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decoding review %s: %w", snap.Ref.ID, err)
		}
		out = append(out, fromDoc(productID, snap.Ref.ID, doc))
	}
	return out, nil
}

// Get reads one review. found is false when it does not exist.
func (r *Repo) Get(ctx context.Context, productID, reviewID string) (Review, bool, error) {
	snap, err := r.col(productID).Doc(reviewID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Review{}, false, nil
		}
		return Review{}, false, fmt.Errorf("reading review: %w", err)
	}
	var doc reviewDoc
	if err := snap.DataTo(&doc); err != nil {
		return Review{}, false, fmt.Errorf("decoding review: %w", err)
	}
	return fromDoc(productID, snap.Ref.ID, doc), true, nil
}

// Create stores a new review under a generated id.
func (r *Repo) Create(ctx context.Context, productID string, review Review) (Review, error) {
	review.ID = uuid.NewString()
	review.ProductID = productID
	if _, err := r.col(productID).Doc(review.ID).Set(ctx, toDoc(review)); err != nil {
		return Review{}, fmt.Errorf("creating review: %w", err)
	}
	return review, nil
}

// Update overwrites the mutable fields of a review.
func (r *Repo) Update(ctx context.Context, productID string, review Review) error {
	_, err := r.col(productID).Doc(review.ID).Update(ctx, []firestore.Update{
		{Path: "rating", Value: review.Rating},
		{Path: "title", Value: review.Title},
		{Path: "comment", Value: review.Comment},
		{Path: "updatedAt", Value: review.UpdatedAt},
	})
	if err != nil {
		return fmt.Errorf("updating review: %w", err)
	}
	return nil
}

// Delete removes a review.
func (r *Repo) Delete(ctx context.Context, productID, reviewID string) error {
	if _, err := r.col(productID).Doc(reviewID).Delete(ctx); err != nil {
		return fmt.Errorf("deleting review: %w", err)
	}
	return nil
}

// Vote applies the toggle-and-switch vote semantics in one transaction on the
// review document. found is false when the review does not exist.
func (r *Repo) Vote(ctx context.Context, productID, reviewID, userID string, kind VoteKind) (found bool, err error) {
	ref := r.col(productID).Doc(reviewID)
	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				found = false
				return nil
			}
			return err
		}
		found = true
		var doc reviewDoc
		if err := snap.DataTo(&doc); err != nil {
			return err
		}
		helpful, notHelpful := applyVote(doc.HelpfulVotes, doc.NotHelpfulVotes, userID, kind)
		return tx.Update(ref, []firestore.Update{
			{Path: "helpfulVotes", Value: helpful},
			{Path: "notHelpfulVotes", Value: notHelpful},
		})
	})
	if err != nil {
		return false, fmt.Errorf("voting on review: %w", err)
	}
	return found, nil
}

// Rollup recomputes the product's average rating and review count from its
// reviews, in one transaction so concurrent review writes cannot interleave a
// stale rollup.
func (r *Repo) Rollup(ctx context.Context, productID string) error {
	productRef := r.client.Collection(r.products).Doc(productID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		it := tx.Documents(r.col(productID))
		defer it.Stop()

		var total, count int64
		for {
			snap, err := it.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				return err
			}
			var doc reviewDoc
			if err := snap.DataTo(&doc); err != nil {
				return err
			}
			total += int64(doc.Rating)
			count++
		}

		rating := 0.0
		if count > 0 {
			rating = float64(total) / float64(count)
		}
		return tx.Update(productRef, []firestore.Update{
			{Path: "rating", Value: rating},
			{Path: "reviewCount", Value: count},
		})
	})
	if err != nil {
		return fmt.Errorf("recomputing product rating: %w", err)
	}
	return nil
}
