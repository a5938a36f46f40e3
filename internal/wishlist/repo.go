package wishlist

import (
	"context"
	"fmt"
	"time"

	firestore "cloud.google.com/go/firestore"
	"github.com/monisha-uniforms/storefront-backend/pkg/config"
	"github.com/monisha-uniforms/storefront-backend/pkg/db"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type entryDoc struct {
	ProductID string    `firestore:"productId"`
	Name      string    `firestore:"name"`
	Price     float64   `firestore:"price"`
	Image     string    `firestore:"image"`
	School    string    `firestore:"school"`
	AddedAt   time.Time `firestore:"addedAt"`
}

func toDoc(entry Entry) entryDoc {
	price, _ := entry.UnitPrice.Float64()
	return entryDoc{
		ProductID: entry.ProductID,
		Name:      entry.DisplayName,
		Price:     price,
		Image:     entry.ImageURL,
		School:    entry.SchoolName,
		AddedAt:   entry.AddedAt,
	}
}

func fromDoc(doc entryDoc) Entry {
	return Entry{
		ProductID:   doc.ProductID,
		DisplayName: doc.Name,
		UnitPrice:   decimal.NewFromFloat(doc.Price),
		ImageURL:    doc.Image,
		SchoolName:  doc.School,
		AddedAt:     doc.AddedAt,
	}
}

// Repo persists authenticated wishlists in per-user subcollections, one
// document per product keyed by product id.
type Repo struct {
	client *firestore.Client
	users  string
	sub    string
}

// NewRepo wires the wishlist repository onto the shared document store.
func NewRepo(client *db.Client, cfg config.FirebaseConfig) (*Repo, error) {
	if client == nil {
		return nil, fmt.Errorf("document store client required")
	}
	return &Repo{
		client: client.DB(),
		users:  cfg.UsersCollection,
		sub:    cfg.WishlistSubcollection,
	}, nil
}

func (r *Repo) col(userID string) *firestore.CollectionRef {
	return r.client.Collection(r.users).Doc(userID).Collection(r.sub)
}

// List returns the user's wishlist, newest first.
func (r *Repo) List(ctx context.Context, userID string) ([]Entry, error) {
	it := r.col(userID).OrderBy("addedAt", firestore.Desc).Documents(ctx)
	defer it.Stop()

	var entries []Entry
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing wishlist: %w", err)
		}
		var doc entryDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decoding wishlist entry %s: %w", snap.Ref.ID, err)
		}
		entries = append(entries, fromDoc(doc))
	}
	return entries, nil
}

// Toggle adds the entry when absent and removes it when present, in one
// transaction on the product's document. Returns whether the entry is now
// present.
func (r *Repo) Toggle(ctx context.Context, userID string, entry Entry) (added bool, err error) {
	ref := r.col(userID).Doc(entry.ProductID)
	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return err
			}
			added = true
			return tx.Set(ref, toDoc(entry))
		}
		added = false
		return tx.Delete(ref)
	})
	if err != nil {
		return false, fmt.Errorf("toggling wishlist entry: %w", err)
	}
	return added, nil
}

// AddIfAbsent creates the entry unless the product is already wishlisted.
func (r *Repo) AddIfAbsent(ctx context.Context, userID string, entry Entry) (added bool, err error) {
	ref := r.col(userID).Doc(entry.ProductID)
	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		_, err := tx.Get(ref)
		if err == nil {
			added = false
			return nil
		}
		if status.Code(err) != codes.NotFound {
			return err
		}
		added = true
		return tx.Set(ref, toDoc(entry))
	})
	if err != nil {
		return false, fmt.Errorf("adding wishlist entry: %w", err)
	}
	return added, nil
}

// Contains reports whether the product is wishlisted.
func (r *Repo) Contains(ctx context.Context, userID, productID string) (bool, error) {
	_, err := r.col(userID).Doc(productID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("checking wishlist entry: %w", err)
	}
	return true, nil
}

// Remove deletes the entry. Returns false when it was already absent.
func (r *Repo) Remove(ctx context.Context, userID, productID string) (bool, error) {
	ref := r.col(userID).Doc(productID)
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, fmt.Errorf("resolving wishlist entry: %w", err)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return false, fmt.Errorf("removing wishlist entry: %w", err)
	}
	return true, nil
}

// Watch pushes the full wishlist to fn on every change until stop is called.
func (r *Repo) Watch(ctx context.Context, userID string, fn func([]Entry)) (stop func(), err error) {
	ctx, cancel := context.WithCancel(ctx)
	it := r.col(userID).Snapshots(ctx)
	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				return
			}
			var entries []Entry
			docs := snap.Documents
			for {
				docSnap, err := docs.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					return
				}
				var doc entryDoc
				if err := docSnap.DataTo(&doc); err != nil {
					continue
				}
				entries = append(entries, fromDoc(doc))
			}
			fn(entries)
		}
	}()
	return cancel, nil
}
