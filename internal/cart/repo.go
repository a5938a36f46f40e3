package cart

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	firestore "cloud.google.com/go/firestore"
	"github.com/monisha-uniforms/storefront-backend/pkg/config"
	"github.com/monisha-uniforms/storefront-backend/pkg/db"
	"github.com/monisha-uniforms/storefront-backend/pkg/metrics"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// lineDoc is the remote document shape. Prices are stored as floats the way
// the catalog stores them; the decimal boundary lives in toDoc/fromDoc.
type lineDoc struct {
	ProductID string    `firestore:"productId"`
	Name      string    `firestore:"name"`
	Price     float64   `firestore:"price"`
	Size      string    `firestore:"size"`
	Quantity  int64     `firestore:"quantity"`
	Image     string    `firestore:"image"`
	School    string    `firestore:"school"`
	AddedAt   time.Time `firestore:"addedAt"`
}

func toDoc(line Line) lineDoc {
	price, _ := line.UnitPrice.Float64()
	return lineDoc{
		ProductID: line.ProductID,
		Name:      line.DisplayName,
		Price:     price,
		Size:      line.Size,
		Quantity:  line.Quantity,
		Image:     line.ImageURL,
		School:    line.SchoolName,
		AddedAt:   line.AddedAt,
	}
}

func fromDoc(docID string, doc lineDoc) Line {
	return Line{
		ProductID:   doc.ProductID,
		DisplayName: doc.Name,
		UnitPrice:   decimal.NewFromFloat(doc.Price),
		Size:        doc.Size,
		Quantity:    doc.Quantity,
		ImageURL:    doc.Image,
		SchoolName:  doc.School,
		AddedAt:     doc.AddedAt,
		RemoteDocID: docID,
	}
}

// Repo persists authenticated carts in per-user subcollections. Document ids
// are the deterministic line keys, so concurrent adds for the same
// product+size converge on a single document instead of racing to insert.
type Repo struct {
	client *firestore.Client
	users  string
	sub    string
	calls  *metrics.RemoteCallMetrics
}

// NewRepo wires the cart repository onto the shared document store. calls
// may be nil.
func NewRepo(client *db.Client, cfg config.FirebaseConfig, calls *metrics.RemoteCallMetrics) (*Repo, error) {
	if client == nil {
		return nil, fmt.Errorf("document store client required")
	}
	return &Repo{
		client: client.DB(),
		users:  cfg.UsersCollection,
		sub:    cfg.CartSubcollection,
		calls:  calls,
	}, nil
}

func (r *Repo) col(userID string) *firestore.CollectionRef {
	return r.client.Collection(r.users).Doc(userID).Collection(r.sub)
}

// List returns every line in the user's cart, newest first.
func (r *Repo) List(ctx context.Context, userID string) (lines []Line, err error) {
	done := r.calls.Track("firestore", "cart.list")
	defer func() { done(err) }()

	it := r.col(userID).OrderBy("addedAt", firestore.Desc).Documents(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing cart: %w", err)
		}
		var doc lineDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decoding cart line %s: %w", snap.Ref.ID, err)
		}
		lines = append(lines, fromDoc(snap.Ref.ID, doc))
	}
	return lines, nil
}

// Upsert adds the line or, when a document for the same product+size already
// exists, increments its quantity by the line's quantity. Runs in a
// transaction so concurrent adds serialize on the document.
func (r *Repo) Upsert(ctx context.Context, userID string, line Line) (_ Line, err error) {
	done := r.calls.Track("firestore", "cart.upsert")
	defer func() { done(err) }()

	ref := r.col(userID).Doc(line.Key())
	var stored Line
	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return err
			}
			stored = line
			stored.RemoteDocID = ref.ID
			return tx.Set(ref, toDoc(line))
		}
		var existing lineDoc
		if err := snap.DataTo(&existing); err != nil {
			return err
		}
		stored = fromDoc(ref.ID, existing)
		stored.Quantity += line.Quantity
		return tx.Update(ref, []firestore.Update{
			{Path: "quantity", Value: stored.Quantity},
		})
	})
	if err != nil {
		return Line{}, fmt.Errorf("upserting cart line: %w", err)
	}
	return stored, nil
}

// SetQuantity overwrites the quantity of the line(s) matching key. Returns
// false when no line matches.
func (r *Repo) SetQuantity(ctx context.Context, userID, key string, quantity int64) (_ bool, err error) {
	done := r.calls.Track("firestore", "cart.set_quantity")
	defer func() { done(err) }()

	refs, err := r.resolve(ctx, userID, key)
	if err != nil {
		return false, err
	}
	if len(refs) == 0 {
		return false, nil
	}
	for _, ref := range refs {
		if _, err := ref.Update(ctx, []firestore.Update{
			{Path: "quantity", Value: quantity},
		}); err != nil {
			if status.Code(err) == codes.NotFound {
				continue
			}
			return false, fmt.Errorf("updating cart quantity: %w", err)
		}
	}
	return true, nil
}

// Delete removes the line(s) matching key. Returns false when nothing
// matched, so a repeated remove reads as "already gone" rather than an error.
func (r *Repo) Delete(ctx context.Context, userID, key string) (_ bool, err error) {
	done := r.calls.Track("firestore", "cart.delete")
	defer func() { done(err) }()

	refs, err := r.resolve(ctx, userID, key)
	if err != nil {
		return false, err
	}
	if len(refs) == 0 {
		return false, nil
	}
	batch := r.client.Batch()
	for _, ref := range refs {
		batch.Delete(ref)
	}
	if _, err := batch.Commit(ctx); err != nil {
		return false, fmt.Errorf("deleting cart line: %w", err)
	}
	return true, nil
}

// DeleteAll clears the cart in a single batch commit, so a failure leaves the
// remote cart either fully cleared or untouched.
func (r *Repo) DeleteAll(ctx context.Context, userID string) (err error) {
	done := r.calls.Track("firestore", "cart.clear")
	defer func() { done(err) }()

	it := r.col(userID).Select().Documents(ctx)
	defer it.Stop()

	batch := r.client.Batch()
	count := 0
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("scanning cart for clear: %w", err)
		}
		batch.Delete(snap.Ref)
		count++
	}
	if count == 0 {
		return nil
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	return nil
}

// Watch pushes the full cart to fn on every change until stop is called.
// Changes made by other sessions for the same user propagate through it.
func (r *Repo) Watch(ctx context.Context, userID string, fn func([]Line)) (stop func(), err error) {
	ctx, cancel := context.WithCancel(ctx)
	it := r.col(userID).Snapshots(ctx)
	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				return
			}
			var lines []Line
			docs := snap.Documents
			for {
				docSnap, err := docs.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					return
				}
				var doc lineDoc
				if err := docSnap.DataTo(&doc); err != nil {
					continue
				}
				lines = append(lines, fromDoc(docSnap.Ref.ID, doc))
			}
			sortByAddedAtDesc(lines)
			fn(lines)
		}
	}()
	return cancel, nil
}

// resolve maps a line key to document refs. A composite key addresses the
// document directly; a bare product id matches every size of that product.
func (r *Repo) resolve(ctx context.Context, userID, key string) ([]*firestore.DocumentRef, error) {
	if strings.Contains(key, "::") {
		snap, err := r.col(userID).Doc(key).Get(ctx)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil, nil
			}
			return nil, fmt.Errorf("resolving cart line: %w", err)
		}
		return []*firestore.DocumentRef{snap.Ref}, nil
	}

	it := r.col(userID).Where("productId", "==", key).Documents(ctx)
	defer it.Stop()
	var refs []*firestore.DocumentRef
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("resolving cart line: %w", err)
		}
		refs = append(refs, snap.Ref)
	}
	return refs, nil
}

func sortByAddedAtDesc(lines []Line) {
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].AddedAt.After(lines[j].AddedAt)
	})
}
