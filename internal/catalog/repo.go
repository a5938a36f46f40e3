package catalog

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

// productDoc mirrors the loosely-shaped uniform documents. The catalog was
// written to by hand, so several fields exist in singular and plural forms;
// normalizeProduct folds them into the strict Product shape.
type productDoc struct {
	Name        string       `firestore:"name"`
	Price       float64      `firestore:"price"`
	Description string       `firestore:"description"`
	Image       string       `firestore:"image"`
	Images      []string     `firestore:"images"`
	Stock       int64        `firestore:"stock"`
	Type        string       `firestore:"type"`
	Category    string       `firestore:"category"`
	Sizes       []SizeOption `firestore:"sizes"`
	School      string       `firestore:"school"`
	Gender      string       `firestore:"gender"`
	Rating      float64      `firestore:"rating"`
	ReviewCount int64        `firestore:"reviewCount"`
	Features    []string     `firestore:"features"`
	CreatedAt   time.Time    `firestore:"createdAt"`
}

const (
	defaultCategory = "School Uniform"
	defaultGender   = "Unisex"
	defaultRating   = 4.5
	defaultStock    = 10
)

func normalizeProduct(id string, doc productDoc) Product {
	p := Product{
		ID:          id,
		Name:        doc.Name,
		Price:       decimal.NewFromFloat(doc.Price),
		Description: doc.Description,
		Images:      doc.Images,
		Stock:       doc.Stock,
		Type:        doc.Type,
		Category:    doc.Category,
		Sizes:       doc.Sizes,
		SchoolID:    doc.School,
		Gender:      doc.Gender,
		Rating:      doc.Rating,
		ReviewCount: doc.ReviewCount,
		Features:    doc.Features,
		CreatedAt:   doc.CreatedAt,
	}
	if p.Name == "" {
		p.Name = "Uniform"
	}
	if p.Price.IsNegative() {
		p.Price = decimal.Zero
	}
	if len(p.Images) == 0 && doc.Image != "" {
		p.Images = []string{doc.Image}
	}
	if p.Stock <= 0 {
		p.Stock = defaultStock
	}
	if p.Type == "" {
		p.Type = "uniform"
	}
	if p.Category == "" {
		p.Category = defaultCategory
	}
	if len(p.Sizes) == 0 {
		p.Sizes = []SizeOption{
			{Size: "S", InStock: true},
			{Size: "M", InStock: true},
			{Size: "L", InStock: true},
		}
	}
	if p.Gender == "" {
		p.Gender = defaultGender
	}
	if p.Rating == 0 {
		p.Rating = defaultRating
	}
	return p
}

type schoolDoc struct {
	Name    string `firestore:"name"`
	Address string `firestore:"address"`
	Logo    string `firestore:"logo"`
}

// Repo reads the product catalog and school directory.
type Repo struct {
	client   *firestore.Client
	products string
	schools  string
}

// NewRepo wires the catalog repository onto the shared document store.
func NewRepo(client *db.Client, cfg config.FirebaseConfig) (*Repo, error) {
	if client == nil {
		return nil, fmt.Errorf("document store client required")
	}
	return &Repo{
		client:   client.DB(),
		products: cfg.ProductsCollection,
		schools:  cfg.SchoolsCollection,
	}, nil
}

// ListAll returns the full catalog, newest first.
func (r *Repo) ListAll(ctx context.Context) ([]Product, error) {
	query := r.client.Collection(r.products).OrderBy("createdAt", firestore.Desc)
	return r.collect(ctx, query.Documents(ctx))
}

// ListRecent returns the newest products up to limit.
func (r *Repo) ListRecent(ctx context.Context, limit int) ([]Product, error) {
	query := r.client.Collection(r.products).OrderBy("createdAt", firestore.Desc).Limit(limit)
	return r.collect(ctx, query.Documents(ctx))
}

// ListTopRated returns the highest-rated products up to limit.
func (r *Repo) ListTopRated(ctx context.Context, limit int) ([]Product, error) {
	query := r.client.Collection(r.products).OrderBy("rating", firestore.Desc).Limit(limit)
	return r.collect(ctx, query.Documents(ctx))
}

// ListByCategory returns products in one category.
func (r *Repo) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	query := r.client.Collection(r.products).Where("category", "==", category)
	return r.collect(ctx, query.Documents(ctx))
}

// ListBySchool returns products attached to one school.
func (r *Repo) ListBySchool(ctx context.Context, schoolID string) ([]Product, error) {
	query := r.client.Collection(r.products).Where("school", "==", schoolID)
	return r.collect(ctx, query.Documents(ctx))
}

// Get reads one product. found is false when the document does not exist.
func (r *Repo) Get(ctx context.Context, id string) (Product, bool, error) {
	snap, err := r.client.Collection(r.products).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return Product{}, false, nil
		}
		return Product{}, false, fmt.Errorf("reading product %s: %w", id, err)
	}
	var doc productDoc
	if err := snap.DataTo(&doc); err != nil {
		return Product{}, false, fmt.Errorf("decoding product %s: %w", id, err)
	}
	return normalizeProduct(snap.Ref.ID, doc), true, nil
}

// ListSchools returns the full school directory.
func (r *Repo) ListSchools(ctx context.Context) ([]School, error) {
	it := r.client.Collection(r.schools).Documents(ctx)
	defer it.Stop()

	var schools []School
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing schools: %w", err)
		}
		var doc schoolDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decoding school %s: %w", snap.Ref.ID, err)
		}
		schools = append(schools, School{ID: snap.Ref.ID, Name: doc.Name, Address: doc.Address, LogoURL: doc.Logo})
	}
	return schools, nil
}

// GetSchool reads one school. found is false when the document does not exist.
func (r *Repo) GetSchool(ctx context.Context, id string) (School, bool, error) {
	snap, err := r.client.Collection(r.schools).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return School{}, false, nil
		}
		return School{}, false, fmt.Errorf("reading school %s: %w", id, err)
	}
	var doc schoolDoc
	if err := snap.DataTo(&doc); err != nil {
		return School{}, false, fmt.Errorf("decoding school %s: %w", id, err)
	}
	return School{ID: snap.Ref.ID, Name: doc.Name, Address: doc.Address, LogoURL: doc.Logo}, true, nil
}

func (r *Repo) collect(ctx context.Context, it *firestore.DocumentIterator) ([]Product, error) {
	defer it.Stop()
	var products []Product
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing products: %w", err)
		}
		var doc productDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decoding product %s: %w", snap.Ref.ID, err)
		}
		products = append(products, normalizeProduct(snap.Ref.ID, doc))
	}
	return products, nil
}
