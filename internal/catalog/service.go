package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Store is the catalog read surface over the document database.
type Store interface {
	ListAll(ctx context.Context) ([]Product, error)
	ListRecent(ctx context.Context, limit int) ([]Product, error)
	ListTopRated(ctx context.Context, limit int) ([]Product, error)
	ListByCategory(ctx context.Context, category string) ([]Product, error)
	ListBySchool(ctx context.Context, schoolID string) ([]Product, error)
	Get(ctx context.Context, id string) (Product, bool, error)
	ListSchools(ctx context.Context) ([]School, error)
	GetSchool(ctx context.Context, id string) (School, bool, error)
}

// ImageResolver turns stored object paths into public URLs. Absolute URLs
// pass through unchanged.
type ImageResolver interface {
	ObjectURL(path string) string
}

const (
	defaultRecentLimit   = 3
	defaultTopRatedLimit = 4
)

// Service exposes the storefront catalog: listings, lookups, and the
// substring search the storefront uses instead of a search index.
type Service interface {
	List(ctx context.Context) ([]Product, error)
	ByCategory(ctx context.Context, category string) ([]Product, error)
	BySchool(ctx context.Context, schoolID string) ([]Product, error)
	Recent(ctx context.Context, limit int) ([]Product, error)
	TopRated(ctx context.Context, limit int) ([]Product, error)
	Get(ctx context.Context, id string) (Product, error)
	Search(ctx context.Context, term string) ([]Product, error)
	Schools(ctx context.Context) ([]School, error)
	School(ctx context.Context, id string) (School, error)
}

type service struct {
	store  Store
	images ImageResolver
	logg   *logger.Logger
}

// NewService builds the catalog service. images may be nil when no bucket is
// configured.
func NewService(store Store, images ImageResolver, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{store: store, images: images, logg: logg}, nil
}

// List returns the full catalog with school names attached.
func (s *service) List(ctx context.Context) ([]Product, error) {
	products, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, asRemoteErr(err, "listing catalog")
	}
	return s.finish(ctx, products)
}

// ByCategory returns products in one category.
func (s *service) ByCategory(ctx context.Context, category string) ([]Product, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category is required")
	}
	products, err := s.store.ListByCategory(ctx, category)
	if err != nil {
		return nil, asRemoteErr(err, "listing category")
	}
	return s.finish(ctx, products)
}

// BySchool returns products attached to one school.
func (s *service) BySchool(ctx context.Context, schoolID string) ([]Product, error) {
	schoolID = strings.TrimSpace(schoolID)
	if schoolID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "school id is required")
	}
	products, err := s.store.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, asRemoteErr(err, "listing school products")
	}
	return s.finish(ctx, products)
}

// Recent returns the newest products.
func (s *service) Recent(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	products, err := s.store.ListRecent(ctx, limit)
	if err != nil {
		return nil, asRemoteErr(err, "listing recent products")
	}
	return s.finish(ctx, products)
}

// TopRated returns the highest-rated products. When the rating query fails
// (e.g. a missing index), it falls back to the recent listing instead of
// surfacing the error.
func (s *service) TopRated(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = defaultTopRatedLimit
	}
	products, err := s.store.ListTopRated(ctx, limit)
	if err != nil {
		s.logg.Warn(ctx, "top-rated query failed, falling back to recent")
		return s.Recent(ctx, limit)
	}
	return s.finish(ctx, products)
}

// Get returns one product with its school name attached.
func (s *service) Get(ctx context.Context, id string) (Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, found, err := s.store.Get(ctx, id)
	if err != nil {
		return Product{}, asRemoteErr(err, "reading product")
	}
	if !found {
		return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	enriched, err := s.finish(ctx, []Product{product})
	if err != nil {
		return Product{}, err
	}
	return enriched[0], nil
}

// Search filters the full listing by a case-insensitive substring over name,
// description, and category. There is no search index; the catalog is small
// enough to scan.
func (s *service) Search(ctx context.Context, term string) ([]Product, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search term is required")
	}
	products, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, asRemoteErr(err, "searching catalog")
	}
	var matched []Product
	for _, product := range products {
		haystack := strings.ToLower(product.Name + " " + product.Description + " " + product.Category)
		if strings.Contains(haystack, term) {
			matched = append(matched, product)
		}
	}
	return s.finish(ctx, matched)
}

// Schools returns the school directory.
func (s *service) Schools(ctx context.Context) ([]School, error) {
	schools, err := s.store.ListSchools(ctx)
	if err != nil {
		return nil, asRemoteErr(err, "listing schools")
	}
	if schools == nil {
		schools = []School{}
	}
	return schools, nil
}

// School returns one directory entry.
func (s *service) School(ctx context.Context, id string) (School, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return School{}, pkgerrors.New(pkgerrors.CodeValidation, "school id is required")
	}
	school, found, err := s.store.GetSchool(ctx, id)
	if err != nil {
		return School{}, asRemoteErr(err, "reading school")
	}
	if !found {
		return School{}, pkgerrors.New(pkgerrors.CodeNotFound, "school not found")
	}
	return school, nil
}

// finish attaches school names and resolves image URLs. School lookups fan
// out once per distinct school id and all complete before returning; the
// fan-out is small at catalog scale.
func (s *service) finish(ctx context.Context, products []Product) ([]Product, error) {
	if products == nil {
		products = []Product{}
	}
	s.resolveImages(products)
	if err := s.attachSchoolNames(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *service) resolveImages(products []Product) {
	if s.images == nil {
		return
	}
	for i := range products {
		for j, image := range products[i].Images {
			products[i].Images[j] = s.images.ObjectURL(image)
		}
	}
}

func (s *service) attachSchoolNames(ctx context.Context, products []Product) error {
	distinct := map[string]struct{}{}
	for _, product := range products {
		if product.SchoolID != "" {
			distinct[product.SchoolID] = struct{}{}
		}
	}
	if len(distinct) == 0 {
		return nil
	}

	var mu sync.Mutex
	names := make(map[string]string, len(distinct))
	group, ctx := errgroup.WithContext(ctx)
	for id := range distinct {
		group.Go(func() error {
			school, found, err := s.store.GetSchool(ctx, id)
			if err != nil {
				return err
			}
			if !found {
				return nil
			}
			mu.Lock()
			names[id] = school.Name
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return asRemoteErr(err, "resolving school names")
	}

	for i := range products {
		if name, ok := names[products[i].SchoolID]; ok {
			products[i].SchoolName = name
		}
	}
	return nil
}

func asRemoteErr(err error, message string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeRemote, err, message)
}
