package catalog

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestService(t *testing.T, store Store, images ImageResolver) Service {
	t.Helper()
	svc, err := NewService(store, images, testLogger())
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc
}

func TestListAttachesSchoolNames(t *testing.T) {
	t.Parallel()
	store := &stubStore{
		products: []Product{
			{ID: "p1", Name: "Shirt", SchoolID: "s1"},
			{ID: "p2", Name: "Tie", SchoolID: "s2"},
			{ID: "p3", Name: "Belt"},
		},
		schools: map[string]School{
			"s1": {ID: "s1", Name: "Greenwood High"},
			"s2": {ID: "s2", Name: "Riverside Academy"},
		},
	}
	svc := newTestService(t, store, nil)

	products, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	byID := map[string]Product{}
	for _, p := range products {
		byID[p.ID] = p
	}
	if byID["p1"].SchoolName != "Greenwood High" || byID["p2"].SchoolName != "Riverside Academy" {
		t.Fatalf("expected school names attached, got %+v", byID)
	}
	if byID["p3"].SchoolName != "" {
		t.Fatalf("school-less product must stay bare, got %+v", byID["p3"])
	}
}

func TestTopRatedFallsBackToRecent(t *testing.T) {
	t.Parallel()
	store := &stubStore{
		products:    []Product{{ID: "p1", Name: "Newest"}},
		topRatedErr: errors.New("missing index"),
	}
	svc := newTestService(t, store, nil)

	products, err := svc.TopRated(context.Background(), 4)
	if err != nil {
		t.Fatalf("expected fallback, got error: %v", err)
	}
	if len(products) != 1 || products[0].ID != "p1" {
		t.Fatalf("expected recent listing as fallback, got %+v", products)
	}
	if store.recentLimit != 4 {
		t.Fatalf("fallback should reuse the requested limit, got %d", store.recentLimit)
	}
}

func TestSearchMatchesSubstringsCaseInsensitive(t *testing.T) {
	t.Parallel()
	store := &stubStore{
		products: []Product{
			{ID: "p1", Name: "Summer Shirt", Description: "cotton"},
			{ID: "p2", Name: "Winter Blazer", Category: "Outerwear"},
			{ID: "p3", Name: "Tie", Description: "silk summer edition"},
		},
	}
	svc := newTestService(t, store, nil)

	products, err := svc.Search(context.Background(), "SUMMER")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected two matches, got %+v", products)
	}

	products, err = svc.Search(context.Background(), "outerwear")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(products) != 1 || products[0].ID != "p2" {
		t.Fatalf("expected category match, got %+v", products)
	}
}

func TestSearchRejectsBlankTerm(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, &stubStore{}, nil)

	_, err := svc.Search(context.Background(), "   ")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, &stubStore{}, nil)

	_, err := svc.Get(context.Background(), "missing")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestImagesResolvedThroughBucket(t *testing.T) {
	t.Parallel()
	store := &stubStore{
		products: []Product{{ID: "p1", Images: []string{"uniforms/p1.jpg", "https://cdn.example.com/p1.jpg"}}},
	}
	svc := newTestService(t, store, resolverFunc(func(path string) string {
		if strings.HasPrefix(path, "http") {
			return path
		}
		return "https://storage.example.com/bucket/" + path
	}))

	products, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if products[0].Images[0] != "https://storage.example.com/bucket/uniforms/p1.jpg" {
		t.Fatalf("expected resolved object path, got %s", products[0].Images[0])
	}
	if products[0].Images[1] != "https://cdn.example.com/p1.jpg" {
		t.Fatalf("absolute URL must pass through, got %s", products[0].Images[1])
	}
}

func TestNormalizeProductDefaults(t *testing.T) {
	t.Parallel()

	p := normalizeProduct("p1", productDoc{Image: "one.jpg"})
	if p.Name != "Uniform" || p.Category != defaultCategory || p.Gender != defaultGender {
		t.Fatalf("expected defaults applied, got %+v", p)
	}
	if p.Stock != defaultStock {
		t.Fatalf("expected fallback stock %d, got %d", defaultStock, p.Stock)
	}
	if p.Rating != defaultRating {
		t.Fatalf("expected fallback rating %v, got %v", defaultRating, p.Rating)
	}
	if len(p.Images) != 1 || p.Images[0] != "one.jpg" {
		t.Fatalf("singular image field must fold into images, got %+v", p.Images)
	}
	if len(p.Sizes) != 3 {
		t.Fatalf("expected default size set, got %+v", p.Sizes)
	}
}

// ---- stubs ----

type stubStore struct {
	products    []Product
	schools     map[string]School
	topRatedErr error
	recentLimit int
}

func (s *stubStore) ListAll(ctx context.Context) ([]Product, error) {
	return cloneProducts(s.products), nil
}

func (s *stubStore) ListRecent(ctx context.Context, limit int) ([]Product, error) {
	s.recentLimit = limit
	if limit > len(s.products) {
		limit = len(s.products)
	}
	return cloneProducts(s.products[:limit]), nil
}

func (s *stubStore) ListTopRated(ctx context.Context, limit int) ([]Product, error) {
	if s.topRatedErr != nil {
		return nil, s.topRatedErr
	}
	if limit > len(s.products) {
		limit = len(s.products)
	}
	return cloneProducts(s.products[:limit]), nil
}

func (s *stubStore) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	var out []Product
	for _, p := range s.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubStore) ListBySchool(ctx context.Context, schoolID string) ([]Product, error) {
	var out []Product
	for _, p := range s.products {
		if p.SchoolID == schoolID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubStore) Get(ctx context.Context, id string) (Product, bool, error) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true, nil
		}
	}
	return Product{}, false, nil
}

func (s *stubStore) ListSchools(ctx context.Context) ([]School, error) {
	var out []School
	for _, school := range s.schools {
		out = append(out, school)
	}
	return out, nil
}

func (s *stubStore) GetSchool(ctx context.Context, id string) (School, bool, error) {
	school, ok := s.schools[id]
	return school, ok, nil
}

func cloneProducts(products []Product) []Product {
	out := make([]Product, len(products))
	copy(out, products)
	return out
}

type resolverFunc func(path string) string

func (fn resolverFunc) ObjectURL(path string) string {
	return fn(path)
}
