package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// SizeOption is one selectable size on a product card.
type SizeOption struct {
	Size    string `json:"size"`
	InStock bool   `json:"inStock"`
}

// Product is the storefront view of a uniform document.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Images      []string        `json:"images"`
	Stock       int64           `json:"stock"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Sizes       []SizeOption    `json:"sizes"`
	SchoolID    string          `json:"schoolId,omitempty"`
	SchoolName  string          `json:"schoolName,omitempty"`
	Gender      string          `json:"gender"`
	Rating      float64         `json:"rating"`
	ReviewCount int64           `json:"reviewCount"`
	Features    []string        `json:"features"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// School is one entry in the school directory.
type School struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	LogoURL string `json:"logo,omitempty"`
}
