package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	// prices travel as JSON numbers, matching what the storefront sends
	decimal.MarshalJSONWithoutQuotes = true
}

type Category string

const (
	CategorySoap    Category = "Soap"
	CategoryShampoo Category = "Shampoo"
	CategoryOil     Category = "Oil"
	CategoryCream   Category = "Cream"
	CategoryGel     Category = "Gel"
)

var Categories = []Category{CategorySoap, CategoryShampoo, CategoryOil, CategoryCream, CategoryGel}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

const MaxProductNameLength = 200

type Review struct {
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	UserName  string             `bson:"userName" json:"userName"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Validate checks the fields a customer supplies when reviewing a product.
func (r Review) Validate() error {
	switch {
	case r.Rating < 1 || r.Rating > 5:
		return &ValidationError{Field: "rating", Message: "Rating must be between 1 and 5"}
	case strings.TrimSpace(r.Comment) == "":
		return &ValidationError{Field: "comment", Message: "Rating, comment, and name are required"}
	case strings.TrimSpace(r.UserName) == "":
		return &ValidationError{Field: "userName", Message: "Rating, comment, and name are required"}
	}
	return nil
}

type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Category      Category           `bson:"category" json:"category"`
	Description   string             `bson:"description" json:"description"`
	Price         decimal.Decimal    `bson:"price" json:"price"`
	DiscountPrice decimal.Decimal    `bson:"discountPrice" json:"discountPrice"`
	Stock         int                `bson:"stock" json:"stock"`
	Ingredients   []string           `bson:"ingredients" json:"ingredients"`
	SkinType      []string           `bson:"skinType" json:"skinType"`
	HairType      []string           `bson:"hairType" json:"hairType"`
	Images        []string           `bson:"images" json:"images"`
	Reviews       []Review           `bson:"reviews" json:"reviews,omitempty"`
	Rating        float64            `bson:"rating" json:"rating"`
	NumReviews    int                `bson:"numReviews" json:"numReviews"`
	IsActive      bool               `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// AverageRating returns the mean review rating and the review count; both are
// zero when there are no reviews.
func AverageRating(reviews []Review) (float64, int) {
	if len(reviews) == 0 {
		return 0, 0
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	return float64(total) / float64(len(reviews)), len(reviews)
}

// Recompute refreshes the derived fields. It must run after every change to
// Reviews or Stock.
func (p *Product) Recompute() {
	p.Rating, p.NumReviews = AverageRating(p.Reviews)
	if p.Stock == 0 {
		p.IsActive = false
	}
}

func (p *Product) ReviewedBy(userID primitive.ObjectID) bool {
	for _, r := range p.Reviews {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// Normalize replaces nil slices so documents always carry arrays.
func (p *Product) Normalize() {
	if p.Ingredients == nil {
		p.Ingredients = []string{}
	}
	if p.SkinType == nil {
		p.SkinType = []string{}
	}
	if p.HairType == nil {
		p.HairType = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Reviews == nil {
		p.Reviews = []Review{}
	}
}

// Validate checks the admin-editable fields.
func (p *Product) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return &ValidationError{Field: "name", Message: "Name is required"}
	case len(p.Name) > MaxProductNameLength:
		return &ValidationError{Field: "name", Message: "Name must be at most 200 characters"}
	case !p.Category.Valid():
		return &ValidationError{Field: "category", Message: "Valid category is required"}
	case strings.TrimSpace(p.Description) == "":
		return &ValidationError{Field: "description", Message: "Description is required"}
	case p.Price.IsNegative():
		return &ValidationError{Field: "price", Message: "Price must be a positive number"}
	case p.DiscountPrice.IsNegative():
		return &ValidationError{Field: "discountPrice", Message: "Discount price must be a positive number"}
	case p.Stock < 0:
		return &ValidationError{Field: "stock", Message: "Stock must be a positive integer"}
	}
	return nil
}

// ProductPatch carries a partial admin update; nil fields are left unchanged.
type ProductPatch struct {
	Name          *string          `json:"name"`
	Category      *Category        `json:"category"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discountPrice"`
	Stock         *int             `json:"stock"`
	Ingredients   []string         `json:"ingredients"`
	SkinType      []string         `json:"skinType"`
	HairType      []string         `json:"hairType"`
	Images        []string         `json:"images"`
	IsActive      *bool            `json:"isActive"`
}

// Apply copies the set fields of the patch onto p and recomputes derived fields.
func (patch ProductPatch) Apply(p *Product) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.DiscountPrice != nil {
		p.DiscountPrice = *patch.DiscountPrice
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Ingredients != nil {
		p.Ingredients = patch.Ingredients
	}
	if patch.SkinType != nil {
		p.SkinType = patch.SkinType
	}
	if patch.HairType != nil {
		p.HairType = patch.HairType
	}
	if patch.Images != nil {
		p.Images = patch.Images
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	p.Recompute()
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	Category        Category
	MinPrice        *decimal.Decimal
	MaxPrice        *decimal.Decimal
	Search          string
	IncludeInactive bool
	OmitReviews     bool
}

// Matches reports whether p passes the filter; search is case-insensitive
// over name and description.
func (f ProductFilter) Matches(p *Product) bool {
	if !f.IncludeInactive && !p.IsActive {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	return true
}

// CatalogStats summarises the catalog for the admin dashboard.
type CatalogStats struct {
	TotalProducts    int64 `json:"totalProducts"`
	ActiveProducts   int64 `json:"activeProducts"`
	LowStockProducts int64 `json:"lowStockProducts"`
}
