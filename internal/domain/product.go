package domain

import "time"

type Product struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Brand          string         `json:"brand,omitempty"`
	Category       string         `json:"category,omitempty"`
	PhoneModel     string         `json:"phoneModel,omitempty"`
	Images         []string       `json:"images,omitempty"`
	PricePaise     int64          `json:"pricePaise"`
	DiscountPaise  int64          `json:"discountPaise,omitempty"`
	GSTRate        int            `json:"gstRate"`
	CountInStock   int            `json:"countInStock"`
	Colors         []ProductColor `json:"colors,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

type ProductColor struct {
	Name    string `json:"name"`
	InStock bool   `json:"inStock"`
}

// EffectivePaise is the price a shopper pays right now: the discount price
// when one is set below the list price, else the list price.
func (p Product) EffectivePaise() int64 {
	if p.DiscountPaise > 0 && p.DiscountPaise < p.PricePaise {
		return p.DiscountPaise
	}
	return p.PricePaise
}

// ColorAvailable reports whether the named color can be purchased. Products
// without color variants accept any empty selector; a non-empty selector must
// match an in-stock color.
func (p Product) ColorAvailable(color string) bool {
	if color == "" {
		return true
	}
	for _, c := range p.Colors {
		if c.Name == color {
			return c.InStock
		}
	}
	return false
}

// MainImage is the image denormalized onto cart and order lines.
func (p Product) MainImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
