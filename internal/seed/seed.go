package seed

import (
	"context"
	"errors"
	"fmt"
	"log"

	"casekart/internal/domain"
	productrepo "casekart/internal/repository/product"
	userrepo "casekart/internal/repository/user"
	"golang.org/x/crypto/bcrypt"
)

// Run inserts a demo catalog and two users (one admin), printing nothing on
// re-runs where rows already exist.
func Run(ctx context.Context, products productrepo.Repository, users userrepo.Repository, logger *log.Logger) error {
	for _, u := range demoUsers() {
		created, err := users.Create(ctx, u)
		if err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				continue
			}
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		logger.Printf("seeded user %s id=%s admin=%v", created.Email, created.ID, created.IsAdmin)
	}

	for _, p := range demoProducts() {
		created, err := products.Upsert(ctx, p)
		if err != nil {
			return fmt.Errorf("seed product %s: %w", p.Name, err)
		}
		logger.Printf("seeded product %s id=%s", created.Name, created.ID)
	}
	return nil
}

func demoUsers() []domain.User {
	return []domain.User{
		{Name: "Admin", Email: "admin@casekart.test", PasswordHash: mustHash("admin123!"), IsAdmin: true},
		{Name: "Asha Kumar", Email: "asha@casekart.test", PasswordHash: mustHash("shopper1!")},
	}
}

func demoProducts() []domain.Product {
	return []domain.Product{
		{
			Name:         "Clear Shield Case",
			Description:  "Transparent TPU case with reinforced corners",
			Brand:        "CaseKart",
			Category:     "cases",
			PhoneModel:   "Pixel 9",
			Images:       []string{"/uploads/clear-shield.jpg"},
			PricePaise:   49900,
			GSTRate:      18,
			CountInStock: 120,
			Colors: []domain.ProductColor{
				{Name: "clear", InStock: true},
				{Name: "smoke", InStock: true},
			},
		},
		{
			Name:          "Armor Flex Case",
			Description:   "Dual-layer shockproof case",
			Brand:         "CaseKart",
			Category:      "cases",
			PhoneModel:    "iPhone 16",
			Images:        []string{"/uploads/armor-flex.jpg"},
			PricePaise:    99900,
			DiscountPaise: 79900,
			GSTRate:       18,
			CountInStock:  60,
			Colors: []domain.ProductColor{
				{Name: "black", InStock: true},
				{Name: "navy", InStock: false},
			},
		},
		{
			Name:         "Tempered Glass Guard",
			Description:  "9H hardness screen protector, two pack",
			Brand:        "GuardPro",
			Category:     "screen-protectors",
			PhoneModel:   "iPhone 16",
			Images:       []string{"/uploads/glass-guard.jpg"},
			PricePaise:   29900,
			GSTRate:      18,
			CountInStock: 200,
		},
		{
			Name:         "65W GaN Charger",
			Description:  "Dual-port USB-C fast charger",
			Brand:        "VoltEdge",
			Category:     "chargers",
			PhoneModel:   "universal",
			Images:       []string{"/uploads/gan-charger.jpg"},
			PricePaise:   249900,
			GSTRate:      18,
			CountInStock: 45,
		},
	}
}

func mustHash(password string) string {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return string(hashed)
}
