package domain

import "time"

// CartOwner identifies who a cart belongs to: exactly one of UserID
// (authenticated) or SessionID (guest) is set.
type CartOwner struct {
	UserID    *string
	SessionID *string
}

func OwnerForUser(userID string) CartOwner {
	return CartOwner{UserID: &userID}
}

func OwnerForSession(sessionID string) CartOwner {
	return CartOwner{SessionID: &sessionID}
}

type Cart struct {
	ID        string     `json:"id"`
	UserID    *string    `json:"userId,omitempty"`
	SessionID *string    `json:"-"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Lines     []CartLine `json:"cartItems"`
}

// CartLine is one (product, color, quantity) entry. Name, image, price and
// GST rate are copied from the product when the line is first added and stay
// frozen for the life of the cart.
type CartLine struct {
	ID         string    `json:"id"`
	CartID     string    `json:"cartId"`
	ProductID  string    `json:"productId"`
	Name       string    `json:"name"`
	Image      string    `json:"image,omitempty"`
	Color      string    `json:"color,omitempty"`
	PricePaise int64     `json:"pricePaise"`
	GSTRate    int       `json:"gstRate"`
	Quantity   int       `json:"qty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Line returns the cart line matching (productID, color), or nil.
func (c *Cart) Line(productID, color string) *CartLine {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID && c.Lines[i].Color == color {
			return &c.Lines[i]
		}
	}
	return nil
}
