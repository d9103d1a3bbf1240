package domain

import "time"

// Payment method tags accepted at checkout. Anything other than
// cash-on-delivery is treated as prepaid: the external processor has already
// captured the money before the order request reaches us.
const (
	PaymentCOD      = "cash_on_delivery"
	PaymentRazorpay = "razorpay"
	PaymentCard     = "card"
)

type Order struct {
	ID              string         `json:"id"`
	OrderNumber     string         `json:"orderNumber"`
	UserID          string         `json:"userId"`
	Items           []OrderItem    `json:"orderItems"`
	ShippingAddress Address        `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod"`
	ItemsPaise      int64          `json:"itemsPaise"`
	TaxPaise        int64          `json:"taxPaise"`
	ShippingPaise   int64          `json:"shippingPaise"`
	TotalPaise      int64          `json:"totalPaise"`
	IsPaid          bool           `json:"isPaid"`
	PaidAt          *time.Time     `json:"paidAt,omitempty"`
	PaymentResult   *PaymentResult `json:"paymentResult,omitempty"`
	IsDelivered     bool           `json:"isDelivered"`
	DeliveredAt     *time.Time     `json:"deliveredAt,omitempty"`
	Tracking        *TrackingInfo  `json:"trackingInfo,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// OrderItem is an immutable snapshot of a purchased line. It references the
// product but owns its own copy of name/image/price, so later catalog edits
// never touch placed orders.
type OrderItem struct {
	ID         string `json:"id"`
	OrderID    string `json:"orderId"`
	ProductID  string `json:"productId"`
	Name       string `json:"name"`
	Image      string `json:"image,omitempty"`
	Color      string `json:"color,omitempty"`
	PricePaise int64  `json:"pricePaise"`
	GSTRate    int    `json:"gstRate"`
	Quantity   int    `json:"qty"`
}

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// Complete reports whether every address component is present.
func (a Address) Complete() bool {
	return a.Street != "" && a.City != "" && a.State != "" && a.Pincode != ""
}

// PaymentResult is the opaque confirmation record from the external payment
// processor, stored verbatim.
type PaymentResult struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	UpdateTime string `json:"update_time"`
	Email      string `json:"email_address,omitempty"`
}

type TrackingInfo struct {
	Number string `json:"number"`
	URL    string `json:"url,omitempty"`
}
