package models

// CartLine is one row of the cart: a single product with an aggregated
// quantity. The cart never holds two lines for the same ProductID.
type CartLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Category  string  `json:"category,omitempty"`
	Image     string  `json:"image,omitempty"`
	UnitPrice float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Size      *string `json:"size,omitempty"`
}

type WishlistEntry struct {
	ProductID   string  `json:"product_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	ActualPrice float64 `json:"actual_price,omitempty"`
	Discount    float64 `json:"discount,omitempty"`
	Image       string  `json:"image,omitempty"`
}

type UserDetails struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type Address struct {
	ID       string `json:"id,omitempty"`
	Area     string `json:"area"`
	Landmark string `json:"landmark,omitempty"`
	TownCity string `json:"town_city"`
	State    string `json:"state"`
	Country  string `json:"country"`
	Pincode  string `json:"pincode"`
	Type     string `json:"type"`
}

// Product is a catalog document as the search index stores it.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price"`
	Image       string  `json:"image,omitempty"`
}

// OrderConfirmation is what the confirmation view needs after an order
// has been recorded upstream.
type OrderConfirmation struct {
	OrderID     string  `json:"order_id"`
	OrderNumber string  `json:"order_number,omitempty"`
	PaymentID   string  `json:"payment_id,omitempty"`
	Subtotal    float64 `json:"subtotal"`
	Shipping    float64 `json:"shipping"`
	Total       float64 `json:"total"`
	CreatedAt   string  `json:"created_at,omitempty"`
}
