package cart

import "time"

// LineItem is one product entry in a cart. Price is the unit price recorded when
// the product was first added.
type LineItem struct {
	ID       string  `bson:"id" json:"id"`
	Name     string  `bson:"name" json:"name"`
	Price    float64 `bson:"price" json:"price"`
	ImageURL string  `bson:"image_url" json:"image_url"`
	Quantity int     `bson:"quantity" json:"quantity"`
}

// Document is the persisted cart for one user.
type Document struct {
	UserID    string     `bson:"user_id" json:"user_id"`
	Items     []LineItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// Identity is the signed-in user a cart belongs to.
type Identity struct {
	ID          string
	DisplayName string
	Email       string
	AvatarURL   string
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
