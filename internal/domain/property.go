package domain

// Property represents a rental listing.
type Property struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Address     string  `json:"address"`
	MonthlyRent float64 `json:"monthlyRent"`
	Bedrooms    int     `json:"bedrooms"`
	Bathrooms   int     `json:"bathrooms"`
	OwnerName   string  `json:"ownerName"`
	ImageURL    *string `json:"imageUrl"`
}
