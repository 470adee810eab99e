package cart

const NextStepSchedule = "schedule"

// View is the cart as returned to the client.
type View struct {
	Items      []Line   `json:"items"`
	Total      float64  `json:"total"`
	Count      int      `json:"count"`
	Violations []string `json:"violations"`
}

// CheckoutResult is the confirmed selection handed to scheduling.
type CheckoutResult struct {
	Items    []SelectedItem `json:"items"`
	Total    float64        `json:"total"`
	NextStep string         `json:"nextStep"`
}

// AddItemRequest for POST /cart/items
type AddItemRequest struct {
	ItemID string  `json:"itemId" validate:"required,max=128"`
	Name   string  `json:"name" validate:"max=200"`
	Price  float64 `json:"price" validate:"gte=0"`
}

// UpdateQuantityRequest for PATCH /cart/items/{itemId}
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}
