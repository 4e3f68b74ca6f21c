package models

// CreateDraftRequest opens a new movement draft over the API.
type CreateDraftRequest struct {
	Type         MovementType `json:"type" binding:"required,oneof=stock_in distribution"`
	StockManager string       `json:"stockManager"`
}

// UpdateDraftRequest changes draft header fields. Nil fields are left as is.
type UpdateDraftRequest struct {
	Type       *MovementType `json:"type" binding:"omitempty,oneof=stock_in distribution"`
	Supplier   *string       `json:"supplier"`
	Department *string       `json:"department"`
	Notes      *string       `json:"notes"`
}

// UpdateLineItemRequest sets one field of a line item.
type UpdateLineItemRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// BroadcastRequest sends a manual notification to every channel.
type BroadcastRequest struct {
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
}
