package cart

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required,notblank,max=64"`
	Quantity  int    `json:"quantity,omitempty" validate:"omitempty,min=1,max=999"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0,max=999"`
}
