package dto

import (
	"uniworld/internal/core/types"
	"uniworld/internal/domain/catalogs/product"
)

// CreateProductRequest for creating products. The cached stock balance
// is never client-settable; it starts at zero and only the ledger
// moves it.
type CreateProductRequest struct {
	SKU            string `json:"sku" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Category       string `json:"category"`
	Unit           string `json:"unit"`
	Price          string `json:"price" binding:"required"`
	DiscountAmount string `json:"discountAmount"`
	ReorderLevel   int64  `json:"reorderLevel"`
	Barcode        string `json:"barcode"`
	Description    string `json:"description"`
	IsActive       *bool  `json:"isActive"`
}

// ToEntity converts the request into a product.
func (r *CreateProductRequest) ToEntity() (*product.Product, error) {
	price, err := types.NewMoneyFromString(r.Price)
	if err != nil {
		return nil, err
	}

	discount := types.ZeroMoney()
	if r.DiscountAmount != "" {
		discount, err = types.NewMoneyFromString(r.DiscountAmount)
		if err != nil {
			return nil, err
		}
	}

	p := product.NewProduct(r.SKU, r.Name, price)
	p.Category = r.Category
	if r.Unit != "" {
		p.Unit = r.Unit
	}
	p.DiscountAmount = discount
	p.ReorderLevel = types.Quantity(r.ReorderLevel)
	if r.Barcode != "" {
		p.Barcode = &r.Barcode
	}
	if r.Description != "" {
		p.Description = &r.Description
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	return p, nil
}

// UpdateProductRequest for updating product master data.
type UpdateProductRequest struct {
	SKU            *string `json:"sku"`
	Name           *string `json:"name"`
	Category       *string `json:"category"`
	Unit           *string `json:"unit"`
	Price          *string `json:"price"`
	DiscountAmount *string `json:"discountAmount"`
	ReorderLevel   *int64  `json:"reorderLevel"`
	Barcode        *string `json:"barcode"`
	Description    *string `json:"description"`
	IsActive       *bool   `json:"isActive"`
	Version        int     `json:"version" binding:"required,min=1"`
}

// ApplyTo overlays the request onto an existing product.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) error {
	if r.SKU != nil {
		p.SKU = *r.SKU
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Category != nil {
		p.Category = *r.Category
	}
	if r.Unit != nil {
		p.Unit = *r.Unit
	}
	if r.Price != nil {
		price, err := types.NewMoneyFromString(*r.Price)
		if err != nil {
			return err
		}
		p.Price = price
	}
	if r.DiscountAmount != nil {
		discount, err := types.NewMoneyFromString(*r.DiscountAmount)
		if err != nil {
			return err
		}
		p.DiscountAmount = discount
	}
	if r.ReorderLevel != nil {
		p.ReorderLevel = types.Quantity(*r.ReorderLevel)
	}
	if r.Barcode != nil {
		p.Barcode = r.Barcode
	}
	if r.Description != nil {
		p.Description = r.Description
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	p.Version = r.Version
	return nil
}

// ProductResponse contains product fields.
type ProductResponse struct {
	ID             string `json:"id"`
	DeletionMark   bool   `json:"deletionMark"`
	Version        int    `json:"version"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Category       string `json:"category,omitempty"`
	Unit           string `json:"unit,omitempty"`
	Price          string `json:"price"`
	DiscountAmount string `json:"discountAmount"`
	StockQuantity  int64  `json:"stockQuantity"`
	ReorderLevel   int64  `json:"reorderLevel"`
	Barcode        string `json:"barcode,omitempty"`
	Description    string `json:"description,omitempty"`
	IsActive       bool   `json:"isActive"`
}

// FromProduct creates ProductResponse from a product.
func FromProduct(p *product.Product) ProductResponse {
	resp := ProductResponse{
		ID:             p.ID.String(),
		DeletionMark:   p.DeletionMark,
		Version:        p.Version,
		SKU:            p.SKU,
		Name:           p.Name,
		Category:       p.Category,
		Unit:           p.Unit,
		Price:          p.Price.String(),
		DiscountAmount: p.DiscountAmount.String(),
		StockQuantity:  p.StockQuantity.Int64(),
		ReorderLevel:   p.ReorderLevel.Int64(),
		IsActive:       p.IsActive,
	}
	if p.Barcode != nil {
		resp.Barcode = *p.Barcode
	}
	if p.Description != nil {
		resp.Description = *p.Description
	}
	return resp
}

// FromProducts maps a product slice.
func FromProducts(items []*product.Product) []ProductResponse {
	out := make([]ProductResponse, len(items))
	for i, p := range items {
		out[i] = FromProduct(p)
	}
	return out
}
