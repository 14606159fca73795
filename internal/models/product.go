package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductStatus represents the stock status of a product
type ProductStatus string

const (
	ProductStatusInStock    ProductStatus = "In Stock"
	ProductStatusOutOfStock ProductStatus = "Out of Stock"
)

// SystemActor is recorded on history entries when no actor was supplied
const SystemActor = "System"

// DeriveStatus computes the stock status from a quantity. Shared by the
// create, update and import paths so the derivation cannot diverge.
func DeriveStatus(stock int) ProductStatus {
	if stock > 0 {
		return ProductStatusInStock
	}
	return ProductStatusOutOfStock
}

// Product represents a catalog product entity
type Product struct {
	ID        uuid.UUID     `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string        `json:"name" gorm:"not null;uniqueIndex:idx_products_name"`
	Unit      string        `json:"unit" gorm:"not null"`
	Category  string        `json:"category" gorm:"not null;index"`
	Brand     string        `json:"brand" gorm:"not null;index"`
	Stock     int           `json:"stock" gorm:"not null;default:0;check:stock >= 0"`
	Status    ProductStatus `json:"status" gorm:"not null;default:'In Stock'"`
	Image     string        `json:"image,omitempty" gorm:"type:text"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// InventoryHistory is one immutable stock-change record. Entries are
// append-only: created when a product's stock changes, never updated.
type InventoryHistory struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;index:idx_inventory_history_product"`
	OldQty    int       `json:"oldQty" gorm:"not null"`
	NewQty    int       `json:"newQty" gorm:"not null"`
	User      string    `json:"user" gorm:"not null;default:'System'"`
	Date      time.Time `json:"date" gorm:"not null"`
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	Name     string         `json:"name" form:"name" binding:"required"`
	Unit     string         `json:"unit" form:"unit" binding:"required"`
	Category string         `json:"category" form:"category" binding:"required"`
	Brand    string         `json:"brand" form:"brand" binding:"required"`
	Stock    *int           `json:"stock" form:"stock" binding:"required"`
	Status   *ProductStatus `json:"status,omitempty" form:"status"`
	Image    *string        `json:"image,omitempty" form:"image"`
}

// UpdateProductRequest represents a partial update to a product.
// User identifies the actor for the stock-change audit trail.
type UpdateProductRequest struct {
	Name     *string        `json:"name,omitempty" form:"name"`
	Unit     *string        `json:"unit,omitempty" form:"unit"`
	Category *string        `json:"category,omitempty" form:"category"`
	Brand    *string        `json:"brand,omitempty" form:"brand"`
	Stock    *int           `json:"stock,omitempty" form:"stock"`
	Status   *ProductStatus `json:"status,omitempty" form:"status"`
	Image    *string        `json:"image,omitempty" form:"image"`
	User     *string        `json:"user,omitempty" form:"user"`
}

// ListProductsRequest carries listing filters and pagination
type ListProductsRequest struct {
	Name  string
	Sort  string
	Page  int
	Limit int
}

// Response types

type PaginationInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

type ProductResponse struct {
	Success bool     `json:"success"`
	Data    *Product `json:"data"`
	Message *string  `json:"message,omitempty"`
}

type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []Product       `json:"data"`
	Pagination *PaginationInfo `json:"pagination"`
}

type HistoryListResponse struct {
	Success bool               `json:"success"`
	Data    []InventoryHistory `json:"data"`
}

type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// TableName returns the table name for the InventoryHistory model
func (InventoryHistory) TableName() string {
	return "inventory_history"
}
