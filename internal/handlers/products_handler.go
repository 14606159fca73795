package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ProductsHandler struct {
	catalog         *services.CatalogService
	log             *logrus.Logger
	defaultPageSize int
	maxPageSize     int
}

func NewProductsHandler(catalog *services.CatalogService, log *logrus.Logger, defaultPageSize, maxPageSize int) *ProductsHandler {
	return &ProductsHandler{
		catalog:         catalog,
		log:             log,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// GetProducts retrieves products with filtering, sorting and pagination
// GET /api/v1/products
func (h *ProductsHandler) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.defaultPageSize)))
	if limit < 1 {
		limit = h.defaultPageSize
	}
	if limit > h.maxPageSize {
		limit = h.maxPageSize
	}

	req := &models.ListProductsRequest{
		Name:  c.Query("name"),
		Sort:  c.DefaultQuery("sort", "name"),
		Page:  page,
		Limit: limit,
	}

	products, total, err := h.catalog.List(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to fetch products",
			},
		})
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	c.JSON(http.StatusOK, models.ProductListResponse{
		Success: true,
		Data:    products,
		Pagination: &models.PaginationInfo{
			Page:        page,
			Limit:       limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNext:     page < totalPages,
			HasPrevious: page > 1,
		},
	})
}

// SearchProducts performs a case-insensitive substring search on the name
// GET /api/v1/products/search?name=...
func (h *ProductsHandler) SearchProducts(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NAME_REQUIRED",
				Message: "Name query parameter is required",
				Field:   "name",
			},
		})
		return
	}

	req := &models.ListProductsRequest{
		Name:  name,
		Sort:  "name",
		Page:  1,
		Limit: h.maxPageSize,
	}
	products, _, err := h.catalog.List(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "SEARCH_FAILED",
				Message: "Failed to search products",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.ProductListResponse{
		Success: true,
		Data:    products,
	})
}

// GetProduct retrieves a single product by ID
// GET /api/v1/products/:id
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	product, err := h.catalog.Get(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to fetch product",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
}

// CreateProduct creates a new product. Accepts JSON or a multipart form
// with an optional image file, which is inlined as a data URI.
// POST /api/v1/products
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	if image, ok := imageFromUpload(c); ok {
		req.Image = &image
	}

	product, err := h.catalog.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrDuplicateName) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "DUPLICATE_NAME",
					Message: "Product name already exists",
					Field:   "name",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CREATION_FAILED",
				Message: "Failed to create product",
			},
		})
		return
	}

	c.JSON(http.StatusCreated, models.ProductResponse{
		Success: true,
		Data:    product,
		Message: stringPtr("Product created successfully"),
	})
}

// UpdateProduct applies a partial update, recording a stock-change history
// entry when the stock value actually changes
// PUT /api/v1/products/:id
func (h *ProductsHandler) UpdateProduct(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	if image, ok := imageFromUpload(c); ok {
		req.Image = &image
	}

	product, err := h.catalog.Update(c.Request.Context(), productID, &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Product not found",
				},
			})
		case errors.Is(err, services.ErrDuplicateName):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "DUPLICATE_NAME",
					Message: "Product name must be unique",
					Field:   "name",
				},
			})
		default:
			h.log.WithError(err).WithField("productId", productID).Error("Failed to update product")
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "UPDATE_FAILED",
					Message: "Failed to update product",
				},
			})
		}
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{
		Success: true,
		Data:    product,
		Message: stringPtr("Product updated successfully"),
	})
}

// DeleteProduct removes a product from the catalog
// DELETE /api/v1/products/:id
func (h *ProductsHandler) DeleteProduct(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DELETE_FAILED",
				Message: "Failed to delete product",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    gin.H{"productId": productID.String()},
		Message: stringPtr("Product deleted successfully"),
	})
}

// GetHistory returns a product's stock-change records, newest first
// GET /api/v1/products/:id/history
func (h *ProductsHandler) GetHistory(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	entries, err := h.catalog.History(c.Request.Context(), productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to fetch history",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.HistoryListResponse{Success: true, Data: entries})
}

// parseProductID reads and validates the :id path parameter, writing the
// error response itself when the value is not a UUID
func parseProductID(c *gin.Context) (uuid.UUID, bool) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Invalid product ID format",
			},
		})
		return uuid.Nil, false
	}
	return productID, true
}

// imageFromUpload inlines an uploaded image file as a data URI
func imageFromUpload(c *gin.Context) (string, bool) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		return "", false
	}
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return "", false
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", false
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), true
}

func stringPtr(s string) *string {
	return &s
}
