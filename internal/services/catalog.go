package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrDuplicateName is returned when a product name is already taken
var ErrDuplicateName = errors.New("product name already exists")

// CatalogService implements the field-level catalog operations and the
// stock-change audit trail on the update path.
type CatalogService struct {
	repo repository.CatalogRepositoryInterface
	log  *logrus.Logger
}

func NewCatalogService(repo repository.CatalogRepositoryInterface, log *logrus.Logger) *CatalogService {
	return &CatalogService{repo: repo, log: log}
}

// Create inserts a new product. Status is derived from stock unless the
// caller supplied one explicitly.
func (s *CatalogService) Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	if *req.Stock < 0 {
		return nil, fmt.Errorf("stock must be non-negative")
	}

	existing, err := s.repo.GetProductByName(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check product name: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateName
	}

	product := &models.Product{
		Name:     req.Name,
		Unit:     req.Unit,
		Category: req.Category,
		Brand:    req.Brand,
		Stock:    *req.Stock,
		Status:   models.DeriveStatus(*req.Stock),
	}
	if req.Status != nil && *req.Status != "" {
		product.Status = *req.Status
	}
	if req.Image != nil {
		product.Image = *req.Image
	}

	if err := s.repo.CreateProduct(ctx, product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race with a concurrent writer on the same name.
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// Update applies a partial update. A stock value different from the persisted
// one produces exactly one InventoryHistory entry, written atomically with
// the product mutation; a failed history write fails the whole update.
func (s *CatalogService) Update(ctx context.Context, productID uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {
	product, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != product.Name {
		existing, err := s.repo.GetProductByName(ctx, *req.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to check product name: %w", err)
		}
		if existing != nil && existing.ID != product.ID {
			return nil, ErrDuplicateName
		}
		product.Name = *req.Name
	}
	if req.Unit != nil {
		product.Unit = *req.Unit
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Brand != nil {
		product.Brand = *req.Brand
	}
	if req.Image != nil {
		product.Image = *req.Image
	}

	// The audit entry is built from the currently persisted quantity before
	// the new value is applied. Same-value updates write nothing.
	var entry *models.InventoryHistory
	if req.Stock != nil && *req.Stock != product.Stock {
		if *req.Stock < 0 {
			return nil, fmt.Errorf("stock must be non-negative")
		}
		actor := models.SystemActor
		if req.User != nil && *req.User != "" {
			actor = *req.User
		}
		entry = &models.InventoryHistory{
			ID:        uuid.New(),
			ProductID: product.ID,
			OldQty:    product.Stock,
			NewQty:    *req.Stock,
			User:      actor,
			Date:      time.Now(),
		}
		product.Stock = *req.Stock
	}

	if req.Status != nil && *req.Status != "" {
		product.Status = *req.Status
	} else {
		product.Status = models.DeriveStatus(product.Stock)
	}

	if err := s.repo.UpdateProduct(ctx, product, entry); err != nil {
		return nil, err
	}

	if entry != nil {
		s.log.WithFields(logrus.Fields{
			"productId": product.ID,
			"oldQty":    entry.OldQty,
			"newQty":    entry.NewQty,
			"user":      entry.User,
		}).Info("Recorded stock change")
	}

	return product, nil
}

// Get returns one product by ID
func (s *CatalogService) Get(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	return s.repo.GetProductByID(ctx, productID)
}

// List returns a page of products, optionally filtered by a
// case-insensitive substring of the name
func (s *CatalogService) List(ctx context.Context, req *models.ListProductsRequest) ([]models.Product, int64, error) {
	return s.repo.GetProducts(ctx, req)
}

// Delete removes a product; history entries are independently retained
func (s *CatalogService) Delete(ctx context.Context, productID uuid.UUID) error {
	return s.repo.DeleteProduct(ctx, productID)
}

// History returns a product's stock-change records, newest first
func (s *CatalogService) History(ctx context.Context, productID uuid.UUID) ([]models.InventoryHistory, error) {
	return s.repo.GetHistory(ctx, productID)
}
