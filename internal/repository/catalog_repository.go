package repository

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Cache TTL constants
const (
	ProductCacheTTL     = 5 * time.Minute // Single product cache
	ProductListCacheTTL = 2 * time.Minute // Product list cache (shorter due to frequent changes)
)

// ErrProductNotFound is returned when a product lookup by ID finds nothing
var ErrProductNotFound = errors.New("product not found")

// CatalogRepositoryInterface is the catalog capability consumed by the
// service layer: exact-name lookup and insert for the import dedup gate,
// and the transactional update+history write for the audit trail.
type CatalogRepositoryInterface interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	GetProductByName(ctx context.Context, name string) (*models.Product, error)
	GetProducts(ctx context.Context, req *models.ListProductsRequest) ([]models.Product, int64, error)
	GetAllProducts(ctx context.Context) ([]models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product, entry *models.InventoryHistory) error
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	GetHistory(ctx context.Context, productID uuid.UUID) ([]models.InventoryHistory, error)
}

type CatalogRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

var _ CatalogRepositoryInterface = (*CatalogRepository)(nil)

func NewCatalogRepository(db *gorm.DB, redisClient *redis.Client) *CatalogRepository {
	return &CatalogRepository{
		db:    db,
		redis: redisClient,
	}
}

// generateListCacheKey creates a deterministic cache key for list queries
func generateListCacheKey(req *models.ListProductsRequest) string {
	data, _ := json.Marshal(req)
	hash := md5.Sum(data)
	return fmt.Sprintf("catalog:products:list:%s", hex.EncodeToString(hash[:]))
}

func productCacheKey(productID uuid.UUID) string {
	return fmt.Sprintf("catalog:products:product:%s", productID.String())
}

// invalidateProductCaches drops the single-product entry and all list entries
func (r *CatalogRepository) invalidateProductCaches(ctx context.Context, productID uuid.UUID) {
	if r.redis == nil {
		return
	}
	_ = r.redis.Del(ctx, productCacheKey(productID)).Err()
	r.invalidateListCaches(ctx)
}

// invalidateListCaches drops all cached list queries
func (r *CatalogRepository) invalidateListCaches(ctx context.Context) {
	if r.redis == nil {
		return
	}
	iter := r.redis.Scan(ctx, 0, "catalog:products:list:*", 100).Iterator()
	for iter.Next(ctx) {
		_ = r.redis.Del(ctx, iter.Val()).Err()
	}
}

// CreateProduct inserts a new product. A storage-level uniqueness violation
// on the name surfaces as gorm.ErrDuplicatedKey.
func (r *CatalogRepository) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Create(product).Error
	if err == nil {
		r.invalidateListCaches(ctx)
	}
	return err
}

// GetProductByID retrieves a product by ID with caching
func (r *CatalogRepository) GetProductByID(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	cacheKey := productCacheKey(productID)

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var product models.Product
			if err := json.Unmarshal([]byte(val), &product); err == nil {
				return &product, nil
			}
		}
	}

	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", productID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(product); err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductCacheTTL)
		}
	}

	return &product, nil
}

// GetProductByName performs a case-sensitive exact-match lookup. It returns
// (nil, nil) when no product carries the name; the dedup gate and the
// name-uniqueness checks depend on this byte-exact comparison, which is
// deliberately stricter than the substring filter in GetProducts.
func (r *CatalogRepository) GetProductByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetProducts retrieves products with an optional case-insensitive substring
// name filter, sorting and pagination
func (r *CatalogRepository) GetProducts(ctx context.Context, req *models.ListProductsRequest) ([]models.Product, int64, error) {
	cacheKey := generateListCacheKey(req)

	type cachedList struct {
		Products []models.Product `json:"products"`
		Total    int64            `json:"total"`
	}

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var cached cachedList
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached.Products, cached.Total, nil
			}
		}
	}

	var products []models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{})
	if req.Name != "" {
		query = query.Where("name ILIKE ?", "%"+req.Name+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(sortClause(req.Sort))

	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(cachedList{Products: products, Total: total}); err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductListCacheTTL)
		}
	}

	return products, total, nil
}

// sortClause converts a comma-separated sort expression ("name", "-stock")
// into an ORDER BY clause restricted to known columns.
func sortClause(sort string) string {
	allowed := map[string]bool{
		"name": true, "unit": true, "category": true, "brand": true,
		"stock": true, "status": true, "created_at": true, "updated_at": true,
	}

	var clauses []string
	for _, field := range strings.Split(sort, ",") {
		field = strings.TrimSpace(field)
		direction := "ASC"
		if strings.HasPrefix(field, "-") {
			field = field[1:]
			direction = "DESC"
		}
		if allowed[field] {
			clauses = append(clauses, field+" "+direction)
		}
	}
	if len(clauses) == 0 {
		return "name ASC"
	}
	return strings.Join(clauses, ", ")
}

// GetAllProducts returns the full catalog in name order, for export
func (r *CatalogRepository) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// UpdateProduct persists the product state and, when entry is non-nil, the
// stock-change history record in the same transaction. The history insert
// runs first so a failed audit write leaves the product untouched.
func (r *CatalogRepository) UpdateProduct(ctx context.Context, product *models.Product, entry *models.InventoryHistory) error {
	product.UpdatedAt = time.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if entry != nil {
			if err := tx.Create(entry).Error; err != nil {
				return fmt.Errorf("failed to record inventory history: %w", err)
			}
		}
		return tx.Save(product).Error
	})

	if err == nil {
		r.invalidateProductCaches(ctx, product.ID)
	}
	return err
}

// DeleteProduct removes a product; its history entries are retained
func (r *CatalogRepository) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", productID).Delete(&models.Product{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	r.invalidateProductCaches(ctx, productID)
	return nil
}

// GetHistory returns a product's stock-change records, newest first
func (r *CatalogRepository) GetHistory(ctx context.Context, productID uuid.UUID) ([]models.InventoryHistory, error) {
	var entries []models.InventoryHistory
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("date DESC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
