package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRepo covers the repository calls the import and export paths make.
// Unconfigured methods fall through to the embedded nil interface and panic,
// which is the failure we want for an unexpected call.
type stubRepo struct {
	repository.CatalogRepositoryInterface
	byName  func(name string) (*models.Product, error)
	all     func() ([]models.Product, error)
	created []*models.Product
}

func (s *stubRepo) GetProductByName(ctx context.Context, name string) (*models.Product, error) {
	if s.byName != nil {
		return s.byName(name)
	}
	return nil, nil
}

func (s *stubRepo) CreateProduct(ctx context.Context, product *models.Product) error {
	s.created = append(s.created, product)
	return nil
}

func (s *stubRepo) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	if s.all != nil {
		return s.all()
	}
	return []models.Product{}, nil
}

func newImportRouter(t *testing.T, repo repository.CatalogRepositoryInterface) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	importer := services.NewImporter(repo, services.NewImageResolver(nil, log), log)
	exporter := services.NewExporter(repo)
	h := NewImportHandler(importer, exporter, t.TempDir(), log)

	router := gin.New()
	router.POST("/api/v1/products/import", h.ImportProducts)
	router.GET("/api/v1/products/export", h.ExportProducts)
	router.GET("/api/v1/products/import/template", h.GetImportTemplate)
	return router
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func decodeError(t *testing.T, body *bytes.Buffer) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(body.Bytes(), &resp))
	return resp
}

func TestImportEndpointRequiresFile(t *testing.T) {
	router := newImportRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/import", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FILE_REQUIRED", decodeError(t, rec.Body).Error.Code)
}

func TestImportEndpointRejectsUnknownExtension(t *testing.T) {
	router := newImportRouter(t, &stubRepo{})

	body, contentType := multipartUpload(t, "products.txt", "not a spreadsheet")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_FORMAT", decodeError(t, rec.Body).Error.Code)
}

func TestImportEndpointImportsCSV(t *testing.T) {
	repo := &stubRepo{}
	router := newImportRouter(t, repo)

	csvContent := "name,unit,category,brand,stock,status,image\n" +
		"Rice,kg,Grains,Acme,40,,\n" +
		"Beans,kg,Grains,Acme,0,,\n"
	body, contentType := multipartUpload(t, "products.csv", csvContent)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/import", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Added)
	assert.Equal(t, 0, result.SkippedCount)
	require.Len(t, repo.created, 2)
	assert.Equal(t, "Rice", repo.created[0].Name)
}

func TestExportEndpointEmptyCatalog(t *testing.T) {
	router := newImportRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/export", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NO_PRODUCTS", decodeError(t, rec.Body).Error.Code)
}

func TestExportEndpointCSV(t *testing.T) {
	repo := &stubRepo{
		all: func() ([]models.Product, error) {
			return []models.Product{
				{Name: "Rice", Unit: "kg", Category: "Grains", Brand: "Acme", Stock: 40, Status: models.ProductStatusInStock},
			}, nil
		},
	}
	router := newImportRouter(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/export?format=csv", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "products.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "name,unit,category,brand,stock,status,image", lines[0])
	assert.Equal(t, "Rice,kg,Grains,Acme,40,In Stock,", lines[1])
}

func TestTemplateEndpointJSON(t *testing.T) {
	router := newImportRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/import/template", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success  bool                  `json:"success"`
		Template models.ImportTemplate `json:"template"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Template.Columns, 7)
	assert.Equal(t, "name", resp.Template.Columns[0].Name)
}

func TestTemplateEndpointCSV(t *testing.T) {
	router := newImportRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/import/template?format=csv", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "name,unit,category,brand,stock,status,image",
		strings.TrimSpace(rec.Body.String()))
}
