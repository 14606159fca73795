package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ErrNoFile is returned when an import is requested without an input file
var ErrNoFile = errors.New("no file supplied")

// Importer streams an uploaded CSV/XLSX file through normalization, image
// resolution and the dedup gate, inserting rows one at a time in file order.
type Importer struct {
	repo   repository.CatalogRepositoryInterface
	images *ImageResolver
	log    *logrus.Logger
}

func NewImporter(repo repository.CatalogRepositoryInterface, images *ImageResolver, log *logrus.Logger) *Importer {
	return &Importer{repo: repo, images: images, log: log}
}

// Import processes the temporary upload at path and returns the batch
// summary. The file is removed on every exit path, including parse failures.
// Per-row defects never abort the batch; a malformed stream does.
func (s *Importer) Import(ctx context.Context, path string) (*models.ImportResult, error) {
	if path == "" {
		return nil, ErrNoFile
	}

	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.log.WithError(err).WithField("path", path).Warn("Failed to remove import file")
		}
	}()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoFile, err)
	}
	defer file.Close()

	var rows []map[string]string
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		rows, err = parseXLSX(file)
	} else {
		rows, err = parseCSV(file)
	}
	if err != nil {
		return nil, err
	}

	result := &models.ImportResult{
		Skipped: make([]string, 0),
		Errors:  make([]models.ImportRowError, 0),
	}

	// Names committed so far in this batch. Later rows must observe earlier
	// inserts without relying on storage read-your-own-write guarantees.
	committed := make(map[string]struct{})

	for _, row := range rows {
		rowNum, _ := strconv.Atoi(row["_row"])

		candidate, ok := s.normalizeRow(row)
		if !ok {
			// Structurally incomplete rows are invisible to the result counts.
			s.log.WithField("row", rowNum).Debug("Dropped row with missing or invalid required fields")
			continue
		}

		candidate.Image = s.images.Resolve(ctx, row["image"])

		if _, seen := committed[candidate.Name]; seen {
			result.Skipped = append(result.Skipped, candidate.Name)
			result.SkippedCount++
			continue
		}

		existing, err := s.repo.GetProductByName(ctx, candidate.Name)
		if err != nil {
			result.Errors = append(result.Errors, models.ImportRowError{
				Row:     rowNum,
				Column:  "name",
				Code:    "DB_ERROR",
				Message: fmt.Sprintf("Failed to check for existing product: %s", err.Error()),
			})
			continue
		}
		if existing != nil {
			result.Skipped = append(result.Skipped, candidate.Name)
			result.SkippedCount++
			continue
		}

		if err := s.repo.CreateProduct(ctx, candidate); err != nil {
			code := "CREATE_FAILED"
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Race with a concurrent importer: the gate passed, the
				// storage constraint did not. A hard error, not a skip.
				code = "INSERT_CONFLICT"
			}
			result.Errors = append(result.Errors, models.ImportRowError{
				Row:     rowNum,
				Column:  "name",
				Code:    code,
				Message: err.Error(),
			})
			continue
		}

		committed[candidate.Name] = struct{}{}
		result.Added++
	}

	s.log.WithFields(logrus.Fields{
		"added":   result.Added,
		"skipped": result.SkippedCount,
		"errors":  len(result.Errors),
	}).Info("Import completed")

	return result, nil
}

// normalizeRow builds a candidate product from one raw record. A record is
// accepted only if name, unit, category, brand and stock are all present and
// stock parses to a non-negative quantity.
func (s *Importer) normalizeRow(row map[string]string) (*models.Product, bool) {
	name := row["name"]
	unit := row["unit"]
	category := row["category"]
	brand := row["brand"]
	stockRaw := row["stock"]

	if name == "" || unit == "" || category == "" || brand == "" || stockRaw == "" {
		return nil, false
	}

	stock, err := strconv.Atoi(stockRaw)
	if err != nil || stock < 0 {
		return nil, false
	}

	status := models.DeriveStatus(stock)
	if row["status"] != "" {
		status = models.ProductStatus(row["status"])
	}

	return &models.Product{
		Name:     name,
		Unit:     unit,
		Category: category,
		Brand:    brand,
		Stock:    stock,
		Status:   status,
	}, true
}

// parseCSV parses a CSV stream into rows keyed by the header columns
func parseCSV(file io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
	}

	var rows []map[string]string
	lineNum := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", lineNum+1, err)
		}

		row := make(map[string]string)
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(lineNum + 1) // Track row number for error reporting
		rows = append(rows, row)
		lineNum++
	}

	return rows, nil
}

// parseXLSX parses the first sheet of an Excel file into rows
func parseXLSX(file io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	excelRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	headers := excelRows[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
	}

	var rows []map[string]string
	for rowIdx, excelRow := range excelRows[1:] {
		row := make(map[string]string)
		for i, value := range excelRow {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}
		row["_row"] = strconv.Itoa(rowIdx + 2) // 1-indexed, +1 for header
		rows = append(rows, row)
	}

	return rows, nil
}
