package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"github.com/xuri/excelize/v2"
)

// ErrNoProducts is returned when an export is requested on an empty catalog
var ErrNoProducts = errors.New("no products found")

// exportColumns is the canonical interchange field order
var exportColumns = []string{"name", "unit", "category", "brand", "stock", "status", "image"}

// Exporter serializes the full catalog for bulk interchange
type Exporter struct {
	repo repository.CatalogRepositoryInterface
}

func NewExporter(repo repository.CatalogRepositoryInterface) *Exporter {
	return &Exporter{repo: repo}
}

// ExportCSV writes all products as CSV. An empty catalog yields
// ErrNoProducts rather than an empty file.
func (s *Exporter) ExportCSV(ctx context.Context, w io.Writer) error {
	products, err := s.repo.GetAllProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	if len(products) == 0 {
		return ErrNoProducts
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportColumns); err != nil {
		return err
	}
	for _, p := range products {
		if err := writer.Write(exportRecord(&p)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportXLSX writes all products as a single-sheet workbook
func (s *Exporter) ExportXLSX(ctx context.Context, w io.Writer) error {
	products, err := s.repo.GetAllProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	if len(products) == 0 {
		return ErrNoProducts
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
	}
	for rowIdx, p := range products {
		record := exportRecord(&p)
		for colIdx, value := range record {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	return f.Write(w)
}

func exportRecord(p *models.Product) []string {
	return []string{
		p.Name,
		p.Unit,
		p.Category,
		p.Brand,
		strconv.Itoa(p.Stock),
		string(p.Status),
		p.Image,
	}
}
