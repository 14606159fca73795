package models

// ImportFormat represents the file format for import
type ImportFormat string

const (
	ImportFormatCSV  ImportFormat = "csv"
	ImportFormatXLSX ImportFormat = "xlsx"
)

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity  string                 `json:"entity"`
	Version string                 `json:"version"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// ImportRowError represents a hard failure for a specific row
type ImportRowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult summarizes one import batch. Skipped lists the names of
// rows rejected as duplicates, in file order; rows missing required
// fields are dropped and appear in neither count.
type ImportResult struct {
	Added        int              `json:"added"`
	SkippedCount int              `json:"skippedCount"`
	Skipped      []string         `json:"skipped"`
	Errors       []ImportRowError `json:"errors,omitempty"`
}

// ProductImportTemplate returns the import template for products
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "products",
		Version: "1.0",
		Columns: []ImportTemplateColumn{
			{Name: "name", Description: "Product name, unique across the catalog", Required: true, Type: "string", Example: "Arabica Beans 1kg"},
			{Name: "unit", Description: "Unit of measure", Required: true, Type: "string", Example: "kg"},
			{Name: "category", Description: "Product category", Required: true, Type: "string", Example: "Coffee"},
			{Name: "brand", Description: "Product brand", Required: true, Type: "string", Example: "Acme"},
			{Name: "stock", Description: "Non-negative stock quantity", Required: true, Type: "number", Example: "25"},
			{Name: "status", Description: "In Stock / Out of Stock, derived from stock when omitted", Required: false, Type: "string", Example: "In Stock"},
			{Name: "image", Description: "Data URI, remote image URL, or opaque reference", Required: false, Type: "string", Example: "https://example.com/beans.jpg"},
		},
	}
}
