// internal/catalog/file.go
package catalog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/andresuchdata/autopo-insights/internal/domain"
)

var csvColumns = []string{"id", "name", "sku", "quantity", "min_stock_level", "cost", "price", "category", "category_id"}

// FileSource reads a snapshot from a CSV or JSON file. JSON is chosen by the
// .json extension; everything else is parsed as CSV with a header row.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Describe() string { return "file:" + s.Path }

func (s *FileSource) Load(ctx context.Context) ([]domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", s.Path, err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(s.Path), ".json") {
		return DecodeJSON(f)
	}
	return DecodeCSV(f)
}

// DecodeJSON reads a JSON array of items.
func DecodeJSON(r io.Reader) ([]domain.Item, error) {
	var items []domain.Item
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode catalog json: %w", err)
	}
	if items == nil {
		items = []domain.Item{}
	}
	return items, nil
}

// DecodeCSV reads items from CSV. Columns are matched by header name; an
// empty quantity or min_stock_level cell leaves the field missing.
func DecodeCSV(r io.Reader) ([]domain.Item, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []domain.Item{}, nil
		}
		return nil, fmt.Errorf("read catalog header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}
	if _, ok := index["id"]; !ok {
		return nil, fmt.Errorf("catalog header is missing the id column (want %s)", strings.Join(csvColumns, ","))
	}

	items := make([]domain.Item, 0)
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read catalog line %d: %w", line, err)
		}

		cell := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		item := domain.Item{
			ID:         cell("id"),
			Name:       cell("name"),
			SKU:        cell("sku"),
			Category:   cell("category"),
			CategoryID: cell("category_id"),
		}
		if item.ID == "" && item.Name == "" {
			continue // blank row
		}

		if item.Quantity, err = parseOptionalInt(cell("quantity")); err != nil {
			return nil, fmt.Errorf("catalog line %d: quantity: %w", line, err)
		}
		if item.MinStockLevel, err = parseOptionalInt(cell("min_stock_level")); err != nil {
			return nil, fmt.Errorf("catalog line %d: min_stock_level: %w", line, err)
		}
		if item.Cost, err = parseMoney(cell("cost")); err != nil {
			return nil, fmt.Errorf("catalog line %d: cost: %w", line, err)
		}
		if item.Price, err = parseMoney(cell("price")); err != nil {
			return nil, fmt.Errorf("catalog line %d: price: %w", line, err)
		}

		items = append(items, item)
	}

	return items, nil
}

func parseOptionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		// spreadsheets export whole numbers as 12.0
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsNaN(f) || math.Abs(f) > math.MaxInt32 || f != math.Trunc(f) {
			return nil, fmt.Errorf("invalid integer %q", s)
		}
		v = int(f)
	}
	return &v, nil
}

func parseMoney(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}
