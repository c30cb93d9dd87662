// internal/catalog/postgres.go
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/andresuchdata/autopo-insights/internal/domain"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

type itemRow struct {
	ID            string          `db:"id"`
	Name          string          `db:"name"`
	SKU           sql.NullString  `db:"sku"`
	Quantity      sql.NullInt64   `db:"quantity"`
	MinStockLevel sql.NullInt64   `db:"min_stock_level"`
	Cost          sql.NullFloat64 `db:"cost"`
	Price         sql.NullFloat64 `db:"price"`
	Category      sql.NullString  `db:"category"`
	CategoryID    sql.NullString  `db:"category_id"`
}

func (r itemRow) toItem() domain.Item {
	item := domain.Item{
		ID:         r.ID,
		Name:       r.Name,
		SKU:        r.SKU.String,
		Cost:       r.Cost.Float64,
		Price:      r.Price.Float64,
		Category:   r.Category.String,
		CategoryID: r.CategoryID.String,
	}
	if r.Quantity.Valid {
		item.Quantity = domain.Int(int(r.Quantity.Int64))
	}
	if r.MinStockLevel.Valid {
		item.MinStockLevel = domain.Int(int(r.MinStockLevel.Int64))
	}
	return item
}

// PostgresSource reads the snapshot from a single inventory table.
type PostgresSource struct {
	db    *sqlx.DB
	table string
}

// OpenPostgres connects through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect catalog database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func NewPostgresSource(db *sqlx.DB, table string) (*PostgresSource, error) {
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	return &PostgresSource{db: db, table: table}, nil
}

// ValidateTable reports whether table is a plain or schema-qualified identifier.
func ValidateTable(table string) error {
	if !tableName.MatchString(table) {
		return fmt.Errorf("invalid catalog table name %q", table)
	}
	return nil
}

func (s *PostgresSource) Describe() string { return "postgres:" + s.table }

func (s *PostgresSource) query() string {
	return fmt.Sprintf(`
		SELECT
			id::text AS id,
			name,
			sku,
			quantity,
			min_stock_level,
			cost,
			price,
			category,
			category_id::text AS category_id
		FROM %s
		ORDER BY id
	`, s.table)
}

func (s *PostgresSource) Load(ctx context.Context) ([]domain.Item, error) {
	var rows []itemRow
	if err := s.db.SelectContext(ctx, &rows, s.query()); err != nil {
		return nil, fmt.Errorf("error loading catalog from %s: %w", s.table, err)
	}

	items := make([]domain.Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.toItem())
	}
	return items, nil
}
