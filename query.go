package datascope

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/datascope/domain/model"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// QueryTableName is the table a page is loaded into by QueryPage
const QueryTableName = "page"

// quoteIdent quotes an SQLite identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QueryPage loads a page into an in-memory SQLite table named "page" and
// runs query against it. Columns inferred as numeric are stored as REAL,
// everything else as TEXT. Headers that differ only by case are renamed
// with a "_k" suffix, as SQLite compares identifiers case-insensitively.
// The result rows come back as a page so a filtered or aggregated subset
// can be charted like any other page.
func QueryPage(ctx context.Context, page *model.ParsedPage, query string) (*model.ParsedPage, error) {
	ec := NewErrorContext("query page", "")
	if page == nil || len(page.Headers) == 0 {
		return nil, ec.Error(ErrNoValidRows)
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, ec.Error(err)
	}
	defer db.Close()
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	metas := InferColumns(page.Rows, page.Headers)
	if err := loadPageTable(ctx, db, page, metas); err != nil {
		return nil, ec.WithDetails("load table").Error(err)
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, ec.WithDetails("execute query").Error(err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, ec.Error(err)
	}

	result := &model.ParsedPage{Headers: dedupeHeaders(names), Rows: []model.Record{}}
	values := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, ec.WithDetails("scan row").Error(err)
		}
		rec := make(model.Record, len(values))
		for i, v := range values {
			rec[i] = sqlValueToCell(v)
		}
		result.Rows = append(result.Rows, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, ec.Error(err)
	}
	return result, nil
}

// sqlColumnNames makes header names unique under SQLite's case-insensitive
// identifier comparison. A name that collides gets the first free "_k"
// suffix, so "Value,value" becomes "Value,value_1".
func sqlColumnNames(headers model.Header) []string {
	used := make(map[string]struct{}, len(headers))
	names := make([]string, len(headers))
	for i, h := range headers {
		name := h
		for k := 1; ; k++ {
			if _, ok := used[strings.ToLower(name)]; !ok {
				break
			}
			name = h + "_" + strconv.Itoa(k)
		}
		used[strings.ToLower(name)] = struct{}{}
		names[i] = name
	}
	return names
}

func loadPageTable(ctx context.Context, db *sql.DB, page *model.ParsedPage, metas []model.ColumnMeta) error {
	columns := make([]string, len(page.Headers))
	placeholders := make([]string, len(page.Headers))
	for i, h := range sqlColumnNames(page.Headers) {
		typ := "TEXT"
		if metas[i].IsNumeric {
			typ = "REAL"
		}
		columns[i] = quoteIdent(h) + " " + typ
		placeholders[i] = "?"
	}

	createQuery := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(QueryTableName), strings.Join(columns, ", "))
	if _, err := db.ExecContext(ctx, createQuery); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	insertQuery := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(QueryTableName), strings.Join(placeholders, ", "))
	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(page.Headers))
	for i, row := range page.Rows {
		for j := range args {
			args[j] = cellToSQLValue(row.Get(j), metas[j].IsNumeric)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func cellToSQLValue(cell model.CellValue, numeric bool) any {
	if cell.IsNull() {
		return nil
	}
	if numeric {
		if v, ok := cell.ToNumber(); ok {
			return v
		}
		if model.TrimSpace(cell.ToText()) == "" {
			return nil
		}
	}
	if cell.Kind() == model.CellBool {
		v, _ := cell.ToNumber()
		return v
	}
	return cell.ToText()
}

func sqlValueToCell(v any) model.CellValue {
	switch val := v.(type) {
	case nil:
		return model.NullCell()
	case int64:
		return model.NumberCell(float64(val))
	case float64:
		return model.NumberCell(val)
	case bool:
		return model.BoolCell(val)
	case []byte:
		return model.TextCell(string(val))
	case string:
		return model.TextCell(val)
	case time.Time:
		return model.TextCell(val.UTC().Format(time.RFC3339Nano))
	default:
		return model.TextCell(fmt.Sprint(val))
	}
}

// errQueryNotReadOnly is returned by QueryPageReadOnly for statements that
// modify the database.
var errQueryNotReadOnly = errors.New("datascope: only SELECT and WITH queries are allowed")

// QueryPageReadOnly is QueryPage restricted to SELECT and WITH statements.
func QueryPageReadOnly(ctx context.Context, page *model.ParsedPage, query string) (*model.ParsedPage, error) {
	head := strings.ToUpper(strings.TrimSpace(query))
	if !strings.HasPrefix(head, "SELECT") && !strings.HasPrefix(head, "WITH") {
		return nil, errQueryNotReadOnly
	}
	return QueryPage(ctx, page, query)
}
