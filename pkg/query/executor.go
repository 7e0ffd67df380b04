package query

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ai-datachat-be/pkg/dataset"

	_ "modernc.org/sqlite"
)

// NoOutputMessage is returned when a statement runs cleanly but produces no
// rows.
const NoOutputMessage = "Query executed successfully (no output)"

// maxResultRows caps unbounded SELECTs so one query cannot flood a reply.
const maxResultRows = 1000

var (
	lineCommentRegex  = regexp.MustCompile(`--[^\n]*`)
	blockCommentRegex = regexp.MustCompile(`/\*[\s\S]*?\*/`)
)

// Executor runs read-only statements against a throwaway copy of the
// dataset. Every call builds a fresh in-memory database, so no statement can
// observe or leak state from another call, and the canonical dataset is never
// touched.
//
// Execute never returns an error: any failure, including a panic inside the
// driver, is folded into the reply string so the conversation keeps going.
type Executor struct {
	ds      *dataset.Dataset
	timeout time.Duration
	logger  *log.Logger
}

// NewExecutor creates an executor over the given dataset. A non-positive
// timeout disables the per-statement deadline.
func NewExecutor(ds *dataset.Dataset, timeout time.Duration, logger *log.Logger) *Executor {
	return &Executor{
		ds:      ds,
		timeout: timeout,
		logger:  logger,
	}
}

// Execute validates and runs one statement, returning the formatted result.
func (e *Executor) Execute(ctx context.Context, statement string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("[EXECUTOR] Recovered panic: %v", r)
			result = fmt.Sprintf("Execution error: %v", r)
		}
	}()

	clean, err := sanitizeStatement(statement)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	db, err := e.openScratchDatabase(ctx)
	if err != nil {
		e.logger.Printf("[EXECUTOR] Scratch database setup failed: %v", err)
		return fmt.Sprintf("Error: %v", err)
	}
	defer db.Close()

	guarded := clean
	if !strings.Contains(strings.ToUpper(clean), "LIMIT") {
		guarded = fmt.Sprintf("%s LIMIT %d", clean, maxResultRows)
	}

	rows, err := db.QueryContext(ctx, guarded)
	if err != nil {
		e.logger.Printf("[EXECUTOR] Statement failed: %v", err)
		return fmt.Sprintf("Error: %v", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	var records [][]string
	for rows.Next() {
		values := make([]interface{}, len(cols))
		pointers := make([]interface{}, len(cols))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return fmt.Sprintf("Error: %v", err)
		}

		record := make([]string, len(cols))
		for i, v := range values {
			record[i] = formatValue(v)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	return formatResult(cols, records)
}

// sanitizeStatement strips comments and trailing semicolons and rejects
// anything that is not a single read-only statement.
func sanitizeStatement(statement string) (string, error) {
	clean := lineCommentRegex.ReplaceAllString(statement, "")
	clean = blockCommentRegex.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(clean)
	clean = strings.TrimRight(clean, "; \t\n\r")

	if clean == "" {
		return "", fmt.Errorf("empty statement")
	}
	if strings.Contains(clean, ";") {
		return "", fmt.Errorf("multiple statements are not allowed")
	}

	upper := strings.ToUpper(clean)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return "", fmt.Errorf("only SELECT statements are allowed")
	}

	return clean, nil
}

// openScratchDatabase builds an in-memory database holding one table named
// df, loaded from an isolated copy of the dataset rows.
func (e *Executor) openScratchDatabase(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open scratch database: %w", err)
	}
	// Every pooled connection would get its own empty :memory: database, so
	// pin the pool to the one connection that holds the loaded table.
	db.SetMaxOpenConns(1)

	columns := e.ds.Columns()
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = fmt.Sprintf("%s %s", quoteIdent(col.Name), sqlType(col.Type))
	}
	createStmt := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent("df"), strings.Join(defs, ", "))
	if _, err := db.ExecContext(ctx, createStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("begin load: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	insertStmt := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent("df"), placeholders)
	stmt, err := tx.PrepareContext(ctx, insertStmt)
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, fmt.Errorf("prepare load: %w", err)
	}

	for _, row := range e.ds.Copy() {
		args := make([]interface{}, len(columns))
		for i, col := range columns {
			args[i] = convertValue(row[i], col.Type)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			stmt.Close()
			tx.Rollback()
			db.Close()
			return nil, fmt.Errorf("load row: %w", err)
		}
	}

	stmt.Close()
	if err := tx.Commit(); err != nil {
		db.Close()
		return nil, fmt.Errorf("commit load: %w", err)
	}

	return db, nil
}

// convertValue maps a raw CSV cell to the driver value for its column type.
// Empty cells become NULL. Cells that no longer parse fall back to text.
func convertValue(raw string, colType dataset.ColumnType) interface{} {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}

	switch colType {
	case dataset.TypeInteger:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	case dataset.TypeReal:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return v
}

func sqlType(colType dataset.ColumnType) string {
	switch colType {
	case dataset.TypeInteger:
		return "INTEGER"
	case dataset.TypeReal:
		return "REAL"
	default:
		return "TEXT"
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatResult renders rows for the chat reply. A single cell collapses to
// its bare value, a single column becomes one value per line, anything wider
// becomes a tab-separated table with a header row.
func formatResult(cols []string, records [][]string) string {
	if len(records) == 0 {
		return NoOutputMessage
	}

	if len(cols) == 1 {
		if len(records) == 1 {
			return records[0][0]
		}
		lines := make([]string, len(records))
		for i, record := range records {
			lines[i] = record[0]
		}
		return strings.Join(lines, "\n")
	}

	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(cols, "\t"))
	for _, record := range records {
		lines = append(lines, strings.Join(record, "\t"))
	}
	return strings.Join(lines, "\n")
}
