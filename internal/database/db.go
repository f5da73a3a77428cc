package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jgoulah/powerpal/pkg/models"
	_ "modernc.org/sqlite"
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection serializes writers
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		units_start REAL NOT NULL,
		units_end REAL NOT NULL,
		usage REAL NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_usage_log_date ON usage_log(date);

	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		generated_at TEXT NOT NULL,
		average_usage REAL NOT NULL,
		balance REAL NOT NULL,
		days_left REAL NOT NULL,
		forecast REAL NOT NULL,
		delivered INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_reports_delivered ON reports(delivered);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Append validates and inserts a usage record
func (db *DB) Append(record models.UsageRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	return insertRecord(db.conn, record)
}

func insertRecord(e execer, record models.UsageRecord) error {
	query := `
	INSERT INTO usage_log (date, units_start, units_end, usage, created_at)
	VALUES (?, ?, ?, ?, ?)
	`

	createdAt := time.Now().UTC().Format(time.RFC3339)
	_, err := e.Exec(query, record.Date.Format(models.DateLayout), record.UnitsStart, record.UnitsEnd, record.Usage, createdAt)
	if err != nil {
		return fmt.Errorf("%w: inserting usage record: %v", models.ErrIO, err)
	}

	return nil
}

// LoadAll retrieves every usage record in insertion order
func (db *DB) LoadAll() ([]models.UsageRecord, error) {
	query := `
	SELECT date, units_start, units_end, usage
	FROM usage_log
	ORDER BY id ASC
	`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying usage log: %v", models.ErrIO, err)
	}
	defer rows.Close()

	results := []models.UsageRecord{}
	for rows.Next() {
		var record models.UsageRecord
		var dateStr string

		if err := rows.Scan(&dateStr, &record.UnitsStart, &record.UnitsEnd, &record.Usage); err != nil {
			return nil, fmt.Errorf("%w: scanning row: %v", models.ErrIO, err)
		}

		record.Date, err = models.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing date: %v", models.ErrIO, err)
		}

		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading usage log: %v", models.ErrIO, err)
	}
	return results, nil
}

// Import copies records into the usage log in one transaction, keeping their order.
// Either every record is imported or none is.
func (db *DB) Import(records []models.UsageRecord) (int, error) {
	for i, record := range records {
		if err := record.Validate(); err != nil {
			return 0, fmt.Errorf("importing record %d: %w", i+1, err)
		}
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("%w: beginning import: %v", models.ErrIO, err)
	}
	defer tx.Rollback()

	for i, record := range records {
		if err := insertRecord(tx, record); err != nil {
			return 0, fmt.Errorf("importing record %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: committing import: %v", models.ErrIO, err)
	}
	return len(records), nil
}

// StoredReport is a report kept in the delivery history
type StoredReport struct {
	ID        string
	Report    models.Report
	Delivered bool
}

// SaveReport records a generated report and returns its ID
func (db *DB) SaveReport(report models.Report) (string, error) {
	query := `
	INSERT INTO reports (id, generated_at, average_usage, balance, days_left, forecast)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	id := uuid.NewString()
	_, err := db.conn.Exec(query, id, report.GeneratedAt.UTC().Format(time.RFC3339),
		report.Summary.AverageUsage, report.Summary.Balance, report.Summary.DaysLeft, report.Forecast)
	if err != nil {
		return "", fmt.Errorf("inserting report: %w", err)
	}

	return id, nil
}

// ListReports retrieves the most recent reports, newest first
func (db *DB) ListReports(limit int) ([]StoredReport, error) {
	query := `
	SELECT id, generated_at, average_usage, balance, days_left, forecast, delivered
	FROM reports
	ORDER BY generated_at DESC
	LIMIT ?
	`

	if limit <= 0 {
		limit = -1
	}

	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var results []StoredReport
	for rows.Next() {
		var r StoredReport
		var generatedAt string
		var delivered int

		if err := rows.Scan(&r.ID, &generatedAt, &r.Report.Summary.AverageUsage, &r.Report.Summary.Balance,
			&r.Report.Summary.DaysLeft, &r.Report.Forecast, &delivered); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		r.Report.GeneratedAt, err = time.Parse(time.RFC3339, generatedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing generated_at: %w", err)
		}
		r.Delivered = delivered == 1

		results = append(results, r)
	}

	return results, rows.Err()
}

// MarkDelivered marks a report as sent
func (db *DB) MarkDelivered(id string) error {
	query := `UPDATE reports SET delivered = 1 WHERE id = ?`
	_, err := db.conn.Exec(query, id)
	if err != nil {
		return fmt.Errorf("marking report as delivered: %w", err)
	}
	return nil
}
