package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budgetbook/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore mirrors the document into relational tables. Saves replace the
// whole document inside one transaction, keeping the store's semantics
// identical to the JSON file: last write wins, no partial state.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (r *SQLiteStore) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteStore) Load(ctx context.Context) (*core.State, error) {
	s := core.NewState()

	var savedAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT version, last_selected_month, last_selected_year, last_selected_color, saved_at FROM meta WHERE id = 1`,
	).Scan(&s.Version, &s.LastSelectedMonth, &s.LastSelectedYear, &s.LastSelectedColor, &savedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load meta: %w", err)
	}

	if err := r.loadTransactions(ctx, s); err != nil {
		return nil, err
	}
	if err := r.loadCheckItems(ctx, s); err != nil {
		return nil, err
	}
	if err := r.loadMappings(ctx, s); err != nil {
		return nil, err
	}
	if err := r.loadLists(ctx, s); err != nil {
		return nil, err
	}
	if err := r.loadBalancesAndNotes(ctx, s); err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "document loaded from sqlite",
		"transactions", len(s.Transactions),
		"version", s.Version)
	return s, nil
}

func (r *SQLiteStore) loadTransactions(ctx context.Context, s *core.State) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, month, year, item, amount, type, category, note, payment_method, check_number, payee_name, color
		 FROM transactions ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tx core.Transaction
		var method, checkNumber, payeeName string
		if err := rows.Scan(&tx.ID, &tx.Month, &tx.Year, &tx.Item, &tx.Amount, &tx.Type,
			&tx.Category, &tx.Note, &method, &checkNumber, &payeeName, &tx.Color); err != nil {
			return fmt.Errorf("scan transaction: %w", err)
		}
		tx.PaymentMethod = core.PaymentMethod(method)
		if tx.PaymentMethod == core.PayCheck || checkNumber != "" || payeeName != "" {
			tx.CheckDetails = &core.CheckDetails{CheckNumber: checkNumber, PayeeName: payeeName}
		}
		s.Transactions = append(s.Transactions, tx)
	}
	return rows.Err()
}

func (r *SQLiteStore) loadCheckItems(ctx context.Context, s *core.State) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, item, amount, month, year, note, check_number, payee_name, color
		 FROM check_items ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("load check items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c core.CheckItem
		if err := rows.Scan(&c.ID, &c.Item, &c.Amount, &c.Month, &c.Year,
			&c.Note, &c.CheckNumber, &c.PayeeName, &c.Color); err != nil {
			return fmt.Errorf("scan check item: %w", err)
		}
		s.CheckItems = append(s.CheckItems, c)
	}
	return rows.Err()
}

func (r *SQLiteStore) loadMappings(ctx context.Context, s *core.State) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT item, category, include_in_monthly FROM mappings ORDER BY position`)
	if err != nil {
		return fmt.Errorf("load mappings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m core.Mapping
		var include int
		if err := rows.Scan(&m.Item, &m.Category, &include); err != nil {
			return fmt.Errorf("scan mapping: %w", err)
		}
		m.IncludeInMonthlyExpenses = include != 0
		s.Mappings.Set(m)
	}
	return rows.Err()
}

func (r *SQLiteStore) loadLists(ctx context.Context, s *core.State) error {
	rows, err := r.db.QueryContext(ctx, `SELECT item FROM income_items ORDER BY position`)
	if err != nil {
		return fmt.Errorf("load income items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item string
		if err := rows.Scan(&item); err != nil {
			return fmt.Errorf("scan income item: %w", err)
		}
		s.IncomeItems = append(s.IncomeItems, item)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY position`)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan category: %w", err)
		}
		s.Categories = append(s.Categories, name)
	}
	return rows.Err()
}

func (r *SQLiteStore) loadBalancesAndNotes(ctx context.Context, s *core.State) error {
	rows, err := r.db.QueryContext(ctx, `SELECT year, month, amount, manual FROM opening_balances`)
	if err != nil {
		return fmt.Errorf("load opening balances: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p core.Period
		var amount float64
		var manual int
		if err := rows.Scan(&p.Year, &p.Month, &amount, &manual); err != nil {
			return fmt.Errorf("scan opening balance: %w", err)
		}
		s.OpeningBalances[p] = amount
		if manual != 0 {
			s.ManualOpening[p] = true
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.QueryContext(ctx, `SELECT year, month, note FROM monthly_notes`)
	if err != nil {
		return fmt.Errorf("load monthly notes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p core.Period
		var note string
		if err := rows.Scan(&p.Year, &p.Month, &note); err != nil {
			return fmt.Errorf("scan monthly note: %w", err)
		}
		s.MonthlyNotes[p] = note
	}
	return rows.Err()
}

func (r *SQLiteStore) Save(ctx context.Context, s *core.State) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"transactions", "check_items", "mappings", "income_items", "categories", "opening_balances", "monthly_notes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, t := range s.Transactions {
		var checkNumber, payeeName string
		if t.CheckDetails != nil {
			checkNumber = t.CheckDetails.CheckNumber
			payeeName = t.CheckDetails.PayeeName
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, month, year, item, amount, type, category, note, payment_method, check_number, payee_name, color)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.Month, t.Year, t.Item, t.Amount, string(t.Type), t.Category, t.Note,
			string(t.PaymentMethod), checkNumber, payeeName, t.Color); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}
	for _, c := range s.CheckItems {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO check_items (id, item, amount, month, year, note, check_number, payee_name, color)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Item, c.Amount, c.Month, c.Year, c.Note, c.CheckNumber, c.PayeeName, c.Color); err != nil {
			return fmt.Errorf("insert check item %s: %w", c.ID, err)
		}
	}
	for i, m := range s.Mappings.Entries() {
		include := 0
		if m.IncludeInMonthlyExpenses {
			include = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO mappings (item, position, category, include_in_monthly) VALUES (?, ?, ?, ?)`,
			m.Item, i, m.Category, include); err != nil {
			return fmt.Errorf("insert mapping %q: %w", m.Item, err)
		}
	}
	for i, item := range s.IncomeItems {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO income_items (item, position) VALUES (?, ?)`, item, i); err != nil {
			return fmt.Errorf("insert income item %q: %w", item, err)
		}
	}
	for i, name := range s.Categories {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO categories (name, position) VALUES (?, ?)`, name, i); err != nil {
			return fmt.Errorf("insert category %q: %w", name, err)
		}
	}
	for p, amount := range s.OpeningBalances {
		manual := 0
		if s.ManualOpening[p] {
			manual = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO opening_balances (year, month, amount, manual) VALUES (?, ?, ?, ?)`,
			p.Year, p.Month, amount, manual); err != nil {
			return fmt.Errorf("insert opening balance %s: %w", p, err)
		}
	}
	for p, note := range s.MonthlyNotes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO monthly_notes (year, month, note) VALUES (?, ?, ?)`,
			p.Year, p.Month, note); err != nil {
			return fmt.Errorf("insert monthly note %s: %w", p, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (id, version, last_selected_month, last_selected_year, last_selected_color, saved_at)
		 VALUES (1, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   version = excluded.version,
		   last_selected_month = excluded.last_selected_month,
		   last_selected_year = excluded.last_selected_year,
		   last_selected_color = excluded.last_selected_color,
		   saved_at = excluded.saved_at`,
		s.Version, s.LastSelectedMonth, s.LastSelectedYear, s.LastSelectedColor,
		time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("upsert meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}
