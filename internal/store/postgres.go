package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/eugenenazirov/realestate-crm/internal/model"
)

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Table describes how an entity maps onto a PostgreSQL table. Columns[0] is
// the primary key and Values must return arguments in Columns order.
type Table[T model.Record] struct {
	Name    string
	Columns []string
	Values  func(T) []any
	Scan    func(Scanner) (T, error)
}

// PostgresRepository stores records of one entity type in PostgreSQL.
type PostgresRepository[T model.Record] struct {
	db    *sql.DB
	table Table[T]
	cols  string
}

// NewPostgresRepository binds a table descriptor to a connection pool.
func NewPostgresRepository[T model.Record](db *sql.DB, table Table[T]) *PostgresRepository[T] {
	return &PostgresRepository[T]{
		db:    db,
		table: table,
		cols:  strings.Join(table.Columns, ", "),
	}
}

func (p *PostgresRepository[T]) Find(ctx context.Context, q Query) ([]T, error) {
	q, err := q.normalize()
	if err != nil {
		return nil, err
	}
	where, args, err := p.where(q)
	if err != nil {
		return nil, err
	}
	if q.Field != "" && !validID(q.Value) {
		return []T{}, nil
	}

	args = append(args, q.Take, q.Skip)
	stmt := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY created_at, %s LIMIT $%d OFFSET $%d",
		p.cols, p.table.Name, where, p.table.Columns[0], len(args)-1, len(args))

	rows, err := p.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", p.table.Name, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		record, err := p.table.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", p.table.Name, err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (p *PostgresRepository[T]) Count(ctx context.Context, q Query) (int, error) {
	if _, err := q.normalize(); err != nil {
		return 0, err
	}
	where, args, err := p.where(q)
	if err != nil {
		return 0, err
	}
	if q.Field != "" && !validID(q.Value) {
		return 0, nil
	}

	var count int
	stmt := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", p.table.Name, where)
	if err := p.db.QueryRowContext(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", p.table.Name, err)
	}
	return count, nil
}

func (p *PostgresRepository[T]) Get(ctx context.Context, id string) (T, error) {
	if !validID(id) {
		var zero T
		return zero, ErrNotFound
	}
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", p.cols, p.table.Name, p.table.Columns[0])
	record, err := p.table.Scan(p.db.QueryRowContext(ctx, stmt, id))
	if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
		return record, ErrNotFound
	}
	if err != nil {
		return record, fmt.Errorf("get %s: %w", p.table.Name, err)
	}
	return record, nil
}

func (p *PostgresRepository[T]) Insert(ctx context.Context, record T) error {
	placeholders := make([]string, len(p.table.Columns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", p.table.Name, p.cols, strings.Join(placeholders, ", "))

	if _, err := p.db.ExecContext(ctx, stmt, p.table.Values(record)...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert %s: %w", p.table.Name, err)
	}
	return nil
}

func (p *PostgresRepository[T]) Update(ctx context.Context, record T) error {
	if !validID(record.RecordID()) {
		return ErrNotFound
	}
	assignments := make([]string, 0, len(p.table.Columns)-1)
	for i, col := range p.table.Columns[1:] {
		assignments = append(assignments, fmt.Sprintf("%s = $%d", col, i+2))
	}
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $1", p.table.Name, strings.Join(assignments, ", "), p.table.Columns[0])

	res, err := p.db.ExecContext(ctx, stmt, p.table.Values(record)...)
	if isInvalidText(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", p.table.Name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", p.table.Name, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresRepository[T]) Delete(ctx context.Context, id string) (T, error) {
	if !validID(id) {
		var zero T
		return zero, ErrNotFound
	}
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = $1 RETURNING %s", p.table.Name, p.table.Columns[0], p.cols)
	record, err := p.table.Scan(p.db.QueryRowContext(ctx, stmt, id))
	if errors.Is(err, sql.ErrNoRows) || isInvalidText(err) {
		return record, ErrNotFound
	}
	if err != nil {
		return record, fmt.Errorf("delete %s: %w", p.table.Name, err)
	}
	return record, nil
}

func (p *PostgresRepository[T]) ClearRef(ctx context.Context, column, value string) ([]string, error) {
	if column == p.table.Columns[0] || !slices.Contains(p.table.Columns, column) {
		return nil, fmt.Errorf("%w: unknown relation column %q", ErrInvalidQuery, column)
	}
	if !validID(value) {
		return nil, nil
	}

	stmt := fmt.Sprintf("UPDATE %s SET %s = NULL WHERE %s = $1 RETURNING %s",
		p.table.Name, column, column, p.table.Columns[0])
	rows, err := p.db.QueryContext(ctx, stmt, value)
	if err != nil {
		return nil, fmt.Errorf("clear %s.%s: %w", p.table.Name, column, err)
	}
	defer rows.Close()

	var changed []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("clear %s.%s: %w", p.table.Name, column, err)
		}
		changed = append(changed, id)
	}
	return changed, rows.Err()
}

func (p *PostgresRepository[T]) where(q Query) (string, []any, error) {
	if q.Field == "" {
		return "", nil, nil
	}
	if !slices.Contains(p.table.Columns, q.Field) {
		return "", nil, fmt.Errorf("%w: unknown column %q", ErrInvalidQuery, q.Field)
	}
	return fmt.Sprintf(" WHERE %s = $1", q.Field), []any{q.Value}, nil
}

// validID reports whether id can be compared against a UUID column.
// Anything else would fail in PostgreSQL with invalid_text_representation.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

func isInvalidText(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation
}
