package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"todolist/internal/logger"
	"todolist/internal/models/todo"
	repo "todolist/internal/repository"
)

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: failed to parse pool config", err)
		return nil, fmt.Errorf("parsing pool config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: failed to create pool", err)
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		logger.Error("Repository: ping failed", err)
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("Repository: connected to PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: closed PostgreSQL connections")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: ping failed", err)
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

const todoColumns = `id, title, assigne, due_date, time_tracked, status, priority, type, estimated_sp, actual_sp, created_at, updated_at`

func scanTodo(row pgx.Row) (*todo.Todo, error) {
	t := &todo.Todo{}
	var priority, todoType *string

	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Assignee,
		&t.DueDate,
		&t.TimeTracked,
		&t.Status,
		&priority,
		&todoType,
		&t.EstimatedSP,
		&t.ActualSP,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if priority != nil {
		p := todo.Priority(*priority)
		t.Priority = &p
	}
	if todoType != nil {
		tt := todo.TodoType(*todoType)
		t.Type = &tt
	}
	return t, nil
}

func (s *Storage) scanTodos(rows pgx.Rows) ([]*todo.Todo, error) {
	defer rows.Close()

	todos := []*todo.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			logger.Warn("Repository: row scan failed", zap.Error(err))
			continue
		}
		todos = append(todos, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: row iteration failed", err)
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return todos, nil
}

func nullable[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func (s *Storage) Create(ctx context.Context, t *todo.Todo) error {
	start := time.Now()

	query := `INSERT INTO todos
				(title, assigne, due_date, time_tracked, status, priority, type, estimated_sp, actual_sp)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				RETURNING id, created_at, updated_at`

	err := s.pool.QueryRow(ctx, query,
		t.Title,
		t.Assignee,
		t.DueDate,
		t.TimeTracked,
		t.Status,
		nullable(t.Priority),
		nullable(t.Type),
		t.EstimatedSP,
		t.ActualSP,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)

	if err != nil {
		logger.Error("Repository: insert failed", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("inserting todo: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: slow query", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*todo.Todo, error) {
	start := time.Now()

	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`

	t, err := scanTodo(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: select failed", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("selecting todo: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: slow query", zap.Duration("ms", time.Since(start)))
	}
	return t, nil
}

// sortColumns is the allow-list shared with the service layer; anything
// else falls back to id to keep the ORDER BY clause injection-free.
var sortColumns = map[string]string{
	"id":           "id",
	"title":        "title",
	"due_date":     "due_date",
	"status":       "status",
	"priority":     "priority",
	"type":         "type",
	"estimated_sp": "estimated_sp",
	"actual_sp":    "actual_sp",
}

func (s *Storage) List(ctx context.Context, search, sortBy, direction string) ([]*todo.Todo, error) {
	start := time.Now()

	column, ok := sortColumns[sortBy]
	if !ok {
		column = "id"
	}
	dir := "DESC"
	if strings.EqualFold(direction, "asc") {
		dir = "ASC"
	}

	query := `SELECT ` + todoColumns + ` FROM todos`
	args := []any{}
	if search != "" {
		query += ` WHERE title ILIKE '%' || $1 || '%'`
		args = append(args, search)
	}
	query += fmt.Sprintf(` ORDER BY %s %s`, column, dir)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: select failed", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("selecting todos: %w", err)
	}

	todos, err := s.scanTodos(rows)
	if err != nil {
		return nil, err
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: slow query", zap.Duration("ms", time.Since(start)))
	}
	return todos, nil
}

func (s *Storage) Update(ctx context.Context, t *todo.Todo) error {
	start := time.Now()

	query := `UPDATE todos
			SET title = $1,
				assigne = $2,
				due_date = $3,
				time_tracked = $4,
				status = $5,
				priority = $6,
				type = $7,
				estimated_sp = $8,
				actual_sp = $9,
				updated_at = NOW()
			WHERE id = $10
			RETURNING updated_at`

	err := s.pool.QueryRow(ctx, query,
		t.Title,
		t.Assignee,
		t.DueDate,
		t.TimeTracked,
		t.Status,
		nullable(t.Priority),
		nullable(t.Type),
		t.EstimatedSP,
		t.ActualSP,
		t.ID,
	).Scan(&t.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repo.ErrNotFound
		}
		logger.Error("Repository: update failed", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("updating todo: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: slow query", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, id int64) (*todo.Todo, error) {
	start := time.Now()

	query := `DELETE FROM todos WHERE id = $1 RETURNING ` + todoColumns

	t, err := scanTodo(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: delete failed", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("deleting todo: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: slow query", zap.Duration("ms", time.Since(start)))
	}
	return t, nil
}

func (s *Storage) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	start := time.Now()

	query := `DELETE FROM todos WHERE id = ANY($1)`

	tag, err := s.pool.Exec(ctx, query, ids)
	if err != nil {
		logger.Error("Repository: bulk delete failed", err, zap.Duration("ms", time.Since(start)))
		return 0, fmt.Errorf("bulk deleting todos: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: slow query", zap.Duration("ms", time.Since(start)))
	}
	return tag.RowsAffected(), nil
}

func (s *Storage) ListFiltered(ctx context.Context, f todo.Filter) ([]*todo.Todo, error) {
	start := time.Now()

	query := `SELECT ` + todoColumns + ` FROM todos`
	where := []string{}
	args := []any{}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Title != "" {
		where = append(where, `title ILIKE '%' || `+arg(f.Title)+` || '%'`)
	}

	if terms := f.AssigneeTerms(); len(terms) > 0 {
		ors := make([]string, len(terms))
		for i, term := range terms {
			ors[i] = `assigne ILIKE '%' || ` + arg(term) + ` || '%'`
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	if f.HasDateRange() {
		where = append(where, `due_date >= `+arg(*f.Start), `due_date <= `+arg(*f.End))
	}

	if f.HasTimeRange() {
		where = append(where, `time_tracked >= `+arg(*f.MinTime), `time_tracked <= `+arg(*f.MaxTime))
	}

	if statuses := f.Statuses(); len(statuses) > 0 {
		where = append(where, `status = ANY(`+arg(statuses)+`)`)
	}

	if priorities := f.Priorities(); len(priorities) > 0 {
		where = append(where, `priority = ANY(`+arg(priorities)+`)`)
	}

	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY due_date ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: filtered select failed", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("selecting filtered todos: %w", err)
	}

	todos, err := s.scanTodos(rows)
	if err != nil {
		return nil, err
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: slow query", zap.Duration("ms", time.Since(start)))
	}
	return todos, nil
}

func (s *Storage) CountByStatus(ctx context.Context) (map[todo.Status]int, error) {
	query := `SELECT status, COUNT(*) FROM todos GROUP BY status`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: status counts failed", err)
		return nil, fmt.Errorf("counting by status: %w", err)
	}
	defer rows.Close()

	counts := map[todo.Status]int{}
	for rows.Next() {
		var status todo.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			logger.Warn("Repository: row scan failed", zap.Error(err))
			continue
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return counts, nil
}

func (s *Storage) CountByPriority(ctx context.Context) (map[todo.Priority]int, error) {
	query := `SELECT priority, COUNT(*) FROM todos WHERE priority IS NOT NULL GROUP BY priority`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: priority counts failed", err)
		return nil, fmt.Errorf("counting by priority: %w", err)
	}
	defer rows.Close()

	counts := map[todo.Priority]int{}
	for rows.Next() {
		var priority todo.Priority
		var count int
		if err := rows.Scan(&priority, &count); err != nil {
			logger.Warn("Repository: row scan failed", zap.Error(err))
			continue
		}
		counts[priority] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return counts, nil
}

func (s *Storage) AssigneeFields(ctx context.Context) ([]string, error) {
	query := `SELECT assigne FROM todos WHERE assigne IS NOT NULL AND assigne != ''`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: assignee fields failed", err)
		return nil, fmt.Errorf("selecting assignee fields: %w", err)
	}
	defer rows.Close()

	fields := []string{}
	for rows.Next() {
		var field string
		if err := rows.Scan(&field); err != nil {
			logger.Warn("Repository: row scan failed", zap.Error(err))
			continue
		}
		fields = append(fields, field)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return fields, nil
}

func (s *Storage) AssigneeStats(ctx context.Context, name string) (repo.AssigneeStats, error) {
	// Substring containment against the raw delimited field, on purpose.
	query := `SELECT
				COUNT(*),
				COUNT(*) FILTER (WHERE status = $2),
				COALESCE(SUM(time_tracked), 0)
			FROM todos
			WHERE assigne ILIKE '%' || $1 || '%'`

	var stats repo.AssigneeStats
	err := s.pool.QueryRow(ctx, query, name, todo.StatusPending).
		Scan(&stats.Total, &stats.Pending, &stats.TimeTracked)
	if err != nil {
		logger.Error("Repository: assignee stats failed", err, zap.String("assignee", name))
		return repo.AssigneeStats{}, fmt.Errorf("aggregating assignee stats: %w", err)
	}
	return stats, nil
}

func (s *Storage) ListDueBefore(ctx context.Context, deadline time.Time, limit int) ([]*todo.Todo, error) {
	start := time.Now()

	query := `SELECT ` + todoColumns + ` FROM todos
			WHERE status != $1 AND due_date < $2
			ORDER BY due_date ASC
			LIMIT $3`

	rows, err := s.pool.Query(ctx, query, todo.StatusCompleted, deadline, limit)
	if err != nil {
		logger.Error("Repository: due-before select failed", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("selecting due todos: %w", err)
	}
	return s.scanTodos(rows)
}

func (s *Storage) Migrate(ctx context.Context) error {
	logger.Info("Repository: applying migrations")

	initUp, err := os.ReadFile("internal/migrations/001_init.up.sql")
	if err != nil {
		logger.Error("failed to read 001_init.up.sql", err)
		return err
	}

	if _, err := s.pool.Exec(ctx, string(initUp)); err != nil {
		logger.Error("failed to apply 001_init", err)
		return err
	}

	logger.Info("Repository: migrations applied")
	return nil
}

func (s *Storage) Down(ctx context.Context) error {
	logger.Info("Repository: rolling back migrations")

	initDown, err := os.ReadFile("internal/migrations/001_init.down.sql")
	if err != nil {
		logger.Error("failed to read 001_init.down.sql", err)
		return err
	}

	if _, err := s.pool.Exec(ctx, string(initDown)); err != nil {
		logger.Error("failed to rollback 001_init", err)
		return err
	}

	logger.Info("Repository: migrations rolled back")
	return nil
}
