package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"todolist/internal/models/todo"
	"todolist/internal/repository"
	"todolist/internal/repository/todo/postgres"
)

type PostgresTestSuite struct {
	suite.Suite
	container  testcontainers.Container
	storage    *postgres.Storage
	ctx        context.Context
	connString string
}

func (s *PostgresTestSuite) SetupSuite() {
	s.ctx = context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := container.MappedPort(s.ctx, "5432")
	require.NoError(s.T(), err)

	s.connString = fmt.Sprintf("postgres://test:test@%s:%s/testdb", host, port.Port())

	s.storage, err = postgres.New(s.ctx, s.connString)
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.applyTestSchema())
}

func (s *PostgresTestSuite) TearDownSuite() {
	if s.storage != nil {
		s.storage.Close()
	}
	if s.container != nil {
		s.container.Terminate(s.ctx)
	}
}

func (s *PostgresTestSuite) SetupTest() {
	conn, err := pgx.Connect(s.ctx, s.connString)
	require.NoError(s.T(), err)
	defer conn.Close(s.ctx)

	_, err = conn.Exec(s.ctx, "TRUNCATE todos RESTART IDENTITY")
	require.NoError(s.T(), err)
}

func (s *PostgresTestSuite) applyTestSchema() error {
	conn, err := pgx.Connect(s.ctx, s.connString)
	if err != nil {
		return err
	}
	defer conn.Close(s.ctx)

	query := `
	CREATE TABLE IF NOT EXISTS todos (
		id BIGSERIAL PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		assigne VARCHAR(255) NOT NULL DEFAULT '',
		due_date DATE NOT NULL,
		time_tracked INTEGER NOT NULL DEFAULT 0,
		status VARCHAR(50) NOT NULL DEFAULT 'pending',
		priority VARCHAR(50),
		type VARCHAR(50),
		estimated_sp INTEGER,
		actual_sp INTEGER,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_todos_due_date ON todos(due_date);
	CREATE INDEX IF NOT EXISTS idx_todos_status ON todos(status);
	`

	_, err = conn.Exec(s.ctx, query)
	return err
}

func TestPostgresTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(PostgresTestSuite))
}

func (s *PostgresTestSuite) newTodo(title string, due time.Time) *todo.Todo {
	return &todo.Todo{
		Title:   title,
		DueDate: due,
		Status:  todo.StatusPending,
	}
}

func (s *PostgresTestSuite) TestStorage_Create() {
	ctx := context.Background()

	high := todo.PriorityHigh
	bug := todo.TypeBug
	sp := 5
	t := &todo.Todo{
		Title:       "Fix login",
		Assignee:    "Ana,Bob",
		DueDate:     time.Now().Add(48 * time.Hour),
		TimeTracked: 30,
		Status:      todo.StatusInProgress,
		Priority:    &high,
		Type:        &bug,
		EstimatedSP: &sp,
	}

	err := s.storage.Create(ctx, t)
	require.NoError(s.T(), err)
	assert.NotZero(s.T(), t.ID)
	assert.False(s.T(), t.CreatedAt.IsZero())

	got, err := s.storage.GetByID(ctx, t.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Fix login", got.Title)
	assert.Equal(s.T(), "Ana,Bob", got.Assignee)
	assert.Equal(s.T(), todo.StatusInProgress, got.Status)
	require.NotNil(s.T(), got.Priority)
	assert.Equal(s.T(), todo.PriorityHigh, *got.Priority)
	require.NotNil(s.T(), got.Type)
	assert.Equal(s.T(), todo.TypeBug, *got.Type)
	require.NotNil(s.T(), got.EstimatedSP)
	assert.Equal(s.T(), 5, *got.EstimatedSP)
	assert.Nil(s.T(), got.ActualSP)
}

func (s *PostgresTestSuite) TestStorage_GetByID_NotFound() {
	_, err := s.storage.GetByID(context.Background(), 9999)
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestStorage_List() {
	ctx := context.Background()

	require.NoError(s.T(), s.storage.Create(ctx, s.newTodo("Buy milk", time.Now().Add(48*time.Hour))))
	require.NoError(s.T(), s.storage.Create(ctx, s.newTodo("Buy bread", time.Now().Add(24*time.Hour))))
	require.NoError(s.T(), s.storage.Create(ctx, s.newTodo("Walk dog", time.Now().Add(12*time.Hour))))

	todos, err := s.storage.List(ctx, "buy", "title", "asc")
	require.NoError(s.T(), err)
	require.Len(s.T(), todos, 2)
	assert.Equal(s.T(), "Buy bread", todos[0].Title)
	assert.Equal(s.T(), "Buy milk", todos[1].Title)

	todos, err = s.storage.List(ctx, "", "id", "desc")
	require.NoError(s.T(), err)
	require.Len(s.T(), todos, 3)
	assert.Equal(s.T(), "Walk dog", todos[0].Title)
}

func (s *PostgresTestSuite) TestStorage_Update() {
	ctx := context.Background()

	t := s.newTodo("Original", time.Now().Add(24*time.Hour))
	require.NoError(s.T(), s.storage.Create(ctx, t))
	firstUpdatedAt := t.UpdatedAt

	t.Title = "Renamed"
	t.Status = todo.StatusCompleted
	prio := todo.PriorityLow
	t.Priority = &prio
	require.NoError(s.T(), s.storage.Update(ctx, t))
	assert.True(s.T(), t.UpdatedAt.After(firstUpdatedAt) || t.UpdatedAt.Equal(firstUpdatedAt))

	got, err := s.storage.GetByID(ctx, t.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Renamed", got.Title)
	assert.Equal(s.T(), todo.StatusCompleted, got.Status)
	require.NotNil(s.T(), got.Priority)
	assert.Equal(s.T(), todo.PriorityLow, *got.Priority)
}

func (s *PostgresTestSuite) TestStorage_Update_Missing() {
	ghost := s.newTodo("Ghost", time.Now().Add(24*time.Hour))
	ghost.ID = 12345

	err := s.storage.Update(context.Background(), ghost)
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestStorage_Delete() {
	ctx := context.Background()

	t := s.newTodo("Doomed", time.Now().Add(24*time.Hour))
	require.NoError(s.T(), s.storage.Create(ctx, t))

	deleted, err := s.storage.Delete(ctx, t.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Doomed", deleted.Title)

	_, err = s.storage.GetByID(ctx, t.ID)
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)

	_, err = s.storage.Delete(ctx, t.ID)
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestStorage_DeleteMany() {
	ctx := context.Background()

	a := s.newTodo("a", time.Now().Add(24*time.Hour))
	b := s.newTodo("b", time.Now().Add(24*time.Hour))
	c := s.newTodo("c", time.Now().Add(24*time.Hour))
	for _, t := range []*todo.Todo{a, b, c} {
		require.NoError(s.T(), s.storage.Create(ctx, t))
	}

	count, err := s.storage.DeleteMany(ctx, []int64{a.ID, c.ID, 9999})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), count)

	remaining, err := s.storage.List(ctx, "", "id", "asc")
	require.NoError(s.T(), err)
	require.Len(s.T(), remaining, 1)
	assert.Equal(s.T(), "b", remaining[0].Title)
}

func (s *PostgresTestSuite) TestStorage_ListFiltered() {
	ctx := context.Background()

	early := s.newTodo("Early", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	early.Assignee = "Ana"
	early.TimeTracked = 10
	late := s.newTodo("Late", time.Date(2026, 9, 20, 0, 0, 0, 0, time.UTC))
	late.Assignee = "Bob"
	late.TimeTracked = 120
	late.Status = todo.StatusCompleted
	require.NoError(s.T(), s.storage.Create(ctx, early))
	require.NoError(s.T(), s.storage.Create(ctx, late))

	s.T().Run("no filter, due ascending", func(t *testing.T) {
		todos, err := s.storage.ListFiltered(ctx, todo.Filter{})
		require.NoError(t, err)
		require.Len(t, todos, 2)
		assert.Equal(t, "Early", todos[0].Title)
	})

	s.T().Run("status filter", func(t *testing.T) {
		todos, err := s.storage.ListFiltered(ctx, todo.Filter{Status: "completed"})
		require.NoError(t, err)
		require.Len(t, todos, 1)
		assert.Equal(t, "Late", todos[0].Title)
	})

	s.T().Run("assignee terms OR", func(t *testing.T) {
		todos, err := s.storage.ListFiltered(ctx, todo.Filter{Assignee: "Ana,Bob"})
		require.NoError(t, err)
		assert.Len(t, todos, 2)
	})

	s.T().Run("time range", func(t *testing.T) {
		min, max := 0, 50
		todos, err := s.storage.ListFiltered(ctx, todo.Filter{MinTime: &min, MaxTime: &max})
		require.NoError(t, err)
		require.Len(t, todos, 1)
		assert.Equal(t, "Early", todos[0].Title)
	})

	s.T().Run("date range", func(t *testing.T) {
		start := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
		todos, err := s.storage.ListFiltered(ctx, todo.Filter{Start: &start, End: &end})
		require.NoError(t, err)
		require.Len(t, todos, 1)
		assert.Equal(t, "Late", todos[0].Title)
	})
}

func (s *PostgresTestSuite) TestStorage_Counts() {
	ctx := context.Background()

	high := todo.PriorityHigh
	a := s.newTodo("a", time.Now().Add(24*time.Hour))
	a.Priority = &high
	b := s.newTodo("b", time.Now().Add(24*time.Hour))
	b.Status = todo.StatusStuck
	require.NoError(s.T(), s.storage.Create(ctx, a))
	require.NoError(s.T(), s.storage.Create(ctx, b))

	statuses, err := s.storage.CountByStatus(ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, statuses[todo.StatusPending])
	assert.Equal(s.T(), 1, statuses[todo.StatusStuck])

	priorities, err := s.storage.CountByPriority(ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, priorities[todo.PriorityHigh])
	assert.Len(s.T(), priorities, 1)
}

func (s *PostgresTestSuite) TestStorage_AssigneeStats() {
	ctx := context.Background()

	a := s.newTodo("a", time.Now().Add(24*time.Hour))
	a.Assignee = "Ana,Bob"
	a.TimeTracked = 40
	b := s.newTodo("b", time.Now().Add(24*time.Hour))
	b.Assignee = "ana banana"
	b.Status = todo.StatusCompleted
	b.TimeTracked = 20
	require.NoError(s.T(), s.storage.Create(ctx, a))
	require.NoError(s.T(), s.storage.Create(ctx, b))

	fields, err := s.storage.AssigneeFields(ctx)
	require.NoError(s.T(), err)
	assert.ElementsMatch(s.T(), []string{"Ana,Bob", "ana banana"}, fields)

	stats, err := s.storage.AssigneeStats(ctx, "Ana")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, stats.Total)
	assert.Equal(s.T(), 1, stats.Pending)
	assert.Equal(s.T(), 60, stats.TimeTracked)
}

func (s *PostgresTestSuite) TestStorage_ListDueBefore() {
	ctx := context.Background()
	now := time.Now()

	overdue := s.newTodo("Overdue", now.Add(-48*time.Hour))
	finished := s.newTodo("Finished", now.Add(-72*time.Hour))
	finished.Status = todo.StatusCompleted
	future := s.newTodo("Future", now.Add(48*time.Hour))
	for _, t := range []*todo.Todo{overdue, finished, future} {
		require.NoError(s.T(), s.storage.Create(ctx, t))
	}

	todos, err := s.storage.ListDueBefore(ctx, now, 10)
	require.NoError(s.T(), err)
	require.Len(s.T(), todos, 1)
	assert.Equal(s.T(), "Overdue", todos[0].Title)
}

func (s *PostgresTestSuite) TestStorage_HealthCheck() {
	assert.NoError(s.T(), s.storage.HealthCheck(context.Background()))
}

func TestStorage_New_InvalidConnString(t *testing.T) {
	tests := []struct {
		name       string
		connString string
	}{
		{name: "garbage", connString: "invalid"},
		{name: "empty", connString: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := postgres.New(context.Background(), tt.connString)
			assert.Error(t, err)
		})
	}
}
