package inmemory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todolist/internal/models/todo"
	"todolist/internal/repository"
	"todolist/internal/repository/todo/inmemory"
)

var _ repository.TodoRepository = (*inmemory.Storage)(nil)

func newTodo(title string, due time.Time) *todo.Todo {
	return &todo.Todo{
		Title:   title,
		DueDate: due,
		Status:  todo.StatusPending,
	}
}

func TestStorage_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewStorage()

	created := newTodo("First", time.Now().Add(24*time.Hour))
	require.NoError(t, storage.Create(ctx, created))
	assert.Equal(t, int64(1), created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := storage.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "First", got.Title)

	// ids are monotonic
	second := newTodo("Second", time.Now().Add(24*time.Hour))
	require.NoError(t, storage.Create(ctx, second))
	assert.Equal(t, int64(2), second.ID)
}

func TestStorage_GetByID_NotFound(t *testing.T) {
	storage := inmemory.NewStorage()

	_, err := storage.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStorage_IsolatedCopies(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewStorage()

	prio := todo.PriorityHigh
	created := newTodo("Guarded", time.Now().Add(24*time.Hour))
	created.Priority = &prio
	require.NoError(t, storage.Create(ctx, created))

	// mutating the returned record must not leak into the store
	got, err := storage.GetByID(ctx, created.ID)
	require.NoError(t, err)
	got.Title = "Mutated"
	*got.Priority = todo.PriorityLow

	fresh, err := storage.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Guarded", fresh.Title)
	assert.Equal(t, todo.PriorityHigh, *fresh.Priority)
}

func TestStorage_List(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewStorage()

	require.NoError(t, storage.Create(ctx, newTodo("Buy milk", time.Now().Add(48*time.Hour))))
	require.NoError(t, storage.Create(ctx, newTodo("Buy bread", time.Now().Add(24*time.Hour))))
	require.NoError(t, storage.Create(ctx, newTodo("Walk dog", time.Now().Add(12*time.Hour))))

	t.Run("search is case-insensitive substring", func(t *testing.T) {
		todos, err := storage.List(ctx, "BUY", "id", "asc")
		require.NoError(t, err)
		assert.Len(t, todos, 2)
	})

	t.Run("sort by title ascending", func(t *testing.T) {
		todos, err := storage.List(ctx, "", "title", "asc")
		require.NoError(t, err)
		require.Len(t, todos, 3)
		assert.Equal(t, "Buy bread", todos[0].Title)
		assert.Equal(t, "Walk dog", todos[2].Title)
	})

	t.Run("sort by id descending", func(t *testing.T) {
		todos, err := storage.List(ctx, "", "id", "desc")
		require.NoError(t, err)
		require.Len(t, todos, 3)
		assert.Equal(t, int64(3), todos[0].ID)
	})

	t.Run("sort by due date", func(t *testing.T) {
		todos, err := storage.List(ctx, "", "due_date", "asc")
		require.NoError(t, err)
		assert.Equal(t, "Walk dog", todos[0].Title)
	})
}

func TestStorage_Update(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewStorage()

	created := newTodo("Original", time.Now().Add(24*time.Hour))
	require.NoError(t, storage.Create(ctx, created))
	originalCreatedAt := created.CreatedAt

	created.Title = "Renamed"
	created.Status = todo.StatusCompleted
	require.NoError(t, storage.Update(ctx, created))

	got, err := storage.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, todo.StatusCompleted, got.Status)
	assert.Equal(t, originalCreatedAt, got.CreatedAt)

	t.Run("missing row", func(t *testing.T) {
		ghost := newTodo("Ghost", time.Now())
		ghost.ID = 404
		assert.ErrorIs(t, storage.Update(ctx, ghost), repository.ErrNotFound)
	})
}

func TestStorage_Delete(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewStorage()

	created := newTodo("Doomed", time.Now().Add(24*time.Hour))
	require.NoError(t, storage.Create(ctx, created))

	deleted, err := storage.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Doomed", deleted.Title)

	_, err = storage.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = storage.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStorage_DeleteMany(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewStorage()

	for _, title := range []string{"a", "b", "c"} {
		require.NoError(t, storage.Create(ctx, newTodo(title, time.Now().Add(24*time.Hour))))
	}

	count, err := storage.DeleteMany(ctx, []int64{1, 3, 999})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	remaining, err := storage.List(ctx, "", "id", "asc")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "b", remaining[0].Title)

	count, err = storage.DeleteMany(ctx, []int64{999})
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestStorage_ListFiltered(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewStorage()

	early := newTodo("Early", time.Date(2026, 9, 1, 0, 0, 0, 0, time.Local))
	early.TimeTracked = 10
	late := newTodo("Late", time.Date(2026, 9, 20, 0, 0, 0, 0, time.Local))
	late.TimeTracked = 120
	late.Status = todo.StatusCompleted
	require.NoError(t, storage.Create(ctx, early))
	require.NoError(t, storage.Create(ctx, late))

	t.Run("ordered by due date", func(t *testing.T) {
		todos, err := storage.ListFiltered(ctx, todo.Filter{})
		require.NoError(t, err)
		require.Len(t, todos, 2)
		assert.Equal(t, "Early", todos[0].Title)
	})

	t.Run("status filter", func(t *testing.T) {
		todos, err := storage.ListFiltered(ctx, todo.Filter{Status: "completed"})
		require.NoError(t, err)
		require.Len(t, todos, 1)
		assert.Equal(t, "Late", todos[0].Title)
	})

	t.Run("time range filter", func(t *testing.T) {
		min, max := 0, 50
		todos, err := storage.ListFiltered(ctx, todo.Filter{MinTime: &min, MaxTime: &max})
		require.NoError(t, err)
		require.Len(t, todos, 1)
		assert.Equal(t, "Early", todos[0].Title)
	})
}

func TestStorage_Counts(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewStorage()

	high := todo.PriorityHigh
	low := todo.PriorityLow
	a := newTodo("a", time.Now().Add(24*time.Hour))
	a.Priority = &high
	b := newTodo("b", time.Now().Add(24*time.Hour))
	b.Priority = &low
	c := newTodo("c", time.Now().Add(24*time.Hour))
	c.Status = todo.StatusStuck
	require.NoError(t, storage.Create(ctx, a))
	require.NoError(t, storage.Create(ctx, b))
	require.NoError(t, storage.Create(ctx, c))

	statuses, err := storage.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, statuses[todo.StatusPending])
	assert.Equal(t, 1, statuses[todo.StatusStuck])

	priorities, err := storage.CountByPriority(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, priorities[todo.PriorityHigh])
	assert.Equal(t, 1, priorities[todo.PriorityLow])
	assert.Len(t, priorities, 2) // nil priorities fall into no bucket
}

func TestStorage_AssigneeStats(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewStorage()

	a := newTodo("a", time.Now().Add(24*time.Hour))
	a.Assignee = "Ana,Bob"
	a.TimeTracked = 40
	b := newTodo("b", time.Now().Add(24*time.Hour))
	b.Assignee = "ana banana"
	b.Status = todo.StatusCompleted
	b.TimeTracked = 20
	require.NoError(t, storage.Create(ctx, a))
	require.NoError(t, storage.Create(ctx, b))

	fields, err := storage.AssigneeFields(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Ana,Bob", "ana banana"}, fields)

	stats, err := storage.AssigneeStats(ctx, "Ana")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total) // containment is case-insensitive
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 60, stats.TimeTracked)

	stats, err = storage.AssigneeStats(ctx, "Bob")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
}

func TestStorage_ListDueBefore(t *testing.T) {
	ctx := context.Background()
	storage := inmemory.NewStorage()
	now := time.Now()

	overdue := newTodo("Overdue", now.Add(-24*time.Hour))
	finished := newTodo("Finished", now.Add(-48*time.Hour))
	finished.Status = todo.StatusCompleted
	future := newTodo("Future", now.Add(24*time.Hour))
	require.NoError(t, storage.Create(ctx, overdue))
	require.NoError(t, storage.Create(ctx, finished))
	require.NoError(t, storage.Create(ctx, future))

	todos, err := storage.ListDueBefore(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, "Overdue", todos[0].Title)

	t.Run("limit caps the result", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			require.NoError(t, storage.Create(ctx, newTodo("Old", now.Add(-time.Hour))))
		}
		todos, err := storage.ListDueBefore(ctx, now, 3)
		require.NoError(t, err)
		assert.Len(t, todos, 3)
	})
}

func TestStorage_HealthCheck(t *testing.T) {
	assert.NoError(t, inmemory.NewStorage().HealthCheck(context.Background()))
}
