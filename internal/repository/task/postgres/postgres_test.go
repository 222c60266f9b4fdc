package postgres_test

import (
	"context"
	"fmt"
	"taskManager/internal/database/pgtest"
	"taskManager/internal/models/task"
	"taskManager/internal/repository"
	"taskManager/internal/repository/task/postgres"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// PostgresTestSuite для интеграционных тестов с PostgreSQL
type PostgresTestSuite struct {
	suite.Suite
	pg      *pgtest.Postgres
	storage *postgres.Storage
	ctx     context.Context
}

func (s *PostgresTestSuite) SetupSuite() {
	s.ctx = context.Background()

	pg, err := pgtest.Start(s.ctx)
	require.NoError(s.T(), err)
	s.pg = pg
	s.storage = postgres.New(pg.Pool)
}

func (s *PostgresTestSuite) TearDownSuite() {
	if s.pg != nil {
		s.pg.Close(s.ctx)
	}
}

func (s *PostgresTestSuite) SetupTest() {
	require.NoError(s.T(), s.pg.Truncate(s.ctx))
}

func TestPostgresTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Пропускаем интеграционные тесты в коротком режиме")
	}
	suite.Run(t, new(PostgresTestSuite))
}

func newTask(owner, title string, due time.Time) *task.Task {
	return &task.Task{
		UUID:     uuid.New(),
		OwnerID:  owner,
		Title:    title,
		Status:   task.StatusPending,
		DueDate:  due.UTC().Truncate(time.Microsecond),
		Category: "Work",
		Priority: task.PriorityMedium,
	}
}

func (s *PostgresTestSuite) TestStorage_CreateAndGet() {
	tk := newTask("owner-1", "Test Task", time.Now().Add(24*time.Hour))
	tk.Reminders = []task.Reminder{{Time: tk.DueDate.Add(-time.Hour)}}

	require.NoError(s.T(), s.storage.Create(s.ctx, tk))
	assert.False(s.T(), tk.CreatedAt.IsZero())

	got, err := s.storage.GetByID(s.ctx, "owner-1", tk.UUID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Test Task", got.Title)
	assert.True(s.T(), tk.DueDate.Equal(got.DueDate))
	require.Len(s.T(), got.Reminders, 1)
	assert.True(s.T(), tk.Reminders[0].Time.Equal(got.Reminders[0].Time))

	assert.ErrorIs(s.T(), s.storage.Create(s.ctx, tk), repository.ErrDuplicate)

	_, err = s.storage.GetByID(s.ctx, "owner-2", tk.UUID)
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestStorage_UpdateAndDelete() {
	tk := newTask("owner-1", "Original", time.Now())
	require.NoError(s.T(), s.storage.Create(s.ctx, tk))

	assert.Equal(s.T(), 1, tk.Version)

	tk.Title = "Updated"
	tk.Status = task.StatusCompleted
	require.NoError(s.T(), s.storage.Update(s.ctx, tk))
	assert.Equal(s.T(), 2, tk.Version)

	got, err := s.storage.GetByID(s.ctx, "owner-1", tk.UUID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Updated", got.Title)
	assert.Equal(s.T(), 2, got.Version)
	assert.Equal(s.T(), task.StatusCompleted, got.Status)

	foreign := tk.Clone()
	foreign.OwnerID = "owner-2"
	assert.ErrorIs(s.T(), s.storage.Update(s.ctx, foreign), repository.ErrNotFound)
	assert.ErrorIs(s.T(), s.storage.Delete(s.ctx, "owner-2", tk.UUID), repository.ErrNotFound)

	require.NoError(s.T(), s.storage.Delete(s.ctx, "owner-1", tk.UUID))
	_, err = s.storage.GetByID(s.ctx, "owner-1", tk.UUID)
	assert.ErrorIs(s.T(), err, repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestStorage_MarkNotified() {
	now := time.Now().UTC()
	tk := newTask("owner-1", "Original", now.Add(-time.Second))
	tk.Reminders = []task.Reminder{{Time: now.Add(-time.Minute).Truncate(time.Microsecond)}}
	require.NoError(s.T(), s.storage.Create(s.ctx, tk))

	found, err := s.storage.FindDue(s.ctx, now, uuid.Nil, 10)
	require.NoError(s.T(), err)
	require.Len(s.T(), found, 1)

	scanned := found[0]
	scanned.DueNotificationSent = true
	scanned.Reminders[0].Sent = true
	require.NoError(s.T(), s.storage.MarkNotified(s.ctx, scanned))
	assert.Equal(s.T(), 2, scanned.Version)

	got, err := s.storage.GetByID(s.ctx, "owner-1", tk.UUID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Original", got.Title)
	assert.True(s.T(), got.DueNotificationSent)
	assert.True(s.T(), got.Reminders[0].Sent)

	rest, err := s.storage.FindDue(s.ctx, now, uuid.Nil, 10)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), rest)

	missing := scanned.Clone()
	missing.UUID = uuid.New()
	assert.ErrorIs(s.T(), s.storage.MarkNotified(s.ctx, missing), repository.ErrNotFound)
}

// правка пользователя между чтением сканера и его записью не должна теряться
func (s *PostgresTestSuite) TestStorage_MarkNotifiedVersionConflict() {
	now := time.Now().UTC()
	tk := newTask("owner-1", "Original", now.Add(time.Hour))
	tk.Reminders = []task.Reminder{{Time: now.Add(-time.Minute).Truncate(time.Microsecond)}}
	require.NoError(s.T(), s.storage.Create(s.ctx, tk))

	found, err := s.storage.FindDue(s.ctx, now, uuid.Nil, 10)
	require.NoError(s.T(), err)
	require.Len(s.T(), found, 1)
	scanned := found[0]

	edited, err := s.storage.GetByID(s.ctx, "owner-1", tk.UUID)
	require.NoError(s.T(), err)
	edited.Reminders = []task.Reminder{
		{Time: now.Add(-time.Second).Truncate(time.Microsecond)},
		{Time: now.Add(time.Minute).Truncate(time.Microsecond)},
	}
	require.NoError(s.T(), s.storage.Update(s.ctx, edited))

	scanned.Reminders[0].Sent = true
	err = s.storage.MarkNotified(s.ctx, scanned)
	assert.ErrorIs(s.T(), err, repository.ErrVersionConflict)

	got, err := s.storage.GetByID(s.ctx, "owner-1", tk.UUID)
	require.NoError(s.T(), err)
	require.Len(s.T(), got.Reminders, 2)
	assert.False(s.T(), got.Reminders[0].Sent)
	assert.False(s.T(), got.Reminders[1].Sent)
	assert.Equal(s.T(), 2, got.Version)

	again, err := s.storage.FindDue(s.ctx, now, uuid.Nil, 10)
	require.NoError(s.T(), err)
	require.Len(s.T(), again, 1)
}

func (s *PostgresTestSuite) TestStorage_ListFilterAndOrder() {
	base := time.Now().UTC().Truncate(time.Second)

	for i := 5; i >= 1; i-- {
		tk := newTask("owner-1", fmt.Sprintf("Task %d", i), base.Add(time.Duration(i)*time.Hour))
		if i%2 == 0 {
			tk.Priority = task.PriorityHigh
		}
		require.NoError(s.T(), s.storage.Create(s.ctx, tk))
	}
	require.NoError(s.T(), s.storage.Create(s.ctx, newTask("owner-2", "Other", base)))

	all, err := s.storage.List(s.ctx, repository.TaskFilter{OwnerID: "owner-1"})
	require.NoError(s.T(), err)
	require.Len(s.T(), all, 5)
	assert.Equal(s.T(), "Task 5", all[0].Title)
	assert.Equal(s.T(), "Task 1", all[4].Title)

	high := task.PriorityHigh
	onlyHigh, err := s.storage.List(s.ctx, repository.TaskFilter{OwnerID: "owner-1", Priority: &high})
	require.NoError(s.T(), err)
	assert.Len(s.T(), onlyHigh, 2)

	from, to := base.Add(2*time.Hour), base.Add(4*time.Hour)
	window, err := s.storage.List(s.ctx, repository.TaskFilter{OwnerID: "owner-1", DueFrom: &from, DueTo: &to})
	require.NoError(s.T(), err)
	assert.Len(s.T(), window, 2)
}

func (s *PostgresTestSuite) TestStorage_FindDue() {
	now := time.Now().UTC()

	due := newTask("owner-1", "due", now.Add(-time.Second))
	sent := newTask("owner-1", "sent", now.Add(-time.Second))
	sent.DueNotificationSent = true
	reminder := newTask("owner-2", "reminder", now.Add(time.Hour))
	reminder.Reminders = []task.Reminder{{Time: now.Add(-time.Minute)}}
	delivered := newTask("owner-2", "delivered", now.Add(time.Hour))
	delivered.Reminders = []task.Reminder{{Time: now.Add(-time.Minute), Sent: true}}
	completed := newTask("owner-1", "completed", now.Add(-time.Hour))
	completed.Status = task.StatusCompleted

	for _, tk := range []*task.Task{due, sent, reminder, delivered, completed} {
		require.NoError(s.T(), s.storage.Create(s.ctx, tk))
	}

	found, err := s.storage.FindDue(s.ctx, now, uuid.Nil, 100)
	require.NoError(s.T(), err)
	require.Len(s.T(), found, 2)
	assert.ElementsMatch(s.T(), []string{"due", "reminder"}, []string{found[0].Title, found[1].Title})

	first, err := s.storage.FindDue(s.ctx, now, uuid.Nil, 1)
	require.NoError(s.T(), err)
	require.Len(s.T(), first, 1)
	assert.Equal(s.T(), found[0].UUID, first[0].UUID)

	second, err := s.storage.FindDue(s.ctx, now, first[0].UUID, 1)
	require.NoError(s.T(), err)
	require.Len(s.T(), second, 1)
	assert.Equal(s.T(), found[1].UUID, second[0].UUID)

	rest, err := s.storage.FindDue(s.ctx, now, second[0].UUID, 1)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), rest)
}

func (s *PostgresTestSuite) TestStorage_HealthCheck() {
	assert.NoError(s.T(), s.storage.HealthCheck(s.ctx))
}
