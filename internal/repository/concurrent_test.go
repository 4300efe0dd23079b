package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func retryBusy(fn func() error) error {
	const maxRetries = 10
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		time.Sleep(time.Millisecond * time.Duration(1<<attempt))
	}
	return err
}

// TestConcurrentAccess_ReadDuringWrite verifies that concurrent ListByProject
// calls always see whole tasks while writes are in progress.
func TestConcurrentAccess_ReadDuringWrite(t *testing.T) {
	database := testutil.NewFileTestDB(t)
	ctx := context.Background()

	projRepo := NewSQLiteProjectRepo(database)
	taskRepo := NewSQLiteTaskRepo(database)

	proj := testutil.NewTestProject("ReadWrite")
	require.NoError(t, projRepo.Create(ctx, proj))

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			task := testutil.NewTestTask(proj.ID, fmt.Sprintf("Task-%d", i),
				testutil.WithDuration(2), testutil.StartingOn(domain.Day(2024, 1, 1+i)))
			if err := retryBusy(func() error { return taskRepo.Create(ctx, task) }); err != nil {
				t.Errorf("writer: create task %d: %v", i, err)
				return
			}
		}
	}()

	for r := 0; r < 5; r++ {
		wg.Add(1)
		go func(reader int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				tasks, err := taskRepo.ListByProject(ctx, proj.ID)
				if err != nil {
					t.Errorf("reader %d: list tasks: %v", reader, err)
					return
				}
				for _, task := range tasks {
					if task.ID == "" || task.StartDate == nil || task.EndDate == nil {
						t.Errorf("reader %d: got partially written task", reader)
					}
				}
			}
		}(r)
	}

	wg.Wait()

	tasks, err := taskRepo.ListByProject(ctx, proj.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 20)
}

// TestConcurrentAccess_VersionedWritesSerialize verifies that when many
// writers race on one task with the same snapshot version exactly one wins.
func TestConcurrentAccess_VersionedWritesSerialize(t *testing.T) {
	database := testutil.NewFileTestDB(t)
	ctx := context.Background()

	projRepo := NewSQLiteProjectRepo(database)
	taskRepo := NewSQLiteTaskRepo(database)

	proj := testutil.NewTestProject("Race")
	require.NoError(t, projRepo.Create(ctx, proj))
	task := testutil.NewTestTask(proj.ID, "Contended", testutil.StartingOn(domain.Day(2024, 5, 1)))
	require.NoError(t, taskRepo.Create(ctx, task))

	const writers = 8
	var wg sync.WaitGroup
	results := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := domain.Day(2024, 5, 2+i)
			err := retryBusy(func() error {
				err := taskRepo.ApplyDateUpdate(ctx, task.ID, &start, &start, 1)
				if errors.Is(err, ErrStaleSnapshot) {
					results <- err
					return nil
				}
				return err
			})
			if err == nil {
				return
			}
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	stale := 0
	for err := range results {
		require.True(t, errors.Is(err, ErrStaleSnapshot), "unexpected error: %v", err)
		stale++
	}
	assert.Equal(t, writers-1, stale)

	got, err := taskRepo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
}

func TestConcurrentAccess_ProjectSequence_NoDuplicateSeq(t *testing.T) {
	database := testutil.NewFileTestDB(t)
	ctx := context.Background()

	projRepo := NewSQLiteProjectRepo(database)
	taskRepo := NewSQLiteTaskRepo(database)
	uow := db.NewSQLiteUnitOfWork(database)

	proj := testutil.NewTestProject("Seq Concurrency")
	require.NoError(t, projRepo.Create(ctx, proj))

	// Seed one existing task to force allocator bootstrap from existing order.
	require.NoError(t, taskRepo.Create(ctx, testutil.NewTestTask(proj.ID, "Root", testutil.WithOrderIndex(1))))

	const workers = 40
	var wg sync.WaitGroup
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := retryBusy(func() error {
				return uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
					seq, err := NewSQLiteProjectSequenceRepo(tx).NextTaskIndex(ctx, proj.ID)
					if err != nil {
						return err
					}
					task := testutil.NewTestTask(proj.ID, fmt.Sprintf("Task-%d", i), testutil.WithOrderIndex(seq))
					return NewSQLiteTaskRepo(tx).Create(ctx, task)
				})
			})
			if err != nil {
				errCh <- err
			}
		}(i)
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	tasks, err := taskRepo.ListByProject(ctx, proj.ID)
	require.NoError(t, err)

	seen := make(map[int]bool, len(tasks))
	for _, task := range tasks {
		assert.Falsef(t, seen[task.OrderIndex], "duplicate order index %d on task %s", task.OrderIndex, task.ID)
		seen[task.OrderIndex] = true
	}
	assert.Equal(t, workers+1, len(seen))
}
