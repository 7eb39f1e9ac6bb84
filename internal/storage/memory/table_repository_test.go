package memory_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
	"github.com/vladislavdragonenkov/cafe-oms/internal/storage/memory"
)

func newTable(id string, number int) domain.Table {
	now := time.Now().UTC()
	return domain.Table{
		ID:          id,
		TableNumber: number,
		Capacity:    4,
		Status:      domain.TableAvailable,
		Version:     0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestTableRepository_CreateGet(t *testing.T) {
	repo := memory.NewTableRepository()
	table := newTable("table-1", 5)

	if err := repo.Create(table); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.Get(table.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.TableNumber != 5 {
		t.Fatalf("expected table number 5, got %d", stored.TableNumber)
	}

	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrTableNotFound) {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
}

func TestTableRepository_CreateDuplicateNumber(t *testing.T) {
	repo := memory.NewTableRepository()
	if err := repo.Create(newTable("table-1", 5)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(newTable("table-2", 5)); !errors.Is(err, domain.ErrTableNumberTaken) {
		t.Fatalf("expected ErrTableNumberTaken, got %v", err)
	}
}

func TestTableRepository_SaveVersionConflict(t *testing.T) {
	repo := memory.NewTableRepository()
	table := newTable("table-1", 5)
	if err := repo.Create(table); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.Get(table.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	stored.Reserve("user-1", "", time.Now().UTC())
	if err := repo.Save(stored); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	updated, err := repo.Get(table.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if updated.Version != stored.Version+1 {
		t.Fatalf("expected version increment, got %d", updated.Version)
	}

	// Повторное сохранение со старой версией должно конфликтовать.
	stored.Note = "stale write"
	if err := repo.Save(stored); !domain.IsVersionConflict(err) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestTableRepository_ConcurrentReserve_ExactlyOneWins(t *testing.T) {
	repo := memory.NewTableRepository()
	if err := repo.Create(newTable("table-1", 5)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	const writers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	success := 0
	conflicts := 0

	snapshot, err := repo.Get("table-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			table := snapshot
			table.Reserve("user", "", time.Now().UTC())
			err := repo.Save(table)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case domain.IsVersionConflict(err):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if success != 1 {
		t.Fatalf("expected exactly one successful reserve, got %d (conflicts %d)", success, conflicts)
	}
	if conflicts != writers-1 {
		t.Fatalf("expected %d conflicts, got %d", writers-1, conflicts)
	}
}

func TestTableRepository_Release(t *testing.T) {
	repo := memory.NewTableRepository()
	table := newTable("table-1", 5)
	if err := repo.Create(table); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, _ := repo.Get(table.ID)
	stored.Reserve("user-1", "", time.Now().UTC())
	if err := repo.Save(stored); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	released, err := repo.Release(table.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if released.Status != domain.TableAvailable || released.ReservedBy != "" || released.CurrentOrderID != "" {
		t.Fatalf("expected clean available table, got %+v", released)
	}
}
