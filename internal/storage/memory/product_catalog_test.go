package memory

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/cafe-oms/internal/domain"
)

func TestProductCatalog_PutAndSnapshot(t *testing.T) {
	catalog := NewProductCatalog()

	created, err := catalog.Put(domain.Product{Name: "Espresso", PriceMinor: 250, Available: true})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}

	snap, err := catalog.Snapshot(created.ID)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.Name != "Espresso" || snap.PriceMinor != 250 || !snap.Available {
		t.Errorf("unexpected snapshot: %+v", snap)
	}

	if _, err := catalog.Snapshot("missing"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestProductCatalog_PutUpdatesExisting(t *testing.T) {
	catalog := NewProductCatalog()

	created, err := catalog.Put(domain.Product{Name: "Tea", PriceMinor: 180, Available: true})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	created.PriceMinor = 200
	created.Available = false
	if _, err := catalog.Put(created); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	snap, err := catalog.Snapshot(created.ID)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if snap.PriceMinor != 200 || snap.Available {
		t.Errorf("update not applied: %+v", snap)
	}
}

func TestProductCatalog_ListSortedByName(t *testing.T) {
	catalog := NewProductCatalog()
	for _, name := range []string{"Tea", "Cheesecake", "Espresso"} {
		if _, err := catalog.Put(domain.Product{Name: name, PriceMinor: 100, Available: true}); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	products, err := catalog.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(products))
	}
	if products[0].Name != "Cheesecake" || products[2].Name != "Tea" {
		t.Errorf("list not sorted by name: %v", products)
	}
}
