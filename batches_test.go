package main

import (
	"sync"
	"testing"

	"bitbucket.org/mmdatafocus/salesinsight_backend/models"
)

// Confirming a mapping and reading batch state can arrive on concurrent
// requests for the same batch; both must go through the batch's lock.
// Run with -race to make this meaningful.
func TestBatchStore_ConcurrentConfirmAndRead(t *testing.T) {
	headers := []string{"Description", "Qty", "Sales"}
	rows := []models.Row{
		{models.ParseCell("Widget"), models.ParseCell("2"), models.ParseCell("20")},
		{models.ParseCell("Gadget"), models.ParseCell("3"), models.ParseCell("30")},
	}
	mapping := models.ColumnMapping{
		models.FieldDescription: "Description",
		models.FieldQuantity:    "Qty",
		models.FieldSales:       "Sales",
	}
	set, err := models.Aggregate(headers, rows, mapping)
	if err != nil {
		t.Fatalf("Aggregate error: %v", err)
	}

	store := newBatchStore()
	b := newBatch(headers, rows, mapping)
	store.replace(b)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if !store.confirm(b.ID, mapping, set) {
				t.Error("confirm lost the batch")
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			got, ok := store.get(b.ID)
			if !ok {
				t.Error("get lost the batch")
				return
			}
			if _, s := got.state(); s != nil && s.Len() != 2 {
				t.Errorf("expected 2 aggregates, got %d", s.Len())
				return
			}
		}
	}()
	wg.Wait()

	if _, s := b.state(); s == nil || s.Len() != 2 {
		t.Fatal("expected confirmed batch state after concurrent access")
	}
}
