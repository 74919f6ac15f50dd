package pharmacy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindInventoryMatching(t *testing.T) {
	store := NewStore()

	tests := []struct {
		name      string
		query     string
		wantName  string
		wantFound bool
	}{
		{
			name:      "case-insensitive exact match",
			query:     "amoxicillin 250mg capsules",
			wantName:  "Amoxicillin 250mg Capsules",
			wantFound: true,
		},
		{
			name:      "substring fallback",
			query:     "amoxicillin",
			wantName:  "Amoxicillin 250mg Capsules",
			wantFound: true,
		},
		{
			name:      "substring is case-insensitive",
			query:     "PARACETAMOL",
			wantName:  "Paracetamol 500mg Tablets",
			wantFound: true,
		},
		{
			name:      "unknown medication",
			query:     "aspirin",
			wantFound: false,
		},
		{
			name:      "empty query",
			query:     "",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, found := store.FindInventory(tt.query)
			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, tt.wantName, item.Name)
			}
		})
	}
}

func TestFindInventorySubstringTieBreak(t *testing.T) {
	store := NewStore()

	// "tablets" is a substring of three catalog entries; the first in
	// lexicographic order wins, deterministically.
	item, found := store.FindInventory("tablets")
	require.True(t, found)
	assert.Equal(t, "Ibuprofen 200mg Tablets", item.Name)
}

func TestFindInventoryPrefersExactOverSubstring(t *testing.T) {
	store := NewStore()

	// An exact match must win even when an earlier name in sort order would
	// match as a substring.
	item, found := store.FindInventory("Paracetamol 500mg Tablets")
	require.True(t, found)
	assert.Equal(t, "Paracetamol 500mg Tablets", item.Name)
}

func TestVerifyPrescriptionCaseInsensitive(t *testing.T) {
	store := NewStore()

	assert.True(t, store.VerifyPrescription("RX12345"))
	assert.True(t, store.VerifyPrescription("rx12345"))
	assert.False(t, store.VerifyPrescription("RX67890"))
	assert.False(t, store.VerifyPrescription("RX00000"))
}

func TestCreateOrder(t *testing.T) {
	store := NewStore()

	before, _ := store.FindInventory("Paracetamol 500mg Tablets")
	order, err := store.CreateOrder("Paracetamol 500mg Tablets", 3, "")
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, OrderProcessing, order.Status)
	assert.Equal(t, 3, order.Quantity)

	after, _ := store.FindInventory("Paracetamol 500mg Tablets")
	assert.Equal(t, before.Stock-3, after.Stock)

	got, found := store.FindOrder(order.ID)
	require.True(t, found)
	assert.Equal(t, order.ID, got.ID)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	store := NewStore()

	_, err := store.CreateOrder("Ibuprofen 200mg Tablets", 1, "")
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = store.CreateOrder("No Such Medication", 1, "")
	assert.ErrorIs(t, err, ErrMedicationNotFound)
}

func TestFindOrderCaseInsensitive(t *testing.T) {
	store := NewStore()

	order, err := store.CreateOrder("Paracetamol 500mg Tablets", 1, "")
	require.NoError(t, err)

	_, found := store.FindOrder(order.ID)
	assert.True(t, found)
	_, found = store.FindOrder(lower(order.ID))
	assert.True(t, found)
}

func lower(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r >= 'A' && r <= 'Z' {
			out[i] = r + ('a' - 'A')
		}
	}
	return string(out)
}

func TestCreateOrderConcurrentStockSafety(t *testing.T) {
	store := NewStore()

	// 60 racing orders of 1 against 50 units: exactly 50 may succeed, each
	// with its own order id.
	var wg sync.WaitGroup
	var mu sync.Mutex
	var orderIDs []string

	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if order, err := store.CreateOrder("Amoxicillin 250mg Capsules", 1, "RX12345"); err == nil {
				mu.Lock()
				orderIDs = append(orderIDs, order.ID)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, orderIDs, 50)
	item, _ := store.FindInventory("Amoxicillin 250mg Capsules")
	assert.Equal(t, 0, item.Stock)

	// No two orders may share an id, and every id must resolve to its order.
	seen := make(map[string]bool, len(orderIDs))
	for _, id := range orderIDs {
		assert.False(t, seen[id], "duplicate order id %s", id)
		seen[id] = true

		order, found := store.FindOrder(id)
		require.True(t, found, "order %s not retrievable", id)
		assert.Equal(t, id, order.ID)
	}
}
