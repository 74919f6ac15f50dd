// Package pharmacy holds the domain data store and the five pharmacy tools
// the journeys invoke: stock checks, drug information, prescription
// verification, order placement and order status.
package pharmacy

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Order statuses. Orders never transition out of Processing in this system.
const OrderProcessing = "Processing"

var (
	// ErrInsufficientStock is returned by CreateOrder when stock cannot cover
	// the requested quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrMedicationNotFound is returned by CreateOrder for unknown medications.
	ErrMedicationNotFound = errors.New("medication not found")
)

// InventoryItem is a catalog entry. The catalog is fixed: items are never
// created or destroyed at runtime, only their stock decremented by orders.
type InventoryItem struct {
	Name                 string
	Stock                int
	RequiresPrescription bool
}

// DrugInfo is immutable reference information about a medication.
type DrugInfo struct {
	Name              string
	Usage             string
	SideEffects       string
	Contraindications string
	Notes             string
}

// Order is created by order placement and never mutated afterwards.
type Order struct {
	ID              string
	Medication      string
	Quantity        int
	PrescriptionRef string
	Status          string
	CreatedAt       time.Time
}

// Store is the owned, in-memory domain data store. All mutation goes through
// CreateOrder under the write lock, so concurrent sessions never lose a stock
// update. State is process-lifetime only; nothing is persisted.
type Store struct {
	mu            sync.RWMutex
	inventory     map[string]*InventoryItem
	drugInfo      map[string]DrugInfo
	prescriptions map[string]bool
	orders        map[string]Order

	// Name lists are kept sorted so the substring-match fallback has a
	// documented, stable tie-break instead of map iteration order.
	inventoryNames []string
	drugInfoNames  []string
}

// NewStore creates a store seeded with the pharmacy catalog.
func NewStore() *Store {
	s := &Store{
		inventory:     make(map[string]*InventoryItem),
		drugInfo:      make(map[string]DrugInfo),
		prescriptions: make(map[string]bool),
		orders:        make(map[string]Order),
	}
	s.seed()
	return s
}

func (s *Store) addInventory(item InventoryItem) {
	s.inventory[item.Name] = &item
	s.inventoryNames = append(s.inventoryNames, item.Name)
	sort.Strings(s.inventoryNames)
}

func (s *Store) addDrugInfo(info DrugInfo) {
	s.drugInfo[info.Name] = info
	s.drugInfoNames = append(s.drugInfoNames, info.Name)
	sort.Strings(s.drugInfoNames)
}

// matchName resolves a user-supplied medication name against a sorted name
// list: case-insensitive exact match first, else the first case-insensitive
// substring match in lexicographic order.
func matchName(query string, names []string) (string, bool) {
	lower := strings.ToLower(query)
	if lower == "" {
		return "", false
	}
	for _, name := range names {
		if lower == strings.ToLower(name) {
			return name, true
		}
	}
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), lower) {
			return name, true
		}
	}
	return "", false
}

// FindInventory resolves a medication name and returns a snapshot of its
// inventory entry.
func (s *Store) FindInventory(name string) (InventoryItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	canonical, ok := matchName(name, s.inventoryNames)
	if !ok {
		return InventoryItem{}, false
	}
	return *s.inventory[canonical], true
}

// FindDrugInfo resolves a medication name against the drug info records.
func (s *Store) FindDrugInfo(name string) (DrugInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	canonical, ok := matchName(name, s.drugInfoNames)
	if !ok {
		return DrugInfo{}, false
	}
	return s.drugInfo[canonical], true
}

// VerifyPrescription reports whether a prescription reference is valid.
// References are matched case-insensitively by exact key.
func (s *Store) VerifyPrescription(ref string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prescriptions[strings.ToUpper(ref)]
}

// FindOrder retrieves an order by id, case-insensitively.
func (s *Store) FindOrder(id string) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[strings.ToUpper(id)]
	return order, ok
}

// CreateOrder atomically re-checks stock, decrements it and records the
// order. The stock check and the decrement share one write lock, so two
// racing orders for the same medication cannot both succeed past the last
// unit. The generated id is unique for the process lifetime.
func (s *Store) CreateOrder(medication string, quantity int, prescriptionRef string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.inventory[medication]
	if !ok {
		return Order{}, ErrMedicationNotFound
	}
	if item.Stock < quantity {
		return Order{}, ErrInsufficientStock
	}

	id := newOrderID()
	for _, exists := s.orders[id]; exists; _, exists = s.orders[id] {
		id = newOrderID()
	}

	order := Order{
		ID:              id,
		Medication:      medication,
		Quantity:        quantity,
		PrescriptionRef: prescriptionRef,
		Status:          OrderProcessing,
		CreatedAt:       time.Now(),
	}
	item.Stock -= quantity
	s.orders[id] = order
	return order, nil
}

// newOrderID generates a short customer-facing order id.
func newOrderID() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
