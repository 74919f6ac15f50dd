package pharmacy

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/nad125/pharmabot/logger"
	"github.com/nad125/pharmabot/types"
)

// Tool names referenced by journey tool states.
const (
	ToolCheckStock         = "check_stock"
	ToolGetDrugInfo        = "get_drug_info"
	ToolVerifyPrescription = "verify_prescription"
	ToolPlaceOrder         = "place_order"
	ToolCheckOrderStatus   = "check_order_status"
)

// Argument keys tools read from the session context.
const (
	ArgMedicationName  = "medication_name"
	ArgQuantity        = "quantity"
	ArgPrescriptionRef = "prescription_ref"
	ArgOrderID         = "order_id"
)

func stringArg(args map[string]interface{}, key string) string {
	v, ok := args[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// intArg accepts the numeric shapes a caller may hand over: Go ints, JSON
// floats, or numeric strings.
func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// CheckStock reports whether a medication is stocked and whether it needs a
// prescription. Read-only.
type CheckStock struct {
	Store *Store
}

// Name implements journey.Tool.
func (t *CheckStock) Name() string { return ToolCheckStock }

// Execute implements journey.Tool.
func (t *CheckStock) Execute(ctx context.Context, args map[string]interface{}) types.Result {
	name := stringArg(args, ArgMedicationName)
	logger.Info("check_stock called", zap.String("medication_name", name))

	item, found := t.Store.FindInventory(name)
	if !found {
		logger.Warn("stock check: medication not found", zap.String("medication_name", name))
		return StockStatus{Found: false}.Result()
	}
	return StockStatus{
		Found:                true,
		Medication:           item.Name,
		InStock:              item.Stock > 0,
		Stock:                item.Stock,
		RequiresPrescription: item.RequiresPrescription,
	}.Result()
}

// GetDrugInfo returns the approved information for a medication. Read-only.
type GetDrugInfo struct {
	Store *Store
}

// Name implements journey.Tool.
func (t *GetDrugInfo) Name() string { return ToolGetDrugInfo }

// Execute implements journey.Tool.
func (t *GetDrugInfo) Execute(ctx context.Context, args map[string]interface{}) types.Result {
	name := stringArg(args, ArgMedicationName)
	logger.Info("get_drug_info called", zap.String("medication_name", name))

	info, found := t.Store.FindDrugInfo(name)
	if !found {
		logger.Warn("drug info: medication not found", zap.String("medication_name", name))
	}
	return InfoLookup{Found: found, Info: info}.Result()
}

// VerifyPrescription checks a prescription reference against the system.
// Read-only.
type VerifyPrescription struct {
	Store *Store
}

// Name implements journey.Tool.
func (t *VerifyPrescription) Name() string { return ToolVerifyPrescription }

// Execute implements journey.Tool.
func (t *VerifyPrescription) Execute(ctx context.Context, args map[string]interface{}) types.Result {
	ref := strings.ToUpper(stringArg(args, ArgPrescriptionRef))
	logger.Info("verify_prescription called", zap.String("prescription_ref", ref))

	verified := t.Store.VerifyPrescription(ref)
	if !verified {
		logger.Warn("prescription verification failed", zap.String("prescription_ref", ref))
	}
	return Verification{Reference: ref, Verified: verified}.Result()
}

// PlaceOrder validates and places a medication order. Validation runs in a
// fixed order (medication exists, quantity positive, stock sufficient,
// prescription present and valid when required) and nothing mutates until
// every check passes; a failed order leaves the store untouched.
type PlaceOrder struct {
	Store *Store
}

// Name implements journey.Tool.
func (t *PlaceOrder) Name() string { return ToolPlaceOrder }

// Execute implements journey.Tool.
func (t *PlaceOrder) Execute(ctx context.Context, args map[string]interface{}) types.Result {
	name := stringArg(args, ArgMedicationName)
	ref := strings.ToUpper(stringArg(args, ArgPrescriptionRef))
	logger.Info("place_order called",
		zap.String("medication_name", name),
		zap.Any("quantity", args[ArgQuantity]),
		zap.String("prescription_ref", ref))

	item, found := t.Store.FindInventory(name)
	if !found {
		return Placement{
			Reason:   ReasonMedicationNotFound,
			Feedback: fmt.Sprintf("Cannot place order. Medication '%s' not found.", name),
		}.Result()
	}

	quantity, ok := intArg(args, ArgQuantity)
	if !ok || quantity <= 0 {
		return Placement{
			Reason:   ReasonInvalidQuantity,
			Feedback: "Cannot place order. Please provide a valid positive number for the quantity.",
		}.Result()
	}

	if item.Stock < quantity {
		return Placement{
			Reason:   ReasonInsufficientStock,
			Feedback: fmt.Sprintf("Cannot place order. Insufficient stock for '%s'. Available: %d.", item.Name, item.Stock),
		}.Result()
	}

	if item.RequiresPrescription {
		if ref == "" {
			return Placement{
				Reason:   ReasonMissingPrescription,
				Feedback: fmt.Sprintf("Cannot place order. '%s' requires a prescription reference, but none was provided.", item.Name),
			}.Result()
		}
		if !t.Store.VerifyPrescription(ref) {
			return Placement{
				Reason:   ReasonPrescriptionInvalid,
				Feedback: fmt.Sprintf("Cannot place order. Prescription reference '%s' could not be verified.", ref),
			}.Result()
		}
	} else if ref != "" {
		logger.Info("prescription provided for non-prescription item",
			zap.String("medication_name", item.Name),
			zap.String("prescription_ref", ref))
	}

	order, err := t.Store.CreateOrder(item.Name, quantity, ref)
	if err != nil {
		// A concurrent order can drain the stock between the check above and
		// the locked create.
		return Placement{
			Reason:   ReasonInsufficientStock,
			Feedback: fmt.Sprintf("Cannot place order. Insufficient stock for '%s'.", item.Name),
		}.Result()
	}

	logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("medication_name", order.Medication),
		zap.Int("quantity", order.Quantity))
	return Placement{Placed: true, OrderID: order.ID}.Result()
}

// CheckOrderStatus looks up an existing order by id. Read-only.
type CheckOrderStatus struct {
	Store *Store
}

// Name implements journey.Tool.
func (t *CheckOrderStatus) Name() string { return ToolCheckOrderStatus }

// Execute implements journey.Tool.
func (t *CheckOrderStatus) Execute(ctx context.Context, args map[string]interface{}) types.Result {
	id := strings.ToUpper(stringArg(args, ArgOrderID))
	logger.Info("check_order_status called", zap.String("order_id", id))

	order, found := t.Store.FindOrder(id)
	if !found {
		logger.Warn("order status: order not found", zap.String("order_id", id))
	}
	return StatusLookup{Found: found, ID: id, Order: order}.Result()
}
