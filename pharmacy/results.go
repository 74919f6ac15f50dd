package pharmacy

import (
	"fmt"

	"github.com/nad125/pharmabot/types"
)

// Failure reasons reported by order placement.
const (
	ReasonMedicationNotFound  = "Medication not found"
	ReasonInvalidQuantity     = "Invalid quantity"
	ReasonInsufficientStock   = "Insufficient stock"
	ReasonMissingPrescription = "Missing prescription"
	ReasonPrescriptionInvalid = "Prescription invalid"
)

// Each tool has one typed outcome struct converted to the uniform
// types.Result at the boundary. The conversion fixes the exact field set the
// transition guards see, so guard expressions stay checkable against these
// definitions rather than ad hoc maps assembled inline.

// StockStatus is the outcome of a stock check.
type StockStatus struct {
	Found                bool
	Medication           string
	InStock              bool
	Stock                int
	RequiresPrescription bool
}

// Result converts the outcome to the uniform tool result. Out-of-stock and
// unknown medications are semantic errors.
func (o StockStatus) Result() types.Result {
	if !o.Found {
		return types.Result{
			Data:     map[string]interface{}{"medication_found": false},
			Feedback: "Sorry, I couldn't find that medication in our inventory system.",
			IsError:  true,
		}
	}

	rxStatus := "Does not require prescription."
	if o.RequiresPrescription {
		rxStatus = "Requires prescription."
	}
	if !o.InStock {
		return types.Result{
			Data: map[string]interface{}{
				"medication_found":      true,
				"in_stock":              false,
				"medication_name":       o.Medication,
				"requires_prescription": o.RequiresPrescription,
			},
			Feedback: fmt.Sprintf("'%s' is currently out of stock. %s", o.Medication, rxStatus),
			IsError:  true,
		}
	}
	return types.Result{
		Data: map[string]interface{}{
			"medication_found":      true,
			"in_stock":              true,
			"medication_name":       o.Medication,
			"stock_count":           o.Stock,
			"requires_prescription": o.RequiresPrescription,
		},
		Feedback: fmt.Sprintf("'%s' is in stock (%d units available). %s", o.Medication, o.Stock, rxStatus),
	}
}

// InfoLookup is the outcome of a drug information lookup.
type InfoLookup struct {
	Found bool
	Info  DrugInfo
}

// Result converts the outcome to the uniform tool result, formatting the
// approved information with its disclaimer.
func (o InfoLookup) Result() types.Result {
	if !o.Found {
		return types.Result{
			Data:     map[string]interface{}{"info_found": false},
			Feedback: "Sorry, I don't have detailed information available for that medication.",
			IsError:  true,
		}
	}

	feedback := fmt.Sprintf("Information for '%s':\n", o.Info.Name) +
		fmt.Sprintf("- Usage: %s\n", o.Info.Usage) +
		fmt.Sprintf("- Common Side Effects: %s\n", o.Info.SideEffects) +
		fmt.Sprintf("- Contraindications: %s\n", o.Info.Contraindications) +
		fmt.Sprintf("- Notes: %s\n\n", o.Info.Notes) +
		"**Disclaimer:** This is not medical advice. Always consult your doctor or pharmacist for medical guidance."
	return types.Result{
		Data:     map[string]interface{}{"info_found": true, "medication_name": o.Info.Name},
		Feedback: feedback,
	}
}

// Verification is the outcome of a prescription check.
type Verification struct {
	Reference string
	Verified  bool
}

// Result converts the outcome to the uniform tool result.
func (o Verification) Result() types.Result {
	if !o.Verified {
		return types.Result{
			Data:     map[string]interface{}{"verified": false},
			Feedback: fmt.Sprintf("I couldn't verify prescription reference '%s'. Please double-check the reference number.", o.Reference),
			IsError:  true,
		}
	}
	return types.Result{
		Data:     map[string]interface{}{"verified": true},
		Feedback: fmt.Sprintf("Prescription '%s' is valid.", o.Reference),
	}
}

// Placement is the outcome of an order placement attempt.
type Placement struct {
	Placed   bool
	OrderID  string
	Reason   string
	Feedback string
}

// Result converts the outcome to the uniform tool result.
func (o Placement) Result() types.Result {
	if !o.Placed {
		return types.Result{
			Data:     map[string]interface{}{"order_placed": false, "reason": o.Reason},
			Feedback: o.Feedback,
			IsError:  true,
		}
	}
	return types.Result{
		Data:     map[string]interface{}{"order_placed": true, "order_id": o.OrderID},
		Feedback: fmt.Sprintf("Order placed successfully! Your Order ID is %s. Current status: %s.", o.OrderID, OrderProcessing),
	}
}

// StatusLookup is the outcome of an order status check.
type StatusLookup struct {
	Found bool
	ID    string
	Order Order
}

// Result converts the outcome to the uniform tool result.
func (o StatusLookup) Result() types.Result {
	if !o.Found {
		return types.Result{
			Data:     map[string]interface{}{"status_found": false},
			Feedback: fmt.Sprintf("Sorry, I could not find an order with ID '%s'. Please check the ID.", o.ID),
			IsError:  true,
		}
	}
	return types.Result{
		Data: map[string]interface{}{
			"status_found": true,
			"order_id":     o.Order.ID,
			"status":       o.Order.Status,
			"quantity":     o.Order.Quantity,
			"medication":   o.Order.Medication,
		},
		Feedback: fmt.Sprintf("Order %s Status: %s. Placed for %dx '%s'.", o.Order.ID, o.Order.Status, o.Order.Quantity, o.Order.Medication),
	}
}
