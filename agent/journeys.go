package agent

import (
	"github.com/nad125/pharmabot/journey"
	"github.com/nad125/pharmabot/pharmacy"
)

// Journey titles.
const (
	TitleNewOrder    = "Place New Medication Order"
	TitleDrugInfo    = "Get Medication Information"
	TitleOrderStatus = "Check Order Status"
)

const askQuantityPrompt = "Ask how many units the customer would like to order (e.g., number of tablets or capsules)."

// NewOrderJourney builds the order-placement flow. The stock check fans out
// into a prescription path and a non-prescription path; both converge on one
// shared place-order state, so the success and failure branches after
// placement are defined once and apply to either path.
func NewOrderJourney() *journey.Journey {
	j := journey.New(TitleNewOrder,
		"Guides the customer through placing a new order for medication.",
		"order a medication", "buy medicine", "purchase a drug", "place an order", "new order", "order")

	askMedication := j.Chat("Ask which medication the customer needs.")
	j.TransitionTo(j.Start(), askMedication, "")

	checkStock := j.Invoke(pharmacy.ToolCheckStock)
	j.TransitionTo(askMedication, checkStock, "")

	// Prescription path.
	askReference := j.Chat("Ask for the prescription reference number as the medication requires it.")
	j.TransitionTo(checkStock, askReference,
		"result.medication_found == true && result.in_stock == true && result.requires_prescription == true")

	verify := j.Invoke(pharmacy.ToolVerifyPrescription)
	j.TransitionTo(askReference, verify, "")

	askQuantityRx := j.Chat(askQuantityPrompt)
	j.TransitionTo(verify, askQuantityRx, "result.verified == true")

	// Non-prescription path.
	askQuantity := j.Chat(askQuantityPrompt)
	j.TransitionTo(checkStock, askQuantity,
		"result.medication_found == true && result.in_stock == true && result.requires_prescription == false")

	// Both quantity states feed the same place-order state.
	placeOrder := j.Invoke(pharmacy.ToolPlaceOrder)
	j.TransitionTo(askQuantityRx, placeOrder, "")
	j.TransitionTo(askQuantity, placeOrder, "")

	confirm := j.Chat("Confirm the order placement and provide the Order ID.")
	j.TransitionTo(placeOrder, confirm, "result.order_placed == true")
	j.TransitionTo(confirm, j.End(), "")

	outOfStock := j.Chat("Inform the customer the medication is out of stock and ask if they want alternatives discussed with a pharmacist.")
	j.TransitionTo(checkStock, outOfStock, "result.medication_found == true && result.in_stock == false")
	j.TransitionTo(outOfStock, j.End(), "")

	notFound := j.Chat("Inform the customer the medication was not found in the system and ask them to verify the spelling or try another name.")
	j.TransitionTo(checkStock, notFound, "result.medication_found == false")
	j.TransitionTo(notFound, j.End(), "")

	badReference := j.Chat("Inform the customer the prescription reference could not be verified and ask them to check or contact support.")
	j.TransitionTo(verify, badReference, "result.verified == false")
	j.TransitionTo(badReference, j.End(), "")

	placementFailed := j.Chat("Inform the customer the order could not be placed, give the reason from the tool feedback, and suggest trying again or contacting support.")
	j.TransitionTo(placeOrder, placementFailed, "result.order_placed == false")
	j.TransitionTo(placementFailed, j.End(), "")

	return j
}

// DrugInfoJourney builds the drug-information flow.
func DrugInfoJourney() *journey.Journey {
	j := journey.New(TitleDrugInfo,
		"Provides approved information about a specific medication.",
		"information about", "tell me about", "side effects of", "how to use", "drug info")

	askMedication := j.Chat("Ask for the name of the medication the customer wants information about.")
	j.TransitionTo(j.Start(), askMedication, "")

	getInfo := j.Invoke(pharmacy.ToolGetDrugInfo)
	j.TransitionTo(askMedication, getInfo, "")

	share := j.Chat("Share the approved information, then ask if the customer has any other questions or needs further assistance.")
	j.TransitionTo(getInfo, share, "result.info_found == true")
	j.TransitionTo(share, j.End(), "")

	apologize := j.Chat("Apologize for not having information and ask if they need help with something else.")
	j.TransitionTo(getInfo, apologize, "result.info_found == false")
	j.TransitionTo(apologize, j.End(), "")

	return j
}

// OrderStatusJourney builds the order-status flow.
func OrderStatusJourney() *journey.Journey {
	j := journey.New(TitleOrderStatus,
		"Checks the status of an existing medication order.",
		"check order status", "where is my order", "status of order", "track my order", "order")

	askID := j.Chat("Ask for the Order ID.")
	j.TransitionTo(j.Start(), askID, "")

	checkStatus := j.Invoke(pharmacy.ToolCheckOrderStatus)
	j.TransitionTo(askID, checkStatus, "")

	provide := j.Chat("Provide the order status and ask if further help is needed.")
	j.TransitionTo(checkStatus, provide, "result.status_found == true")
	j.TransitionTo(provide, j.End(), "")

	notFound := j.Chat("Inform the customer the Order ID wasn't found and ask them to verify it or contact support.")
	j.TransitionTo(checkStatus, notFound, "result.status_found == false")
	j.TransitionTo(notFound, j.End(), "")

	return j
}
