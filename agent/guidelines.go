package agent

import (
	"github.com/nad125/pharmabot/journey"
	"github.com/nad125/pharmabot/types"
)

// Guideline priorities. Higher wins; ties resolve to declaration order.
const (
	PrioritySevereSymptoms  = 11
	PriorityMedicalAdvice   = 10
	PriorityInteractions    = 9
	PriorityExplicitHandoff = 8
	PriorityImplicitHandoff = 7
	PriorityMissingRx       = 3
	PriorityFrustration     = 2
	PriorityOffTopic        = 1
)

// addGuidelines registers the global guideline set. Conditions are keyword
// matches over the turn message via the mentions/mentionsAny helpers; a
// fuller deployment would put an intent classifier behind the same
// expressions. The severe-symptom rule is terminal: it pre-empts and ends
// whatever journey is in progress.
func addGuidelines(engine *journey.Engine) {
	engine.AddGuideline(types.Guideline{
		Condition: `mentionsAny("severe pain", "trouble breathing", "allergic reaction", "feeling faint", "chest pain", "overdose")`,
		Action:    "Express empathy briefly and stop the current process. For symptoms like that, please contact emergency services or your doctor right away.",
		Priority:  PrioritySevereSymptoms,
		Terminal:  true,
	})
	engine.AddGuideline(types.Guideline{
		Condition: `mentionsAny("medical advice", "diagnose", "diagnosis", "what should i take", "recommend a dosage", "how much should i take", "treatment for")`,
		Action:    "Politely refuse: as an assistant you cannot provide medical advice. Recommend consulting a doctor or pharmacist via the Pharmacy Phone Number.",
		Priority:  PriorityMedicalAdvice,
	})
	engine.AddGuideline(types.Guideline{
		Condition: `mentionsAny("interaction", "interact with", "mix with", "take together", "combine with")`,
		Action:    "Politely refuse: drug interactions are complex and potentially dangerous and must be discussed with a qualified pharmacist or doctor who knows the full medical history. Offer the Pharmacy Phone Number.",
		Priority:  PriorityInteractions,
	})
	engine.AddGuideline(types.Guideline{
		Condition: `mentionsAny("speak to a human", "talk to a human", "real person", "speak to a pharmacist", "talk to a pharmacist")`,
		Action:    "Acknowledge the request. Provide the Pharmacy Phone Number and Pharmacy Hours; a human pharmacist can assist further.",
		Priority:  PriorityExplicitHandoff,
	})
	engine.AddGuideline(types.Guideline{
		Condition: `mentionsAny("too complicated", "i give up", "nothing works", "stuck")`,
		Action:    "Politely state the limitation and offer to connect the customer with a human pharmacist. Provide the Pharmacy Phone Number and Pharmacy Hours.",
		Priority:  PriorityImplicitHandoff,
	})
	engine.AddGuideline(types.Guideline{
		Condition: `mentionsAny("without a prescription", "don't have a prescription", "no prescription")`,
		Action:    "Inform the customer that prescription medications require a valid prescription reference number to proceed with an order, and ask if they have one.",
		Priority:  PriorityMissingRx,
	})
	engine.AddGuideline(types.Guideline{
		Condition: `mentionsAny("frustrated", "ridiculous", "this is not working", "i don't understand", "confused")`,
		Action:    "Respond with empathy and patience, offer to clarify or explain differently, and ask if they would prefer to speak with a human pharmacist via the Pharmacy Phone Number.",
		Priority:  PriorityFrustration,
	})
	engine.AddGuideline(types.Guideline{
		Condition: `mentionsAny("weather", "sports", "politics", "tell me a joke")`,
		Action:    "Politely redirect the conversation back to pharmacy topics: medication orders, basic drug information, order status, and opening hours.",
		Priority:  PriorityOffTopic,
	})
}
