package agent

import (
	"github.com/nad125/pharmabot/journey"
	"github.com/nad125/pharmabot/types"
)

// addGlossary registers the domain terms used to ground responses.
func addGlossary(engine *journey.Engine) {
	terms := []types.Term{
		{
			Name:        "Prescription",
			Description: "An instruction written by a medical practitioner that authorizes a patient to be provided a medicine or treatment.",
		},
		{
			Name:        "Refill",
			Description: "A subsequent dispensing of a medication previously authorized by a prescription.",
		},
		{
			Name:        "Medical Advice",
			Description: "Recommendations regarding diagnosis, treatment, or prevention of medical conditions. Providing medical advice is strictly prohibited; always refer the customer to a qualified healthcare professional.",
		},
		{
			Name:        "Side Effects",
			Description: "Unintended secondary effects which a drug or medical treatment has on the body. Only provide information listed in the approved drug info.",
		},
		{
			Name:        "Contraindications",
			Description: "Specific situations in which a drug should not be used because it may be harmful to the person. Only provide information listed in the approved drug info.",
		},
		{
			Name:        "Pharmacist",
			Description: "A licensed healthcare professional specializing in medication dispensing and counseling. Human pharmacists are available for complex questions.",
		},
		{
			Name:        "Pharmacy Phone Number",
			Description: "Our pharmacy phone number is +1-800-PHARMA-1.",
		},
		{
			Name:        "Pharmacy Hours",
			Description: "We are open Monday to Friday, 9 AM to 7 PM, and Saturday 10 AM to 4 PM. Closed Sundays.",
		},
	}
	for _, term := range terms {
		engine.AddTerm(term)
	}
}
