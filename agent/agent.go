// Package agent assembles the PharmaPal pharmacy assistant: the domain store,
// the five tools, the three journeys, the disambiguation rule, the glossary
// and the global guideline set, all registered on one conversation engine.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/songzhibin97/gkit/generator"

	"github.com/nad125/pharmabot/journey"
	"github.com/nad125/pharmabot/pharmacy"
	"github.com/nad125/pharmabot/rules"
	"github.com/nad125/pharmabot/storage"
)

// Name is the assistant's public name.
const Name = "PharmaPal"

// Description is the assistant's identity and standing instructions, supplied
// to whatever renders responses on top of the engine.
const Description = `You are PharmaPal, a helpful and compliant pharmacy sales assistant.
Your functions are assisting customers with medication orders, checking stock and prescription needs, providing basic approved drug information, and checking order status.

CRITICAL RULES:
- NO MEDICAL ADVICE: never provide medical advice, diagnoses, dosage recommendations, or treatment suggestions. Direct the customer to a qualified healthcare professional.
- USE TOOLS ONLY: base drug information strictly on the get_drug_info tool output; do not add external knowledge.
- PRIVACY: only ask for information essential to the task.
- SEVERE SYMPTOMS: stop the process and strongly advise seeking immediate medical attention.
- PRESCRIPTIONS: medications flagged by check_stock must have their prescription verified before ordering.
- HUMAN HANDOFF: offer to connect the customer to a human pharmacist when asked or when stuck.`

// Agent is a fully wired PharmaPal instance.
type Agent struct {
	Engine *journey.Engine
	Store  *pharmacy.Store
}

// New builds the agent on the given ID generator and session storage. A nil
// storage falls back to the in-memory backend.
func New(generate generator.Generator, store storage.Storage) (*Agent, error) {
	evaluator := rules.NewExprEvaluator()
	registerHelpers(evaluator)

	engine, err := journey.NewEngine(generate, store, evaluator)
	if err != nil {
		return nil, err
	}

	domainStore := pharmacy.NewStore()
	ctx := context.Background()

	tools := []journey.Tool{
		&pharmacy.CheckStock{Store: domainStore},
		&pharmacy.GetDrugInfo{Store: domainStore},
		&pharmacy.VerifyPrescription{Store: domainStore},
		&pharmacy.PlaceOrder{Store: domainStore},
		&pharmacy.CheckOrderStatus{Store: domainStore},
	}
	for _, tool := range tools {
		if err := engine.RegisterTool(ctx, tool); err != nil {
			return nil, fmt.Errorf("register tool %s: %w", tool.Name(), err)
		}
	}

	for _, build := range []func() *journey.Journey{
		NewOrderJourney,
		DrugInfoJourney,
		OrderStatusJourney,
	} {
		j := build()
		if err := engine.RegisterJourney(ctx, j); err != nil {
			return nil, fmt.Errorf("register journey %q: %w", j.Title, err)
		}
	}

	engine.AddDisambiguation(journey.Disambiguation{
		Observation: "The customer mentions a medication and the word 'order', but it is unclear whether they want to place a new one or check an existing one.",
		Candidates:  []string{TitleNewOrder, TitleOrderStatus},
	})

	addGlossary(engine)
	addGuidelines(engine)

	return &Agent{Engine: engine, Store: domainStore}, nil
}

// registerHelpers exposes keyword matchers over the turn message to guideline
// and guard expressions.
func registerHelpers(evaluator *rules.ExprEvaluator) {
	evaluator.AddHelper("mentions", func(ctx map[string]interface{}) interface{} {
		message, _ := ctx["message"].(string)
		lower := strings.ToLower(message)
		return func(keyword string) bool {
			return strings.Contains(lower, strings.ToLower(keyword))
		}
	})
	evaluator.AddHelper("mentionsAny", func(ctx map[string]interface{}) interface{} {
		message, _ := ctx["message"].(string)
		lower := strings.ToLower(message)
		return func(keywords ...string) bool {
			for _, keyword := range keywords {
				if strings.Contains(lower, strings.ToLower(keyword)) {
					return true
				}
			}
			return false
		}
	})
}
