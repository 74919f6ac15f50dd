package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nad125/pharmabot/journey"
	"github.com/nad125/pharmabot/pharmacy"
	"github.com/nad125/pharmabot/types"
)

type counterGenerator struct {
	id uint64
}

func (g *counterGenerator) NextID() (uint64, error) {
	g.id++
	return g.id, nil
}

func newTestAgent(t *testing.T) *Agent {
	t.Helper()
	a, err := New(&counterGenerator{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Engine.Stop(context.Background()) })
	return a
}

func turn(message string, kv ...interface{}) journey.Turn {
	args := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		args[kv[i].(string)] = kv[i+1]
	}
	return journey.Turn{Message: message, Args: args}
}

func TestPrescriptionOrderConversation(t *testing.T) {
	a := newTestAgent(t)
	ctx := context.Background()

	route := a.Engine.Route("I want to buy medicine")
	require.False(t, route.Ambiguous)
	require.Equal(t, TitleNewOrder, route.Journey)

	reply, err := a.Engine.StartSession(ctx, route.Journey, nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "which medication")
	assert.False(t, reply.Done)

	reply, err = a.Engine.HandleTurn(ctx, reply.SessionID,
		turn("I need some Amoxicillin", pharmacy.ArgMedicationName, "amoxicillin"))
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "prescription reference")
	assert.Contains(t, reply.Feedback, "in stock")

	reply, err = a.Engine.HandleTurn(ctx, reply.SessionID,
		turn("My reference is RX12345", pharmacy.ArgPrescriptionRef, "RX12345"))
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "how many units")

	reply, err = a.Engine.HandleTurn(ctx, reply.SessionID,
		turn("Two boxes please", pharmacy.ArgQuantity, 2))
	require.NoError(t, err)
	assert.True(t, reply.Done)
	assert.Equal(t, journey.SourceJourney, reply.Source)
	assert.Contains(t, reply.Text, "Confirm the order")
	assert.Contains(t, reply.Feedback, "Order placed successfully")

	sess, err := a.Engine.Session(ctx, reply.SessionID)
	require.NoError(t, err)
	assert.Equal(t, types.SessionCompleted, sess.Status)

	result, _ := sess.Context["result"].(map[string]interface{})
	orderID, _ := result["order_id"].(string)
	require.NotEmpty(t, orderID)
	order, found := a.Store.FindOrder(orderID)
	require.True(t, found)
	assert.Equal(t, 2, order.Quantity)

	item, _ := a.Store.FindInventory("Amoxicillin 250mg Capsules")
	assert.Equal(t, 48, item.Stock)
}

func TestNonPrescriptionOrderSkipsVerification(t *testing.T) {
	a := newTestAgent(t)
	ctx := context.Background()

	reply, err := a.Engine.StartSession(ctx, TitleNewOrder, nil)
	require.NoError(t, err)

	reply, err = a.Engine.HandleTurn(ctx, reply.SessionID,
		turn("Paracetamol please", pharmacy.ArgMedicationName, "paracetamol"))
	require.NoError(t, err)
	// No prescription needed, so the flow goes straight to the quantity ask.
	assert.Contains(t, reply.Text, "how many units")

	reply, err = a.Engine.HandleTurn(ctx, reply.SessionID,
		turn("Just one", pharmacy.ArgQuantity, 1))
	require.NoError(t, err)
	assert.True(t, reply.Done)
	assert.Contains(t, reply.Feedback, "Order placed successfully")
}

func TestOutOfStockEndsJourney(t *testing.T) {
	a := newTestAgent(t)
	ctx := context.Background()

	reply, err := a.Engine.StartSession(ctx, TitleNewOrder, nil)
	require.NoError(t, err)

	reply, err = a.Engine.HandleTurn(ctx, reply.SessionID,
		turn("Ibuprofen please", pharmacy.ArgMedicationName, "ibuprofen"))
	require.NoError(t, err)
	assert.True(t, reply.Done)
	assert.Contains(t, reply.Text, "out of stock")
	assert.Contains(t, reply.Feedback, "out of stock")

	sess, err := a.Engine.Session(ctx, reply.SessionID)
	require.NoError(t, err)
	assert.Equal(t, types.SessionCompleted, sess.Status)
}

func TestInvalidPrescriptionEndsJourney(t *testing.T) {
	a := newTestAgent(t)
	ctx := context.Background()

	reply, err := a.Engine.StartSession(ctx, TitleNewOrder, nil)
	require.NoError(t, err)

	reply, err = a.Engine.HandleTurn(ctx, reply.SessionID,
		turn("Lisinopril please", pharmacy.ArgMedicationName, "lisinopril"))
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "prescription reference")

	reply, err = a.Engine.HandleTurn(ctx, reply.SessionID,
		turn("Here it is", pharmacy.ArgPrescriptionRef, "RX67890"))
	require.NoError(t, err)
	assert.True(t, reply.Done)
	assert.Contains(t, reply.Text, "could not be verified")

	// Nothing was ordered.
	item, _ := a.Store.FindInventory("Lisinopril 10mg Tablets")
	assert.Equal(t, 75, item.Stock)
}

func TestSevereSymptomPreemptsJourney(t *testing.T) {
	a := newTestAgent(t)
	ctx := context.Background()

	reply, err := a.Engine.StartSession(ctx, TitleNewOrder, nil)
	require.NoError(t, err)

	reply, err = a.Engine.HandleTurn(ctx, reply.SessionID,
		turn("Actually I'm having trouble breathing right now"))
	require.NoError(t, err)
	assert.True(t, reply.Done)
	assert.Equal(t, journey.SourceGuideline, reply.Source)
	assert.Contains(t, reply.Text, "emergency services")

	sess, err := a.Engine.Session(ctx, reply.SessionID)
	require.NoError(t, err)
	assert.Equal(t, types.SessionPreempted, sess.Status)

	_, err = a.Engine.HandleTurn(ctx, reply.SessionID, turn("paracetamol"))
	assert.ErrorIs(t, err, journey.ErrSessionFinished)
}

func TestGuidelineConsumesTurnWithoutAdvancing(t *testing.T) {
	a := newTestAgent(t)
	ctx := context.Background()

	start, err := a.Engine.StartSession(ctx, TitleNewOrder, nil)
	require.NoError(t, err)

	reply, err := a.Engine.HandleTurn(ctx, start.SessionID,
		turn("Can you give me some medical advice first?"))
	require.NoError(t, err)
	assert.Equal(t, journey.SourceGuideline, reply.Source)
	assert.False(t, reply.Done)

	// The journey picks up where it left off on the next turn.
	reply, err = a.Engine.HandleTurn(ctx, start.SessionID,
		turn("Fine. Paracetamol then.", pharmacy.ArgMedicationName, "paracetamol"))
	require.NoError(t, err)
	assert.Equal(t, journey.SourceJourney, reply.Source)
	assert.Contains(t, reply.Text, "how many units")
}

func TestOrderStatusConversation(t *testing.T) {
	a := newTestAgent(t)
	ctx := context.Background()

	order, err := a.Store.CreateOrder("Paracetamol 500mg Tablets", 3, "")
	require.NoError(t, err)

	route := a.Engine.Route("where is my order")
	require.Equal(t, TitleOrderStatus, route.Journey)
	require.False(t, route.Ambiguous)

	reply, err := a.Engine.StartSession(ctx, route.Journey, nil)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Order ID")

	reply, err = a.Engine.HandleTurn(ctx, reply.SessionID,
		turn("It was "+order.ID, pharmacy.ArgOrderID, order.ID))
	require.NoError(t, err)
	assert.True(t, reply.Done)
	assert.Contains(t, reply.Feedback, pharmacy.OrderProcessing)
}

func TestDrugInfoConversation(t *testing.T) {
	a := newTestAgent(t)
	ctx := context.Background()

	route := a.Engine.Route("tell me about paracetamol")
	require.Equal(t, TitleDrugInfo, route.Journey)

	reply, err := a.Engine.StartSession(ctx, route.Journey, nil)
	require.NoError(t, err)

	reply, err = a.Engine.HandleTurn(ctx, reply.SessionID,
		turn("Paracetamol", pharmacy.ArgMedicationName, "paracetamol"))
	require.NoError(t, err)
	assert.True(t, reply.Done)
	assert.Contains(t, reply.Feedback, "Disclaimer")
}

func TestAmbiguousOrderRequest(t *testing.T) {
	a := newTestAgent(t)

	route := a.Engine.Route("Can you help with my Lisinopril order?")
	require.True(t, route.Ambiguous)
	assert.ElementsMatch(t, []string{TitleNewOrder, TitleOrderStatus}, route.Candidates)
	assert.NotEmpty(t, route.Observation)
}

func TestConsultPrioritizesSevereSymptoms(t *testing.T) {
	a := newTestAgent(t)

	g := a.Engine.Consult("I have chest pain, should I get medical advice?")
	require.NotNil(t, g)
	assert.Equal(t, PrioritySevereSymptoms, g.Priority)
	assert.True(t, g.Terminal)

	assert.Nil(t, a.Engine.Consult("hello there"))
}

func TestGlossary(t *testing.T) {
	a := newTestAgent(t)

	terms := a.Engine.Glossary()
	assert.Len(t, terms, 8)

	names := make(map[string]string, len(terms))
	for _, term := range terms {
		names[term.Name] = term.Description
	}
	assert.Contains(t, names, "Prescription")
	assert.Contains(t, names["Pharmacy Phone Number"], "1-800-PHARMA-1")
}
