package application

import (
	"strings"

	"erp-assistant/internal/domain"
)

// Questions spoken on entering each collecting step.
var stepQuestions = map[domain.Step]string{
	domain.StepAwaitingName:        "Product name?",
	domain.StepAwaitingType:        "Product type? Storable, consumable, or service?",
	domain.StepAwaitingCostPrice:   "Cost price?",
	domain.StepAwaitingSalePrice:   "Sale price?",
	domain.StepAwaitingDescription: "Description? Or say skip.",
}

// QuestionFor returns the question asked for the given step, or ""
// for idle.
func QuestionFor(step domain.Step) string {
	return stepQuestions[step]
}

// TurnOutcome is the result of applying one answer to the state machine.
type TurnOutcome struct {
	Next     domain.Step
	Retry    bool // re-ask the current question, step unchanged
	Complete bool // draft fully collected, ready to submit
}

// ApplyAnswer advances the conversation by one turn: it stores the
// answer into the draft field owned by the current step and returns
// the next step. The only non-forward transition is the retry loop on
// a price answer that normalizes to empty.
func ApplyAnswer(step domain.Step, transcript string, draft *domain.ProductDraft) TurnOutcome {
	text := strings.TrimSpace(transcript)

	switch step {
	case domain.StepAwaitingName:
		if text == "" {
			return TurnOutcome{Next: step, Retry: true}
		}
		draft.Name = text
		return TurnOutcome{Next: domain.StepAwaitingType}

	case domain.StepAwaitingType:
		draft.Type = ResolveProductType(text)
		return TurnOutcome{Next: domain.StepAwaitingCostPrice}

	case domain.StepAwaitingCostPrice:
		price := NormalizeNumber(text)
		if price == "" {
			return TurnOutcome{Next: step, Retry: true}
		}
		draft.CostPrice = price
		return TurnOutcome{Next: domain.StepAwaitingSalePrice}

	case domain.StepAwaitingSalePrice:
		price := NormalizeNumber(text)
		if price == "" {
			return TurnOutcome{Next: step, Retry: true}
		}
		draft.SalePrice = price
		return TurnOutcome{Next: domain.StepAwaitingDescription}

	case domain.StepAwaitingDescription:
		if strings.Contains(strings.ToLower(text), "skip") {
			draft.Description = ""
		} else {
			draft.Description = text
		}
		return TurnOutcome{Next: domain.StepIdle, Complete: true}

	default:
		return TurnOutcome{Next: domain.StepIdle}
	}
}

// ResolveProductType maps a spoken answer to a product type. "service"
// wins over "consumable"; anything else falls back to storable, which
// is a default rather than an error.
func ResolveProductType(text string) domain.ProductType {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "service"):
		return domain.ProductTypeService
	case strings.Contains(lower, "consumable"):
		return domain.ProductTypeConsumable
	default:
		return domain.ProductTypeStorable
	}
}
