package application

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Submission step names, surfaced so callers can tell which collaborator
// failed and what recovery makes sense.
const (
	StepValidate       = "validate"
	StepCustomerUpsert = "customer_upsert"
	StepProofUpload    = "payment_proof_upload"
	StepOrderCreate    = "order_create"
	StepStockDecrement = "stock_decrement"
)

// ErrNoValidOrders means no category produced an order; the submission is a
// total failure.
var ErrNoValidOrders = errors.New("no valid orders were created")

// ValidationError blocks a submission before any write happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// CollaboratorError wraps a failed external call with the step it happened
// in. Earlier steps are NOT rolled back; the caller must assume partial
// completion up to Step.
type CollaboratorError struct {
	Step string
	Err  error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// PartialSubmissionError reports a checkout where some category orders were
// created and others failed. Distinct from total failure: the created subset
// is live and usable.
type PartialSubmissionError struct {
	CreatedIDs []string
	Failed     map[string]error // category id -> failure
}

func (e *PartialSubmissionError) Error() string {
	categories := make([]string, 0, len(e.Failed))
	for cat := range e.Failed {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	return fmt.Sprintf("order creation failed for categories [%s]; %d orders were created",
		strings.Join(categories, ", "), len(e.CreatedIDs))
}
