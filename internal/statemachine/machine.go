// Package statemachine holds the transition graph of every document type in
// one place. All legality rules are evaluated through the shared Transition
// function instead of ad-hoc status checks scattered across services.
package statemachine

import (
	"github.com/shopspring/decimal"

	"erp-backend/internal/model"
	"erp-backend/pkg/apperror"
)

// GuardContext carries the document facts guards decide on. Services fill in
// the fields relevant to the document being transitioned.
type GuardContext struct {
	LineCount       int
	HasPurpose      bool
	HasApprover     bool
	ReceiptComplete bool // all PO lines fully received
	PartialOverride bool // explicit partial-completion override on SENT -> COMPLETED
}

// Guard is a precondition on a single edge. A nil guard always passes.
type Guard func(gc GuardContext) error

// Machine is the transition table of one document type.
type Machine struct {
	docType string
	edges   map[string]map[string]Guard
}

// Transition validates moving from the current to the target status.
// A missing edge yields InvalidTransition; a failing guard yields GuardFailed.
func (m *Machine) Transition(current, target string, gc GuardContext) error {
	targets, ok := m.edges[current]
	if !ok {
		return apperror.Newf(apperror.KindInvalidTransition,
			"%s: no transitions out of status %s", m.docType, current)
	}
	guard, ok := targets[target]
	if !ok {
		return apperror.Newf(apperror.KindInvalidTransition,
			"%s: transition %s -> %s is not allowed", m.docType, current, target)
	}
	if guard != nil {
		if err := guard(gc); err != nil {
			return err
		}
	}
	return nil
}

// CanTransition reports whether the edge exists, ignoring guards.
func (m *Machine) CanTransition(current, target string) bool {
	targets, ok := m.edges[current]
	if !ok {
		return false
	}
	_, ok = targets[target]
	return ok
}

// InitialStatus returns the status a new document of this type starts in.
func (m *Machine) InitialStatus() string {
	return model.StatusDraft
}

// ForDocType returns the machine registered for the document type code.
func ForDocType(docType string) (*Machine, error) {
	m, ok := machines[docType]
	if !ok {
		return nil, apperror.Newf(apperror.KindValidation, "unknown document type %s", docType)
	}
	return m, nil
}

// DeriveInvoiceStatus computes the derived invoice status from its amounts.
// Invoices are never transitioned by user action.
func DeriveInvoiceStatus(totalAmount, balanceAmount decimal.Decimal) string {
	switch {
	case balanceAmount.IsZero():
		return model.StatusPaid
	case balanceAmount.LessThan(totalAmount):
		return model.StatusPartiallyPaid
	default:
		return model.StatusUnpaid
	}
}
