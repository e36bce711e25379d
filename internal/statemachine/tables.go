package statemachine

import (
	"erp-backend/internal/model"
	"erp-backend/pkg/apperror"
)

func requireItems(gc GuardContext) error {
	if gc.LineCount == 0 {
		return apperror.New(apperror.KindGuardFailed, "document has no line items")
	}
	return nil
}

func requireApproverAndItems(gc GuardContext) error {
	if gc.LineCount == 0 {
		return apperror.New(apperror.KindGuardFailed, "document has no line items")
	}
	if !gc.HasApprover {
		return apperror.New(apperror.KindGuardFailed, "an approver is required")
	}
	return nil
}

func requirePurposeAndItems(gc GuardContext) error {
	if gc.LineCount == 0 {
		return apperror.New(apperror.KindGuardFailed, "document has no line items")
	}
	if !gc.HasPurpose {
		return apperror.New(apperror.KindGuardFailed, "purpose is required past draft")
	}
	return nil
}

func requireReceiptMatchOrOverride(gc GuardContext) error {
	if !gc.ReceiptComplete && !gc.PartialOverride {
		return apperror.New(apperror.KindGuardFailed,
			"received quantities do not match ordered quantities; pass the partial-completion override to close anyway")
	}
	return nil
}

var machines = map[string]*Machine{
	model.DocTypeRequisition: {
		docType: model.DocTypeRequisition,
		edges: map[string]map[string]Guard{
			model.StatusDraft: {
				model.StatusSubmitted: requirePurposeAndItems,
				model.StatusCancelled: nil,
			},
			model.StatusSubmitted: {
				model.StatusApproved:  requireApproverAndItems,
				model.StatusRejected:  requireApproverAndItems,
				model.StatusCancelled: nil,
			},
		},
	},
	model.DocTypeRFQ: {
		docType: model.DocTypeRFQ,
		edges: map[string]map[string]Guard{
			model.StatusDraft: {
				model.StatusIssued:    requireItems,
				model.StatusCancelled: nil,
			},
			model.StatusIssued: {
				model.StatusQuoted:    nil,
				model.StatusCancelled: nil,
			},
		},
	},
	model.DocTypePurchaseQuotation: {
		docType: model.DocTypePurchaseQuotation,
		edges: map[string]map[string]Guard{
			model.StatusDraft: {
				model.StatusSubmitted: requireItems,
				model.StatusCancelled: nil,
			},
			model.StatusSubmitted: {
				model.StatusApproved:  requireApproverAndItems,
				model.StatusRejected:  requireApproverAndItems,
				model.StatusCancelled: nil,
			},
			model.StatusApproved: {
				model.StatusSelected:  nil,
				model.StatusCancelled: nil,
			},
		},
	},
	model.DocTypePurchaseOrder: {
		docType: model.DocTypePurchaseOrder,
		edges: map[string]map[string]Guard{
			model.StatusDraft: {
				model.StatusPendingApproval: requireItems,
				model.StatusCancelled:       nil,
			},
			model.StatusPendingApproval: {
				model.StatusApproved:  requireApproverAndItems,
				model.StatusRejected:  requireApproverAndItems,
				model.StatusCancelled: nil,
			},
			model.StatusApproved: {
				model.StatusSent:      requireItems,
				model.StatusCancelled: nil,
			},
			model.StatusSent: {
				model.StatusCompleted: requireReceiptMatchOrOverride,
				model.StatusCancelled: nil,
			},
		},
	},
	model.DocTypeSalesQuotation: {
		docType: model.DocTypeSalesQuotation,
		edges: map[string]map[string]Guard{
			model.StatusDraft: {
				model.StatusSubmitted: requireItems,
				model.StatusCancelled: nil,
			},
			model.StatusSubmitted: {
				model.StatusApproved:  requireApproverAndItems,
				model.StatusRejected:  requireApproverAndItems,
				model.StatusCancelled: nil,
			},
		},
	},
	model.DocTypeSalesOrder: {
		docType: model.DocTypeSalesOrder,
		edges: map[string]map[string]Guard{
			model.StatusDraft: {
				model.StatusConfirmed: requireItems,
				model.StatusCancelled: nil,
			},
			model.StatusConfirmed: {
				model.StatusDelivered: nil,
				model.StatusCancelled: nil,
			},
			model.StatusDelivered: {
				model.StatusCompleted: nil,
			},
		},
	},
	model.DocTypeDelivery: {
		docType: model.DocTypeDelivery,
		edges: map[string]map[string]Guard{
			model.StatusDraft: {
				model.StatusConfirmed: requireItems,
				model.StatusCancelled: nil,
			},
		},
	},
	model.DocTypeGoodsReceipt: {
		docType: model.DocTypeGoodsReceipt,
		edges: map[string]map[string]Guard{
			model.StatusDraft: {
				model.StatusConfirmed: requireItems,
				model.StatusCancelled: nil,
			},
		},
	},
	model.DocTypeGoodIssue: {
		docType: model.DocTypeGoodIssue,
		edges: map[string]map[string]Guard{
			model.StatusDraft: {
				model.StatusExecuted:  requireItems,
				model.StatusCancelled: nil,
			},
		},
	},
	model.DocTypeReturnOrder: {
		docType: model.DocTypeReturnOrder,
		edges: map[string]map[string]Guard{
			model.StatusDraft: {
				model.StatusApproved:  requireApproverAndItems,
				model.StatusRejected:  requireApproverAndItems,
				model.StatusCancelled: nil,
			},
			model.StatusApproved: {
				model.StatusReceived:  nil,
				model.StatusCancelled: nil,
			},
		},
	},
	model.DocTypeCreditNote: {
		docType: model.DocTypeCreditNote,
		edges: map[string]map[string]Guard{
			model.StatusDraft: {
				model.StatusConfirmed: requireItems,
				model.StatusCancelled: nil,
			},
		},
	},
}
