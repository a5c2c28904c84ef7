package services

import (
	model "github.com/brightpathbh/qmportal/models"
)

// policyTransitions is the closed edge table for the policy approval
// workflow. Forward: draft -> in_review -> approved -> effective -> retired.
// Backward moves exist only from in_review and approved; retired is terminal.
var policyTransitions = map[string][]string{
	model.PolicyDraft:     {model.PolicyInReview},
	model.PolicyInReview:  {model.PolicyApproved, model.PolicyDraft},
	model.PolicyApproved:  {model.PolicyEffective, model.PolicyInReview},
	model.PolicyEffective: {model.PolicyRetired},
	model.PolicyRetired:   {},
}

// RequestStatusTransition validates a requested policy status move against
// the transition table. It holds no state and performs no I/O; persisting an
// approved move is the caller's job.
func RequestStatusTransition(currentStatus, requestedStatus string) bool {
	for _, to := range policyTransitions[currentStatus] {
		if to == requestedStatus {
			return true
		}
	}
	return false
}

// PolicyStatuses returns the workflow states in forward order, for API
// consumers rendering the pipeline.
func PolicyStatuses() []string {
	return []string{
		model.PolicyDraft,
		model.PolicyInReview,
		model.PolicyApproved,
		model.PolicyEffective,
		model.PolicyRetired,
	}
}
