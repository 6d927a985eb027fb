// Package negotiation holds the job request state machine as pure data.
// Nothing here touches storage; side effects of a transition belong to the
// service layer.
package negotiation

import "github.com/handshakehq/handshake-core/internal/model"

type Rule struct {
	To        model.JobStatus
	AllowedBy model.Role
	Label     string
}

var transitions = map[model.JobStatus][]Rule{
	model.JobStatusPending: {
		{To: model.JobStatusClarifying, AllowedBy: model.RoleSeller, Label: "Start Discussion"},
		{To: model.JobStatusOffered, AllowedBy: model.RoleSeller, Label: "Send Offer"},
		{To: model.JobStatusDeclined, AllowedBy: model.RoleSeller, Label: "Decline Request"},
		{To: model.JobStatusCancelled, AllowedBy: model.RoleCustomer, Label: "Cancel Request"},
	},
	model.JobStatusClarifying: {
		{To: model.JobStatusOffered, AllowedBy: model.RoleSeller, Label: "Send Offer"},
		{To: model.JobStatusDeclined, AllowedBy: model.RoleSeller, Label: "Decline Request"},
		{To: model.JobStatusCancelled, AllowedBy: model.RoleCustomer, Label: "Cancel Request"},
	},
	model.JobStatusOffered: {
		{To: model.JobStatusAccepted, AllowedBy: model.RoleCustomer, Label: "Accept Offer"},
		{To: model.JobStatusClarifying, AllowedBy: model.RoleCustomer, Label: "Ask Questions"},
		{To: model.JobStatusDeclined, AllowedBy: model.RoleCustomer, Label: "Decline Offer"},
		{To: model.JobStatusCancelled, AllowedBy: model.RoleCustomer, Label: "Cancel Request"},
		{To: model.JobStatusOffered, AllowedBy: model.RoleSeller, Label: "Revise Offer"},
	},
	model.JobStatusAccepted: {
		{To: model.JobStatusInProgress, AllowedBy: model.RoleSeller, Label: "Start Work"},
		{To: model.JobStatusCancelled, AllowedBy: model.RoleCustomer, Label: "Cancel"},
		{To: model.JobStatusCancelled, AllowedBy: model.RoleSeller, Label: "Cancel"},
	},
	model.JobStatusInProgress: {
		{To: model.JobStatusCompleted, AllowedBy: model.RoleSeller, Label: "Mark Complete"},
	},
	model.JobStatusCompleted: {
		{To: model.JobStatusReviewed, AllowedBy: model.RoleCustomer, Label: "Submit Review"},
		{To: model.JobStatusReviewed, AllowedBy: model.RoleSeller, Label: "Submit Review"},
	},
	model.JobStatusReviewed:  {},
	model.JobStatusCancelled: {},
	model.JobStatusDeclined:  {},
}

// CanTransition reports whether the table has an edge from current to
// target triggerable by role.
func CanTransition(current, target model.JobStatus, role model.Role) bool {
	for _, r := range transitions[current] {
		if r.To == target && r.AllowedBy == role {
			return true
		}
	}
	return false
}

// AvailableTransitions lists the edges the given role may trigger from
// current. Terminal statuses return nothing.
func AvailableTransitions(current model.JobStatus, role model.Role) []Rule {
	var out []Rule
	for _, r := range transitions[current] {
		if r.AllowedBy == role {
			out = append(out, r)
		}
	}
	return out
}

var statusLabels = map[model.JobStatus]string{
	model.JobStatusClarifying: "Discussion started",
	model.JobStatusOffered:    "Offer sent",
	model.JobStatusAccepted:   "Offer accepted",
	model.JobStatusInProgress: "Work has started",
	model.JobStatusCompleted:  "Work marked as complete",
	model.JobStatusReviewed:   "Reviews submitted",
	model.JobStatusCancelled:  "Request cancelled",
	model.JobStatusDeclined:   "Request declined",
}

// StatusLabel is the audit-trail wording for a status change.
func StatusLabel(status model.JobStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return "Status changed to " + string(status)
}
