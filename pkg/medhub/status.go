package medhub

import "fmt"

// allowedTransitions encodes the approval workflow. Submissions start
// pending; reviewers move them to approved or rejected; rejected
// content may be re-reviewed; deletion is terminal.
var allowedTransitions = map[ContentStatus][]ContentStatus{
	ContentStatusPending:  {ContentStatusApproved, ContentStatusRejected, ContentStatusDeleted},
	ContentStatusApproved: {ContentStatusRejected, ContentStatusDeleted},
	ContentStatusRejected: {ContentStatusApproved, ContentStatusDeleted},
	ContentStatusDeleted:  {},
}

// ValidStatus reports whether s names a workflow state.
func ValidStatus(s ContentStatus) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// ValidateStatusTransition checks an approval workflow transition.
func ValidateStatusTransition(from, to ContentStatus) error {
	if !ValidStatus(from) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidStatusTransition, from)
	}
	if !ValidStatus(to) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidStatusTransition, to)
	}
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, from, to)
}
