package medhub

import (
	"time"

	"github.com/google/uuid"
)

// SubmitContentRequest contains parameters for submitting content.
// Every submission lands in the pending state awaiting review.
type SubmitContentRequest struct {
	OwnerID   string
	OwnerName string
	Kind      ContentKind
	Title     string
	Body      string
	Category  string

	// Event-only fields
	EventStart    *time.Time
	EventLocation string
}

// UpdateContentRequest contains parameters for updating content.
type UpdateContentRequest struct {
	Content *Content
}

// ListContentRequest contains parameters for listing content.
type ListContentRequest struct {
	Filter ListFilter
}

// AddCommentRequest contains parameters for commenting on content.
type AddCommentRequest struct {
	ContentID  uuid.UUID
	AuthorID   string
	AuthorName string
	Body       string
}

// RegisterForEventRequest contains parameters for an event registration.
type RegisterForEventRequest struct {
	EventID    uuid.UUID
	MemberID   string
	MemberName string
	Email      string
}

// UploadAssetRequest contains parameters for uploading a binary asset.
type UploadAssetRequest struct {
	ContentID          uuid.UUID
	StorageBackendName string // empty selects the default backend
	FileName           string
	MimeType           string
}
