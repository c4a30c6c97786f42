package medhub

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// BlobStore defines the interface for storage backends
type BlobStore interface {
	// GetUploadURL returns a URL for uploading content
	GetUploadURL(ctx context.Context, objectKey string) (string, error)

	// Upload uploads content directly
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams uploads content with additional parameters
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// GetDownloadURL returns a URL for downloading content
	GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error)

	// GetPreviewURL returns a URL for previewing content inline
	GetPreviewURL(ctx context.Context, objectKey string) (string, error)

	// Download downloads content directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes content
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// Repository defines the interface for content persistence. Counter
// and engagement-set mutations live here so a SQL implementation can
// make them atomic.
type Repository interface {
	// Content operations
	CreateContent(ctx context.Context, content *Content) error
	GetContent(ctx context.Context, id uuid.UUID) (*Content, error)
	UpdateContent(ctx context.Context, content *Content) error
	DeleteContent(ctx context.Context, id uuid.UUID) error
	ListContent(ctx context.Context, filter ListFilter) ([]*Content, error)
	CountContent(ctx context.Context, filter ListFilter) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status ContentStatus) error

	// Engagement operations
	ToggleEngagement(ctx context.Context, contentID uuid.UUID, memberID string, kind EngagementKind) (bool, error)
	IncrementViews(ctx context.Context, contentID uuid.UUID) (int64, error)
	ListEngaged(ctx context.Context, memberID string, kind EngagementKind) ([]*Content, error)

	// Comment operations
	CreateComment(ctx context.Context, comment *Comment) error
	ListComments(ctx context.Context, contentID uuid.UUID) ([]*Comment, error)

	// Event registration operations
	CreateRegistration(ctx context.Context, registration *Registration) error
	ListRegistrations(ctx context.Context, eventID uuid.UUID) ([]*Registration, error)

	// Asset operations
	CreateAsset(ctx context.Context, asset *Asset) error
	GetAsset(ctx context.Context, id uuid.UUID) (*Asset, error)
	GetAssetsByContentID(ctx context.Context, contentID uuid.UUID) ([]*Asset, error)
	UpdateAsset(ctx context.Context, asset *Asset) error
	DeleteAsset(ctx context.Context, id uuid.UUID) error
}

// EventSink defines the interface for event handling
type EventSink interface {
	// ContentSubmitted is fired when content enters the review queue
	ContentSubmitted(ctx context.Context, content *Content) error

	// ContentApproved is fired when a reviewer approves content
	ContentApproved(ctx context.Context, content *Content) error

	// ContentRejected is fired when a reviewer rejects content
	ContentRejected(ctx context.Context, content *Content) error

	// ContentDeleted is fired when content is deleted
	ContentDeleted(ctx context.Context, contentID uuid.UUID) error

	// AssetUploaded is fired when an asset upload completes
	AssetUploaded(ctx context.Context, asset *Asset) error

	// CommentAdded is fired when a comment is stored
	CommentAdded(ctx context.Context, comment *Comment) error

	// RegistrationCreated is fired when an event registration is stored
	RegistrationCreated(ctx context.Context, registration *Registration) error
}
