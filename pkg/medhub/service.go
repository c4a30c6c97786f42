package medhub

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service defines the main interface for the medhub content library
type Service interface {
	// Content operations
	SubmitContent(ctx context.Context, req SubmitContentRequest) (*Content, error)
	GetContent(ctx context.Context, id uuid.UUID) (*Content, error)
	UpdateContent(ctx context.Context, req UpdateContentRequest) error
	DeleteContent(ctx context.Context, id uuid.UUID) error
	ListContent(ctx context.Context, req ListContentRequest) ([]*Content, error)
	CountContent(ctx context.Context, filter ListFilter) (int64, error)

	// Approval workflow operations
	ApproveContent(ctx context.Context, id uuid.UUID) (*Content, error)
	RejectContent(ctx context.Context, id uuid.UUID) (*Content, error)
	ListPending(ctx context.Context, kind *ContentKind) ([]*Content, error)

	// Engagement operations (approved content only)
	ToggleLike(ctx context.Context, contentID uuid.UUID, memberID string) (bool, error)
	ToggleBookmark(ctx context.Context, contentID uuid.UUID, memberID string) (bool, error)
	RecordView(ctx context.Context, contentID uuid.UUID) (int64, error)
	ListBookmarked(ctx context.Context, memberID string) ([]*Content, error)
	AddComment(ctx context.Context, req AddCommentRequest) (*Comment, error)
	ListComments(ctx context.Context, contentID uuid.UUID) ([]*Comment, error)

	// Event registration operations
	RegisterForEvent(ctx context.Context, req RegisterForEventRequest) (*Registration, error)
	ListRegistrations(ctx context.Context, eventID uuid.UUID) ([]*Registration, error)

	// Asset operations
	UploadAsset(ctx context.Context, reader io.Reader, req UploadAssetRequest) (*Asset, error)
	GetAsset(ctx context.Context, id uuid.UUID) (*Asset, error)
	GetAssetsByContentID(ctx context.Context, contentID uuid.UUID) ([]*Asset, error)
	DownloadAsset(ctx context.Context, id uuid.UUID) (io.ReadCloser, error)
	AssetDownloadURL(ctx context.Context, id uuid.UUID) (string, error)
	AssetPreviewURL(ctx context.Context, id uuid.UUID) (string, error)
	DeleteAsset(ctx context.Context, id uuid.UUID) error

	// Storage backend operations
	RegisterBackend(name string, backend BlobStore)
	GetBackend(name string) (BlobStore, error)
}
