package medhub

import (
	"time"

	"github.com/google/uuid"
)

// ContentKind is the domain type for content categories.
type ContentKind string

// Content kind constants (typed).
const (
	KindJournal     ContentKind = "journal"
	KindBlog        ContentKind = "blog"
	KindVideo       ContentKind = "video"
	KindEvent       ContentKind = "event"
	KindAchievement ContentKind = "achievement"
	KindMember      ContentKind = "member"
)

// ContentStatus is the domain type for the approval workflow states.
type ContentStatus string

// Content status constants (typed). Submissions always land pending;
// only approved content is publicly listable.
const (
	ContentStatusPending  ContentStatus = "pending"
	ContentStatusApproved ContentStatus = "approved"
	ContentStatusRejected ContentStatus = "rejected"
	ContentStatusDeleted  ContentStatus = "deleted"
)

// EngagementKind is the domain type for per-member engagement toggles.
type EngagementKind string

// Engagement kind constants (typed).
const (
	EngagementLike     EngagementKind = "like"
	EngagementBookmark EngagementKind = "bookmark"
)

// Content represents one submission of any kind. The event-only
// fields are zero for every other kind.
type Content struct {
	ID        uuid.UUID   `json:"id"`
	OwnerID   string      `json:"owner_id"`
	OwnerName string      `json:"owner_name,omitempty"`
	Kind      ContentKind `json:"kind"`
	Title     string      `json:"title"`
	Body      string      `json:"body,omitempty"`
	Category  string      `json:"category,omitempty"`
	Status    string      `json:"status"`

	Likes     int64 `json:"likes"`
	Views     int64 `json:"views"`
	Bookmarks int64 `json:"bookmarks"`

	EventStart    *time.Time `json:"event_start,omitempty"`
	EventLocation string     `json:"event_location,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Comment represents a member comment on approved content.
type Comment struct {
	ID         uuid.UUID `json:"id"`
	ContentID  uuid.UUID `json:"content_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// Registration represents one member's registration for an event.
type Registration struct {
	ID         uuid.UUID `json:"id"`
	EventID    uuid.UUID `json:"event_id"`
	MemberID   string    `json:"member_id"`
	MemberName string    `json:"member_name,omitempty"`
	Email      string    `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
}

// Asset represents a binary attachment (journal PDF, lecture video,
// cover image) stored in a storage backend. URL is the retrieval URL
// computed at upload time; callers needing a fresh presigned URL use
// AssetDownloadURL.
type Asset struct {
	ID                 uuid.UUID `json:"id"`
	ContentID          uuid.UUID `json:"content_id"`
	StorageBackendName string    `json:"storage_backend_name"`
	ObjectKey          string    `json:"object_key"`
	FileName           string    `json:"file_name,omitempty"`
	MimeType           string    `json:"mime_type"`
	SizeBytes          int64     `json:"size_bytes"`
	URL                string    `json:"url,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ObjectMeta contains metadata about an object in a storage backend.
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// UploadParams contains parameters for uploading an object.
type UploadParams struct {
	ObjectKey string
	MimeType  string
}

// ListFilter defines filtering options for listing and counting
// content. Nil fields match everything.
type ListFilter struct {
	Kind     *ContentKind
	Status   *string
	Category *string
	OwnerID  *string
	Limit    *int
	Offset   *int
}

// ListOption represents a functional option for building a ListFilter.
type ListOption func(*ListFilter)

// WithKind filters by content kind.
func WithKind(kind ContentKind) ListOption {
	return func(f *ListFilter) { f.Kind = &kind }
}

// WithStatus filters by approval status.
func WithStatus(status ContentStatus) ListOption {
	return func(f *ListFilter) {
		s := string(status)
		f.Status = &s
	}
}

// WithCategory filters by category.
func WithCategory(category string) ListOption {
	return func(f *ListFilter) { f.Category = &category }
}

// WithOwner filters by the submitting member's identity.
func WithOwner(ownerID string) ListOption {
	return func(f *ListFilter) { f.OwnerID = &ownerID }
}

// WithPagination sets limit and offset.
func WithPagination(limit, offset int) ListOption {
	return func(f *ListFilter) {
		f.Limit = &limit
		f.Offset = &offset
	}
}

// NewListFilter builds a filter from options.
func NewListFilter(options ...ListOption) ListFilter {
	var f ListFilter
	for _, option := range options {
		option(&f)
	}
	return f
}
