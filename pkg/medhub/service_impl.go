package medhub

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	repository     Repository
	blobStores     map[string]BlobStore
	defaultBackend string
	eventSink      EventSink
	logger         *slog.Logger
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore adds a blob storage backend. The first registered
// backend becomes the default unless WithDefaultBackend overrides it.
func WithBlobStore(name string, store BlobStore) Option {
	return func(s *service) {
		if s.blobStores == nil {
			s.blobStores = make(map[string]BlobStore)
		}
		s.blobStores[name] = store
		if s.defaultBackend == "" {
			s.defaultBackend = name
		}
	}
}

// WithDefaultBackend selects the backend used when a request does not
// name one.
func WithDefaultBackend(name string) Option {
	return func(s *service) {
		s.defaultBackend = name
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		blobStores: make(map[string]BlobStore),
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// Content operations

func (s *service) SubmitContent(ctx context.Context, req SubmitContentRequest) (*Content, error) {
	now := time.Now().UTC()
	content := &Content{
		ID:            uuid.New(),
		OwnerID:       req.OwnerID,
		OwnerName:     req.OwnerName,
		Kind:          req.Kind,
		Title:         req.Title,
		Body:          req.Body,
		Category:      req.Category,
		Status:        string(ContentStatusPending),
		EventStart:    req.EventStart,
		EventLocation: req.EventLocation,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repository.CreateContent(ctx, content); err != nil {
		return nil, &ContentError{
			ContentID: content.ID,
			Op:        "submit",
			Err:       err,
		}
	}

	s.fireEvent(ctx, "content_submitted", func(sink EventSink) error {
		return sink.ContentSubmitted(ctx, content)
	})

	return content, nil
}

func (s *service) GetContent(ctx context.Context, id uuid.UUID) (*Content, error) {
	return s.repository.GetContent(ctx, id)
}

func (s *service) UpdateContent(ctx context.Context, req UpdateContentRequest) error {
	req.Content.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdateContent(ctx, req.Content); err != nil {
		return &ContentError{
			ContentID: req.Content.ID,
			Op:        "update",
			Err:       err,
		}
	}

	return nil
}

func (s *service) DeleteContent(ctx context.Context, id uuid.UUID) error {
	content, err := s.repository.GetContent(ctx, id)
	if err != nil {
		return err
	}

	if err := ValidateStatusTransition(ContentStatus(content.Status), ContentStatusDeleted); err != nil {
		return err
	}

	if err := s.repository.DeleteContent(ctx, id); err != nil {
		return &ContentError{
			ContentID: id,
			Op:        "delete",
			Err:       err,
		}
	}

	s.fireEvent(ctx, "content_deleted", func(sink EventSink) error {
		return sink.ContentDeleted(ctx, id)
	})

	return nil
}

func (s *service) ListContent(ctx context.Context, req ListContentRequest) ([]*Content, error) {
	return s.repository.ListContent(ctx, req.Filter)
}

func (s *service) CountContent(ctx context.Context, filter ListFilter) (int64, error) {
	return s.repository.CountContent(ctx, filter)
}

// Approval workflow operations

func (s *service) ApproveContent(ctx context.Context, id uuid.UUID) (*Content, error) {
	content, err := s.setStatus(ctx, id, ContentStatusApproved)
	if err != nil {
		return nil, err
	}

	s.fireEvent(ctx, "content_approved", func(sink EventSink) error {
		return sink.ContentApproved(ctx, content)
	})

	return content, nil
}

func (s *service) RejectContent(ctx context.Context, id uuid.UUID) (*Content, error) {
	content, err := s.setStatus(ctx, id, ContentStatusRejected)
	if err != nil {
		return nil, err
	}

	s.fireEvent(ctx, "content_rejected", func(sink EventSink) error {
		return sink.ContentRejected(ctx, content)
	})

	return content, nil
}

func (s *service) ListPending(ctx context.Context, kind *ContentKind) ([]*Content, error) {
	filter := NewListFilter(WithStatus(ContentStatusPending))
	filter.Kind = kind
	return s.repository.ListContent(ctx, filter)
}

func (s *service) setStatus(ctx context.Context, id uuid.UUID, to ContentStatus) (*Content, error) {
	content, err := s.repository.GetContent(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := ValidateStatusTransition(ContentStatus(content.Status), to); err != nil {
		return nil, err
	}

	if err := s.repository.UpdateStatus(ctx, id, to); err != nil {
		return nil, &ContentError{
			ContentID: id,
			Op:        "set_status",
			Err:       err,
		}
	}

	content.Status = string(to)
	content.UpdatedAt = time.Now().UTC()
	return content, nil
}

// Engagement operations

func (s *service) ToggleLike(ctx context.Context, contentID uuid.UUID, memberID string) (bool, error) {
	if err := s.requireApproved(ctx, contentID); err != nil {
		return false, err
	}
	return s.repository.ToggleEngagement(ctx, contentID, memberID, EngagementLike)
}

func (s *service) ToggleBookmark(ctx context.Context, contentID uuid.UUID, memberID string) (bool, error) {
	if err := s.requireApproved(ctx, contentID); err != nil {
		return false, err
	}
	return s.repository.ToggleEngagement(ctx, contentID, memberID, EngagementBookmark)
}

func (s *service) RecordView(ctx context.Context, contentID uuid.UUID) (int64, error) {
	if err := s.requireApproved(ctx, contentID); err != nil {
		return 0, err
	}
	return s.repository.IncrementViews(ctx, contentID)
}

func (s *service) ListBookmarked(ctx context.Context, memberID string) ([]*Content, error) {
	return s.repository.ListEngaged(ctx, memberID, EngagementBookmark)
}

func (s *service) AddComment(ctx context.Context, req AddCommentRequest) (*Comment, error) {
	if err := s.requireApproved(ctx, req.ContentID); err != nil {
		return nil, err
	}

	comment := &Comment{
		ID:         uuid.New(),
		ContentID:  req.ContentID,
		AuthorID:   req.AuthorID,
		AuthorName: req.AuthorName,
		Body:       req.Body,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repository.CreateComment(ctx, comment); err != nil {
		return nil, &ContentError{
			ContentID: req.ContentID,
			Op:        "add_comment",
			Err:       err,
		}
	}

	s.fireEvent(ctx, "comment_added", func(sink EventSink) error {
		return sink.CommentAdded(ctx, comment)
	})

	return comment, nil
}

func (s *service) ListComments(ctx context.Context, contentID uuid.UUID) ([]*Comment, error) {
	return s.repository.ListComments(ctx, contentID)
}

func (s *service) requireApproved(ctx context.Context, contentID uuid.UUID) error {
	content, err := s.repository.GetContent(ctx, contentID)
	if err != nil {
		return err
	}
	if content.Status != string(ContentStatusApproved) {
		return ErrContentNotApproved
	}
	return nil
}

// Event registration operations

func (s *service) RegisterForEvent(ctx context.Context, req RegisterForEventRequest) (*Registration, error) {
	content, err := s.repository.GetContent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if content.Kind != KindEvent {
		return nil, ErrNotAnEvent
	}
	if content.Status != string(ContentStatusApproved) {
		return nil, ErrContentNotApproved
	}

	registration := &Registration{
		ID:         uuid.New(),
		EventID:    req.EventID,
		MemberID:   req.MemberID,
		MemberName: req.MemberName,
		Email:      req.Email,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repository.CreateRegistration(ctx, registration); err != nil {
		return nil, err
	}

	s.fireEvent(ctx, "registration_created", func(sink EventSink) error {
		return sink.RegistrationCreated(ctx, registration)
	})

	return registration, nil
}

func (s *service) ListRegistrations(ctx context.Context, eventID uuid.UUID) ([]*Registration, error) {
	return s.repository.ListRegistrations(ctx, eventID)
}

// Asset operations

func (s *service) UploadAsset(ctx context.Context, reader io.Reader, req UploadAssetRequest) (*Asset, error) {
	content, err := s.repository.GetContent(ctx, req.ContentID)
	if err != nil {
		return nil, err
	}

	backendName := req.StorageBackendName
	if backendName == "" {
		backendName = s.defaultBackend
	}
	backend, err := s.GetBackend(backendName)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	asset := &Asset{
		ID:                 uuid.New(),
		ContentID:          req.ContentID,
		StorageBackendName: backendName,
		FileName:           req.FileName,
		MimeType:           req.MimeType,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	asset.ObjectKey = AssetObjectKey(content.Kind, content.ID, asset.ID, req.FileName)

	if err := backend.UploadWithParams(ctx, reader, UploadParams{
		ObjectKey: asset.ObjectKey,
		MimeType:  req.MimeType,
	}); err != nil {
		return nil, &StorageError{
			Backend: backendName,
			Key:     asset.ObjectKey,
			Op:      "upload",
			Err:     fmt.Errorf("%w: %v", ErrUploadFailed, err),
		}
	}

	if meta, err := backend.GetObjectMeta(ctx, asset.ObjectKey); err == nil {
		asset.SizeBytes = meta.Size
	}

	// The retrieval URL is best-effort at upload time; backends without
	// URL support serve assets through DownloadAsset instead.
	if url, err := backend.GetDownloadURL(ctx, asset.ObjectKey, asset.FileName); err == nil {
		asset.URL = url
	}

	if err := s.repository.CreateAsset(ctx, asset); err != nil {
		return nil, &AssetError{
			AssetID: asset.ID,
			Op:      "create",
			Err:     err,
		}
	}

	s.fireEvent(ctx, "asset_uploaded", func(sink EventSink) error {
		return sink.AssetUploaded(ctx, asset)
	})

	return asset, nil
}

func (s *service) GetAsset(ctx context.Context, id uuid.UUID) (*Asset, error) {
	return s.repository.GetAsset(ctx, id)
}

func (s *service) GetAssetsByContentID(ctx context.Context, contentID uuid.UUID) ([]*Asset, error) {
	return s.repository.GetAssetsByContentID(ctx, contentID)
}

func (s *service) DownloadAsset(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	asset, err := s.repository.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}

	backend, err := s.GetBackend(asset.StorageBackendName)
	if err != nil {
		return nil, err
	}

	reader, err := backend.Download(ctx, asset.ObjectKey)
	if err != nil {
		return nil, &StorageError{
			Backend: asset.StorageBackendName,
			Key:     asset.ObjectKey,
			Op:      "download",
			Err:     fmt.Errorf("%w: %v", ErrDownloadFailed, err),
		}
	}

	return reader, nil
}

func (s *service) AssetDownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	asset, err := s.repository.GetAsset(ctx, id)
	if err != nil {
		return "", err
	}

	backend, err := s.GetBackend(asset.StorageBackendName)
	if err != nil {
		return "", err
	}

	return backend.GetDownloadURL(ctx, asset.ObjectKey, asset.FileName)
}

func (s *service) AssetPreviewURL(ctx context.Context, id uuid.UUID) (string, error) {
	asset, err := s.repository.GetAsset(ctx, id)
	if err != nil {
		return "", err
	}

	backend, err := s.GetBackend(asset.StorageBackendName)
	if err != nil {
		return "", err
	}

	return backend.GetPreviewURL(ctx, asset.ObjectKey)
}

func (s *service) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	asset, err := s.repository.GetAsset(ctx, id)
	if err != nil {
		return err
	}

	if backend, err := s.GetBackend(asset.StorageBackendName); err == nil {
		if err := backend.Delete(ctx, asset.ObjectKey); err != nil {
			s.logger.Warn("deleting stored object failed", "object_key", asset.ObjectKey, "error", err)
		}
	}

	if err := s.repository.DeleteAsset(ctx, id); err != nil {
		return &AssetError{
			AssetID: id,
			Op:      "delete",
			Err:     err,
		}
	}

	return nil
}

// Storage backend operations

func (s *service) RegisterBackend(name string, backend BlobStore) {
	s.blobStores[name] = backend
	if s.defaultBackend == "" {
		s.defaultBackend = name
	}
}

func (s *service) GetBackend(name string) (BlobStore, error) {
	backend, ok := s.blobStores[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStorageBackendNotFound, name)
	}
	return backend, nil
}

// fireEvent delivers an event to the sink if one is configured.
// Sink failures are logged, never propagated.
func (s *service) fireEvent(ctx context.Context, name string, fire func(EventSink) error) {
	if s.eventSink == nil {
		return
	}
	if err := fire(s.eventSink); err != nil {
		s.logger.Warn("event sink failed", "event", name, "error", err)
	}
}
