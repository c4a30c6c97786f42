package medhub

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// NoopEventSink is an event sink that does nothing
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-op event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (s *NoopEventSink) ContentSubmitted(ctx context.Context, content *Content) error { return nil }
func (s *NoopEventSink) ContentApproved(ctx context.Context, content *Content) error  { return nil }
func (s *NoopEventSink) ContentRejected(ctx context.Context, content *Content) error  { return nil }
func (s *NoopEventSink) ContentDeleted(ctx context.Context, contentID uuid.UUID) error {
	return nil
}
func (s *NoopEventSink) AssetUploaded(ctx context.Context, asset *Asset) error { return nil }
func (s *NoopEventSink) CommentAdded(ctx context.Context, comment *Comment) error {
	return nil
}
func (s *NoopEventSink) RegistrationCreated(ctx context.Context, registration *Registration) error {
	return nil
}

// LoggingEventSink writes one structured log line per event. It is the
// default sink for the server binary; moderation tooling can swap in a
// richer sink without touching the service.
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates an event sink backed by the given logger.
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

func (s *LoggingEventSink) ContentSubmitted(ctx context.Context, content *Content) error {
	s.logger.InfoContext(ctx, "content submitted",
		"content_id", content.ID,
		"kind", content.Kind,
		"owner_id", content.OwnerID)
	return nil
}

func (s *LoggingEventSink) ContentApproved(ctx context.Context, content *Content) error {
	s.logger.InfoContext(ctx, "content approved",
		"content_id", content.ID,
		"kind", content.Kind)
	return nil
}

func (s *LoggingEventSink) ContentRejected(ctx context.Context, content *Content) error {
	s.logger.InfoContext(ctx, "content rejected",
		"content_id", content.ID,
		"kind", content.Kind)
	return nil
}

func (s *LoggingEventSink) ContentDeleted(ctx context.Context, contentID uuid.UUID) error {
	s.logger.InfoContext(ctx, "content deleted", "content_id", contentID)
	return nil
}

func (s *LoggingEventSink) AssetUploaded(ctx context.Context, asset *Asset) error {
	s.logger.InfoContext(ctx, "asset uploaded",
		"asset_id", asset.ID,
		"content_id", asset.ContentID,
		"backend", asset.StorageBackendName,
		"object_key", asset.ObjectKey)
	return nil
}

func (s *LoggingEventSink) CommentAdded(ctx context.Context, comment *Comment) error {
	s.logger.InfoContext(ctx, "comment added",
		"comment_id", comment.ID,
		"content_id", comment.ContentID)
	return nil
}

func (s *LoggingEventSink) RegistrationCreated(ctx context.Context, registration *Registration) error {
	s.logger.InfoContext(ctx, "registration created",
		"registration_id", registration.ID,
		"event_id", registration.EventID)
	return nil
}
