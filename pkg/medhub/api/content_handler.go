package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/medhublabs/medhub/pkg/medhub"
)

// maxUploadBytes caps multipart asset uploads (journals, recordings).
const maxUploadBytes = 256 << 20

// ContentHandler handles HTTP requests for the content library
type ContentHandler struct {
	service   medhub.Service
	tokenAuth *jwtauth.JWTAuth
}

// NewContentHandler creates a new content handler
func NewContentHandler(service medhub.Service, tokenAuth *jwtauth.JWTAuth) *ContentHandler {
	return &ContentHandler{
		service:   service,
		tokenAuth: tokenAuth,
	}
}

// Routes returns the routes for content
func (h *ContentHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(h.tokenAuth))

	// Public reads
	r.Get("/", h.ListContent)
	r.Get("/{id}", h.GetContent)
	r.Get("/{id}/comments", h.ListComments)
	r.Get("/{id}/assets", h.ListAssets)
	r.Post("/{id}/view", h.RecordView)

	// Member routes
	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Authenticator)
		r.Use(RequireMember)

		r.Post("/", h.SubmitContent)
		r.Put("/{id}", h.UpdateContent)
		r.Delete("/{id}", h.DeleteContent)
		r.Get("/bookmarks", h.ListBookmarked)
		r.Post("/{id}/like", h.ToggleLike)
		r.Post("/{id}/bookmark", h.ToggleBookmark)
		r.Post("/{id}/comments", h.AddComment)
		r.Post("/{id}/registrations", h.RegisterForEvent)
		r.Post("/{id}/assets", h.UploadAsset)
	})

	// Moderation routes
	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Authenticator)
		r.Use(RequireAdmin)

		r.Get("/pending", h.ListPending)
		r.Post("/{id}/approve", h.ApproveContent)
		r.Post("/{id}/reject", h.RejectContent)
		r.Get("/{id}/registrations", h.ListRegistrations)
	})

	return r
}

// AssetRoutes returns the routes for asset retrieval
func (h *ContentHandler) AssetRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(h.tokenAuth))

	r.Get("/{id}", h.GetAsset)
	r.Get("/{id}/download", h.DownloadAsset)
	r.Get("/{id}/preview", h.PreviewAsset)

	return r
}

// SubmitContentRequest is the request body for submitting content
type SubmitContentRequest struct {
	Kind          string     `json:"kind"`
	Title         string     `json:"title"`
	Body          string     `json:"body,omitempty"`
	Category      string     `json:"category,omitempty"`
	EventStart    *time.Time `json:"event_start,omitempty"`
	EventLocation string     `json:"event_location,omitempty"`
}

// UpdateContentRequest is the request body for updating content
type UpdateContentRequest struct {
	Title         string     `json:"title"`
	Body          string     `json:"body,omitempty"`
	Category      string     `json:"category,omitempty"`
	EventStart    *time.Time `json:"event_start,omitempty"`
	EventLocation string     `json:"event_location,omitempty"`
}

// CommentRequest is the request body for adding a comment
type CommentRequest struct {
	Body string `json:"body"`
}

// RegistrationRequest is the request body for an event registration
type RegistrationRequest struct {
	Email string `json:"email,omitempty"`
}

// EngagementResponse reports the result of an engagement toggle
type EngagementResponse struct {
	Active bool `json:"active"`
}

// ViewResponse reports the view counter after an increment
type ViewResponse struct {
	Views int64 `json:"views"`
}

// ListContent lists content with optional filters. Members see
// approved content only; moderators may filter on other statuses.
func (h *ContentHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	status := medhub.ContentStatusApproved
	if requested := r.URL.Query().Get("status"); requested != "" && claims.Admin {
		status = medhub.ContentStatus(requested)
	}

	opts := []medhub.ListOption{medhub.WithStatus(status)}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		opts = append(opts, medhub.WithKind(medhub.ContentKind(kind)))
	}
	if category := r.URL.Query().Get("category"); category != "" {
		opts = append(opts, medhub.WithCategory(category))
	}
	if owner := r.URL.Query().Get("owner_id"); owner != "" {
		opts = append(opts, medhub.WithOwner(owner))
	}

	contents, err := h.service.ListContent(r.Context(), medhub.ListContentRequest{
		Filter: medhub.NewListFilter(opts...),
	})
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	render.JSON(w, r, contents)
}

// SubmitContent accepts a new submission into the review queue
func (h *ContentHandler) SubmitContent(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	var req SubmitContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	content, err := h.service.SubmitContent(r.Context(), medhub.SubmitContentRequest{
		OwnerID:       claims.MemberID,
		OwnerName:     claims.Name,
		Kind:          medhub.ContentKind(req.Kind),
		Title:         req.Title,
		Body:          req.Body,
		Category:      req.Category,
		EventStart:    req.EventStart,
		EventLocation: req.EventLocation,
	})
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	slog.Info("Content submitted", "content_id", content.ID, "kind", content.Kind)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, content)
}

// GetContent returns one content record
func (h *ContentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	content, err := h.service.GetContent(r.Context(), id)
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	render.JSON(w, r, content)
}

// UpdateContent edits a submission. Only the owner or a moderator may edit.
func (h *ContentHandler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	content, err := h.service.GetContent(r.Context(), id)
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	if !h.canModify(r, content) {
		writeJSONError(w, http.StatusForbidden, "forbidden", "Only the owner may edit this content")
		return
	}

	var req UpdateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	content.Title = req.Title
	content.Body = req.Body
	content.Category = req.Category
	content.EventStart = req.EventStart
	content.EventLocation = req.EventLocation

	if err := h.service.UpdateContent(r.Context(), medhub.UpdateContentRequest{Content: content}); err != nil {
		respondContentError(w, r, err)
		return
	}

	render.JSON(w, r, content)
}

// DeleteContent removes a submission. Only the owner or a moderator may delete.
func (h *ContentHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	content, err := h.service.GetContent(r.Context(), id)
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	if !h.canModify(r, content) {
		writeJSONError(w, http.StatusForbidden, "forbidden", "Only the owner may delete this content")
		return
	}

	if err := h.service.DeleteContent(r.Context(), id); err != nil {
		respondContentError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListPending returns the review queue, optionally filtered by kind
func (h *ContentHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	var kind *medhub.ContentKind
	if requested := r.URL.Query().Get("kind"); requested != "" {
		k := medhub.ContentKind(requested)
		kind = &k
	}

	contents, err := h.service.ListPending(r.Context(), kind)
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	render.JSON(w, r, contents)
}

// ApproveContent moves a submission to the approved state
func (h *ContentHandler) ApproveContent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	content, err := h.service.ApproveContent(r.Context(), id)
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	render.JSON(w, r, content)
}

// RejectContent moves a submission to the rejected state
func (h *ContentHandler) RejectContent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	content, err := h.service.RejectContent(r.Context(), id)
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	render.JSON(w, r, content)
}

// ToggleLike toggles the caller's like on a content item
func (h *ContentHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	h.toggleEngagement(w, r, h.service.ToggleLike)
}

// ToggleBookmark toggles the caller's bookmark on a content item
func (h *ContentHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	h.toggleEngagement(w, r, h.service.ToggleBookmark)
}

func (h *ContentHandler) toggleEngagement(w http.ResponseWriter, r *http.Request, toggle func(ctx context.Context, contentID uuid.UUID, memberID string) (bool, error)) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	claims, _ := ClaimsFromContext(r.Context())

	active, err := toggle(r.Context(), id, claims.MemberID)
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	render.JSON(w, r, EngagementResponse{Active: active})
}

// RecordView increments the view counter for approved content
func (h *ContentHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	views, err := h.service.RecordView(r.Context(), id)
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	render.JSON(w, r, ViewResponse{Views: views})
}

// ListBookmarked lists the caller's bookmarked content
func (h *ContentHandler) ListBookmarked(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	contents, err := h.service.ListBookmarked(r.Context(), claims.MemberID)
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	render.JSON(w, r, contents)
}

// AddComment adds a comment to approved content
func (h *ContentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	claims, _ := ClaimsFromContext(r.Context())

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Body == "" {
		http.Error(w, "comment body is required", http.StatusBadRequest)
		return
	}

	comment, err := h.service.AddComment(r.Context(), medhub.AddCommentRequest{
		ContentID:  id,
		AuthorID:   claims.MemberID,
		AuthorName: claims.Name,
		Body:       req.Body,
	})
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, comment)
}

// ListComments lists comments on a content item, oldest first
func (h *ContentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	comments, err := h.service.ListComments(r.Context(), id)
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	render.JSON(w, r, comments)
}

// RegisterForEvent registers the caller for an approved event
func (h *ContentHandler) RegisterForEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	claims, _ := ClaimsFromContext(r.Context())

	var req RegistrationRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	email := req.Email
	if email == "" {
		email = claims.Email
	}

	registration, err := h.service.RegisterForEvent(r.Context(), medhub.RegisterForEventRequest{
		EventID:    id,
		MemberID:   claims.MemberID,
		MemberName: claims.Name,
		Email:      email,
	})
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	slog.Info("Event registration created", "event_id", id, "member_id", claims.MemberID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, registration)
}

// ListRegistrations lists registrations for an event
func (h *ContentHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	registrations, err := h.service.ListRegistrations(r.Context(), id)
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	render.JSON(w, r, registrations)
}

// UploadAsset accepts a multipart file upload for a content item
func (h *ContentHandler) UploadAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "multipart field 'file' is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	asset, err := h.service.UploadAsset(r.Context(), file, medhub.UploadAssetRequest{
		ContentID:          id,
		StorageBackendName: r.URL.Query().Get("backend"),
		FileName:           header.Filename,
		MimeType:           mimeType,
	})
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	slog.Info("Asset uploaded", "asset_id", asset.ID, "content_id", id)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, asset)
}

// ListAssets lists the assets attached to a content item
func (h *ContentHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	assets, err := h.service.GetAssetsByContentID(r.Context(), id)
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	render.JSON(w, r, assets)
}

// GetAsset returns one asset record
func (h *ContentHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	asset, err := h.service.GetAsset(r.Context(), id)
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	render.JSON(w, r, asset)
}

// DownloadAsset serves an asset. Backends with URL support redirect;
// the rest stream through the server.
func (h *ContentHandler) DownloadAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if url, err := h.service.AssetDownloadURL(r.Context(), id); err == nil && url != "" {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	asset, err := h.service.GetAsset(r.Context(), id)
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	reader, err := h.service.DownloadAsset(r.Context(), id)
	if err != nil {
		respondContentError(w, r, err)
		return
	}
	defer reader.Close()

	if asset.MimeType != "" {
		w.Header().Set("Content-Type", asset.MimeType)
	}
	if asset.FileName != "" {
		w.Header().Set("Content-Disposition", "attachment; filename=\""+asset.FileName+"\"")
	}
	if _, err := io.Copy(w, reader); err != nil {
		slog.Error("Failed streaming asset", "asset_id", id, "error", err)
	}
}

// PreviewAsset serves an asset inline
func (h *ContentHandler) PreviewAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if url, err := h.service.AssetPreviewURL(r.Context(), id); err == nil && url != "" {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	asset, err := h.service.GetAsset(r.Context(), id)
	if err != nil {
		respondContentError(w, r, err)
		return
	}

	reader, err := h.service.DownloadAsset(r.Context(), id)
	if err != nil {
		respondContentError(w, r, err)
		return
	}
	defer reader.Close()

	if asset.MimeType != "" {
		w.Header().Set("Content-Type", asset.MimeType)
	}
	w.Header().Set("Content-Disposition", "inline")
	if _, err := io.Copy(w, reader); err != nil {
		slog.Error("Failed streaming asset", "asset_id", id, "error", err)
	}
}

func (h *ContentHandler) canModify(r *http.Request, content *medhub.Content) bool {
	claims, err := ClaimsFromContext(r.Context())
	if err != nil {
		return false
	}
	return claims.Admin || (claims.MemberID != "" && claims.MemberID == content.OwnerID)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func respondContentError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, medhub.ErrContentNotFound), errors.Is(err, medhub.ErrAssetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, medhub.ErrInvalidStatusTransition),
		errors.Is(err, medhub.ErrDuplicateRegistration),
		errors.Is(err, medhub.ErrContentNotApproved):
		status = http.StatusConflict
	case errors.Is(err, medhub.ErrNotAnEvent), errors.Is(err, medhub.ErrStorageBackendNotFound):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		slog.Error("Content request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}
