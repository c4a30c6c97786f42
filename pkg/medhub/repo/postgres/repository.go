// Package postgres implements medhub.Repository on PostgreSQL via pgx.
//
// Expected schema:
//
//	CREATE TABLE content (
//	    id             UUID PRIMARY KEY,
//	    owner_id       TEXT NOT NULL,
//	    owner_name     TEXT NOT NULL DEFAULT '',
//	    kind           TEXT NOT NULL,
//	    title          TEXT NOT NULL,
//	    body           TEXT NOT NULL DEFAULT '',
//	    category       TEXT NOT NULL DEFAULT '',
//	    status         TEXT NOT NULL,
//	    likes          BIGINT NOT NULL DEFAULT 0,
//	    views          BIGINT NOT NULL DEFAULT 0,
//	    bookmarks      BIGINT NOT NULL DEFAULT 0,
//	    event_start    TIMESTAMPTZ,
//	    event_location TEXT NOT NULL DEFAULT '',
//	    created_at     TIMESTAMPTZ NOT NULL,
//	    updated_at     TIMESTAMPTZ NOT NULL,
//	    deleted_at     TIMESTAMPTZ
//	);
//
//	CREATE TABLE content_engagement (
//	    content_id UUID NOT NULL REFERENCES content(id),
//	    member_id  TEXT NOT NULL,
//	    kind       TEXT NOT NULL,
//	    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    PRIMARY KEY (content_id, member_id, kind)
//	);
//
//	CREATE TABLE content_comment (
//	    id          UUID PRIMARY KEY,
//	    content_id  UUID NOT NULL REFERENCES content(id),
//	    author_id   TEXT NOT NULL,
//	    author_name TEXT NOT NULL DEFAULT '',
//	    body        TEXT NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL
//	);
//
//	CREATE TABLE event_registration (
//	    id          UUID PRIMARY KEY,
//	    event_id    UUID NOT NULL REFERENCES content(id),
//	    member_id   TEXT NOT NULL,
//	    member_name TEXT NOT NULL DEFAULT '',
//	    email       TEXT NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    CONSTRAINT event_registration_member_uniq UNIQUE (event_id, member_id)
//	);
//
//	CREATE TABLE content_asset (
//	    id                   UUID PRIMARY KEY,
//	    content_id           UUID NOT NULL REFERENCES content(id),
//	    storage_backend_name TEXT NOT NULL,
//	    object_key           TEXT NOT NULL,
//	    file_name            TEXT NOT NULL DEFAULT '',
//	    mime_type            TEXT NOT NULL DEFAULT '',
//	    size_bytes           BIGINT NOT NULL DEFAULT 0,
//	    url                  TEXT NOT NULL DEFAULT '',
//	    created_at           TIMESTAMPTZ NOT NULL,
//	    updated_at           TIMESTAMPTZ NOT NULL
//	);
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medhublabs/medhub/pkg/medhub"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements medhub.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) medhub.Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) medhub.Repository {
	return &Repository{db: pool}
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "registration") {
				return medhub.ErrDuplicateRegistration
			}
			return fmt.Errorf("duplicate entry")
		case "23503": // foreign_key_violation
			return medhub.ErrContentNotFound
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return medhub.ErrContentNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

const contentColumns = `id, owner_id, owner_name, kind, title, body, category, status,
               likes, views, bookmarks, event_start, event_location,
               created_at, updated_at`

func scanContent(row pgx.Row) (*medhub.Content, error) {
	var content medhub.Content
	err := row.Scan(
		&content.ID, &content.OwnerID, &content.OwnerName, &content.Kind,
		&content.Title, &content.Body, &content.Category, &content.Status,
		&content.Likes, &content.Views, &content.Bookmarks,
		&content.EventStart, &content.EventLocation,
		&content.CreatedAt, &content.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// Content operations

func (r *Repository) CreateContent(ctx context.Context, content *medhub.Content) error {
	query := `
		INSERT INTO content (
			id, owner_id, owner_name, kind, title, body, category, status,
			event_start, event_location, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		content.ID, content.OwnerID, content.OwnerName, content.Kind,
		content.Title, content.Body, content.Category, content.Status,
		content.EventStart, content.EventLocation, content.CreatedAt, content.UpdatedAt)

	if err != nil {
		return r.handlePostgresError("create content", err)
	}

	return nil
}

func (r *Repository) GetContent(ctx context.Context, id uuid.UUID) (*medhub.Content, error) {
	query := `
        SELECT ` + contentColumns + `
        FROM content WHERE id = $1 AND deleted_at IS NULL`

	content, err := scanContent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, medhub.ErrContentNotFound
		}
		return nil, err
	}

	return content, nil
}

func (r *Repository) UpdateContent(ctx context.Context, content *medhub.Content) error {
	// Counters are owned by the engagement operations and never
	// written here.
	query := `
		UPDATE content SET
			owner_name = $2, title = $3, body = $4, category = $5,
			event_start = $6, event_location = $7, updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query,
		content.ID, content.OwnerName, content.Title, content.Body,
		content.Category, content.EventStart, content.EventLocation, content.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update content", err)
	}
	if tag.RowsAffected() == 0 {
		return medhub.ErrContentNotFound
	}

	return nil
}

func (r *Repository) DeleteContent(ctx context.Context, id uuid.UUID) error {
	// Soft delete: the row stays for moderation history
	query := `
		UPDATE content SET status = $2, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query, id, medhub.ContentStatusDeleted)
	if err != nil {
		return r.handlePostgresError("delete content", err)
	}
	if tag.RowsAffected() == 0 {
		return medhub.ErrContentNotFound
	}

	return nil
}

// buildFilter renders a ListFilter into WHERE conditions and args,
// continuing the placeholder numbering from argOffset.
func buildFilter(filter medhub.ListFilter) (string, []interface{}) {
	conditions := []string{"deleted_at IS NULL"}
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.Kind != nil {
		add("kind", *filter.Kind)
	}
	if filter.Status != nil {
		add("status", *filter.Status)
	}
	if filter.Category != nil {
		add("category", *filter.Category)
	}
	if filter.OwnerID != nil {
		add("owner_id", *filter.OwnerID)
	}

	return strings.Join(conditions, " AND "), args
}

func (r *Repository) ListContent(ctx context.Context, filter medhub.ListFilter) ([]*medhub.Content, error) {
	where, args := buildFilter(filter)

	query := `SELECT ` + contentColumns + ` FROM content WHERE ` + where + ` ORDER BY created_at DESC`
	if filter.Limit != nil {
		args = append(args, *filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset != nil {
		args = append(args, *filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list content", err)
	}
	defer rows.Close()

	var contents []*medhub.Content
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		contents = append(contents, content)
	}

	return contents, rows.Err()
}

func (r *Repository) CountContent(ctx context.Context, filter medhub.ListFilter) (int64, error) {
	where, args := buildFilter(filter)

	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM content WHERE `+where, args...).Scan(&count)
	if err != nil {
		return 0, r.handlePostgresError("count content", err)
	}

	return count, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status medhub.ContentStatus) error {
	query := `
		UPDATE content SET status = $2, updated_at = NOW(),
			deleted_at = CASE WHEN $2 = 'deleted' THEN NOW() ELSE deleted_at END
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return r.handlePostgresError("update status", err)
	}
	if tag.RowsAffected() == 0 {
		return medhub.ErrContentNotFound
	}

	return nil
}

// Engagement operations

// counterColumn maps an engagement kind to its denormalized counter.
func counterColumn(kind medhub.EngagementKind) string {
	if kind == medhub.EngagementBookmark {
		return "bookmarks"
	}
	return "likes"
}

func (r *Repository) ToggleEngagement(ctx context.Context, contentID uuid.UUID, memberID string, kind medhub.EngagementKind) (bool, error) {
	column := counterColumn(kind)

	// Toggle on: the counter update only fires when the insert landed,
	// so concurrent toggles stay consistent.
	insert := `
		WITH ins AS (
			INSERT INTO content_engagement (content_id, member_id, kind)
			VALUES ($1, $2, $3)
			ON CONFLICT (content_id, member_id, kind) DO NOTHING
			RETURNING content_id
		)
		UPDATE content SET ` + column + ` = ` + column + ` + 1
		WHERE id IN (SELECT content_id FROM ins)`

	tag, err := r.db.Exec(ctx, insert, contentID, memberID, kind)
	if err != nil {
		return false, r.handlePostgresError("toggle engagement", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	// Toggle off
	remove := `
		WITH del AS (
			DELETE FROM content_engagement
			WHERE content_id = $1 AND member_id = $2 AND kind = $3
			RETURNING content_id
		)
		UPDATE content SET ` + column + ` = GREATEST(` + column + ` - 1, 0)
		WHERE id IN (SELECT content_id FROM del)`

	if _, err := r.db.Exec(ctx, remove, contentID, memberID, kind); err != nil {
		return false, r.handlePostgresError("toggle engagement", err)
	}

	return false, nil
}

func (r *Repository) IncrementViews(ctx context.Context, contentID uuid.UUID) (int64, error) {
	query := `
		UPDATE content SET views = views + 1
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING views`

	var views int64
	err := r.db.QueryRow(ctx, query, contentID).Scan(&views)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, medhub.ErrContentNotFound
		}
		return 0, r.handlePostgresError("increment views", err)
	}

	return views, nil
}

func (r *Repository) ListEngaged(ctx context.Context, memberID string, kind medhub.EngagementKind) ([]*medhub.Content, error) {
	query := `
        SELECT ` + qualify(contentColumns, "c") + `
        FROM content c
        JOIN content_engagement e ON e.content_id = c.id
        WHERE e.member_id = $1 AND e.kind = $2 AND c.deleted_at IS NULL
        ORDER BY c.created_at DESC`

	rows, err := r.db.Query(ctx, query, memberID, kind)
	if err != nil {
		return nil, r.handlePostgresError("list engaged", err)
	}
	defer rows.Close()

	var contents []*medhub.Content
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		contents = append(contents, content)
	}

	return contents, rows.Err()
}

// qualify prefixes every column in a comma-separated list with a table alias.
func qualify(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

// Comment operations

func (r *Repository) CreateComment(ctx context.Context, comment *medhub.Comment) error {
	query := `
		INSERT INTO content_comment (id, content_id, author_id, author_name, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		comment.ID, comment.ContentID, comment.AuthorID,
		comment.AuthorName, comment.Body, comment.CreatedAt)
	if err != nil {
		return r.handlePostgresError("create comment", err)
	}

	return nil
}

func (r *Repository) ListComments(ctx context.Context, contentID uuid.UUID) ([]*medhub.Comment, error) {
	query := `
        SELECT id, content_id, author_id, author_name, body, created_at
        FROM content_comment WHERE content_id = $1
        ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, contentID)
	if err != nil {
		return nil, r.handlePostgresError("list comments", err)
	}
	defer rows.Close()

	var comments []*medhub.Comment
	for rows.Next() {
		var comment medhub.Comment
		if err := rows.Scan(
			&comment.ID, &comment.ContentID, &comment.AuthorID,
			&comment.AuthorName, &comment.Body, &comment.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, &comment)
	}

	return comments, rows.Err()
}

// Event registration operations

func (r *Repository) CreateRegistration(ctx context.Context, registration *medhub.Registration) error {
	query := `
		INSERT INTO event_registration (id, event_id, member_id, member_name, email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		registration.ID, registration.EventID, registration.MemberID,
		registration.MemberName, registration.Email, registration.CreatedAt)
	if err != nil {
		return r.handlePostgresError("create registration", err)
	}

	return nil
}

func (r *Repository) ListRegistrations(ctx context.Context, eventID uuid.UUID) ([]*medhub.Registration, error) {
	query := `
        SELECT id, event_id, member_id, member_name, email, created_at
        FROM event_registration WHERE event_id = $1
        ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, r.handlePostgresError("list registrations", err)
	}
	defer rows.Close()

	var registrations []*medhub.Registration
	for rows.Next() {
		var registration medhub.Registration
		if err := rows.Scan(
			&registration.ID, &registration.EventID, &registration.MemberID,
			&registration.MemberName, &registration.Email, &registration.CreatedAt); err != nil {
			return nil, err
		}
		registrations = append(registrations, &registration)
	}

	return registrations, rows.Err()
}

// Asset operations

func (r *Repository) CreateAsset(ctx context.Context, asset *medhub.Asset) error {
	query := `
		INSERT INTO content_asset (
			id, content_id, storage_backend_name, object_key, file_name,
			mime_type, size_bytes, url, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		asset.ID, asset.ContentID, asset.StorageBackendName, asset.ObjectKey,
		asset.FileName, asset.MimeType, asset.SizeBytes, asset.URL,
		asset.CreatedAt, asset.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create asset", err)
	}

	return nil
}

func (r *Repository) GetAsset(ctx context.Context, id uuid.UUID) (*medhub.Asset, error) {
	query := `
        SELECT id, content_id, storage_backend_name, object_key, file_name,
               mime_type, size_bytes, url, created_at, updated_at
        FROM content_asset WHERE id = $1`

	var asset medhub.Asset
	err := r.db.QueryRow(ctx, query, id).Scan(
		&asset.ID, &asset.ContentID, &asset.StorageBackendName, &asset.ObjectKey,
		&asset.FileName, &asset.MimeType, &asset.SizeBytes, &asset.URL,
		&asset.CreatedAt, &asset.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, medhub.ErrAssetNotFound
		}
		return nil, err
	}

	return &asset, nil
}

func (r *Repository) GetAssetsByContentID(ctx context.Context, contentID uuid.UUID) ([]*medhub.Asset, error) {
	query := `
        SELECT id, content_id, storage_backend_name, object_key, file_name,
               mime_type, size_bytes, url, created_at, updated_at
        FROM content_asset WHERE content_id = $1
        ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, contentID)
	if err != nil {
		return nil, r.handlePostgresError("list assets", err)
	}
	defer rows.Close()

	var assets []*medhub.Asset
	for rows.Next() {
		var asset medhub.Asset
		if err := rows.Scan(
			&asset.ID, &asset.ContentID, &asset.StorageBackendName, &asset.ObjectKey,
			&asset.FileName, &asset.MimeType, &asset.SizeBytes, &asset.URL,
			&asset.CreatedAt, &asset.UpdatedAt); err != nil {
			return nil, err
		}
		assets = append(assets, &asset)
	}

	return assets, rows.Err()
}

func (r *Repository) UpdateAsset(ctx context.Context, asset *medhub.Asset) error {
	query := `
		UPDATE content_asset SET
			file_name = $2, mime_type = $3, size_bytes = $4, url = $5, updated_at = $6
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		asset.ID, asset.FileName, asset.MimeType, asset.SizeBytes,
		asset.URL, asset.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update asset", err)
	}
	if tag.RowsAffected() == 0 {
		return medhub.ErrAssetNotFound
	}

	return nil
}

func (r *Repository) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM content_asset WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete asset", err)
	}
	if tag.RowsAffected() == 0 {
		return medhub.ErrAssetNotFound
	}

	return nil
}
