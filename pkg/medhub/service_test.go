package medhub_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medhublabs/medhub/pkg/medhub"
	memoryrepo "github.com/medhublabs/medhub/pkg/medhub/repo/memory"
	memorystorage "github.com/medhublabs/medhub/pkg/medhub/storage/memory"
)

func setupTestService(t *testing.T) medhub.Service {
	t.Helper()

	svc, err := medhub.New(
		medhub.WithRepository(memoryrepo.New()),
		medhub.WithBlobStore("memory", memorystorage.New()),
		medhub.WithEventSink(medhub.NewNoopEventSink()),
	)
	require.NoError(t, err)
	return svc
}

func submitApproved(t *testing.T, svc medhub.Service, kind medhub.ContentKind) *medhub.Content {
	t.Helper()

	content, err := svc.SubmitContent(context.Background(), medhub.SubmitContentRequest{
		OwnerID: "member-1",
		Kind:    kind,
		Title:   "test content",
	})
	require.NoError(t, err)

	approved, err := svc.ApproveContent(context.Background(), content.ID)
	require.NoError(t, err)
	return approved
}

func TestServiceCreation(t *testing.T) {
	t.Run("missing repository", func(t *testing.T) {
		_, err := medhub.New()
		assert.Error(t, err)
	})

	t.Run("with all options", func(t *testing.T) {
		svc, err := medhub.New(
			medhub.WithRepository(memoryrepo.New()),
			medhub.WithBlobStore("memory", memorystorage.New()),
			medhub.WithEventSink(medhub.NewNoopEventSink()),
		)
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})
}

func TestSubmitContentLandsPending(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	content, err := svc.SubmitContent(ctx, medhub.SubmitContentRequest{
		OwnerID:  "member-1",
		Kind:     medhub.KindJournal,
		Title:    "CRISPR applications in cardiology",
		Body:     "Abstract...",
		Category: "cardiology",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, content.ID)
	assert.Equal(t, string(medhub.ContentStatusPending), content.Status)
	assert.False(t, content.CreatedAt.IsZero())

	got, err := svc.GetContent(ctx, content.ID)
	require.NoError(t, err)
	assert.Equal(t, "CRISPR applications in cardiology", got.Title)
	assert.Equal(t, string(medhub.ContentStatusPending), got.Status)
}

func TestApprovalWorkflow(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, svc medhub.Service, id uuid.UUID)
		action  func(svc medhub.Service, id uuid.UUID) error
		wantErr error
	}{
		{
			name:    "approve pending",
			prepare: func(t *testing.T, svc medhub.Service, id uuid.UUID) {},
			action: func(svc medhub.Service, id uuid.UUID) error {
				_, err := svc.ApproveContent(context.Background(), id)
				return err
			},
		},
		{
			name:    "reject pending",
			prepare: func(t *testing.T, svc medhub.Service, id uuid.UUID) {},
			action: func(svc medhub.Service, id uuid.UUID) error {
				_, err := svc.RejectContent(context.Background(), id)
				return err
			},
		},
		{
			name: "re-approve rejected",
			prepare: func(t *testing.T, svc medhub.Service, id uuid.UUID) {
				_, err := svc.RejectContent(context.Background(), id)
				require.NoError(t, err)
			},
			action: func(svc medhub.Service, id uuid.UUID) error {
				_, err := svc.ApproveContent(context.Background(), id)
				return err
			},
		},
		{
			name: "approve approved is invalid",
			prepare: func(t *testing.T, svc medhub.Service, id uuid.UUID) {
				_, err := svc.ApproveContent(context.Background(), id)
				require.NoError(t, err)
			},
			action: func(svc medhub.Service, id uuid.UUID) error {
				_, err := svc.ApproveContent(context.Background(), id)
				return err
			},
			wantErr: medhub.ErrInvalidStatusTransition,
		},
		{
			name: "deleted is terminal",
			prepare: func(t *testing.T, svc medhub.Service, id uuid.UUID) {
				require.NoError(t, svc.DeleteContent(context.Background(), id))
			},
			action: func(svc medhub.Service, id uuid.UUID) error {
				_, err := svc.ApproveContent(context.Background(), id)
				return err
			},
			wantErr: medhub.ErrContentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := setupTestService(t)
			content, err := svc.SubmitContent(context.Background(), medhub.SubmitContentRequest{
				OwnerID: "member-1",
				Kind:    medhub.KindBlog,
				Title:   "workflow test",
			})
			require.NoError(t, err)

			tt.prepare(t, svc, content.ID)

			err = tt.action(svc, content.ID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestListPendingFiltersByKind(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	for _, kind := range []medhub.ContentKind{medhub.KindJournal, medhub.KindBlog, medhub.KindJournal} {
		_, err := svc.SubmitContent(ctx, medhub.SubmitContentRequest{
			OwnerID: "member-1",
			Kind:    kind,
			Title:   "pending item",
		})
		require.NoError(t, err)
	}

	all, err := svc.ListPending(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	kind := medhub.KindJournal
	journals, err := svc.ListPending(ctx, &kind)
	require.NoError(t, err)
	assert.Len(t, journals, 2)
}

func TestListContentFilters(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	approvedBlog := submitApproved(t, svc, medhub.KindBlog)
	submitApproved(t, svc, medhub.KindJournal)
	_, err := svc.SubmitContent(ctx, medhub.SubmitContentRequest{
		OwnerID: "member-2",
		Kind:    medhub.KindBlog,
		Title:   "still pending",
	})
	require.NoError(t, err)

	t.Run("by status", func(t *testing.T) {
		contents, err := svc.ListContent(ctx, medhub.ListContentRequest{
			Filter: medhub.NewListFilter(medhub.WithStatus(medhub.ContentStatusApproved)),
		})
		require.NoError(t, err)
		assert.Len(t, contents, 2)
	})

	t.Run("by kind and status", func(t *testing.T) {
		contents, err := svc.ListContent(ctx, medhub.ListContentRequest{
			Filter: medhub.NewListFilter(
				medhub.WithKind(medhub.KindBlog),
				medhub.WithStatus(medhub.ContentStatusApproved),
			),
		})
		require.NoError(t, err)
		require.Len(t, contents, 1)
		assert.Equal(t, approvedBlog.ID, contents[0].ID)
	})

	t.Run("count", func(t *testing.T) {
		count, err := svc.CountContent(ctx, medhub.NewListFilter(medhub.WithKind(medhub.KindBlog)))
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("pagination", func(t *testing.T) {
		contents, err := svc.ListContent(ctx, medhub.ListContentRequest{
			Filter: medhub.NewListFilter(medhub.WithPagination(2, 0)),
		})
		require.NoError(t, err)
		assert.Len(t, contents, 2)
	})
}

func TestEngagementRequiresApprovedContent(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	pending, err := svc.SubmitContent(ctx, medhub.SubmitContentRequest{
		OwnerID: "member-1",
		Kind:    medhub.KindVideo,
		Title:   "pending video",
	})
	require.NoError(t, err)

	_, err = svc.ToggleLike(ctx, pending.ID, "member-2")
	assert.ErrorIs(t, err, medhub.ErrContentNotApproved)

	_, err = svc.RecordView(ctx, pending.ID)
	assert.ErrorIs(t, err, medhub.ErrContentNotApproved)

	_, err = svc.AddComment(ctx, medhub.AddCommentRequest{
		ContentID: pending.ID,
		AuthorID:  "member-2",
		Body:      "great talk",
	})
	assert.ErrorIs(t, err, medhub.ErrContentNotApproved)
}

func TestToggleLikeRoundTrip(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	content := submitApproved(t, svc, medhub.KindBlog)

	active, err := svc.ToggleLike(ctx, content.ID, "member-2")
	require.NoError(t, err)
	assert.True(t, active)

	got, err := svc.GetContent(ctx, content.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Likes)

	active, err = svc.ToggleLike(ctx, content.ID, "member-2")
	require.NoError(t, err)
	assert.False(t, active)

	got, err = svc.GetContent(ctx, content.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Likes)
}

func TestRecordViewIncrements(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	content := submitApproved(t, svc, medhub.KindVideo)

	for i := 1; i <= 3; i++ {
		views, err := svc.RecordView(ctx, content.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(i), views)
	}
}

func TestBookmarkListing(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	first := submitApproved(t, svc, medhub.KindJournal)
	second := submitApproved(t, svc, medhub.KindBlog)
	submitApproved(t, svc, medhub.KindVideo)

	for _, id := range []uuid.UUID{first.ID, second.ID} {
		_, err := svc.ToggleBookmark(ctx, id, "member-2")
		require.NoError(t, err)
	}

	bookmarked, err := svc.ListBookmarked(ctx, "member-2")
	require.NoError(t, err)
	assert.Len(t, bookmarked, 2)

	// Toggling off removes the entry
	_, err = svc.ToggleBookmark(ctx, first.ID, "member-2")
	require.NoError(t, err)

	bookmarked, err = svc.ListBookmarked(ctx, "member-2")
	require.NoError(t, err)
	require.Len(t, bookmarked, 1)
	assert.Equal(t, second.ID, bookmarked[0].ID)
}

func TestCommentsOrderedOldestFirst(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	content := submitApproved(t, svc, medhub.KindBlog)

	for _, body := range []string{"first", "second"} {
		_, err := svc.AddComment(ctx, medhub.AddCommentRequest{
			ContentID: content.ID,
			AuthorID:  "member-2",
			Body:      body,
		})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	comments, err := svc.ListComments(ctx, content.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Body)
	assert.Equal(t, "second", comments[1].Body)
}

func TestRegisterForEvent(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	event := submitApproved(t, svc, medhub.KindEvent)

	t.Run("success", func(t *testing.T) {
		registration, err := svc.RegisterForEvent(ctx, medhub.RegisterForEventRequest{
			EventID:  event.ID,
			MemberID: "member-2",
			Email:    "member2@example.edu",
		})
		require.NoError(t, err)
		assert.Equal(t, event.ID, registration.EventID)
	})

	t.Run("duplicate rejected", func(t *testing.T) {
		_, err := svc.RegisterForEvent(ctx, medhub.RegisterForEventRequest{
			EventID:  event.ID,
			MemberID: "member-2",
			Email:    "member2@example.edu",
		})
		assert.ErrorIs(t, err, medhub.ErrDuplicateRegistration)
	})

	t.Run("non-event content rejected", func(t *testing.T) {
		blog := submitApproved(t, svc, medhub.KindBlog)
		_, err := svc.RegisterForEvent(ctx, medhub.RegisterForEventRequest{
			EventID:  blog.ID,
			MemberID: "member-2",
		})
		assert.ErrorIs(t, err, medhub.ErrNotAnEvent)
	})

	t.Run("unapproved event rejected", func(t *testing.T) {
		pending, err := svc.SubmitContent(ctx, medhub.SubmitContentRequest{
			OwnerID: "member-1",
			Kind:    medhub.KindEvent,
			Title:   "pending event",
		})
		require.NoError(t, err)

		_, err = svc.RegisterForEvent(ctx, medhub.RegisterForEventRequest{
			EventID:  pending.ID,
			MemberID: "member-2",
		})
		assert.ErrorIs(t, err, medhub.ErrContentNotApproved)
	})

	t.Run("listing ordered by time", func(t *testing.T) {
		_, err := svc.RegisterForEvent(ctx, medhub.RegisterForEventRequest{
			EventID:  event.ID,
			MemberID: "member-3",
			Email:    "member3@example.edu",
		})
		require.NoError(t, err)

		registrations, err := svc.ListRegistrations(ctx, event.ID)
		require.NoError(t, err)
		require.Len(t, registrations, 2)
		assert.Equal(t, "member-2", registrations[0].MemberID)
		assert.Equal(t, "member-3", registrations[1].MemberID)
	})
}

func TestAssetLifecycle(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	content := submitApproved(t, svc, medhub.KindJournal)
	payload := []byte("%PDF-1.7 test document")

	asset, err := svc.UploadAsset(ctx, bytes.NewReader(payload), medhub.UploadAssetRequest{
		ContentID: content.ID,
		FileName:  "paper.pdf",
		MimeType:  "application/pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, content.ID, asset.ContentID)
	assert.Equal(t, "memory", asset.StorageBackendName)
	assert.True(t, strings.HasPrefix(asset.ObjectKey, "journal/"+content.ID.String()+"/"))
	assert.True(t, strings.HasSuffix(asset.ObjectKey, ".pdf"))
	assert.Equal(t, int64(len(payload)), asset.SizeBytes)

	t.Run("download round trip", func(t *testing.T) {
		reader, err := svc.DownloadAsset(ctx, asset.ID)
		require.NoError(t, err)
		defer reader.Close()

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, payload, data)
	})

	t.Run("list by content", func(t *testing.T) {
		assets, err := svc.GetAssetsByContentID(ctx, content.ID)
		require.NoError(t, err)
		require.Len(t, assets, 1)
		assert.Equal(t, asset.ID, assets[0].ID)
	})

	t.Run("delete removes record and object", func(t *testing.T) {
		require.NoError(t, svc.DeleteAsset(ctx, asset.ID))

		_, err := svc.GetAsset(ctx, asset.ID)
		assert.ErrorIs(t, err, medhub.ErrAssetNotFound)

		_, err = svc.DownloadAsset(ctx, asset.ID)
		assert.Error(t, err)
	})
}

func TestUploadAssetUnknownBackend(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	content := submitApproved(t, svc, medhub.KindVideo)

	_, err := svc.UploadAsset(ctx, bytes.NewReader([]byte("data")), medhub.UploadAssetRequest{
		ContentID:          content.ID,
		StorageBackendName: "missing",
		FileName:           "lecture.mp4",
	})
	assert.ErrorIs(t, err, medhub.ErrStorageBackendNotFound)
}

func TestDeleteContentIsTerminal(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	content := submitApproved(t, svc, medhub.KindBlog)
	require.NoError(t, svc.DeleteContent(ctx, content.ID))

	_, err := svc.GetContent(ctx, content.ID)
	assert.ErrorIs(t, err, medhub.ErrContentNotFound)

	err = svc.DeleteContent(ctx, content.ID)
	assert.ErrorIs(t, err, medhub.ErrContentNotFound)
}
