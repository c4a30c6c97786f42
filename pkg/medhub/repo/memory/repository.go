// Package memory provides an in-memory repository implementation for
// testing and development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medhublabs/medhub/pkg/medhub"
)

// Repository is an in-memory implementation of medhub.Repository.
// All returned values are copies so callers cannot mutate stored state.
type Repository struct {
	mu sync.RWMutex

	contents      map[uuid.UUID]*medhub.Content
	comments      map[uuid.UUID][]*medhub.Comment      // keyed by content ID
	registrations map[uuid.UUID][]*medhub.Registration // keyed by event ID
	assets        map[uuid.UUID]*medhub.Asset

	// engagement[kind][contentID] is the set of member IDs toggled on
	engagement map[medhub.EngagementKind]map[uuid.UUID]map[string]struct{}
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		contents:      make(map[uuid.UUID]*medhub.Content),
		comments:      make(map[uuid.UUID][]*medhub.Comment),
		registrations: make(map[uuid.UUID][]*medhub.Registration),
		assets:        make(map[uuid.UUID]*medhub.Asset),
		engagement: map[medhub.EngagementKind]map[uuid.UUID]map[string]struct{}{
			medhub.EngagementLike:     {},
			medhub.EngagementBookmark: {},
		},
	}
}

// Content operations

func (r *Repository) CreateContent(ctx context.Context, content *medhub.Content) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *content
	r.contents[content.ID] = &c
	return nil
}

func (r *Repository) GetContent(ctx context.Context, id uuid.UUID) (*medhub.Content, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	content, ok := r.contents[id]
	if !ok || content.DeletedAt != nil {
		return nil, medhub.ErrContentNotFound
	}

	c := *content
	return &c, nil
}

func (r *Repository) UpdateContent(ctx context.Context, content *medhub.Content) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.contents[content.ID]
	if !ok || existing.DeletedAt != nil {
		return medhub.ErrContentNotFound
	}

	c := *content
	// Counters are repository-owned; keep the stored values.
	c.Likes = existing.Likes
	c.Views = existing.Views
	c.Bookmarks = existing.Bookmarks
	r.contents[content.ID] = &c
	return nil
}

func (r *Repository) DeleteContent(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	content, ok := r.contents[id]
	if !ok || content.DeletedAt != nil {
		return medhub.ErrContentNotFound
	}

	now := time.Now().UTC()
	content.DeletedAt = &now
	content.Status = string(medhub.ContentStatusDeleted)
	content.UpdatedAt = now
	return nil
}

func (r *Repository) ListContent(ctx context.Context, filter medhub.ListFilter) ([]*medhub.Content, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*medhub.Content
	for _, content := range r.contents {
		if !matches(content, filter) {
			continue
		}
		c := *content
		matched = append(matched, &c)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return paginate(matched, filter), nil
}

func (r *Repository) CountContent(ctx context.Context, filter medhub.ListFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, content := range r.contents {
		if matches(content, filter) {
			count++
		}
	}
	return count, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status medhub.ContentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	content, ok := r.contents[id]
	if !ok || content.DeletedAt != nil {
		return medhub.ErrContentNotFound
	}

	content.Status = string(status)
	content.UpdatedAt = time.Now().UTC()
	if status == medhub.ContentStatusDeleted {
		now := time.Now().UTC()
		content.DeletedAt = &now
	}
	return nil
}

func matches(content *medhub.Content, filter medhub.ListFilter) bool {
	if content.DeletedAt != nil {
		return false
	}
	if filter.Kind != nil && content.Kind != *filter.Kind {
		return false
	}
	if filter.Status != nil && content.Status != *filter.Status {
		return false
	}
	if filter.Category != nil && content.Category != *filter.Category {
		return false
	}
	if filter.OwnerID != nil && content.OwnerID != *filter.OwnerID {
		return false
	}
	return true
}

func paginate(contents []*medhub.Content, filter medhub.ListFilter) []*medhub.Content {
	if filter.Offset != nil {
		if *filter.Offset >= len(contents) {
			return nil
		}
		contents = contents[*filter.Offset:]
	}
	if filter.Limit != nil && *filter.Limit < len(contents) {
		contents = contents[:*filter.Limit]
	}
	return contents
}

// Engagement operations

func (r *Repository) ToggleEngagement(ctx context.Context, contentID uuid.UUID, memberID string, kind medhub.EngagementKind) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	content, ok := r.contents[contentID]
	if !ok || content.DeletedAt != nil {
		return false, medhub.ErrContentNotFound
	}

	sets := r.engagement[kind]
	members, ok := sets[contentID]
	if !ok {
		members = make(map[string]struct{})
		sets[contentID] = members
	}

	_, active := members[memberID]
	var delta int64
	if active {
		delete(members, memberID)
		delta = -1
	} else {
		members[memberID] = struct{}{}
		delta = 1
	}

	switch kind {
	case medhub.EngagementLike:
		content.Likes += delta
	case medhub.EngagementBookmark:
		content.Bookmarks += delta
	}

	return !active, nil
}

func (r *Repository) IncrementViews(ctx context.Context, contentID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	content, ok := r.contents[contentID]
	if !ok || content.DeletedAt != nil {
		return 0, medhub.ErrContentNotFound
	}

	content.Views++
	return content.Views, nil
}

func (r *Repository) ListEngaged(ctx context.Context, memberID string, kind medhub.EngagementKind) ([]*medhub.Content, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*medhub.Content
	for contentID, members := range r.engagement[kind] {
		if _, ok := members[memberID]; !ok {
			continue
		}
		content, ok := r.contents[contentID]
		if !ok || content.DeletedAt != nil {
			continue
		}
		c := *content
		matched = append(matched, &c)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return matched, nil
}

// Comment operations

func (r *Repository) CreateComment(ctx context.Context, comment *medhub.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *comment
	r.comments[comment.ContentID] = append(r.comments[comment.ContentID], &c)
	return nil
}

func (r *Repository) ListComments(ctx context.Context, contentID uuid.UUID) ([]*medhub.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.comments[contentID]
	comments := make([]*medhub.Comment, 0, len(stored))
	for _, comment := range stored {
		c := *comment
		comments = append(comments, &c)
	}

	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})

	return comments, nil
}

// Event registration operations

func (r *Repository) CreateRegistration(ctx context.Context, registration *medhub.Registration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.registrations[registration.EventID] {
		if existing.MemberID == registration.MemberID {
			return medhub.ErrDuplicateRegistration
		}
	}

	reg := *registration
	r.registrations[registration.EventID] = append(r.registrations[registration.EventID], &reg)
	return nil
}

func (r *Repository) ListRegistrations(ctx context.Context, eventID uuid.UUID) ([]*medhub.Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.registrations[eventID]
	registrations := make([]*medhub.Registration, 0, len(stored))
	for _, registration := range stored {
		reg := *registration
		registrations = append(registrations, &reg)
	}

	sort.Slice(registrations, func(i, j int) bool {
		return registrations[i].CreatedAt.Before(registrations[j].CreatedAt)
	})

	return registrations, nil
}

// Asset operations

func (r *Repository) CreateAsset(ctx context.Context, asset *medhub.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a := *asset
	r.assets[asset.ID] = &a
	return nil
}

func (r *Repository) GetAsset(ctx context.Context, id uuid.UUID) (*medhub.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	asset, ok := r.assets[id]
	if !ok {
		return nil, medhub.ErrAssetNotFound
	}

	a := *asset
	return &a, nil
}

func (r *Repository) GetAssetsByContentID(ctx context.Context, contentID uuid.UUID) ([]*medhub.Asset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*medhub.Asset
	for _, asset := range r.assets {
		if asset.ContentID != contentID {
			continue
		}
		a := *asset
		matched = append(matched, &a)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	return matched, nil
}

func (r *Repository) UpdateAsset(ctx context.Context, asset *medhub.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.assets[asset.ID]; !ok {
		return medhub.ErrAssetNotFound
	}

	a := *asset
	r.assets[asset.ID] = &a
	return nil
}

func (r *Repository) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.assets[id]; !ok {
		return medhub.ErrAssetNotFound
	}

	delete(r.assets, id)
	return nil
}
