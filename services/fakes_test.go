package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"profile-service/events"
	"profile-service/models"

	"github.com/google/uuid"
)

type fakeUsers struct {
	mu        sync.Mutex
	byID      map[string]*models.User
	deleteErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[string]*models.User)}
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return models.ErrConflict
		}
	}
	u.ID = uuid.NewString()
	stored := *u
	f.byID[u.ID] = &stored
	return nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, models.ErrIdentityNotFound
	}
	found := *u
	return &found, nil
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, models.ErrIdentityNotFound
}

func (f *fakeUsers) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.byID, id)
	return nil
}

// fakeProfiles applies patches the way the Postgres store does: only the
// supplied columns change and social keys are merged.
type fakeProfiles struct {
	mu      sync.Mutex
	byOwner map[string]*models.Profile
	// beforeCreate runs before an insert, used to simulate a concurrent creator.
	beforeCreate func(ownerID string)
	creates      int
	existsErr    error
	deleteErr    error
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{byOwner: make(map[string]*models.Profile)}
}

func applyPatch(p *models.Profile, patch models.ProfilePatch) {
	set := func(dst **string, value models.Optional[string]) {
		if v, ok := value.Get(); ok {
			*dst = &v
		}
	}
	set(&p.Company, patch.Company)
	set(&p.Website, patch.Website)
	set(&p.Location, patch.Location)
	set(&p.Bio, patch.Bio)
	set(&p.Status, patch.Status)
	set(&p.GitHubUsername, patch.GitHubUsername)
	if skills, ok := patch.Skills.Get(); ok {
		p.Skills = skills
	}
	for key, value := range patch.Social {
		switch key {
		case "youtube":
			p.Social.YouTube = value
		case "twitter":
			p.Social.Twitter = value
		case "facebook":
			p.Social.Facebook = value
		case "linkedin":
			p.Social.LinkedIn = value
		case "instagram":
			p.Social.Instagram = value
		}
	}
}

func (f *fakeProfiles) ExistsByOwner(ctx context.Context, ownerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.byOwner[ownerID]
	return ok, nil
}

func (f *fakeProfiles) Create(ctx context.Context, ownerID string, patch models.ProfilePatch) (*models.Profile, error) {
	if f.beforeCreate != nil {
		f.beforeCreate(ownerID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byOwner[ownerID]; ok {
		return nil, fmt.Errorf("profile for owner %s: %w", ownerID, models.ErrConflict)
	}
	f.creates++
	p := &models.Profile{
		ID:         uuid.NewString(),
		OwnerID:    ownerID,
		Owner:      models.ProfileOwner{ID: ownerID},
		Skills:     []string{},
		Experience: []models.Experience{},
	}
	applyPatch(p, patch)
	f.byOwner[ownerID] = p
	copied := *p
	return &copied, nil
}

func (f *fakeProfiles) Update(ctx context.Context, ownerID string, patch models.ProfilePatch) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byOwner[ownerID]
	if !ok {
		return nil, models.ErrProfileNotFound
	}
	applyPatch(p, patch)
	copied := *p
	return &copied, nil
}

func (f *fakeProfiles) PrependExperience(ctx context.Context, ownerID string, entry models.Experience) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byOwner[ownerID]
	if !ok {
		return nil, models.ErrProfileNotFound
	}
	p.Experience = append([]models.Experience{entry}, p.Experience...)
	copied := *p
	return &copied, nil
}

func (f *fakeProfiles) RemoveExperience(ctx context.Context, ownerID string, index int) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byOwner[ownerID]
	if !ok {
		return nil, models.ErrProfileNotFound
	}
	if index < 0 || index >= len(p.Experience) {
		return nil, models.ErrNotFound
	}
	p.Experience = append(append([]models.Experience{}, p.Experience[:index]...), p.Experience[index+1:]...)
	copied := *p
	return &copied, nil
}

func (f *fakeProfiles) FindByOwner(ctx context.Context, ownerID string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byOwner[ownerID]
	if !ok {
		return nil, models.ErrProfileNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProfiles) List(ctx context.Context) ([]models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profiles := make([]models.Profile, 0, len(f.byOwner))
	for _, p := range f.byOwner {
		profiles = append(profiles, *p)
	}
	return profiles, nil
}

func (f *fakeProfiles) DeleteByOwner(ctx context.Context, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.byOwner, ownerID)
	return nil
}

type fakePosts struct {
	mu    sync.Mutex
	byID  map[string]*models.Post
	order []string
}

func newFakePosts() *fakePosts {
	return &fakePosts{byID: make(map[string]*models.Post)}
}

func (f *fakePosts) Create(ctx context.Context, p *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = uuid.NewString()
	stored := *p
	f.byID[p.ID] = &stored
	f.order = append([]string{p.ID}, f.order...)
	return nil
}

func (f *fakePosts) List(ctx context.Context) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	posts := make([]models.Post, 0, len(f.order))
	for _, id := range f.order {
		if p, ok := f.byID[id]; ok {
			posts = append(posts, *p)
		}
	}
	return posts, nil
}

func (f *fakePosts) FindByID(ctx context.Context, id string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	found := *p
	return &found, nil
}

func (f *fakePosts) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakePending struct {
	ids map[string]bool
	err error
}

func newFakePending() *fakePending {
	return &fakePending{ids: make(map[string]bool)}
}

func (f *fakePending) Record(ctx context.Context, identityID string) error {
	if f.err != nil {
		return f.err
	}
	f.ids[identityID] = true
	return nil
}

func (f *fakePending) Pending(ctx context.Context, identityID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.ids[identityID], nil
}

func (f *fakePending) Resolve(ctx context.Context, identityID string) error {
	delete(f.ids, identityID)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}

var errStorage = errors.New("storage unavailable")
