package app_test

import (
	"context"
	"sync"
	"time"

	"plabroom/internal/model"
	"plabroom/internal/realtime"
	"plabroom/internal/repository"
)

type fakeSessionStore struct {
	mu       sync.Mutex
	nextID   uint
	sessions map[string]*model.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*model.Session)}
}

func (f *fakeSessionStore) Create(s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	s.ID = f.nextID
	cp := *s
	f.sessions[s.Code] = &cp
	return nil
}

func (f *fakeSessionStore) GetByCode(code string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[code]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionStore) ListActiveByHostID(hostID uint) ([]model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Session
	for _, s := range f.sessions {
		if s.HostID == hostID && s.Status == model.SessionStatusActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSessionStore) Save(s *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.sessions[s.Code] = &cp
	return nil
}

type fakeParticipantStore struct {
	mu           sync.Mutex
	nextID       uint
	participants []model.SessionParticipant
}

func (f *fakeParticipantStore) Create(p *model.SessionParticipant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	f.participants = append(f.participants, *p)
	return nil
}

func (f *fakeParticipantStore) GetBySessionAndUser(sessionID, userID uint) (*model.SessionParticipant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.participants {
		if p.SessionID == sessionID && p.UserID == userID {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeParticipantStore) ListBySessionID(sessionID uint) ([]model.SessionParticipant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.SessionParticipant
	for _, p := range f.participants {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeParticipantStore) GetActiveByRole(sessionID uint, role string) (*model.SessionParticipant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.participants {
		if p.SessionID == sessionID && p.Role == role && p.Active {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeParticipantStore) Save(p *model.SessionParticipant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.participants {
		if f.participants[i].ID == p.ID {
			f.participants[i] = *p
			return nil
		}
	}
	f.participants = append(f.participants, *p)
	return nil
}

type fakeCaseStore struct {
	mu    sync.Mutex
	cases map[uint]*model.Case
}

func newFakeCaseStore() *fakeCaseStore {
	return &fakeCaseStore{cases: make(map[uint]*model.Case)}
}

func (f *fakeCaseStore) add(id, categoryID uint, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cases[id] = &model.Case{ID: id, CategoryID: categoryID, Title: title, DoctorNotes: "d", PatientNotes: "p"}
}

func (f *fakeCaseStore) GetByID(id uint) (*model.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cases[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCaseStore) ListIDsByCategory(categoryID uint) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uint
	for id, c := range f.cases {
		if c.CategoryID == categoryID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeCaseStore) CountUnused(excluded []uint) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	used := make(map[uint]bool, len(excluded))
	for _, id := range excluded {
		used[id] = true
	}
	var n int64
	for id := range f.cases {
		if !used[id] {
			n++
		}
	}
	return n, nil
}

func (f *fakeCaseStore) Create(c *model.Case) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = uint(len(f.cases) + 1)
	cp := *c
	f.cases[c.ID] = &cp
	return nil
}

func (f *fakeCaseStore) List(_ repository.CaseFilter) ([]model.Case, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Case
	for _, c := range f.cases {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakeCaseStore) Save(c *model.Case) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.cases[c.ID] = &cp
	return nil
}

func (f *fakeCaseStore) Delete(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cases, id)
	return nil
}

type fakeHub struct {
	mu     sync.Mutex
	events []realtime.Event
	closed []string
}

func (f *fakeHub) Broadcast(_ string, ev realtime.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeHub) CloseTopic(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, code)
}

func (f *fakeHub) eventsOfType(t string) []realtime.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []realtime.Event
	for _, ev := range f.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// fakeScheduler captures scheduled callbacks so tests can fire them
// deterministically instead of sleeping.
type fakeScheduler struct {
	mu        sync.Mutex
	scheduled map[string]func()
	durations map[string]time.Duration
	cancelled []string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		scheduled: make(map[string]func()),
		durations: make(map[string]time.Duration),
	}
}

func (f *fakeScheduler) Schedule(code string, d time.Duration, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled[code] = fn
	f.durations[code] = d
}

func (f *fakeScheduler) Cancel(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.scheduled, code)
	f.cancelled = append(f.cancelled, code)
}

func (f *fakeScheduler) fire(code string) {
	f.mu.Lock()
	fn := f.scheduled[code]
	delete(f.scheduled, code)
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type fakeUserStore struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uint]*model.User)}
}

func (f *fakeUserStore) Create(u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByUsername(username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetByEmail(email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetByID(id uint) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) List() ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserStore) Save(u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []model.Feedback
	fail      bool
}

func (f *fakePublisher) Publish(_ context.Context, fb model.Feedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return context.DeadlineExceeded
	}
	f.published = append(f.published, fb)
	return nil
}
