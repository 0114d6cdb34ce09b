package tracker

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/felixgeelhaar/pokerlog/internal/domain"
	"github.com/google/uuid"
)

type fakeIdentity struct {
	user *domain.User
	err  error
}

func (f *fakeIdentity) CurrentUser(ctx context.Context) (*domain.User, error) {
	return f.user, f.err
}

func newUser() *domain.User {
	return &domain.User{ID: uuid.New(), Email: "shark@example.com", Name: "Shark"}
}

// memStore is an in-memory Store that records calls.
type memStore struct {
	mu       sync.Mutex
	nextID   int64
	sessions []domain.Session
	hands    []domain.Hand

	inserts      int
	listSessErr  error
	listHandsErr error
	createErr    error
	lastLimit    int
}

func newMemStore() *memStore {
	return &memStore{nextID: 1}
}

func (s *memStore) ListSessions(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastLimit = limit
	if s.listSessErr != nil {
		return nil, s.listSessErr
	}
	var out []domain.Session
	for _, sess := range s.sessions {
		if sess.UserID == ownerID {
			out = append(out, sess)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) CreateSession(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	if s.createErr != nil {
		return nil, s.createErr
	}
	if err := session.Validate(); err != nil {
		return nil, err
	}
	created := *session
	created.ID = s.nextID
	s.nextID++
	s.sessions = append(s.sessions, created)
	return &created, nil
}

func (s *memStore) DeleteSession(ctx context.Context, ownerID uuid.UUID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sess := range s.sessions {
		if sess.ID == id && sess.UserID == ownerID {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *memStore) ListHands(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.Hand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listHandsErr != nil {
		return nil, s.listHandsErr
	}
	var out []domain.Hand
	for _, h := range s.hands {
		if h.UserID == ownerID {
			out = append(out, h)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PlayedAt.After(out[j].PlayedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) CreateHand(ctx context.Context, hand *domain.Hand) (*domain.Hand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	if s.createErr != nil {
		return nil, s.createErr
	}
	if err := hand.Validate(); err != nil {
		return nil, err
	}
	created := *hand
	created.ID = s.nextID
	s.nextID++
	s.hands = append(s.hands, created)
	return &created, nil
}

func (s *memStore) DeleteHand(ctx context.Context, ownerID uuid.UUID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.hands {
		if h.ID == id && h.UserID == ownerID {
			s.hands = append(s.hands[:i], s.hands[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

var errBackend = errors.New("relation \"sessions\" does not exist")
