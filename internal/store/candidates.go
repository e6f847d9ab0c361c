package store

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/text/cases"

	"github.com/rcliao/openats/internal/kv"
	"github.com/rcliao/openats/internal/model"
)

// Application is what the public careers form submits.
type Application struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneCode   string
	PhoneNumber string
	Role        string
}

// CandidateStore keeps candidates submitted through the careers page,
// newest first.
type CandidateStore struct {
	c   *Collection[model.Candidate, string]
	now func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewCandidateStore returns the candidate store over storage.
func NewCandidateStore(storage kv.Storage, cfg Config) (*CandidateStore, error) {
	c, err := New(storage, Options[model.Candidate, string]{
		Key:      CandidatesKey,
		IDOf:     func(c model.Candidate) string { return c.ID },
		SetID:    func(c *model.Candidate, id string) { c.ID = id },
		Validate: func(c model.Candidate) error { return model.Validate(c) },
		Logger:   cfg.Logger,
		Metrics:  cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	now := cfg.now()
	return &CandidateStore{
		c:       c,
		now:     now,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(now().UnixNano())), 0),
	}, nil
}

func (s *CandidateStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return "c" + ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

// Load returns every candidate.
func (s *CandidateStore) Load(ctx context.Context) []model.Candidate {
	return s.c.Load(ctx)
}

// LoadResult returns every candidate with the load outcome.
func (s *CandidateStore) LoadResult(ctx context.Context) LoadResult[model.Candidate] {
	return s.c.LoadResult(ctx)
}

// Get returns the candidate with the given id.
func (s *CandidateStore) Get(ctx context.Context, id string) (model.Candidate, bool) {
	return s.c.Find(ctx, id)
}

// Save stores c in front of the existing candidates, assigning an id when c
// has none.
func (s *CandidateStore) Save(ctx context.Context, c model.Candidate) (model.Candidate, error) {
	if c.ID == "" {
		c.ID = s.newID()
	}
	err := s.c.Mutate(ctx, func(all []model.Candidate) ([]model.Candidate, bool, error) {
		if s.c.index(all, c.ID) >= 0 {
			return nil, false, fmt.Errorf("%w: candidate %s", ErrDuplicate, c.ID)
		}
		return append([]model.Candidate{c}, all...), true, nil
	})
	return c, err
}

// Apply turns a careers-page submission into a screening candidate.
func (s *CandidateStore) Apply(ctx context.Context, app Application) (model.Candidate, error) {
	code := strings.TrimSpace(app.PhoneCode)
	if code == "" {
		code = model.DefaultPhoneCode
	}
	role := strings.TrimSpace(app.Role)
	if role == "" {
		role = model.Placeholder
	}
	return s.Save(ctx, model.Candidate{
		Name:        strings.TrimSpace(app.FirstName + " " + app.LastName),
		Status:      model.StatusScreening,
		StatusColor: model.StatusScreeningColor,
		Role:        role,
		Tags:        model.Placeholder,
		AppliedOn:   model.AppliedJustNow,
		Email:       strings.TrimSpace(app.Email),
		Phone:       strings.TrimSpace(code + " " + strings.TrimSpace(app.PhoneNumber)),
		LinkedIn:    model.Placeholder,
	})
}

// Update replaces candidate id with c, keeping the id.
func (s *CandidateStore) Update(ctx context.Context, id string, c model.Candidate) (model.Candidate, bool, error) {
	return s.c.Replace(ctx, id, c)
}

// Delete removes candidate id. Deleting a missing id is not an error.
func (s *CandidateStore) Delete(ctx context.Context, id string) error {
	_, err := s.c.Remove(ctx, id)
	return err
}

// Search returns candidates whose name, role, email or tags contain query,
// ignoring case. An empty query matches everyone.
func (s *CandidateStore) Search(ctx context.Context, query string) []model.Candidate {
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(query))
	return s.c.Filter(ctx, func(c model.Candidate) bool {
		for _, field := range []string{c.Name, c.Role, c.Email, c.Tags} {
			if strings.Contains(fold.String(field), q) {
				return true
			}
		}
		return false
	})
}
