package template

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds template versions in insertion order and the id of the
// current one. When the store is non-empty current always names a stored
// version; when it is empty current is "".
type Store struct {
	mu       sync.RWMutex
	versions []Version
	current  string
	created  int
	now      func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{now: time.Now}
}

// SetClock replaces the time source used for new versions
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// AddTemplate appends a new version. Any content is accepted, including
// the empty text. An empty label becomes "Template N".
//
// Adding never changes the current version, except on an empty store: there
// the new version becomes current, so a non-empty store always has one.
func (s *Store) AddTemplate(label, subject, content, description string) Version {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.created++
	if label == "" {
		label = fmt.Sprintf("Template %d", s.created)
	}

	v := Version{
		ID:          uuid.New().String(),
		Label:       label,
		Subject:     subject,
		Content:     content,
		Description: description,
		CreatedAt:   s.now().UTC(),
	}
	s.append(v)

	return v
}

// Save imports an already authored version, keeping its CreatedAt when set.
// An empty ID is assigned. Returns the stored ID.
func (s *Store) Save(v Version) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.ID == "" {
		v.ID = uuid.New().String()
	} else if s.indexOf(v.ID) >= 0 {
		return "", fmt.Errorf("%w: %s", ErrDuplicateID, v.ID)
	}

	s.created++
	if v.Label == "" {
		v.Label = fmt.Sprintf("Template %d", s.created)
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = s.now().UTC()
	}
	s.append(v)

	return v.ID, nil
}

// RestoreVersion makes id the current version
func (s *Store) RestoreVersion(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.current = id
	return nil
}

// DeleteTemplate removes a version. Deleting the current version selects
// the remaining version with the latest CreatedAt, preferring the later
// inserted on ties, or leaves the store without a current version when
// none remain.
func (s *Store) DeleteTemplate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	s.versions = append(s.versions[:i:i], s.versions[i+1:]...)

	if s.current == id {
		s.current = s.latest()
	}
	return nil
}

// Versions returns a copy of all versions in insertion order
func (s *Store) Versions() []Version {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Version, len(s.versions))
	copy(out, s.versions)
	return out
}

// List is Versions under its repository name
func (s *Store) List() []Version {
	return s.Versions()
}

// Current returns the current version, or false when the store is empty
func (s *Store) Current() (Version, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(s.current)
	if i < 0 {
		return Version{}, false
	}
	return s.versions[i], true
}

// CurrentID returns the id of the current version, or "" when empty
func (s *Store) CurrentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Get returns a version by id
func (s *Store) Get(id string) (Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Version{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.versions[i], nil
}

// Len returns the number of stored versions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.versions)
}

func (s *Store) append(v Version) {
	s.versions = append(s.versions, v)
	if s.current == "" {
		s.current = v.ID
	}
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.versions {
		if s.versions[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) latest() string {
	best := -1
	for i := range s.versions {
		if best < 0 || !s.versions[i].CreatedAt.Before(s.versions[best].CreatedAt) {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return s.versions[best].ID
}
