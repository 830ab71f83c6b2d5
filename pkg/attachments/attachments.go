package attachments

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/ids"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/schema"
)

var (
	ErrTooMany  = errors.New("too many attachments")
	ErrTooLarge = errors.New("attachments too large")
)

// Store holds the files that go out with the message. Add does not enforce
// limits; callers check CanAdd first.
type Store struct {
	mu     sync.RWMutex
	gen    *ids.Generator
	items  []*models.Attachment
	limits schema.Limits
}

func New(gen *ids.Generator, limits schema.Limits) *Store {
	return &Store{gen: gen, items: []*models.Attachment{}, limits: limits}
}

// FromBytes builds an attachment carrying data as a base64 data URL.
func FromBytes(name string, data []byte) *models.Attachment {
	mime := http.DetectContentType(data)
	return &models.Attachment{
		Name:    name,
		Size:    int64(len(data)),
		DataURL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
}

// CanAdd reports why a file of size bytes may not be added, or nil.
func (s *Store) CanAdd(size int64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.items) >= s.limits.MaxAttachments {
		return fmt.Errorf("%w: at most %d files", ErrTooMany, s.limits.MaxAttachments)
	}
	if total := s.total() + size; total > s.limits.MaxAttachmentBytes {
		return fmt.Errorf("%w: %s exceeds %s", ErrTooLarge,
			humanize.Bytes(uint64(total)), humanize.Bytes(uint64(s.limits.MaxAttachmentBytes)))
	}
	return nil
}

// Add stores a copy of a with a fresh id and returns the id.
func (s *Store) Add(a *models.Attachment) int {
	cp := a.Clone()
	cp.ID = s.gen.Next()
	s.mu.Lock()
	s.items = append(s.items, cp)
	s.mu.Unlock()
	return cp.ID
}

// Remove deletes the attachment with id and reports whether it existed.
func (s *Store) Remove(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.items {
		if a.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.items = []*models.Attachment{}
	s.mu.Unlock()
}

// Replace swaps in restored attachments. Their ids are kept when unique.
func (s *Store) Replace(items []*models.Attachment) {
	next := make([]*models.Attachment, 0, len(items))
	seen := make(map[int]bool, len(items))
	for _, a := range items {
		if a == nil {
			continue
		}
		cp := a.Clone()
		if cp.ID > 0 && !seen[cp.ID] {
			s.gen.Observe(cp.ID)
		} else {
			cp.ID = 0
		}
		seen[cp.ID] = true
		next = append(next, cp)
	}
	for _, a := range next {
		if a.ID == 0 {
			a.ID = s.gen.Next()
		}
	}
	s.mu.Lock()
	s.items = next
	s.mu.Unlock()
}

// List returns copies in insertion order.
func (s *Store) List() []*models.Attachment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Attachment, len(s.items))
	for i, a := range s.items {
		out[i] = a.Clone()
	}
	return out
}

func (s *Store) TotalSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total()
}

func (s *Store) total() int64 {
	var n int64
	for _, a := range s.items {
		n += a.Size
	}
	return n
}
