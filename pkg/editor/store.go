package editor

import (
	"encoding/json"
	"sync"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/ids"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/schema"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/telemetry"
)

// Store owns the message being edited. Every mutation runs under the store
// lock and listeners are notified after the lock is released, only when the
// document actually changed.
//
// Operations never fail: out-of-range indices and writes to fields that the
// addressed variant does not have are silently ignored.
type Store struct {
	mu     sync.RWMutex
	gen    *ids.Generator
	msg    *models.Message
	rev    uint64
	limits schema.Limits

	listeners broadcaster
}

type Option func(*Store)

// WithLimits sets the limits CanAdd* checks against.
func WithLimits(l schema.Limits) Option {
	return func(s *Store) { s.limits = l }
}

// New creates a store holding a copy of initial, or the default message when
// initial is nil.
func New(gen *ids.Generator, initial *models.Message, opts ...Option) *Store {
	s := &Store{gen: gen, limits: schema.DefaultLimits()}
	for _, opt := range opts {
		opt(s)
	}
	if initial == nil {
		initial = schema.Default(gen)
	}
	s.msg = s.adopt(initial)
	return s
}

// adopt prepares a message built elsewhere for the store: it is copied, the
// generator moves past its ids and the action set map is repaired.
func (s *Store) adopt(m *models.Message) *models.Message {
	m = m.Clone()
	if m.Embeds == nil {
		m.Embeds = []*models.Embed{}
	}
	if m.Components == nil {
		m.Components = []models.Component{}
	}
	m.ForEachID(s.gen.Observe)
	schema.Repair(m, s.gen)
	return m
}

// Generator returns the id generator the store mints ids from.
func (s *Store) Generator() *ids.Generator { return s.gen }

// Subscribe registers fn for committed changes. The returned func removes it.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	return s.listeners.subscribe(fn)
}

// update applies fn to the live message. fn reports whether it changed
// anything; only then is the revision bumped and listeners notified.
func (s *Store) update(op string, fn func(m *models.Message) bool) bool {
	return s.commit(op, OriginEdit, fn)
}

func (s *Store) commit(op string, origin Origin, fn func(m *models.Message) bool) bool {
	s.mu.Lock()
	changed := fn(s.msg)
	var c Change
	if changed {
		s.rev++
		c = Change{Op: op, Origin: origin, Revision: s.rev}
	}
	s.mu.Unlock()

	if changed {
		telemetry.Mutations.WithLabelValues(op).Inc()
		s.listeners.notify(c)
	}
	return changed
}

// view runs fn with the live message under the read lock.
func (s *Store) view(fn func(m *models.Message)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.msg)
}

// Snapshot returns a deep copy of the current message.
func (s *Store) Snapshot() *models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.msg.Clone()
}

// SnapshotWithRevision returns a deep copy together with the revision it was
// taken at.
func (s *Store) SnapshotWithRevision() (*models.Message, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.msg.Clone(), s.rev
}

// Revision counts committed changes.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

func (s *Store) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.msg)
}

// Limits returns the limits used by the CanAdd* helpers.
func (s *Store) Limits() schema.Limits {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.limits
}

// SetLimits changes the limits, for example after a plan change.
func (s *Store) SetLimits(l schema.Limits) {
	s.mu.Lock()
	s.limits = l
	s.mu.Unlock()
}

// Replace swaps in a new document, typically one produced by schema.Parse.
func (s *Store) Replace(m *models.Message) {
	next := s.adopt(m)
	s.update("Replace", func(cur *models.Message) bool {
		*cur = *next
		return true
	})
}

// Restore replaces the document on behalf of the undo history. Listeners see
// OriginHistory.
func (s *Store) Restore(m *models.Message) {
	next := s.adopt(m)
	s.commit("Restore", OriginHistory, func(cur *models.Message) bool {
		*cur = *next
		return true
	})
}

// Clear empties the editor.
func (s *Store) Clear() {
	s.update("Clear", func(m *models.Message) bool {
		*m = *schema.Empty()
		return true
	})
}

// Reset puts back the default welcome message.
func (s *Store) Reset() {
	next := schema.Default(s.gen)
	s.update("Reset", func(m *models.Message) bool {
		*m = *next
		return true
	})
}

func (s *Store) SetContent(content string) {
	s.update("SetContent", func(m *models.Message) bool {
		return set(&m.Content, content)
	})
}

func (s *Store) SetUsername(username string) {
	s.update("SetUsername", func(m *models.Message) bool {
		return set(&m.Username, username)
	})
}

func (s *Store) SetAvatarURL(url string) {
	s.update("SetAvatarURL", func(m *models.Message) bool {
		return set(&m.AvatarURL, url)
	})
}

func (s *Store) SetThreadName(name string) {
	s.update("SetThreadName", func(m *models.Message) bool {
		return set(&m.ThreadName, name)
	})
}

func (s *Store) SetTTS(tts bool) {
	s.update("SetTTS", func(m *models.Message) bool {
		return set(&m.TTS, tts)
	})
}

// ComponentsV2Enabled reports whether the message uses the components-v2
// layout.
func (s *Store) ComponentsV2Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.msg.ComponentsV2()
}

// SetComponentsV2Enabled switches layouts. The switch is destructive:
// turning it on drops content, embeds, components and actions; turning it
// off puts back the default message.
func (s *Store) SetComponentsV2Enabled(enabled bool) {
	var next *models.Message
	if !enabled {
		next = schema.Default(s.gen)
	}
	s.update("SetComponentsV2Enabled", func(m *models.Message) bool {
		if m.ComponentsV2() == enabled {
			return false
		}
		if !enabled {
			*m = *next
			return true
		}
		m.Content = ""
		m.Embeds = []*models.Embed{}
		m.Components = []models.Component{}
		m.Actions = map[string]*models.ActionSet{}
		m.Flags |= models.FlagComponentsV2
		return true
	})
}

// CanAddEmbed reports whether another embed fits the limits.
func (s *Store) CanAddEmbed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.msg.Embeds) < s.limits.MaxEmbeds
}

// CanAddEmbedField reports whether embed i can take another field.
func (s *Store) CanAddEmbedField(i int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !inRange(s.msg.Embeds, i) {
		return false
	}
	return len(s.msg.Embeds[i].Fields) < s.limits.MaxEmbedFields
}

// AcceptsComponent reports whether AddComponent would take c under parent,
// ignoring capacity.
func (s *Store) AcceptsComponent(parent Path, c models.Component) bool {
	c = models.CloneComponent(c)
	if c == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return childList(s.msg, parent) != nil && accepts(s.msg, parent, c)
}

// CanAddComponent reports whether parent can take another child.
func (s *Store) CanAddComponent(parent Path) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(parent) == 0 {
		limit := s.limits.MaxComponentRows
		if s.msg.ComponentsV2() {
			limit = s.limits.MaxContainerChildren
		}
		return len(s.msg.Components) < limit
	}
	switch v := resolve(s.msg, parent).(type) {
	case *models.ActionRow:
		return len(v.Components) < s.limits.MaxRowChildren
	case *models.Section:
		return len(v.Components) < s.limits.MaxSectionChildren
	case *models.Container:
		return len(v.Components) < s.limits.MaxContainerChildren
	default:
		return false
	}
}

// CanAddSelectMenuOption reports whether the select menu at p can take
// another option.
func (s *Store) CanAddSelectMenuOption(p Path) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	menu, ok := componentAt[*models.SelectMenu](s.msg, p)
	return ok && len(menu.Options) < s.limits.MaxSelectOptions
}

// CanAddAction reports whether the action set under key can take another
// action.
func (s *Store) CanAddAction(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.msg.Actions[key]
	return ok && len(set.Actions) < s.limits.MaxActions
}
