package editor

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/ids"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
)

// ActionStore is a keyed collection of action sets that lives outside any
// message. Custom commands keep their actions here. Unlike the message
// store, adding an action to an unknown key creates the set.
type ActionStore struct {
	mu   sync.RWMutex
	gen  *ids.Generator
	sets actionSets
	rev  uint64

	listeners broadcaster
}

// NewActionStore creates a store holding copies of initial.
func NewActionStore(gen *ids.Generator, initial map[string]*models.ActionSet) *ActionStore {
	return &ActionStore{gen: gen, sets: adoptSets(gen, initial)}
}

func adoptSets(gen *ids.Generator, sets map[string]*models.ActionSet) actionSets {
	out := make(actionSets, len(sets))
	for k, set := range sets {
		cp := set.Clone()
		if cp == nil {
			cp = emptySet()
		}
		if cp.Actions == nil {
			cp.Actions = []models.Action{}
		}
		for _, a := range cp.Actions {
			if a != nil {
				gen.Observe(a.ActionID())
			}
		}
		gen.ObserveKey(k)
		out[k] = cp
	}
	return out
}

func (s *ActionStore) Subscribe(fn func(Change)) (unsubscribe func()) {
	return s.listeners.subscribe(fn)
}

func (s *ActionStore) update(op string, fn func(sets actionSets) bool) bool {
	s.mu.Lock()
	changed := fn(s.sets)
	var c Change
	if changed {
		s.rev++
		c = Change{Op: op, Origin: OriginEdit, Revision: s.rev}
	}
	s.mu.Unlock()
	if changed {
		s.listeners.notify(c)
	}
	return changed
}

// Snapshot returns a deep copy of every set.
func (s *ActionStore) Snapshot() map[string]*models.ActionSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*models.ActionSet, len(s.sets))
	for k, set := range s.sets {
		out[k] = set.Clone()
	}
	return out
}

// Keys lists the set keys in sorted order.
func (s *ActionStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.sets))
	for k := range s.sets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON encodes the {"actions": {...}} record shape.
func (s *ActionStore) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(struct {
		Actions map[string]*models.ActionSet `json:"actions"`
	}{Actions: s.sets})
}

// Replace swaps in a new collection.
func (s *ActionStore) Replace(sets map[string]*models.ActionSet) {
	next := adoptSets(s.gen, sets)
	s.update("Replace", func(cur actionSets) bool {
		for k := range cur {
			delete(cur, k)
		}
		for k, set := range next {
			cur[k] = set
		}
		return true
	})
}

// EnsureSet creates an empty set under key unless one exists.
func (s *ActionStore) EnsureSet(key string) {
	if key == "" {
		return
	}
	s.update("EnsureSet", func(sets actionSets) bool {
		if _, ok := sets[key]; ok {
			return false
		}
		sets[key] = emptySet()
		return true
	})
}

func (s *ActionStore) DeleteSet(key string) {
	s.update("DeleteSet", func(sets actionSets) bool {
		if _, ok := sets[key]; !ok {
			return false
		}
		delete(sets, key)
		return true
	})
}

func (s *ActionStore) GetActionSet(key string) *models.ActionSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sets[key].Clone()
}

func (s *ActionStore) GetAction(key string, j int) models.Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a := s.sets.action(key, j); a != nil {
		return models.CloneAction(a)
	}
	return nil
}

func (s *ActionStore) AddAction(key string, t models.ActionType) int {
	var id int
	s.update("AddAction", func(sets actionSets) bool {
		var ok bool
		id, ok = sets.add(s.gen, key, t, true)
		return ok
	})
	return id
}

func (s *ActionStore) ClearActions(key string) {
	s.update("ClearActions", func(sets actionSets) bool { return sets.clear(key) })
}

func (s *ActionStore) MoveActionUp(key string, j int) {
	s.update("MoveActionUp", func(sets actionSets) bool { return sets.moveUp(key, j) })
}

func (s *ActionStore) MoveActionDown(key string, j int) {
	s.update("MoveActionDown", func(sets actionSets) bool { return sets.moveDown(key, j) })
}

func (s *ActionStore) DuplicateAction(key string, j int) {
	s.update("DuplicateAction", func(sets actionSets) bool { return sets.duplicate(s.gen, key, j) })
}

func (s *ActionStore) DeleteAction(key string, j int) {
	s.update("DeleteAction", func(sets actionSets) bool { return sets.remove(key, j) })
}

func (s *ActionStore) SetActionType(key string, j int, t models.ActionType) {
	s.update("SetActionType", func(sets actionSets) bool { return sets.setType(key, j, t) })
}

func (s *ActionStore) updateAction(op, key string, j int, fn func(a models.Action) bool) {
	s.update(op, func(sets actionSets) bool { return sets.update(key, j, fn) })
}

func (s *ActionStore) SetActionText(key string, j int, text string) {
	s.updateAction("SetActionText", key, j, func(a models.Action) bool { return setText(a, text) })
}

func (s *ActionStore) SetActionTargetID(key string, j int, target string) {
	s.updateAction("SetActionTargetID", key, j, func(a models.Action) bool { return setTargetID(a, target) })
}

func (s *ActionStore) SetActionPublic(key string, j int, public bool) {
	s.updateAction("SetActionPublic", key, j, func(a models.Action) bool { return setPublic(a, public) })
}

func (s *ActionStore) SetActionAllowRoleMentions(key string, j int, allow bool) {
	s.updateAction("SetActionAllowRoleMentions", key, j, func(a models.Action) bool { return setAllowRoleMentions(a, allow) })
}

func (s *ActionStore) SetActionDisableDefaultResponse(key string, j int, disable bool) {
	s.updateAction("SetActionDisableDefaultResponse", key, j, func(a models.Action) bool { return setDisableDefaultResponse(a, disable) })
}

func (s *ActionStore) SetActionPermissions(key string, j int, permissions string) {
	s.updateAction("SetActionPermissions", key, j, func(a models.Action) bool { return setPermissions(a, permissions) })
}

func (s *ActionStore) SetActionRoleIDs(key string, j int, roles []models.Snowflake) {
	s.updateAction("SetActionRoleIDs", key, j, func(a models.Action) bool { return setRoleIDs(a, roles) })
}
