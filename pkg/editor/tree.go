package editor

import (
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
)

// Path addresses a node of the component tree by position. Path{2} is the
// third top-level component and Path{2, 0} its first child. Accessory as the
// last element addresses the accessory of the section before it.
type Path []int

// Accessory is the path element of a section accessory.
const Accessory = -1

func (p Path) parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

func (p Path) last() int {
	if len(p) == 0 {
		return Accessory
	}
	return p[len(p)-1]
}

// resolve returns the component at p, or nil.
func resolve(m *models.Message, p Path) models.Component {
	var cur models.Component
	for depth, i := range p {
		if depth == 0 {
			if !inRange(m.Components, i) {
				return nil
			}
			cur = m.Components[i]
			continue
		}
		if i == Accessory {
			s, ok := cur.(*models.Section)
			if !ok || s.Accessory == nil {
				return nil
			}
			cur = s.Accessory
			continue
		}
		children := models.Children(cur)
		if children == nil || !inRange(*children, i) {
			return nil
		}
		cur = (*children)[i]
	}
	return cur
}

// componentAt returns the component at p if it is of variant T.
func componentAt[T models.Component](m *models.Message, p Path) (T, bool) {
	v, ok := resolve(m, p).(T)
	return v, ok
}

// childList returns the list that children of parent live in. An empty path
// is the top level. Leaves have no list.
func childList(m *models.Message, parent Path) *[]models.Component {
	if len(parent) == 0 {
		return &m.Components
	}
	return models.Children(resolve(m, parent))
}

// accepts reports whether c may be appended under parent: the parent (or
// the top level for the current mode) must take its type and every node of
// c must sit under a parent that takes it.
func accepts(m *models.Message, parent Path, c models.Component) bool {
	if len(parent) == 0 {
		if !models.AllowsTopLevel(c.ComponentType(), m.ComponentsV2()) {
			return false
		}
	} else if p := resolve(m, parent); p == nil || !models.AllowsChild(p.ComponentType(), c.ComponentType()) {
		return false
	}
	return models.CheckNesting(c) == nil
}

// The helpers below are the only code that moves whole subtrees in or out
// of the document. Each keeps Message.Actions in step with the action set
// references of the subtree.

// attach prepares a component coming from outside the document. The subtree
// is copied, every entity gets a fresh id and every action-capable node gets
// a fresh empty action set.
func (s *Store) attach(m *models.Message, c models.Component) models.Component {
	c = models.CloneComponent(c)
	if c == nil {
		return nil
	}
	normalize(c)
	models.RenumberComponent(c, s.gen.Next)
	for _, slot := range models.ActionSetSlots([]models.Component{c}) {
		*slot = s.gen.NextKey()
		m.Actions[*slot] = emptySet()
	}
	return c
}

// detach releases the action sets referenced by subtrees that were just
// removed from the document.
func detach(m *models.Message, removed ...models.Component) {
	release(m, models.ActionSetRefs(removed)...)
}

// release deletes the given action sets unless something still in the
// document refers to them. Only imported documents share keys.
func release(m *models.Message, keys ...string) {
	if len(keys) == 0 {
		return
	}
	live := make(map[string]bool)
	for _, k := range m.ActionSetRefs() {
		live[k] = true
	}
	for _, k := range keys {
		if !live[k] {
			delete(m.Actions, k)
		}
	}
}

// duplicate deep-copies a subtree that is part of the document. The copy
// gets fresh ids and its own copy of every action set it references.
func (s *Store) duplicate(m *models.Message, c models.Component) models.Component {
	cp := models.CloneComponent(c)
	if cp == nil {
		return nil
	}
	models.RenumberComponent(cp, s.gen.Next)
	rekeyed := make(map[string]string)
	for _, slot := range models.ActionSetSlots([]models.Component{cp}) {
		if key, ok := rekeyed[*slot]; ok {
			*slot = key
			continue
		}
		key := s.copySet(m, *slot)
		rekeyed[*slot] = key
		*slot = key
	}
	return cp
}

// copySet stores a copy of the action set under key (with fresh action ids)
// under a new key and returns it.
func (s *Store) copySet(m *models.Message, key string) string {
	cp := m.Actions[key].Clone()
	if cp == nil {
		cp = emptySet()
	}
	if cp.Actions == nil {
		cp.Actions = []models.Action{}
	}
	models.RenumberActionSet(cp, s.gen.Next)
	nk := s.gen.NextKey()
	m.Actions[nk] = cp
	return nk
}

func emptySet() *models.ActionSet {
	return &models.ActionSet{Actions: []models.Action{}}
}

// normalize drops fields foreign to each node's variant and fills nil lists.
func normalize(c models.Component) {
	models.WalkComponents([]models.Component{c}, func(c models.Component) {
		switch v := c.(type) {
		case *models.ActionRow:
			v.Components = compact(v.Components)
		case *models.Section:
			v.Components = compact(v.Components)
			switch v.Accessory.(type) {
			case nil, *models.Button, *models.Thumbnail:
			default:
				v.Accessory = nil
			}
		case *models.Container:
			v.Components = compact(v.Components)
		case *models.Button:
			if !v.Style.Valid() {
				v.Style = models.ButtonStylePrimary
			}
			if v.IsLink() {
				v.ActionSetID = ""
			} else {
				v.URL = ""
			}
		case *models.SelectMenu:
			if v.Options == nil {
				v.Options = []*models.SelectMenuOption{}
			}
			for i, o := range v.Options {
				if o == nil {
					v.Options[i] = &models.SelectMenuOption{}
				}
			}
		case *models.MediaGallery:
			if v.Items == nil {
				v.Items = []*models.MediaGalleryItem{}
			}
			for i, it := range v.Items {
				if it == nil {
					v.Items[i] = &models.MediaGalleryItem{}
				}
			}
		case *models.Separator:
			if v.Spacing != models.SeparatorSpacingSmall && v.Spacing != models.SeparatorSpacingLarge {
				v.Spacing = models.SeparatorSpacingSmall
			}
		}
	})
}

func compact(cs []models.Component) []models.Component {
	out := make([]models.Component, 0, len(cs))
	for _, c := range cs {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}
