package models

import (
	"reflect"

	"github.com/brunoga/deep"
)

// Clone returns a deep copy of the message. Nil and empty collections are
// preserved as they are so a clone compares equal to its source. Typed-nil
// components and actions are dropped.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	cp := deep.MustCopy(m)
	cp.Components = pruneComponents(cp.Components)
	for _, set := range cp.Actions {
		pruneActions(set)
	}
	return cp
}

func (e *Embed) Clone() *Embed {
	if e == nil {
		return nil
	}
	return deep.MustCopy(e)
}

func (f *EmbedField) Clone() *EmbedField {
	if f == nil {
		return nil
	}
	return deep.MustCopy(f)
}

func (e *Emoji) Clone() *Emoji {
	if e == nil {
		return nil
	}
	return deep.MustCopy(e)
}

func (o *SelectMenuOption) Clone() *SelectMenuOption {
	if o == nil {
		return nil
	}
	return deep.MustCopy(o)
}

func (it *MediaGalleryItem) Clone() *MediaGalleryItem {
	if it == nil {
		return nil
	}
	return deep.MustCopy(it)
}

func (s *ActionSet) Clone() *ActionSet {
	if s == nil {
		return nil
	}
	cp := deep.MustCopy(s)
	pruneActions(cp)
	return cp
}

// CloneComponents deep-copies a component list, dropping nil entries.
func CloneComponents(cs []Component) []Component {
	if cs == nil {
		return nil
	}
	return pruneComponents(deep.MustCopy(cs))
}

// CloneComponent deep-copies a component subtree. It returns nil for nil and
// typed-nil components.
func CloneComponent(c Component) Component {
	if isNil(c) {
		return nil
	}
	return pruneComponent(deep.MustCopy(c))
}

// CloneAction deep-copies an action. It returns nil for nil and typed-nil
// actions.
func CloneAction(a Action) Action {
	if isNil(a) {
		return nil
	}
	return deep.MustCopy(a)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func compact[T any](items []*T) []*T {
	if items == nil {
		return nil
	}
	out := items[:0]
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}

// pruneComponents drops nil entries from a freshly copied list in place.
func pruneComponents(cs []Component) []Component {
	if cs == nil {
		return nil
	}
	out := cs[:0]
	for _, c := range cs {
		if c = pruneComponent(c); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func pruneComponent(c Component) Component {
	if isNil(c) {
		return nil
	}
	switch v := c.(type) {
	case *ActionRow:
		v.Components = pruneComponents(v.Components)
	case *Section:
		v.Components = pruneComponents(v.Components)
		v.Accessory = pruneComponent(v.Accessory)
	case *Container:
		v.Components = pruneComponents(v.Components)
	case *SelectMenu:
		v.Options = compact(v.Options)
	case *MediaGallery:
		v.Items = compact(v.Items)
	}
	return c
}

func pruneActions(s *ActionSet) {
	if s == nil || s.Actions == nil {
		return
	}
	out := s.Actions[:0]
	for _, a := range s.Actions {
		if !isNil(a) {
			out = append(out, a)
		}
	}
	s.Actions = out
}
