package editor

import (
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
)

// AddComponent appends a copy of c to the children of parent (the top level
// when parent is empty) and returns the id it was given. Every nested entity
// gets a fresh id and every button or option a fresh empty action set.
// It returns 0 when parent cannot hold children or does not accept c.
func (s *Store) AddComponent(parent Path, c models.Component) int {
	var id int
	s.update("AddComponent", func(m *models.Message) bool {
		list := childList(m, parent)
		if list == nil {
			return false
		}
		nc := models.CloneComponent(c)
		if nc == nil || !accepts(m, parent, nc) {
			return false
		}
		nc = s.attach(m, nc)
		*list = append(*list, nc)
		id = nc.ComponentID()
		return true
	})
	return id
}

// ClearComponents removes every child of parent.
func (s *Store) ClearComponents(parent Path) {
	s.update("ClearComponents", func(m *models.Message) bool {
		list := childList(m, parent)
		if list == nil || len(*list) == 0 {
			return false
		}
		removed := *list
		*list = []models.Component{}
		detach(m, removed...)
		return true
	})
}

func (s *Store) MoveComponentUp(p Path) {
	s.update("MoveComponentUp", func(m *models.Message) bool {
		list := childList(m, p.parent())
		return len(p) > 0 && list != nil && moveUp(*list, p.last())
	})
}

func (s *Store) MoveComponentDown(p Path) {
	s.update("MoveComponentDown", func(m *models.Message) bool {
		list := childList(m, p.parent())
		return len(p) > 0 && list != nil && moveDown(*list, p.last())
	})
}

// DuplicateComponent inserts a copy of the component at p right after it.
// Accessories cannot be duplicated.
func (s *Store) DuplicateComponent(p Path) {
	s.update("DuplicateComponent", func(m *models.Message) bool {
		if len(p) == 0 {
			return false
		}
		list := childList(m, p.parent())
		i := p.last()
		if list == nil || !inRange(*list, i) {
			return false
		}
		cp := s.duplicate(m, (*list)[i])
		insertAfter(list, i, cp)
		return true
	})
}

// DeleteComponent removes the component at p together with the action sets
// only it referenced.
func (s *Store) DeleteComponent(p Path) {
	s.update("DeleteComponent", func(m *models.Message) bool {
		if len(p) == 0 {
			return false
		}
		if p.last() == Accessory {
			sec, ok := componentAt[*models.Section](m, p.parent())
			if !ok || sec.Accessory == nil {
				return false
			}
			old := sec.Accessory
			sec.Accessory = nil
			detach(m, old)
			return true
		}
		list := childList(m, p.parent())
		if list == nil {
			return false
		}
		removed, ok := removeAt(list, p.last())
		if !ok {
			return false
		}
		detach(m, removed)
		return true
	})
}

// SetSectionAccessory replaces the accessory of the section at p. Only
// buttons and thumbnails are accepted.
func (s *Store) SetSectionAccessory(p Path, c models.Component) {
	switch c.(type) {
	case *models.Button, *models.Thumbnail:
	default:
		return
	}
	s.update("SetSectionAccessory", func(m *models.Message) bool {
		sec, ok := componentAt[*models.Section](m, p)
		if !ok {
			return false
		}
		acc := s.attach(m, c)
		if acc == nil {
			return false
		}
		old := sec.Accessory
		sec.Accessory = acc
		if old != nil {
			detach(m, old)
		}
		return true
	})
}

// updateAt applies fn to the component at p when it is of variant T.
func updateAt[T models.Component](s *Store, op string, p Path, fn func(v T) bool) {
	s.update(op, func(m *models.Message) bool {
		v, ok := componentAt[T](m, p)
		return ok && fn(v)
	})
}

// SetButtonStyle changes the style of the button at p. Crossing between link
// and non-link styles rebuilds the variant: a link button loses its action
// set, any other button gains a fresh empty one.
func (s *Store) SetButtonStyle(p Path, style models.ButtonStyle) {
	if !style.Valid() {
		return
	}
	s.update("SetButtonStyle", func(m *models.Message) bool {
		b, ok := componentAt[*models.Button](m, p)
		if !ok || b.Style == style {
			return false
		}
		wasLink := b.IsLink()
		b.Style = style
		switch {
		case wasLink && !b.IsLink():
			b.URL = ""
			b.ActionSetID = s.gen.NextKey()
			m.Actions[b.ActionSetID] = emptySet()
		case !wasLink && b.IsLink():
			key := b.ActionSetID
			b.ActionSetID = ""
			release(m, key)
		}
		return true
	})
}

func (s *Store) SetButtonLabel(p Path, label string) {
	updateAt(s, "SetButtonLabel", p, func(b *models.Button) bool {
		return set(&b.Label, label)
	})
}

// SetButtonEmoji sets or, with nil, removes the emoji.
func (s *Store) SetButtonEmoji(p Path, e *models.Emoji) {
	updateAt(s, "SetButtonEmoji", p, func(b *models.Button) bool {
		return setEmoji(&b.Emoji, e)
	})
}

// SetButtonURL only applies to link buttons.
func (s *Store) SetButtonURL(p Path, url string) {
	updateAt(s, "SetButtonURL", p, func(b *models.Button) bool {
		return b.IsLink() && set(&b.URL, url)
	})
}

func (s *Store) SetButtonDisabled(p Path, disabled bool) {
	updateAt(s, "SetButtonDisabled", p, func(b *models.Button) bool {
		return set(&b.Disabled, disabled)
	})
}

func (s *Store) SetSelectMenuPlaceholder(p Path, placeholder string) {
	updateAt(s, "SetSelectMenuPlaceholder", p, func(sm *models.SelectMenu) bool {
		return set(&sm.Placeholder, placeholder)
	})
}

func (s *Store) SetSelectMenuDisabled(p Path, disabled bool) {
	updateAt(s, "SetSelectMenuDisabled", p, func(sm *models.SelectMenu) bool {
		return set(&sm.Disabled, disabled)
	})
}

// AddSelectMenuOption appends a copy of opt (an empty option when nil) with a
// fresh id and a fresh empty action set, and returns the new option id.
func (s *Store) AddSelectMenuOption(p Path, opt *models.SelectMenuOption) int {
	cp := opt.Clone()
	if cp == nil {
		cp = &models.SelectMenuOption{}
	}
	var id int
	s.update("AddSelectMenuOption", func(m *models.Message) bool {
		sm, ok := componentAt[*models.SelectMenu](m, p)
		if !ok {
			return false
		}
		cp.ID = s.gen.Next()
		cp.ActionSetID = s.gen.NextKey()
		m.Actions[cp.ActionSetID] = emptySet()
		sm.Options = append(sm.Options, cp)
		id = cp.ID
		return true
	})
	return id
}

func (s *Store) ClearSelectMenuOptions(p Path) {
	s.update("ClearSelectMenuOptions", func(m *models.Message) bool {
		sm, ok := componentAt[*models.SelectMenu](m, p)
		if !ok || len(sm.Options) == 0 {
			return false
		}
		keys := make([]string, 0, len(sm.Options))
		for _, o := range sm.Options {
			keys = append(keys, o.ActionSetID)
		}
		sm.Options = []*models.SelectMenuOption{}
		release(m, keys...)
		return true
	})
}

func (s *Store) MoveSelectMenuOptionUp(p Path, j int) {
	updateAt(s, "MoveSelectMenuOptionUp", p, func(sm *models.SelectMenu) bool {
		return moveUp(sm.Options, j)
	})
}

func (s *Store) MoveSelectMenuOptionDown(p Path, j int) {
	updateAt(s, "MoveSelectMenuOptionDown", p, func(sm *models.SelectMenu) bool {
		return moveDown(sm.Options, j)
	})
}

// DuplicateSelectMenuOption inserts a copy of option j after it. The copy
// gets a fresh id and its own copy of the option's action set.
func (s *Store) DuplicateSelectMenuOption(p Path, j int) {
	s.update("DuplicateSelectMenuOption", func(m *models.Message) bool {
		sm, ok := componentAt[*models.SelectMenu](m, p)
		if !ok || !inRange(sm.Options, j) {
			return false
		}
		cp := sm.Options[j].Clone()
		cp.ID = s.gen.Next()
		cp.ActionSetID = s.copySet(m, cp.ActionSetID)
		insertAfter(&sm.Options, j, cp)
		return true
	})
}

func (s *Store) DeleteSelectMenuOption(p Path, j int) {
	s.update("DeleteSelectMenuOption", func(m *models.Message) bool {
		sm, ok := componentAt[*models.SelectMenu](m, p)
		if !ok {
			return false
		}
		removed, ok := removeAt(&sm.Options, j)
		if !ok {
			return false
		}
		release(m, removed.ActionSetID)
		return true
	})
}

func (s *Store) updateOption(op string, p Path, j int, fn func(o *models.SelectMenuOption) bool) {
	updateAt(s, op, p, func(sm *models.SelectMenu) bool {
		return inRange(sm.Options, j) && fn(sm.Options[j])
	})
}

func (s *Store) SetSelectMenuOptionLabel(p Path, j int, label string) {
	s.updateOption("SetSelectMenuOptionLabel", p, j, func(o *models.SelectMenuOption) bool {
		return set(&o.Label, label)
	})
}

func (s *Store) SetSelectMenuOptionDescription(p Path, j int, description string) {
	s.updateOption("SetSelectMenuOptionDescription", p, j, func(o *models.SelectMenuOption) bool {
		return set(&o.Description, description)
	})
}

func (s *Store) SetSelectMenuOptionEmoji(p Path, j int, e *models.Emoji) {
	s.updateOption("SetSelectMenuOptionEmoji", p, j, func(o *models.SelectMenuOption) bool {
		return setEmoji(&o.Emoji, e)
	})
}

func (s *Store) SetTextDisplayContent(p Path, content string) {
	updateAt(s, "SetTextDisplayContent", p, func(td *models.TextDisplay) bool {
		return set(&td.Content, content)
	})
}

func (s *Store) SetThumbnailURL(p Path, url string) {
	updateAt(s, "SetThumbnailURL", p, func(th *models.Thumbnail) bool {
		return set(&th.Media.URL, url)
	})
}

func (s *Store) SetThumbnailDescription(p Path, description string) {
	updateAt(s, "SetThumbnailDescription", p, func(th *models.Thumbnail) bool {
		return set(&th.Description, description)
	})
}

func (s *Store) SetThumbnailSpoiler(p Path, spoiler bool) {
	updateAt(s, "SetThumbnailSpoiler", p, func(th *models.Thumbnail) bool {
		return set(&th.Spoiler, spoiler)
	})
}

// AddGalleryItem appends a copy of item (an empty item when nil) and returns
// its new id.
func (s *Store) AddGalleryItem(p Path, item *models.MediaGalleryItem) int {
	cp := item.Clone()
	if cp == nil {
		cp = &models.MediaGalleryItem{}
	}
	var id int
	updateAt(s, "AddGalleryItem", p, func(g *models.MediaGallery) bool {
		cp.ID = s.gen.Next()
		id = cp.ID
		g.Items = append(g.Items, cp)
		return true
	})
	return id
}

func (s *Store) MoveGalleryItemUp(p Path, j int) {
	updateAt(s, "MoveGalleryItemUp", p, func(g *models.MediaGallery) bool {
		return moveUp(g.Items, j)
	})
}

func (s *Store) MoveGalleryItemDown(p Path, j int) {
	updateAt(s, "MoveGalleryItemDown", p, func(g *models.MediaGallery) bool {
		return moveDown(g.Items, j)
	})
}

func (s *Store) DuplicateGalleryItem(p Path, j int) {
	updateAt(s, "DuplicateGalleryItem", p, func(g *models.MediaGallery) bool {
		if !inRange(g.Items, j) {
			return false
		}
		cp := g.Items[j].Clone()
		cp.ID = s.gen.Next()
		insertAfter(&g.Items, j, cp)
		return true
	})
}

func (s *Store) DeleteGalleryItem(p Path, j int) {
	updateAt(s, "DeleteGalleryItem", p, func(g *models.MediaGallery) bool {
		_, ok := removeAt(&g.Items, j)
		return ok
	})
}

func (s *Store) updateGalleryItem(op string, p Path, j int, fn func(it *models.MediaGalleryItem) bool) {
	updateAt(s, op, p, func(g *models.MediaGallery) bool {
		return inRange(g.Items, j) && fn(g.Items[j])
	})
}

func (s *Store) SetGalleryItemURL(p Path, j int, url string) {
	s.updateGalleryItem("SetGalleryItemURL", p, j, func(it *models.MediaGalleryItem) bool {
		return set(&it.Media.URL, url)
	})
}

func (s *Store) SetGalleryItemDescription(p Path, j int, description string) {
	s.updateGalleryItem("SetGalleryItemDescription", p, j, func(it *models.MediaGalleryItem) bool {
		return set(&it.Description, description)
	})
}

func (s *Store) SetGalleryItemSpoiler(p Path, j int, spoiler bool) {
	s.updateGalleryItem("SetGalleryItemSpoiler", p, j, func(it *models.MediaGalleryItem) bool {
		return set(&it.Spoiler, spoiler)
	})
}

func (s *Store) SetFileURL(p Path, url string) {
	updateAt(s, "SetFileURL", p, func(f *models.File) bool {
		return set(&f.File.URL, url)
	})
}

func (s *Store) SetFileSpoiler(p Path, spoiler bool) {
	updateAt(s, "SetFileSpoiler", p, func(f *models.File) bool {
		return set(&f.Spoiler, spoiler)
	})
}

func (s *Store) SetSeparatorDivider(p Path, divider bool) {
	updateAt(s, "SetSeparatorDivider", p, func(sep *models.Separator) bool {
		return set(&sep.Divider, divider)
	})
}

// SetSeparatorSpacing accepts SeparatorSpacingSmall and SeparatorSpacingLarge.
func (s *Store) SetSeparatorSpacing(p Path, spacing int) {
	if spacing != models.SeparatorSpacingSmall && spacing != models.SeparatorSpacingLarge {
		return
	}
	updateAt(s, "SetSeparatorSpacing", p, func(sep *models.Separator) bool {
		return set(&sep.Spacing, spacing)
	})
}

func (s *Store) SetContainerAccentColor(p Path, color *int) {
	updateAt(s, "SetContainerAccentColor", p, func(c *models.Container) bool {
		return setIntPtr(&c.AccentColor, color)
	})
}

func (s *Store) SetContainerSpoiler(p Path, spoiler bool) {
	updateAt(s, "SetContainerSpoiler", p, func(c *models.Container) bool {
		return set(&c.Spoiler, spoiler)
	})
}

func setEmoji(p **models.Emoji, e *models.Emoji) bool {
	switch {
	case *p == nil && e == nil:
		return false
	case *p != nil && e != nil && **p == *e:
		return false
	}
	*p = e.Clone()
	return true
}
