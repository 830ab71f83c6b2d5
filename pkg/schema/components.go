package schema

import (
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
)

// components parses a component list. parent is the type of the component
// owning the list, or 0 for the top level, which takes any type.
func (p *parser) components(o object, key, path string, parent models.ComponentType) ([]models.Component, error) {
	raw, err := list(o, key, path)
	if err != nil {
		return nil, err
	}
	out := make([]models.Component, 0, len(raw))
	for i, r := range raw {
		cp := index(join(path, key), i)
		c, err := p.component(r, cp)
		if err != nil {
			return nil, err
		}
		if parent != 0 && !models.AllowsChild(parent, c.ComponentType()) {
			return nil, invalid(cp, "component type %d not allowed in component type %d", c.ComponentType(), parent)
		}
		out = append(out, c)
	}
	return out, nil
}

func (p *parser) component(raw any, path string) (models.Component, error) {
	o, ok := raw.(object)
	if !ok {
		return nil, invalid(path, "expected an object")
	}
	t, ok := integer(o["type"])
	if !ok {
		return nil, invalid(join(path, "type"), "missing component type")
	}

	switch models.ComponentType(t) {
	case models.ComponentTypeActionRow:
		row := &models.ActionRow{}
		row.ID = p.id(o["id"], func(id int) { row.ID = id })
		children, err := p.components(o, "components", path, models.ComponentTypeActionRow)
		if err != nil {
			return nil, err
		}
		row.Components = children
		return row, nil

	case models.ComponentTypeButton:
		return p.button(o), nil

	case models.ComponentTypeSelectMenu:
		return p.selectMenu(o, path)

	case models.ComponentTypeSection:
		s := &models.Section{}
		s.ID = p.id(o["id"], func(id int) { s.ID = id })
		children, err := p.components(o, "components", path, models.ComponentTypeSection)
		if err != nil {
			return nil, err
		}
		s.Components = children
		if acc, ok := o["accessory"]; ok && acc != nil {
			c, err := p.component(acc, join(path, "accessory"))
			if err != nil {
				return nil, err
			}
			if !models.AllowsAccessory(c.ComponentType()) {
				return nil, invalid(join(path, "accessory"), "accessory must be a button or thumbnail")
			}
			s.Accessory = c
		}
		return s, nil

	case models.ComponentTypeTextDisplay:
		td := &models.TextDisplay{Content: str(o, "content")}
		td.ID = p.id(o["id"], func(id int) { td.ID = id })
		return td, nil

	case models.ComponentTypeThumbnail:
		th := &models.Thumbnail{
			Media:       media(o["media"]),
			Description: str(o, "description"),
			Spoiler:     boolean(o, "spoiler"),
		}
		th.ID = p.id(o["id"], func(id int) { th.ID = id })
		return th, nil

	case models.ComponentTypeMediaGallery:
		g := &models.MediaGallery{Items: []*models.MediaGalleryItem{}}
		g.ID = p.id(o["id"], func(id int) { g.ID = id })
		items, err := list(o, "items", path)
		if err != nil {
			return nil, err
		}
		for i, r := range items {
			itemObj, ok := r.(object)
			if !ok {
				return nil, invalid(index(join(path, "items"), i), "expected an object")
			}
			it := &models.MediaGalleryItem{
				Media:       media(itemObj["media"]),
				Description: str(itemObj, "description"),
				Spoiler:     boolean(itemObj, "spoiler"),
			}
			it.ID = p.id(itemObj["id"], func(id int) { it.ID = id })
			g.Items = append(g.Items, it)
		}
		return g, nil

	case models.ComponentTypeFile:
		f := &models.File{File: media(o["file"]), Spoiler: boolean(o, "spoiler")}
		f.ID = p.id(o["id"], func(id int) { f.ID = id })
		return f, nil

	case models.ComponentTypeSeparator:
		sep := &models.Separator{
			Divider: optBool(o, "divider", true),
			Spacing: models.SeparatorSpacingSmall,
		}
		if n, ok := integer(o["spacing"]); ok && (n == models.SeparatorSpacingSmall || n == models.SeparatorSpacingLarge) {
			sep.Spacing = n
		}
		sep.ID = p.id(o["id"], func(id int) { sep.ID = id })
		return sep, nil

	case models.ComponentTypeContainer:
		c := &models.Container{
			AccentColor: color(o["accent_color"]),
			Spoiler:     boolean(o, "spoiler"),
		}
		c.ID = p.id(o["id"], func(id int) { c.ID = id })
		children, err := p.components(o, "components", path, models.ComponentTypeContainer)
		if err != nil {
			return nil, err
		}
		c.Components = children
		return c, nil
	}
	return nil, invalid(join(path, "type"), "unknown component type %d", t)
}

func (p *parser) button(o object) *models.Button {
	b := &models.Button{
		Style:    models.ButtonStylePrimary,
		Label:    str(o, "label"),
		Emoji:    emoji(o["emoji"]),
		Disabled: boolean(o, "disabled"),
	}
	if n, ok := integer(o["style"]); ok && models.ButtonStyle(n).Valid() {
		b.Style = models.ButtonStyle(n)
	}
	b.ID = p.id(o["id"], func(id int) { b.ID = id })

	if b.IsLink() {
		b.URL = str(o, "url")
		return b
	}
	b.ActionSetID = keyString(o["action_set_id"])
	if b.ActionSetID == "" {
		b.ActionSetID = actionKeyFromCustomID(o["custom_id"])
	}
	return b
}

func (p *parser) selectMenu(o object, path string) (*models.SelectMenu, error) {
	sm := &models.SelectMenu{
		Placeholder: str(o, "placeholder"),
		Disabled:    boolean(o, "disabled"),
		Options:     []*models.SelectMenuOption{},
	}
	sm.ID = p.id(o["id"], func(id int) { sm.ID = id })

	options, err := list(o, "options", path)
	if err != nil {
		return nil, err
	}
	for i, r := range options {
		oo, ok := r.(object)
		if !ok {
			return nil, invalid(index(join(path, "options"), i), "expected an object")
		}
		opt := &models.SelectMenuOption{
			Label:       str(oo, "label"),
			Description: str(oo, "description"),
			Emoji:       emoji(oo["emoji"]),
			ActionSetID: keyString(oo["action_set_id"]),
		}
		if opt.ActionSetID == "" {
			opt.ActionSetID = actionKeyFromCustomID(oo["value"])
		}
		opt.ID = p.id(oo["id"], func(id int) { opt.ID = id })
		sm.Options = append(sm.Options, opt)
	}
	return sm, nil
}
