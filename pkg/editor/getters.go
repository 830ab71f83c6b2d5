package editor

import (
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
)

// The getters return detached copies. They return nil when the index is out
// of range or the node is not of the requested variant, so a caller
// rendering from a stale path simply renders nothing.

func (s *Store) GetEmbed(i int) *models.Embed {
	var out *models.Embed
	s.view(func(m *models.Message) {
		out = embedAt(m, i).Clone()
	})
	return out
}

func (s *Store) GetEmbedField(i, j int) *models.EmbedField {
	var out *models.EmbedField
	s.view(func(m *models.Message) {
		out = fieldAt(m, i, j).Clone()
	})
	return out
}

func (s *Store) GetComponent(p Path) models.Component {
	var out models.Component
	s.view(func(m *models.Message) {
		if c := resolve(m, p); c != nil {
			out = models.CloneComponent(c)
		}
	})
	return out
}

// getAs returns a copy of the component at p when it is of variant T.
func getAs[T models.Component](s *Store, p Path) T {
	var out T
	s.view(func(m *models.Message) {
		if v, ok := componentAt[T](m, p); ok {
			out = models.CloneComponent(v).(T)
		}
	})
	return out
}

func (s *Store) GetActionRow(p Path) *models.ActionRow {
	return getAs[*models.ActionRow](s, p)
}

func (s *Store) GetButton(p Path) *models.Button {
	return getAs[*models.Button](s, p)
}

func (s *Store) GetSelectMenu(p Path) *models.SelectMenu {
	return getAs[*models.SelectMenu](s, p)
}

func (s *Store) GetSection(p Path) *models.Section {
	return getAs[*models.Section](s, p)
}

func (s *Store) GetTextDisplay(p Path) *models.TextDisplay {
	return getAs[*models.TextDisplay](s, p)
}

func (s *Store) GetThumbnail(p Path) *models.Thumbnail {
	return getAs[*models.Thumbnail](s, p)
}

func (s *Store) GetGallery(p Path) *models.MediaGallery {
	return getAs[*models.MediaGallery](s, p)
}

func (s *Store) GetFile(p Path) *models.File {
	return getAs[*models.File](s, p)
}

func (s *Store) GetSeparator(p Path) *models.Separator {
	return getAs[*models.Separator](s, p)
}

func (s *Store) GetContainer(p Path) *models.Container {
	return getAs[*models.Container](s, p)
}

func (s *Store) GetSelectMenuOption(p Path, j int) *models.SelectMenuOption {
	var out *models.SelectMenuOption
	s.view(func(m *models.Message) {
		if sm, ok := componentAt[*models.SelectMenu](m, p); ok && inRange(sm.Options, j) {
			out = sm.Options[j].Clone()
		}
	})
	return out
}

func (s *Store) GetGalleryItem(p Path, j int) *models.MediaGalleryItem {
	var out *models.MediaGalleryItem
	s.view(func(m *models.Message) {
		if g, ok := componentAt[*models.MediaGallery](m, p); ok && inRange(g.Items, j) {
			out = g.Items[j].Clone()
		}
	})
	return out
}

func (s *Store) GetActionSet(key string) *models.ActionSet {
	var out *models.ActionSet
	s.view(func(m *models.Message) {
		out = m.Actions[key].Clone()
	})
	return out
}

func (s *Store) GetAction(key string, j int) models.Action {
	var out models.Action
	s.view(func(m *models.Message) {
		if set := m.Actions[key]; set != nil && inRange(set.Actions, j) {
			out = models.CloneAction(set.Actions[j])
		}
	})
	return out
}
