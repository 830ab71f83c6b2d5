package editor

import (
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
)

// embedAt returns embed i or nil.
func embedAt(m *models.Message, i int) *models.Embed {
	if !inRange(m.Embeds, i) {
		return nil
	}
	return m.Embeds[i]
}

func fieldAt(m *models.Message, i, j int) *models.EmbedField {
	e := embedAt(m, i)
	if e == nil || !inRange(e.Fields, j) {
		return nil
	}
	return e.Fields[j]
}

// AddEmbed appends a copy of e (an empty embed when nil) with fresh ids and
// returns the new embed id.
func (s *Store) AddEmbed(e *models.Embed) int {
	cp := e.Clone()
	if cp == nil {
		cp = &models.Embed{}
	}
	if cp.Fields == nil {
		cp.Fields = []*models.EmbedField{}
	}
	cp.Fields = compactFields(cp.Fields)
	models.RenumberEmbed(cp, s.gen.Next)
	s.update("AddEmbed", func(m *models.Message) bool {
		m.Embeds = append(m.Embeds, cp)
		return true
	})
	return cp.ID
}

func (s *Store) ClearEmbeds() {
	s.update("ClearEmbeds", func(m *models.Message) bool {
		if len(m.Embeds) == 0 {
			return false
		}
		m.Embeds = []*models.Embed{}
		return true
	})
}

func (s *Store) MoveEmbedUp(i int) {
	s.update("MoveEmbedUp", func(m *models.Message) bool {
		return moveUp(m.Embeds, i)
	})
}

func (s *Store) MoveEmbedDown(i int) {
	s.update("MoveEmbedDown", func(m *models.Message) bool {
		return moveDown(m.Embeds, i)
	})
}

// DuplicateEmbed inserts a copy of embed i right after it. The copy and its
// fields get fresh ids.
func (s *Store) DuplicateEmbed(i int) {
	s.update("DuplicateEmbed", func(m *models.Message) bool {
		e := embedAt(m, i)
		if e == nil {
			return false
		}
		cp := e.Clone()
		models.RenumberEmbed(cp, s.gen.Next)
		insertAfter(&m.Embeds, i, cp)
		return true
	})
}

func (s *Store) DeleteEmbed(i int) {
	s.update("DeleteEmbed", func(m *models.Message) bool {
		_, ok := removeAt(&m.Embeds, i)
		return ok
	})
}

// updateEmbed applies fn to embed i.
func (s *Store) updateEmbed(op string, i int, fn func(e *models.Embed) bool) {
	s.update(op, func(m *models.Message) bool {
		e := embedAt(m, i)
		return e != nil && fn(e)
	})
}

func (s *Store) SetEmbedTitle(i int, title string) {
	s.updateEmbed("SetEmbedTitle", i, func(e *models.Embed) bool {
		return set(&e.Title, title)
	})
}

func (s *Store) SetEmbedDescription(i int, description string) {
	s.updateEmbed("SetEmbedDescription", i, func(e *models.Embed) bool {
		return set(&e.Description, description)
	})
}

func (s *Store) SetEmbedURL(i int, url string) {
	s.updateEmbed("SetEmbedURL", i, func(e *models.Embed) bool {
		return set(&e.URL, url)
	})
}

// SetEmbedColor sets the 24-bit colour; nil resets to the default colour.
func (s *Store) SetEmbedColor(i int, color *int) {
	s.updateEmbed("SetEmbedColor", i, func(e *models.Embed) bool {
		return setIntPtr(&e.Color, color)
	})
}

// SetEmbedTimestamp sets the RFC 3339 timestamp; "" removes it.
func (s *Store) SetEmbedTimestamp(i int, ts string) {
	s.updateEmbed("SetEmbedTimestamp", i, func(e *models.Embed) bool {
		return set(&e.Timestamp, ts)
	})
}

// updateAuthor edits a copy of the author and collapses it to nil when every
// sub-field ends up empty.
func (s *Store) updateAuthor(op string, i int, fn func(a *models.EmbedAuthor)) {
	s.updateEmbed(op, i, func(e *models.Embed) bool {
		var next models.EmbedAuthor
		if e.Author != nil {
			next = *e.Author
		}
		fn(&next)
		if next.Empty() {
			if e.Author == nil {
				return false
			}
			e.Author = nil
			return true
		}
		if e.Author != nil && *e.Author == next {
			return false
		}
		e.Author = &next
		return true
	})
}

func (s *Store) SetEmbedAuthorName(i int, name string) {
	s.updateAuthor("SetEmbedAuthorName", i, func(a *models.EmbedAuthor) { a.Name = name })
}

func (s *Store) SetEmbedAuthorURL(i int, url string) {
	s.updateAuthor("SetEmbedAuthorURL", i, func(a *models.EmbedAuthor) { a.URL = url })
}

func (s *Store) SetEmbedAuthorIconURL(i int, url string) {
	s.updateAuthor("SetEmbedAuthorIconURL", i, func(a *models.EmbedAuthor) { a.IconURL = url })
}

func (s *Store) updateFooter(op string, i int, fn func(f *models.EmbedFooter)) {
	s.updateEmbed(op, i, func(e *models.Embed) bool {
		var next models.EmbedFooter
		if e.Footer != nil {
			next = *e.Footer
		}
		fn(&next)
		if next.Empty() {
			if e.Footer == nil {
				return false
			}
			e.Footer = nil
			return true
		}
		if e.Footer != nil && *e.Footer == next {
			return false
		}
		e.Footer = &next
		return true
	})
}

func (s *Store) SetEmbedFooterText(i int, text string) {
	s.updateFooter("SetEmbedFooterText", i, func(f *models.EmbedFooter) { f.Text = text })
}

func (s *Store) SetEmbedFooterIconURL(i int, url string) {
	s.updateFooter("SetEmbedFooterIconURL", i, func(f *models.EmbedFooter) { f.IconURL = url })
}

// SetEmbedImageURL sets the image; "" removes it.
func (s *Store) SetEmbedImageURL(i int, url string) {
	s.updateEmbed("SetEmbedImageURL", i, func(e *models.Embed) bool {
		switch {
		case url == "" && e.Image == nil:
			return false
		case url == "":
			e.Image = nil
			return true
		case e.Image != nil && e.Image.URL == url:
			return false
		}
		e.Image = &models.EmbedImage{URL: url}
		return true
	})
}

// SetEmbedThumbnailURL sets the thumbnail; "" removes it.
func (s *Store) SetEmbedThumbnailURL(i int, url string) {
	s.updateEmbed("SetEmbedThumbnailURL", i, func(e *models.Embed) bool {
		switch {
		case url == "" && e.Thumbnail == nil:
			return false
		case url == "":
			e.Thumbnail = nil
			return true
		case e.Thumbnail != nil && e.Thumbnail.URL == url:
			return false
		}
		e.Thumbnail = &models.EmbedThumbnail{URL: url}
		return true
	})
}

// AddEmbedField appends a copy of f (an empty field when nil) to embed i and
// returns the new field id, or 0 when there is no embed i.
func (s *Store) AddEmbedField(i int, f *models.EmbedField) int {
	cp := f.Clone()
	if cp == nil {
		cp = &models.EmbedField{}
	}
	var id int
	s.updateEmbed("AddEmbedField", i, func(e *models.Embed) bool {
		cp.ID = s.gen.Next()
		id = cp.ID
		e.Fields = append(e.Fields, cp)
		return true
	})
	return id
}

func (s *Store) ClearEmbedFields(i int) {
	s.updateEmbed("ClearEmbedFields", i, func(e *models.Embed) bool {
		if len(e.Fields) == 0 {
			return false
		}
		e.Fields = []*models.EmbedField{}
		return true
	})
}

func (s *Store) MoveEmbedFieldUp(i, j int) {
	s.updateEmbed("MoveEmbedFieldUp", i, func(e *models.Embed) bool {
		return moveUp(e.Fields, j)
	})
}

func (s *Store) MoveEmbedFieldDown(i, j int) {
	s.updateEmbed("MoveEmbedFieldDown", i, func(e *models.Embed) bool {
		return moveDown(e.Fields, j)
	})
}

func (s *Store) DuplicateEmbedField(i, j int) {
	s.updateEmbed("DuplicateEmbedField", i, func(e *models.Embed) bool {
		if !inRange(e.Fields, j) {
			return false
		}
		cp := e.Fields[j].Clone()
		cp.ID = s.gen.Next()
		insertAfter(&e.Fields, j, cp)
		return true
	})
}

func (s *Store) DeleteEmbedField(i, j int) {
	s.updateEmbed("DeleteEmbedField", i, func(e *models.Embed) bool {
		_, ok := removeAt(&e.Fields, j)
		return ok
	})
}

func (s *Store) updateField(op string, i, j int, fn func(f *models.EmbedField) bool) {
	s.update(op, func(m *models.Message) bool {
		f := fieldAt(m, i, j)
		return f != nil && fn(f)
	})
}

func (s *Store) SetEmbedFieldName(i, j int, name string) {
	s.updateField("SetEmbedFieldName", i, j, func(f *models.EmbedField) bool {
		return set(&f.Name, name)
	})
}

func (s *Store) SetEmbedFieldValue(i, j int, value string) {
	s.updateField("SetEmbedFieldValue", i, j, func(f *models.EmbedField) bool {
		return set(&f.Value, value)
	})
}

func (s *Store) SetEmbedFieldInline(i, j int, inline bool) {
	s.updateField("SetEmbedFieldInline", i, j, func(f *models.EmbedField) bool {
		return set(&f.Inline, inline)
	})
}

func setIntPtr(p **int, v *int) bool {
	switch {
	case *p == nil && v == nil:
		return false
	case *p != nil && v != nil && **p == *v:
		return false
	case v == nil:
		*p = nil
	default:
		n := *v
		*p = &n
	}
	return true
}

func compactFields(fs []*models.EmbedField) []*models.EmbedField {
	out := make([]*models.EmbedField, 0, len(fs))
	for _, f := range fs {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}
