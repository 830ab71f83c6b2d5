package preview

import (
	"fmt"
	"html"
	"time"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
)

// Renderer turns Discord markdown into HTML.
type Renderer interface {
	Render(markdown string) string
}

// EscapeRenderer does no markdown at all, it only escapes HTML.
type EscapeRenderer struct{}

func (EscapeRenderer) Render(s string) string { return html.EscapeString(s) }

// View is a read-only projection of a message, ready to display.
type View struct {
	Revision     uint64          `json:"revision"`
	ComponentsV2 bool            `json:"components_v2"`
	Username     string          `json:"username"`
	AvatarURL    string          `json:"avatar_url"`
	ContentHTML  string          `json:"content_html,omitempty"`
	Embeds       []EmbedView     `json:"embeds"`
	Components   []ComponentView `json:"components"`
}

type EmbedView struct {
	ID              int         `json:"id"`
	Color           string      `json:"color,omitempty"`
	TitleHTML       string      `json:"title_html,omitempty"`
	URL             string      `json:"url,omitempty"`
	DescriptionHTML string      `json:"description_html,omitempty"`
	AuthorName      string      `json:"author_name,omitempty"`
	AuthorURL       string      `json:"author_url,omitempty"`
	AuthorIconURL   string      `json:"author_icon_url,omitempty"`
	FooterHTML      string      `json:"footer_html,omitempty"`
	FooterIconURL   string      `json:"footer_icon_url,omitempty"`
	Timestamp       string      `json:"timestamp,omitempty"`
	ImageURL        string      `json:"image_url,omitempty"`
	ThumbnailURL    string      `json:"thumbnail_url,omitempty"`
	Fields          []FieldView `json:"fields"`
}

type FieldView struct {
	NameHTML  string `json:"name_html"`
	ValueHTML string `json:"value_html"`
	Inline    bool   `json:"inline"`
}

// ComponentView is one node of the component tree, flattened depth first.
// Depth is 0 for top-level components.
type ComponentView struct {
	ID       int      `json:"id"`
	Kind     string   `json:"kind"`
	Depth    int      `json:"depth"`
	Label    string   `json:"label,omitempty"`
	HTML     string   `json:"html,omitempty"`
	URL      string   `json:"url,omitempty"`
	Style    int      `json:"style,omitempty"`
	Color    string   `json:"color,omitempty"`
	Disabled bool     `json:"disabled,omitempty"`
	Spoiler  bool     `json:"spoiler,omitempty"`
	Divider  bool     `json:"divider,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// DefaultEmbedColor is used for embeds without an explicit colour.
const DefaultEmbedColor = "#1f2225"

// TimestampLayout formats embed timestamps for display.
const TimestampLayout = "01/02/2006 3:04 PM"

// Project derives a view from m. It never mutates m.
func Project(m *models.Message, rev uint64, r Renderer) *View {
	v := &View{
		Revision:     rev,
		ComponentsV2: m.ComponentsV2(),
		Username:     m.Username,
		AvatarURL:    m.AvatarURL,
		Embeds:       []EmbedView{},
		Components:   []ComponentView{},
	}
	if !v.ComponentsV2 {
		v.ContentHTML = r.Render(m.Content)
		for _, e := range m.Embeds {
			if e != nil {
				v.Embeds = append(v.Embeds, projectEmbed(e, r))
			}
		}
	}
	for _, c := range m.Components {
		v.Components = flatten(v.Components, c, 0, r)
	}
	return v
}

func hexColor(c *int) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("#%06x", *c&0xffffff)
}

func formatTimestamp(ts string) string {
	if ts == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.UTC().Format(TimestampLayout)
}

func projectEmbed(e *models.Embed, r Renderer) EmbedView {
	ev := EmbedView{
		ID:              e.ID,
		Color:           hexColor(e.Color),
		TitleHTML:       r.Render(e.Title),
		URL:             e.URL,
		DescriptionHTML: r.Render(e.Description),
		Timestamp:       formatTimestamp(e.Timestamp),
		Fields:          make([]FieldView, 0, len(e.Fields)),
	}
	if ev.Color == "" {
		ev.Color = DefaultEmbedColor
	}
	if e.Author != nil {
		ev.AuthorName = e.Author.Name
		ev.AuthorURL = e.Author.URL
		ev.AuthorIconURL = e.Author.IconURL
	}
	if e.Footer != nil {
		ev.FooterHTML = r.Render(e.Footer.Text)
		ev.FooterIconURL = e.Footer.IconURL
	}
	if e.Image != nil {
		ev.ImageURL = e.Image.URL
	}
	if e.Thumbnail != nil {
		ev.ThumbnailURL = e.Thumbnail.URL
	}
	for _, f := range e.Fields {
		if f == nil {
			continue
		}
		ev.Fields = append(ev.Fields, FieldView{
			NameHTML:  r.Render(f.Name),
			ValueHTML: r.Render(f.Value),
			Inline:    f.Inline,
		})
	}
	return ev
}

func flatten(out []ComponentView, c models.Component, depth int, r Renderer) []ComponentView {
	if c == nil {
		return out
	}
	cv := ComponentView{ID: c.ComponentID(), Depth: depth}
	switch v := c.(type) {
	case *models.ActionRow:
		cv.Kind = "action_row"
	case *models.Button:
		cv.Kind = "button"
		cv.Label = v.Label
		cv.Style = int(v.Style)
		cv.URL = v.URL
		cv.Disabled = v.Disabled
	case *models.SelectMenu:
		cv.Kind = "select_menu"
		cv.Label = v.Placeholder
		cv.Disabled = v.Disabled
		for _, o := range v.Options {
			if o != nil {
				cv.Options = append(cv.Options, o.Label)
			}
		}
	case *models.Section:
		cv.Kind = "section"
	case *models.TextDisplay:
		cv.Kind = "text_display"
		cv.HTML = r.Render(v.Content)
	case *models.Thumbnail:
		cv.Kind = "thumbnail"
		cv.URL = v.Media.URL
		cv.Label = v.Description
		cv.Spoiler = v.Spoiler
	case *models.MediaGallery:
		cv.Kind = "media_gallery"
		for _, it := range v.Items {
			if it != nil {
				cv.Options = append(cv.Options, it.Media.URL)
			}
		}
	case *models.File:
		cv.Kind = "file"
		cv.URL = v.File.URL
		cv.Spoiler = v.Spoiler
	case *models.Separator:
		cv.Kind = "separator"
		cv.Style = v.Spacing
		cv.Divider = v.Divider
	case *models.Container:
		cv.Kind = "container"
		cv.Color = hexColor(v.AccentColor)
		cv.Spoiler = v.Spoiler
	default:
		return out
	}
	out = append(out, cv)

	if children := models.Children(c); children != nil {
		for _, child := range *children {
			out = flatten(out, child, depth+1, r)
		}
	}
	if s, ok := c.(*models.Section); ok && s.Accessory != nil {
		out = flatten(out, s.Accessory, depth+1, r)
	}
	return out
}
