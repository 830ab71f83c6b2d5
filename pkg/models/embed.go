package models

// Embed is a rich content block attached to a message.
type Embed struct {
	ID          int    `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	// Color is a 24-bit RGB value; nil means the default embed colour.
	Color *int `json:"color,omitempty"`
	// Timestamp is RFC 3339.
	Timestamp string `json:"timestamp,omitempty"`

	Author    *EmbedAuthor    `json:"author,omitempty"`
	Footer    *EmbedFooter    `json:"footer,omitempty"`
	Image     *EmbedImage     `json:"image,omitempty"`
	Thumbnail *EmbedThumbnail `json:"thumbnail,omitempty"`

	Fields []*EmbedField `json:"fields"`
}

// EmbedAuthor is collapsed to nil once every sub-field is empty.
type EmbedAuthor struct {
	Name    string `json:"name,omitempty"`
	URL     string `json:"url,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

// Empty reports whether no sub-field is populated.
func (a *EmbedAuthor) Empty() bool {
	return a == nil || (a.Name == "" && a.URL == "" && a.IconURL == "")
}

// EmbedFooter is collapsed to nil once every sub-field is empty.
type EmbedFooter struct {
	Text    string `json:"text,omitempty"`
	IconURL string `json:"icon_url,omitempty"`
}

// Empty reports whether no sub-field is populated.
func (f *EmbedFooter) Empty() bool {
	return f == nil || (f.Text == "" && f.IconURL == "")
}

type EmbedImage struct {
	URL string `json:"url"`
}

type EmbedThumbnail struct {
	URL string `json:"url"`
}

// EmbedField is a name/value pair rendered in the embed body.
type EmbedField struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}
