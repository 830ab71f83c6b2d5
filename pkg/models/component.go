package models

import "encoding/json"

// ComponentType is the numeric discriminant Discord uses for components.
// The values are part of the wire contract and must not be renumbered.
type ComponentType int

const (
	ComponentTypeActionRow    ComponentType = 1
	ComponentTypeButton       ComponentType = 2
	ComponentTypeSelectMenu   ComponentType = 3
	ComponentTypeSection      ComponentType = 9
	ComponentTypeTextDisplay  ComponentType = 10
	ComponentTypeThumbnail    ComponentType = 11
	ComponentTypeMediaGallery ComponentType = 12
	ComponentTypeFile         ComponentType = 13
	ComponentTypeSeparator    ComponentType = 14
	ComponentTypeContainer    ComponentType = 17
)

// ButtonStyle values 1-4 run an action set, 5 opens a URL.
type ButtonStyle int

const (
	ButtonStylePrimary   ButtonStyle = 1
	ButtonStyleSecondary ButtonStyle = 2
	ButtonStyleSuccess   ButtonStyle = 3
	ButtonStyleDanger    ButtonStyle = 4
	ButtonStyleLink      ButtonStyle = 5
)

// Valid reports whether s is one of the five Discord button styles.
func (s ButtonStyle) Valid() bool {
	return s >= ButtonStylePrimary && s <= ButtonStyleLink
}

// Separator spacing values.
const (
	SeparatorSpacingSmall = 1
	SeparatorSpacingLarge = 2
)

// Component is one node of the component tree. The set of implementations is
// closed: ActionRow, Button, SelectMenu, Section, TextDisplay, Thumbnail,
// MediaGallery, File, Separator and Container.
type Component interface {
	ComponentID() int
	ComponentType() ComponentType
	setComponentID(id int)
}

// ActionRow holds up to five buttons or one select menu.
type ActionRow struct {
	ID         int         `json:"id"`
	Components []Component `json:"components"`
}

type Button struct {
	ID    int         `json:"id"`
	Style ButtonStyle `json:"style"`
	Label string      `json:"label"`
	Emoji *Emoji      `json:"emoji,omitempty"`
	// URL is only used by link buttons.
	URL      string `json:"url,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
	// ActionSetID is only used by non-link buttons.
	ActionSetID string `json:"action_set_id,omitempty"`
}

// IsLink reports whether the button opens a URL instead of running actions.
func (b *Button) IsLink() bool {
	return b.Style == ButtonStyleLink
}

type SelectMenu struct {
	ID          int                 `json:"id"`
	Placeholder string              `json:"placeholder,omitempty"`
	Disabled    bool                `json:"disabled,omitempty"`
	Options     []*SelectMenuOption `json:"options"`
}

type SelectMenuOption struct {
	ID          int    `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Emoji       *Emoji `json:"emoji,omitempty"`
	ActionSetID string `json:"action_set_id"`
}

// Section shows text displays next to a single accessory (a button or a
// thumbnail).
type Section struct {
	ID         int         `json:"id"`
	Components []Component `json:"components"`
	Accessory  Component   `json:"accessory,omitempty"`
}

type TextDisplay struct {
	ID      int    `json:"id"`
	Content string `json:"content"`
}

// UnfurledMediaItem points at an image, video or attachment:// file.
type UnfurledMediaItem struct {
	URL string `json:"url"`
}

type Thumbnail struct {
	ID          int               `json:"id"`
	Media       UnfurledMediaItem `json:"media"`
	Description string            `json:"description,omitempty"`
	Spoiler     bool              `json:"spoiler,omitempty"`
}

type MediaGallery struct {
	ID    int                 `json:"id"`
	Items []*MediaGalleryItem `json:"items"`
}

type MediaGalleryItem struct {
	ID          int               `json:"id"`
	Media       UnfurledMediaItem `json:"media"`
	Description string            `json:"description,omitempty"`
	Spoiler     bool              `json:"spoiler,omitempty"`
}

type File struct {
	ID      int               `json:"id"`
	File    UnfurledMediaItem `json:"file"`
	Spoiler bool              `json:"spoiler,omitempty"`
}

type Separator struct {
	ID      int  `json:"id"`
	Divider bool `json:"divider"`
	Spacing int  `json:"spacing"`
}

// Container groups up to ten components behind an optional accent colour.
type Container struct {
	ID          int         `json:"id"`
	AccentColor *int        `json:"accent_color,omitempty"`
	Spoiler     bool        `json:"spoiler,omitempty"`
	Components  []Component `json:"components"`
}

func (c *ActionRow) ComponentID() int    { return c.ID }
func (c *Button) ComponentID() int       { return c.ID }
func (c *SelectMenu) ComponentID() int   { return c.ID }
func (c *Section) ComponentID() int      { return c.ID }
func (c *TextDisplay) ComponentID() int  { return c.ID }
func (c *Thumbnail) ComponentID() int    { return c.ID }
func (c *MediaGallery) ComponentID() int { return c.ID }
func (c *File) ComponentID() int         { return c.ID }
func (c *Separator) ComponentID() int    { return c.ID }
func (c *Container) ComponentID() int    { return c.ID }

func (c *ActionRow) ComponentType() ComponentType    { return ComponentTypeActionRow }
func (c *Button) ComponentType() ComponentType       { return ComponentTypeButton }
func (c *SelectMenu) ComponentType() ComponentType   { return ComponentTypeSelectMenu }
func (c *Section) ComponentType() ComponentType      { return ComponentTypeSection }
func (c *TextDisplay) ComponentType() ComponentType  { return ComponentTypeTextDisplay }
func (c *Thumbnail) ComponentType() ComponentType    { return ComponentTypeThumbnail }
func (c *MediaGallery) ComponentType() ComponentType { return ComponentTypeMediaGallery }
func (c *File) ComponentType() ComponentType         { return ComponentTypeFile }
func (c *Separator) ComponentType() ComponentType    { return ComponentTypeSeparator }
func (c *Container) ComponentType() ComponentType    { return ComponentTypeContainer }

func (c *ActionRow) setComponentID(id int)    { c.ID = id }
func (c *Button) setComponentID(id int)       { c.ID = id }
func (c *SelectMenu) setComponentID(id int)   { c.ID = id }
func (c *Section) setComponentID(id int)      { c.ID = id }
func (c *TextDisplay) setComponentID(id int)  { c.ID = id }
func (c *Thumbnail) setComponentID(id int)    { c.ID = id }
func (c *MediaGallery) setComponentID(id int) { c.ID = id }
func (c *File) setComponentID(id int)         { c.ID = id }
func (c *Separator) setComponentID(id int)    { c.ID = id }
func (c *Container) setComponentID(id int)    { c.ID = id }

// Children returns the nested component list of an ActionRow, Section or
// Container. Leaves return nil. The accessory of a section is not included.
func Children(c Component) *[]Component {
	switch v := c.(type) {
	case *ActionRow:
		return &v.Components
	case *Section:
		return &v.Components
	case *Container:
		return &v.Components
	default:
		return nil
	}
}

// withType marshals v with its numeric type tag in front.
func withType(t ComponentType, v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	tag, _ := json.Marshal(t)
	out := make([]byte, 0, len(raw)+len(tag)+8)
	out = append(out, `{"type":`...)
	out = append(out, tag...)
	if len(raw) > 2 {
		out = append(out, ',')
		out = append(out, raw[1:]...)
	} else {
		out = append(out, '}')
	}
	return out, nil
}

func (c *ActionRow) MarshalJSON() ([]byte, error) {
	type alias ActionRow
	return withType(ComponentTypeActionRow, (*alias)(c))
}

func (c *Button) MarshalJSON() ([]byte, error) {
	type alias Button
	return withType(ComponentTypeButton, (*alias)(c))
}

func (c *SelectMenu) MarshalJSON() ([]byte, error) {
	type alias SelectMenu
	return withType(ComponentTypeSelectMenu, (*alias)(c))
}

func (c *Section) MarshalJSON() ([]byte, error) {
	type alias Section
	return withType(ComponentTypeSection, (*alias)(c))
}

func (c *TextDisplay) MarshalJSON() ([]byte, error) {
	type alias TextDisplay
	return withType(ComponentTypeTextDisplay, (*alias)(c))
}

func (c *Thumbnail) MarshalJSON() ([]byte, error) {
	type alias Thumbnail
	return withType(ComponentTypeThumbnail, (*alias)(c))
}

func (c *MediaGallery) MarshalJSON() ([]byte, error) {
	type alias MediaGallery
	return withType(ComponentTypeMediaGallery, (*alias)(c))
}

func (c *File) MarshalJSON() ([]byte, error) {
	type alias File
	return withType(ComponentTypeFile, (*alias)(c))
}

func (c *Separator) MarshalJSON() ([]byte, error) {
	type alias Separator
	return withType(ComponentTypeSeparator, (*alias)(c))
}

func (c *Container) MarshalJSON() ([]byte, error) {
	type alias Container
	return withType(ComponentTypeContainer, (*alias)(c))
}
