package models

// FlagComponentsV2 switches a message into the components-v2 layout where
// content and embeds are replaced by layout components.
const FlagComponentsV2 = 1 << 15

// Message is the editable document: one Discord message payload plus the
// editor-only action sets referenced by its buttons and select options.
type Message struct {
	Content string `json:"content"`
	// Username and AvatarURL override the webhook identity when set.
	Username   string `json:"username,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	ThreadName string `json:"thread_name,omitempty"`
	TTS        bool   `json:"tts"`

	Embeds     []*Embed    `json:"embeds"`
	Components []Component `json:"components"`

	// Actions maps an action set key (a stringified id) to its action set.
	// Every action_set_id referenced by a component must have an entry.
	Actions map[string]*ActionSet `json:"actions"`

	Flags int `json:"flags,omitempty"`
}

// ComponentsV2 reports whether the components-v2 flag is set.
func (m *Message) ComponentsV2() bool {
	return m.Flags&FlagComponentsV2 != 0
}

// ActionSet is an ordered list of actions run when a component is used.
type ActionSet struct {
	Actions []Action `json:"actions"`
}

// Emoji is either a custom emoji (ID set) or a unicode emoji (Name only).
type Emoji struct {
	ID       Snowflake `json:"id,omitempty"`
	Name     string    `json:"name"`
	Animated bool      `json:"animated"`
}
