package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/ids"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
)

// Parse decodes a message document from untrusted JSON.
//
// Missing or malformed optional fields fall back to their defaults and legacy
// shapes are migrated. Structurally invalid documents fail with an *Error
// wrapping ErrInvalidMessage. Ids that are valid and unique are kept, every
// other entity gets a fresh id from gen, and gen is advanced past every id
// kept so later ids never collide with the document.
func Parse(data []byte, gen *ids.Generator) (*models.Message, error) {
	v, err := decode(data)
	if err != nil {
		return nil, err
	}
	return ParseValue(v, gen)
}

// ParseValue is Parse for an already decoded JSON value.
func ParseValue(v any, gen *ids.Generator) (*models.Message, error) {
	o, ok := v.(object)
	if !ok {
		return nil, invalid("", "expected an object")
	}
	p := newParser(gen)
	m, err := p.message(o)
	if err != nil {
		return nil, err
	}
	p.finish()
	Repair(m, gen)
	return m, nil
}

// ParseActionSets decodes a standalone {"actions": {...}} record, as used by
// the custom commands store and by older saves of the message actions.
func ParseActionSets(v any, gen *ids.Generator) (map[string]*models.ActionSet, error) {
	o, ok := v.(object)
	if !ok {
		return nil, invalid("", "expected an object")
	}
	p := newParser(gen)
	sets, err := p.actionSets(o["actions"], "actions")
	if err != nil {
		return nil, err
	}
	p.finish()
	return sets, nil
}

// ParseEmbedValue parses a single embed with the same rules as a full
// message.
func ParseEmbedValue(v any, gen *ids.Generator) (*models.Embed, error) {
	p := newParser(gen)
	e, err := p.embed(v, "embed")
	if err != nil {
		return nil, err
	}
	p.finish()
	return e, nil
}

// ParseComponentValue parses a single component subtree. Action set
// references are kept as given; the caller repairs them against its message.
func ParseComponentValue(v any, gen *ids.Generator) (models.Component, error) {
	p := newParser(gen)
	c, err := p.component(v, "component")
	if err != nil {
		return nil, err
	}
	p.finish()
	return c, nil
}

func decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, invalid("", "malformed json: %v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, invalid("", "unexpected data after document")
	}
	return v, nil
}

// Decode decodes JSON with numbers preserved, for callers that need to look
// at a payload before handing it to ParseValue.
func Decode(data []byte) (any, error) {
	return decode(data)
}

// parser tracks which ids a document already uses. Entities whose id is
// missing, invalid or taken are queued and numbered in finish, after every
// kept id has been observed.
type parser struct {
	gen     *ids.Generator
	taken   map[int]struct{}
	pending []func(int)
}

func newParser(gen *ids.Generator) *parser {
	return &parser{gen: gen, taken: make(map[int]struct{})}
}

// id claims the raw id for an entity or queues set for a fresh one.
func (p *parser) id(raw any, set func(int)) int {
	if n, ok := integer(raw); ok && n > 0 {
		if _, dup := p.taken[n]; !dup {
			p.taken[n] = struct{}{}
			return n
		}
	}
	p.pending = append(p.pending, set)
	return 0
}

func (p *parser) finish() {
	for id := range p.taken {
		p.gen.Observe(id)
	}
	for _, set := range p.pending {
		set(p.gen.Next())
	}
	p.pending = nil
}

func (p *parser) message(o object) (*models.Message, error) {
	m := &models.Message{
		Content:    str(o, "content"),
		Username:   str(o, "username"),
		AvatarURL:  str(o, "avatar_url"),
		ThreadName: str(o, "thread_name"),
		TTS:        boolean(o, "tts"),
		Flags:      intField(o, "flags"),
		Embeds:     []*models.Embed{},
		Components: []models.Component{},
	}

	embeds, err := list(o, "embeds", "")
	if err != nil {
		return nil, err
	}
	for i, raw := range embeds {
		e, err := p.embed(raw, index("embeds", i))
		if err != nil {
			return nil, err
		}
		m.Embeds = append(m.Embeds, e)
	}

	m.Components, err = p.components(o, "components", "", 0)
	if err != nil {
		return nil, err
	}

	m.Actions, err = p.actionSets(o["actions"], "actions")
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (p *parser) embed(raw any, path string) (*models.Embed, error) {
	o, ok := raw.(object)
	if !ok {
		return nil, invalid(path, "expected an object")
	}
	e := &models.Embed{
		Title:       str(o, "title"),
		Description: str(o, "description"),
		URL:         str(o, "url"),
		Color:       color(o["color"]),
		Timestamp:   timestamp(o["timestamp"]),
		Fields:      []*models.EmbedField{},
	}
	e.ID = p.id(o["id"], func(id int) { e.ID = id })

	if a, ok := o["author"].(object); ok {
		author := &models.EmbedAuthor{Name: str(a, "name"), URL: str(a, "url"), IconURL: str(a, "icon_url")}
		if !author.Empty() {
			e.Author = author
		}
	}
	if f, ok := o["footer"].(object); ok {
		footer := &models.EmbedFooter{Text: str(f, "text"), IconURL: str(f, "icon_url")}
		if !footer.Empty() {
			e.Footer = footer
		}
	}
	if img, ok := o["image"].(object); ok {
		if url := str(img, "url"); url != "" {
			e.Image = &models.EmbedImage{URL: url}
		}
	}
	if th, ok := o["thumbnail"].(object); ok {
		if url := str(th, "url"); url != "" {
			e.Thumbnail = &models.EmbedThumbnail{URL: url}
		}
	}

	fields, err := list(o, "fields", path)
	if err != nil {
		return nil, err
	}
	for i, raw := range fields {
		fo, ok := raw.(object)
		if !ok {
			return nil, invalid(index(join(path, "fields"), i), "expected an object")
		}
		f := &models.EmbedField{
			Name:   str(fo, "name"),
			Value:  str(fo, "value"),
			Inline: boolean(fo, "inline"),
		}
		f.ID = p.id(fo["id"], func(id int) { f.ID = id })
		e.Fields = append(e.Fields, f)
	}
	return e, nil
}

// Repair gives every action-capable component without a key a fresh
// one and creates an empty action set for every key the map is missing.
// References are never dropped.
func Repair(m *models.Message, gen *ids.Generator) {
	if m.Actions == nil {
		m.Actions = map[string]*models.ActionSet{}
	}
	for key := range m.Actions {
		gen.ObserveKey(key)
	}
	for _, slot := range models.ActionSetSlots(m.Components) {
		if *slot == "" {
			*slot = gen.NextKey()
		}
		if _, ok := m.Actions[*slot]; !ok {
			m.Actions[*slot] = &models.ActionSet{Actions: []models.Action{}}
		}
	}
}
