package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/ids"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
)

const richDocument = `{
  "content": "hi",
  "username": "bot",
  "tts": true,
  "flags": 0,
  "embeds": [{
    "id": 1, "type": "rich", "title": "t", "color": 255,
    "timestamp": "2024-01-02T03:04:05Z",
    "author": {"name": "a"},
    "footer": {"text": "", "icon_url": ""},
    "image": {"url": "https://img"},
    "fields": [{"id": 2, "name": "n", "value": "v", "inline": true}]
  }],
  "components": [
    {"type": 1, "id": 3, "components": [
      {"type": 2, "id": 4, "style": 1, "label": "go", "action_set_id": "100", "emoji": {"name": "👍"}},
      {"type": 2, "id": 5, "style": 5, "label": "site", "url": "https://example.com"}
    ]},
    {"type": 1, "id": 6, "components": [
      {"type": 3, "id": 7, "placeholder": "pick", "options": [
        {"id": 8, "label": "one", "action_set_id": "101"}
      ]}
    ]},
    {"type": 17, "id": 20, "accent_color": 16711680, "components": [
      {"type": 9, "id": 21, "components": [{"type": 10, "id": 22, "content": "text"}],
       "accessory": {"type": 11, "id": 23, "media": {"url": "https://thumb"}}},
      {"type": 12, "id": 24, "items": [{"id": 25, "media": {"url": "https://a"}}]},
      {"type": 13, "id": 26, "file": {"url": "attachment://a.txt"}},
      {"type": 14, "id": 27, "divider": false, "spacing": 2}
    ]}
  ],
  "actions": {
    "100": {"actions": [{"id": 9, "type": 1, "text": "hello", "public": true}]},
    "101": {"actions": [
      {"id": 10, "type": 10, "permissions": "8", "role_ids": ["123", 456]},
      {"id": 11, "type": 3, "target_id": "789", "disable_default_response": true}
    ]}
  }
}`

func TestParseRoundTrip(t *testing.T) {
	gen := ids.NewFrom(1000)
	docs := map[string][]byte{
		"rich":    []byte(richDocument),
		"empty":   []byte(`{}`),
		"legacy":  []byte(`{"embeds":[{"color":"#ff0000","timestamp":1700000000000,"fields":[]}],"components":[{"type":1,"components":[{"type":2,"style":2,"custom_id":"action:55"}]}],"actions":{"55":[{"type":6,"text":"dm"}]}}`),
		"default": mustMarshal(t, Default(gen)),
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			m, err := Parse(doc, gen)
			require.NoError(t, err)

			out := mustMarshal(t, m)
			again, err := Parse(out, gen)
			require.NoError(t, err)
			assert.Equal(t, m, again)
			assert.JSONEq(t, string(out), string(mustMarshal(t, again)))
		})
	}
}

func TestParseKeepsValidIDs(t *testing.T) {
	gen := ids.NewFrom(0)
	m, err := Parse([]byte(richDocument), gen)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Embeds[0].ID)
	assert.Equal(t, 2, m.Embeds[0].Fields[0].ID)
	assert.Equal(t, 3, m.Components[0].ComponentID())
	assert.Greater(t, gen.Next(), 101, "generator must move past kept ids and keys")
}

func TestParseReplacesDuplicateAndMissingIDs(t *testing.T) {
	gen := ids.NewFrom(0)
	m, err := Parse([]byte(`{"embeds":[{"id":5,"fields":[{"id":5},{"id":"x"},{}]}]}`), gen)
	require.NoError(t, err)

	seen := map[int]bool{}
	m.ForEachID(func(id int) {
		assert.Greater(t, id, 0)
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	})
	assert.Equal(t, 5, m.Embeds[0].ID)
	assert.Len(t, seen, 4)
	for _, f := range m.Embeds[0].Fields {
		assert.Greater(t, f.ID, 5)
	}
}

func TestParseStructuralFailures(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		path string
	}{
		{"not an object", `[]`, ""},
		{"malformed", `{"content":`, ""},
		{"trailing data", `{} {}`, ""},
		{"embeds not array", `{"embeds":{}}`, "embeds"},
		{"embed not object", `{"embeds":[1]}`, "embeds[0]"},
		{"fields not array", `{"embeds":[{"fields":"x"}]}`, "embeds[0].fields"},
		{"components not array", `{"components":3}`, "components"},
		{"unknown component", `{"components":[{"type":99}]}`, "components[0].type"},
		{"missing component type", `{"components":[{"id":1}]}`, "components[0].type"},
		{"nested unknown component", `{"components":[{"type":1,"components":[{"type":4}]}]}`, "components[0].components[0].type"},
		{"options not array", `{"components":[{"type":3,"options":{}}]}`, "components[0].options"},
		{"bad accessory", `{"components":[{"type":9,"accessory":{"type":10}}]}`, "components[0].accessory"},
		{"container in row", `{"components":[{"type":1,"components":[{"type":2},{"type":17}]}]}`, "components[0].components[1]"},
		{"text display in row", `{"components":[{"type":1,"components":[{"type":10}]}]}`, "components[0].components[0]"},
		{"container in container", `{"components":[{"type":17,"components":[{"type":17}]}]}`, "components[0].components[0]"},
		{"separator in section", `{"components":[{"type":9,"components":[{"type":14}]}]}`, "components[0].components[0]"},
		{"actions not object", `{"actions":[]}`, "actions"},
		{"action set not list", `{"actions":{"1":"x"}}`, "actions.1"},
		{"unknown action type", `{"actions":{"1":{"actions":[{"type":42}]}}}`, "actions.1.actions[0].type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc), ids.New())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidMessage))
			var perr *Error
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tc.path, perr.Path)
		})
	}
}

func TestParseRepairsActionSets(t *testing.T) {
	doc := `{"components":[{"type":1,"components":[
		{"type":2,"style":1,"action_set_id":"7"},
		{"type":2,"style":3},
		{"type":2,"style":5,"url":"https://x","action_set_id":"9"}
	]},{"type":1,"components":[{"type":3,"options":[{"label":"a"}]}]}]}`
	m, err := Parse([]byte(doc), ids.NewFrom(0))
	require.NoError(t, err)

	row := m.Components[0].(*models.ActionRow)
	assert.Equal(t, "7", row.Components[0].(*models.Button).ActionSetID)
	assert.NotEmpty(t, row.Components[1].(*models.Button).ActionSetID)
	assert.Empty(t, row.Components[2].(*models.Button).ActionSetID, "link buttons carry no action set")

	refs := m.ActionSetRefs()
	assert.Len(t, refs, 3)
	for _, key := range refs {
		require.Contains(t, m.Actions, key)
		assert.NotNil(t, m.Actions[key].Actions)
	}
	assert.Len(t, m.Actions, 3)
}

func TestParseLegacyShapes(t *testing.T) {
	doc := `{
		"embeds":[{"color":"#00ff00","timestamp":1700000000000,"author":{"name":""}}],
		"components":[
			{"type":1,"components":[{"type":2,"style":1,"emoji":"🔥","action_set_id":12,"url":"https://dropped"}]},
			{"type":1,"components":[{"type":3,"custom_id":"action:menu","options":[{"label":"x","value":"action:34"}]}]},
			{"type":14}
		],
		"actions":{"12":[{"type":2,"target_id":123456789012345678}],"34":null}
	}`
	m, err := Parse([]byte(doc), ids.NewFrom(0))
	require.NoError(t, err)

	e := m.Embeds[0]
	require.NotNil(t, e.Color)
	assert.Equal(t, 0x00ff00, *e.Color)
	assert.Equal(t, "2023-11-14T22:13:20Z", e.Timestamp)
	assert.Nil(t, e.Author)
	assert.NotNil(t, e.Fields)

	b := m.Components[0].(*models.ActionRow).Components[0].(*models.Button)
	assert.Equal(t, "12", b.ActionSetID)
	assert.Equal(t, &models.Emoji{Name: "🔥"}, b.Emoji)
	assert.Empty(t, b.URL)

	opt := m.Components[1].(*models.ActionRow).Components[0].(*models.SelectMenu).Options[0]
	assert.Equal(t, "34", opt.ActionSetID)

	sep := m.Components[2].(*models.Separator)
	assert.True(t, sep.Divider)
	assert.Equal(t, models.SeparatorSpacingSmall, sep.Spacing)

	role := m.Actions["12"].Actions[0].(*models.RoleAction)
	assert.Equal(t, models.ActionTypeToggleRole, role.Type)
	assert.Equal(t, models.Snowflake(123456789012345678), role.TargetID)
	assert.Empty(t, m.Actions["34"].Actions)
}

func TestParseDropsInvalidOptionals(t *testing.T) {
	m, err := Parse([]byte(`{"content":5,"tts":"yes","embeds":[{"color":"blue","timestamp":"yesterday","image":{"url":""}}]}`), ids.New())
	require.NoError(t, err)
	assert.Equal(t, "", m.Content)
	assert.False(t, m.TTS)
	assert.Nil(t, m.Embeds[0].Color)
	assert.Empty(t, m.Embeds[0].Timestamp)
	assert.Nil(t, m.Embeds[0].Image)
}

func TestParseRestored(t *testing.T) {
	doc := `{
		"id": "1", "channel_id": "2", "content": "restored",
		"author": {"id": "42", "username": "Hook", "avatar": "a_abc"},
		"embeds": [{"type": "rich", "description": "d"}],
		"components": [{"type": 1, "components": [{"type": 2, "style": 1, "custom_id": "action:77"}]}]
	}`
	m, err := ParseRestored([]byte(doc), ids.NewFrom(0))
	require.NoError(t, err)
	assert.Equal(t, "Hook", m.Username)
	assert.Equal(t, "https://cdn.discordapp.com/avatars/42/a_abc.gif", m.AvatarURL)
	assert.Equal(t, "d", m.Embeds[0].Description)
	assert.Contains(t, m.Actions, "77")
}

func TestParseActionSets(t *testing.T) {
	sets, err := ParseActionSets(map[string]any{
		"actions": map[string]any{"5": map[string]any{"actions": []any{map[string]any{"type": float64(8), "text": "edit"}}}},
	}, ids.NewFrom(0))
	require.NoError(t, err)
	a := sets["5"].Actions[0].(*models.TextResponseAction)
	assert.Equal(t, "edit", a.Text)
	assert.Greater(t, a.ID, 0)
}

func TestValidateLimits(t *testing.T) {
	gen := ids.NewFrom(0)
	m := Default(gen)
	require.NoError(t, Validate(m, DefaultLimits()))

	set := &models.ActionSet{}
	for i := 0; i < 3; i++ {
		set.Actions = append(set.Actions, models.NewAction(gen.Next(), models.ActionTypeTextResponse))
	}
	m.Actions["1"] = set
	m.Components = append(m.Components, &models.Container{ID: gen.Next(), Components: []models.Component{}})

	err := Validate(m, LimitsForPlan(PlanFree))
	require.Error(t, err)
	var v *Violation
	assert.True(t, errors.As(err, &v))
	assert.Contains(t, err.Error(), "actions.1")
	assert.Contains(t, err.Error(), "container is empty")

	m.Components = m.Components[:1]
	assert.NoError(t, Validate(m, LimitsForPlan(PlanPremium)))
}

func TestParseRenumbersUnsafeIDs(t *testing.T) {
	gen := ids.NewFrom(100)
	m, err := Parse([]byte(`{
		"embeds":[{"id":9223372036854775807},{"id":9007199254740993}],
		"actions":{"9223372036854775807":{"actions":[]}}
	}`), gen)
	require.NoError(t, err)
	assert.Equal(t, 101, m.Embeds[0].ID)
	assert.Equal(t, 102, m.Embeds[1].ID)
	assert.Equal(t, 103, gen.Next())
}

func TestValidateNesting(t *testing.T) {
	gen := ids.NewFrom(0)
	m := Empty()
	m.Components = []models.Component{
		&models.ActionRow{ID: gen.Next(), Components: []models.Component{&models.TextDisplay{ID: gen.Next()}}},
		&models.TextDisplay{ID: gen.Next(), Content: "top"},
	}
	err := Validate(m, DefaultLimits())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "components[0].components[0]")
	assert.Contains(t, err.Error(), "components[1]: component type 10 not allowed at the top level")

	m.Flags = models.FlagComponentsV2
	m.Components = []models.Component{
		&models.Container{ID: gen.Next(), Components: []models.Component{
			&models.Container{ID: gen.Next(), Components: []models.Component{&models.TextDisplay{ID: gen.Next()}}},
		}},
	}
	err = Validate(m, DefaultLimits())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "component type 17 not allowed in component type 17")

	m.Components = []models.Component{&models.TextDisplay{ID: gen.Next(), Content: "top"}}
	assert.NoError(t, Validate(m, DefaultLimits()))
}

func TestDefaultIsFresh(t *testing.T) {
	gen := ids.NewFrom(0)
	a, b := Default(gen), Default(gen)
	assert.NotEqual(t, a.Embeds[0].ID, b.Embeds[0].ID)
	assert.Equal(t, a.Content, b.Content)
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}
