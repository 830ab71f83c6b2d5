package persist

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/editor"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/ids"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/store"
)

func openDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadMessageFallsBackToDefault(t *testing.T) {
	db := openDB(t)
	a := New(db, ids.NewFrom(0))

	m := a.LoadMessage()
	assert.Equal(t, "Embed Generator", m.Username)
	require.Len(t, m.Embeds, 1)

	require.NoError(t, db.Set(KeyMessage, []byte(`{"state":{"embeds":"nope"},"version":0}`)))
	m = a.LoadMessage()
	assert.Equal(t, "Embed Generator", m.Username)

	require.NoError(t, db.Set(KeyMessage, []byte(`not json`)))
	m = a.LoadMessage()
	assert.Equal(t, "Embed Generator", m.Username)
}

func TestSaveAndLoadMessage(t *testing.T) {
	db := openDB(t)
	gen := ids.NewFrom(0)
	a := New(db, gen)

	in := &models.Message{
		Content:    "hello",
		Embeds:     []*models.Embed{},
		Components: []models.Component{},
		Actions:    map[string]*models.ActionSet{},
	}
	require.NoError(t, a.SaveMessage(in))

	raw, err := db.Get(KeyMessage)
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":{"content":"hello","tts":false,"embeds":[],"components":[],"actions":{}},"version":0}`, string(raw))

	out := New(db, ids.NewFrom(0)).LoadMessage()
	assert.Equal(t, "hello", out.Content)
}

func TestLegacyActionsMerged(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.Set(KeyMessage, []byte(`{"state":{"content":"x","components":[
		{"id":1,"type":1,"components":[{"id":2,"type":2,"style":1,"label":"go","action_set_id":"77"}]}
	]},"version":0}`)))
	require.NoError(t, db.Set(KeyMessageActions, []byte(`{"state":{"actions":{"77":{"actions":[
		{"id":3,"type":1,"text":"hi"}
	]}}},"version":0}`)))

	a := New(db, ids.NewFrom(0))
	m := a.LoadMessage()
	require.Contains(t, m.Actions, "77")
	require.Len(t, m.Actions["77"].Actions, 1)
	assert.Equal(t, "hi", m.Actions["77"].Actions[0].(*models.TextResponseAction).Text)

	require.NoError(t, a.SaveMessage(m))
	_, err := db.Get(KeyMessageActions)
	assert.True(t, store.IsNotFound(err))
}

func TestSettingsRecords(t *testing.T) {
	db := openDB(t)
	a := New(db, ids.NewFrom(0))

	assert.Equal(t, models.DefaultSendSettings(), a.LoadSendSettings())
	s := models.SendSettings{Mode: models.SendModeChannel, ChannelID: 42}
	require.NoError(t, a.SaveSendSettings(s))
	assert.Equal(t, s, a.LoadSendSettings())

	require.NoError(t, db.Set(KeySendSettings, []byte(`{"state":{"mode":"carrier-pigeon"},"version":0}`)))
	assert.Equal(t, models.SendModeWebhook, a.LoadSendSettings().Mode)

	assert.Empty(t, a.LoadCollapsedStates())
	require.NoError(t, a.SaveCollapsedStates(map[string]bool{"embed-1": true}))
	assert.Equal(t, map[string]bool{"embed-1": true}, a.LoadCollapsedStates())
}

func TestSettingsRecordsAreFlat(t *testing.T) {
	db := openDB(t)
	a := New(db, ids.NewFrom(0))

	require.NoError(t, a.SaveSendSettings(models.SendSettings{Mode: models.SendModeChannel, ChannelID: 42}))
	raw, err := db.Get(KeySendSettings)
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "state")
	assert.NotContains(t, fields, "version")
	assert.JSONEq(t, `"channel"`, string(fields["mode"]))

	require.NoError(t, a.SaveCollapsedStates(map[string]bool{"embed-1": true}))
	raw, err = db.Get(KeyCollapsedStates)
	require.NoError(t, err)
	assert.JSONEq(t, `{"states":{"embed-1":true}}`, string(raw))

	require.NoError(t, db.Set(KeySendSettings, []byte(`{"state":{"mode":"channel","threadName":"x"},"version":0}`)))
	got := a.LoadSendSettings()
	assert.Equal(t, models.SendModeChannel, got.Mode)
	assert.Equal(t, "x", got.ThreadName)

	require.NoError(t, db.Set(KeyCollapsedStates, []byte(`{"state":{"states":{"field-2":true}},"version":0}`)))
	assert.Equal(t, map[string]bool{"field-2": true}, a.LoadCollapsedStates())

	require.NoError(t, db.Set(KeyCollapsedStates, []byte(`not json`)))
	assert.Empty(t, a.LoadCollapsedStates())
}

func TestCustomCommandsRecord(t *testing.T) {
	db := openDB(t)
	a := New(db, ids.NewFrom(0))
	assert.Empty(t, a.LoadCustomCommands())

	sets := map[string]*models.ActionSet{
		"cmd": {Actions: []models.Action{&models.TextResponseAction{ID: 5, Type: models.ActionTypeTextResponse, Text: "pong"}}},
	}
	require.NoError(t, a.SaveCustomCommands(sets))
	got := a.LoadCustomCommands()
	require.Contains(t, got, "cmd")
	assert.Equal(t, "pong", got["cmd"].Actions[0].(*models.TextResponseAction).Text)
}

type failingKV struct{ *store.DB }

func (failingKV) Set(string, []byte) error { return errors.New("disk full") }

func TestMirrorWritesLatestState(t *testing.T) {
	db := openDB(t)
	gen := ids.NewFrom(0)
	a := New(db, gen)
	s := editor.New(gen, nil)
	cmds := editor.NewActionStore(gen, nil)

	m := a.NewMirror()
	m.Message(s)
	m.CustomCommands(cmds)

	s.SetContent("first")
	s.SetContent("second")
	cmds.AddAction("c", models.ActionTypeTextResponse)
	m.Flush()

	assert.Equal(t, "second", New(db, ids.NewFrom(0)).LoadMessage().Content)
	assert.Contains(t, a.LoadCustomCommands(), "c")

	m.Close()
	s.SetContent("after close")
	assert.Equal(t, "second", New(db, ids.NewFrom(0)).LoadMessage().Content)
}

func TestMirrorSwallowsWriteFailures(t *testing.T) {
	db := openDB(t)
	gen := ids.NewFrom(0)
	a := New(failingKV{db}, gen)
	s := editor.New(gen, nil)

	m := a.NewMirror()
	defer m.Close()
	m.Message(s)

	s.SetContent("lost")
	m.Flush()
	assert.Equal(t, "lost", s.Snapshot().Content)
	_, err := db.Get(KeyMessage)
	assert.True(t, store.IsNotFound(err))
}
