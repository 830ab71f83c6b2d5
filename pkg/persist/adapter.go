package persist

import (
	"encoding/json"
	"fmt"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/ids"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/logger"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/schema"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/store"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/telemetry"
)

// KV is the storage the adapter writes records to. *store.DB satisfies it.
// Get must return an error matched by store.IsNotFound for absent keys.
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

type record struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

// Adapter reads and writes the editor's durable records.
type Adapter struct {
	kv  KV
	gen *ids.Generator
}

func New(kv KV, gen *ids.Generator) *Adapter {
	return &Adapter{kv: kv, gen: gen}
}

// load returns the state of the record under key, or nil when there is none.
func (a *Adapter) load(key string) (json.RawMessage, error) {
	data, err := a.kv.Get(key)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if len(r.State) == 0 || string(r.State) == "null" {
		return nil, nil
	}
	return r.State, nil
}

// loadFlat returns the object stored under key without an envelope, or nil
// when there is none. A {state, version} record written by older builds is
// unwrapped.
func (a *Adapter) loadFlat(key string) (json.RawMessage, error) {
	data, err := a.kv.Get(key)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	_, hasVersion := fields["version"]
	if state, ok := fields["state"]; ok && hasVersion && len(fields) == 2 {
		return state, nil
	}
	return data, nil
}

// saveFlat writes v under key as a bare object.
func (a *Adapter) saveFlat(key string, v any) error {
	data, err := json.Marshal(v)
	if err == nil {
		err = a.kv.Set(key, data)
	}
	if err != nil {
		telemetry.PersistWrites.WithLabelValues(key, "error").Inc()
		return fmt.Errorf("write %s: %w", key, err)
	}
	telemetry.PersistWrites.WithLabelValues(key, "ok").Inc()
	return nil
}

func encodeRecord(state []byte) ([]byte, error) {
	return json.Marshal(record{State: state, Version: recordVersion})
}

// save writes state under key and counts the outcome.
func (a *Adapter) save(key string, state []byte) error {
	data, err := encodeRecord(state)
	if err == nil {
		err = a.kv.Set(key, data)
	}
	if err != nil {
		telemetry.PersistWrites.WithLabelValues(key, "error").Inc()
		return fmt.Errorf("write %s: %w", key, err)
	}
	telemetry.PersistWrites.WithLabelValues(key, "ok").Inc()
	return nil
}

func (a *Adapter) saveValue(key string, v any) error {
	state, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return a.save(key, state)
}

// LoadMessage returns the stored message, or the default message when
// nothing usable is stored. A message saved without actions picks up the
// separately stored action sets of older saves.
func (a *Adapter) LoadMessage() *models.Message {
	m, err := a.loadMessage()
	if err != nil {
		telemetry.ParseFailures.WithLabelValues("storage").Inc()
		logger.Warn("stored_message_unusable", "error", err)
	}
	if m == nil {
		return schema.Default(a.gen)
	}
	return m
}

func (a *Adapter) loadMessage() (*models.Message, error) {
	state, err := a.load(KeyMessage)
	if err != nil || state == nil {
		return nil, err
	}
	v, err := schema.Decode(state)
	if err != nil {
		return nil, err
	}
	if o, ok := v.(map[string]any); ok && !hasActions(o) {
		if legacy, err := a.legacyActions(); err != nil {
			logger.Warn("legacy_actions_unusable", "error", err)
		} else if legacy != nil {
			o["actions"] = legacy
		}
	}
	return schema.ParseValue(v, a.gen)
}

func hasActions(o map[string]any) bool {
	sets, ok := o["actions"].(map[string]any)
	return ok && len(sets) > 0
}

// legacyActions returns the raw action map of the old separate record.
func (a *Adapter) legacyActions() (any, error) {
	state, err := a.load(KeyMessageActions)
	if err != nil || state == nil {
		return nil, err
	}
	v, err := schema.Decode(state)
	if err != nil {
		return nil, err
	}
	o, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected an object", KeyMessageActions)
	}
	return o["actions"], nil
}

// SaveMessage writes m. Once a message is saved with its actions inline the
// old separate actions record is dropped.
func (a *Adapter) SaveMessage(m *models.Message) error {
	if err := a.saveValue(KeyMessage, m); err != nil {
		return err
	}
	return a.dropLegacy()
}

func (a *Adapter) dropLegacy() error {
	if err := a.kv.Delete(KeyMessageActions); err != nil && !store.IsNotFound(err) {
		return fmt.Errorf("delete %s: %w", KeyMessageActions, err)
	}
	return nil
}

// LoadCustomCommands returns the custom command action sets, empty when none
// are stored or the record is unusable.
func (a *Adapter) LoadCustomCommands() map[string]*models.ActionSet {
	sets, err := a.loadCustomCommands()
	if err != nil {
		telemetry.ParseFailures.WithLabelValues("storage").Inc()
		logger.Warn("stored_custom_commands_unusable", "error", err)
	}
	if sets == nil {
		return map[string]*models.ActionSet{}
	}
	return sets
}

func (a *Adapter) loadCustomCommands() (map[string]*models.ActionSet, error) {
	state, err := a.load(KeyCustomCommands)
	if err != nil || state == nil {
		return nil, err
	}
	v, err := schema.Decode(state)
	if err != nil {
		return nil, err
	}
	return schema.ParseActionSets(v, a.gen)
}

func (a *Adapter) SaveCustomCommands(sets map[string]*models.ActionSet) error {
	return a.saveValue(KeyCustomCommands, struct {
		Actions map[string]*models.ActionSet `json:"actions"`
	}{Actions: sets})
}

// LoadSendSettings falls back to webhook mode.
func (a *Adapter) LoadSendSettings() models.SendSettings {
	s := models.DefaultSendSettings()
	state, err := a.loadFlat(KeySendSettings)
	if err == nil && state != nil && string(state) != "null" {
		err = json.Unmarshal(state, &s)
	}
	if err != nil {
		logger.Warn("stored_send_settings_unusable", "error", err)
		return models.DefaultSendSettings()
	}
	if s.Mode != models.SendModeChannel {
		s.Mode = models.SendModeWebhook
	}
	return s
}

func (a *Adapter) SaveSendSettings(s models.SendSettings) error {
	return a.saveFlat(KeySendSettings, s)
}

type collapsed struct {
	States map[string]bool `json:"states"`
}

// LoadCollapsedStates returns which editor sections the user collapsed.
func (a *Adapter) LoadCollapsedStates() map[string]bool {
	var c collapsed
	state, err := a.loadFlat(KeyCollapsedStates)
	if err == nil && state != nil && string(state) != "null" {
		err = json.Unmarshal(state, &c)
	}
	if err != nil {
		logger.Warn("stored_collapsed_states_unusable", "error", err)
	}
	if c.States == nil || err != nil {
		return map[string]bool{}
	}
	return c.States
}

func (a *Adapter) SaveCollapsedStates(states map[string]bool) error {
	return a.saveFlat(KeyCollapsedStates, collapsed{States: states})
}
