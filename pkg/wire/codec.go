package wire

import (
	"encoding/json"
	"fmt"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/editor"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/ids"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/models"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/schema"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/telemetry"
)

type rawRestore struct {
	Data        json.RawMessage      `json:"data"`
	Attachments []*models.Attachment `json:"attachments"`
}

type rawSavedMessage struct {
	SavedMessage
	Data json.RawMessage `json:"data"`
}

// messageValue decodes a message payload that is either a JSON object or a
// string holding one.
func messageValue(raw json.RawMessage) (any, error) {
	v, err := schema.Decode(raw)
	if err != nil {
		return nil, err
	}
	if s, ok := v.(string); ok {
		return schema.Decode([]byte(s))
	}
	return v, nil
}

// DecodeRestore parses a restore response. The message goes through the same
// parse path as every other external document.
func DecodeRestore(body []byte, gen *ids.Generator) (*RestoreResponse, error) {
	var raw rawRestore
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode restore response: %w", err)
	}
	v, err := messageValue(raw.Data)
	if err == nil {
		var m *models.Message
		m, err = schema.ParseRestoredValue(v, gen)
		if err == nil {
			out := &RestoreResponse{Data: m, Attachments: []*models.Attachment{}}
			for _, a := range raw.Attachments {
				if a != nil {
					out.Attachments = append(out.Attachments, a)
				}
			}
			return out, nil
		}
	}
	telemetry.ParseFailures.WithLabelValues("restore").Inc()
	return nil, fmt.Errorf("failed to restore message: %w", err)
}

func DecodeSavedMessage(body []byte, gen *ids.Generator) (*SavedMessage, error) {
	var raw rawSavedMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode saved message: %w", err)
	}
	v, err := messageValue(raw.Data)
	if err == nil {
		var m *models.Message
		m, err = schema.ParseValue(v, gen)
		if err == nil {
			out := raw.SavedMessage
			out.Data = m
			return &out, nil
		}
	}
	telemetry.ParseFailures.WithLabelValues("saved_message").Inc()
	return nil, fmt.Errorf("failed to parse saved message: %w", err)
}

// Export renders the live message as indented JSON for hand editing.
func Export(s *editor.Store) ([]byte, error) {
	return json.MarshalIndent(s.Snapshot(), "", "  ")
}

// Import parses text and replaces the live message with it. On error the
// store is left untouched.
func Import(s *editor.Store, text []byte) error {
	m, err := schema.Parse(text, s.Generator())
	if err != nil {
		telemetry.ParseFailures.WithLabelValues("import").Inc()
		return fmt.Errorf("failed to parse message: %w", err)
	}
	s.Replace(m)
	return nil
}
