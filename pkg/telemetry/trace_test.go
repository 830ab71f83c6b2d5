package telemetry

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracerWritesSpans(t *testing.T) {
	dir := t.TempDir()
	mock := clock.NewMock()
	tr, err := NewTracer(TracerConfig{Dir: dir, Clock: mock})
	require.NoError(t, err)

	s := tr.Start("AddEmbed")
	mock.Add(3 * time.Millisecond)
	s.Mark("apply")
	mock.Add(2 * time.Millisecond)
	s.End(errors.New("boom"))
	s.End(nil)

	tr.Start("AddEmbed").End(nil)
	tr.Close()

	f, err := os.Open(filepath.Join(dir, "AddEmbed.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var spans []Span
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var s Span
		require.NoError(t, json.Unmarshal(sc.Bytes(), &s))
		spans = append(spans, s)
	}
	require.Len(t, spans, 2)
	assert.Equal(t, 5.0, spans[0].TotalMS)
	assert.Equal(t, []Phase{{Name: "apply", MS: 3}}, spans[0].Phases)
	assert.Equal(t, "boom", spans[0].Err)
	assert.Empty(t, spans[1].Err)
}

func TestNilTracer(t *testing.T) {
	var tr *Tracer
	s := tr.Start("x")
	assert.Nil(t, s)
	s.Mark("a")
	s.End(nil)
	tr.Close()
}
