package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merlinfuchs/embed-generator-sub000/pkg/editor"
	"github.com/merlinfuchs/embed-generator-sub000/pkg/ids"
)

func TestExportImportRoundTrip(t *testing.T) {
	s := editor.New(ids.NewFrom(0), nil)
	out, err := Export(s)
	require.NoError(t, err)

	other := editor.New(ids.NewFrom(0), nil)
	other.SetContent("changed")
	require.NoError(t, Import(other, out))

	again, err := Export(other)
	require.NoError(t, err)
	assert.JSONEq(t, string(out), string(again))
}

func TestImportFailureLeavesStore(t *testing.T) {
	s := editor.New(ids.NewFrom(0), nil)
	s.SetContent("keep")
	rev := s.Revision()

	err := Import(s, []byte(`{"embeds":{}}`))
	assert.ErrorContains(t, err, "failed to parse message")
	assert.Equal(t, "keep", s.Snapshot().Content)
	assert.Equal(t, rev, s.Revision())
}

func TestDecodeRestoreStringData(t *testing.T) {
	resp, err := DecodeRestore([]byte(`{"data":"{\"content\":\"inner\"}"}`), ids.NewFrom(0))
	require.NoError(t, err)
	assert.Equal(t, "inner", resp.Data.Content)
	assert.Empty(t, resp.Attachments)
}
