package models

import (
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteIDJSONRoundTrip(t *testing.T) {
	id := NewNoteID()

	raw, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.String()+`"`, string(raw))

	var got NoteID
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, id, got)
}

func TestNoteIDCBORRoundTrip(t *testing.T) {
	id := NewNoteID()

	raw, err := cbor.Marshal(id)
	require.NoError(t, err)

	var got NoteID
	require.NoError(t, cbor.Unmarshal(raw, &got))
	assert.Equal(t, id, got)
}

func TestParseNoteID(t *testing.T) {
	id := NewNoteID()

	parsed, err := ParseNoteID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseNoteID("not-a-uuid")
	assert.Error(t, err)
}

func TestNoteIDValueScan(t *testing.T) {
	id := NewNoteID()

	v, err := id.Value()
	require.NoError(t, err)

	var fromString NoteID
	require.NoError(t, fromString.Scan(v))
	assert.Equal(t, id, fromString)

	var fromBytes NoteID
	require.NoError(t, fromBytes.Scan([]byte(id.String())))
	assert.Equal(t, id, fromBytes)

	var fromNil NoteID
	require.NoError(t, fromNil.Scan(nil))
	assert.True(t, fromNil.IsZero())

	zero := NoteID{}
	v, err = zero.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestCategoryIDRoundTrip(t *testing.T) {
	id := NewCategoryID()

	raw, err := json.Marshal(id)
	require.NoError(t, err)

	var got CategoryID
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, id, got)

	parsed, err := ParseCategoryID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestTemplateIDRoundTrip(t *testing.T) {
	id := NewTemplateID()

	raw, err := cbor.Marshal(id)
	require.NoError(t, err)

	var got TemplateID
	require.NoError(t, cbor.Unmarshal(raw, &got))
	assert.Equal(t, id, got)
}
