package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestBlockDataRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		block BlockData
	}{
		{
			name:  "heading",
			block: BlockData{Type: BlockHeading, Content: "Heading"},
		},
		{
			name:  "text",
			block: BlockData{Type: BlockText, Content: "Text..."},
		},
		{
			name:  "code",
			block: BlockData{Type: BlockCode, Content: "// Code"},
		},
		{
			name:  "divider",
			block: BlockData{Type: BlockDivider},
		},
		{
			name: "checklist",
			block: BlockData{
				Type: BlockChecklist,
				Checklist: &ChecklistData{Items: []ChecklistItem{
					{Text: "First item", Checked: false},
					{Text: "Done item", Checked: true},
				}},
			},
		},
		{
			name: "table",
			block: BlockData{
				Type: BlockTable,
				Table: &TableData{
					Headers: []string{"Header 1", "Header 2"},
					Rows:    [][]string{{"a", "b"}, {"c", "d"}},
				},
			},
		},
		{
			name: "image",
			block: BlockData{
				Type:  BlockImage,
				Media: &MediaData{URL: strptr("https://cdn.example.com/x.png")},
			},
		},
		{
			name: "voice",
			block: BlockData{
				Type:  BlockVoice,
				Media: &MediaData{URL: strptr("https://cdn.example.com/rec.webm")},
			},
		},
		{
			name: "img-text",
			block: BlockData{
				Type:    BlockImgText,
				Content: "caption text",
				Media: &MediaData{
					URL:         strptr("https://cdn.example.com/y.png"),
					Title:       "A title",
					Description: "A description",
				},
			},
		},
		{
			name: "staged image keeps temp_id",
			block: BlockData{
				Type:  BlockImage,
				Media: &MediaData{URL: strptr("data:image/png;base64,AAAA"), TempID: "tmp-1"},
			},
		},
		{
			name: "image with null url",
			block: BlockData{
				Type:  BlockImage,
				Media: &MediaData{URL: nil},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.block)
			require.NoError(t, err)

			var got BlockData
			require.NoError(t, json.Unmarshal(raw, &got))
			assert.Equal(t, tt.block, got)
		})
	}
}

func TestBlockDataMarshalEmitsEmptyDataObject(t *testing.T) {
	raw, err := json.Marshal(BlockData{Type: BlockText, Content: "hi"})
	require.NoError(t, err)

	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.JSONEq(t, `{}`, string(env["data"]))
	assert.JSONEq(t, `"text"`, string(env["type"]))
}

func TestBlockDataUnmarshalUnknownType(t *testing.T) {
	raw := []byte(`{"type":"kanban","content":"board","data":{"columns":3}}`)

	var got BlockData
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, BlockType("kanban"), got.Type)
	assert.Equal(t, "board", got.Content)
	assert.Nil(t, got.Checklist)
	assert.Nil(t, got.Table)
	assert.Nil(t, got.Media)
	assert.False(t, got.Type.Known())
}

func TestBlockDataUnmarshalMissingData(t *testing.T) {
	var got BlockData
	require.NoError(t, json.Unmarshal([]byte(`{"type":"checklist","content":""}`), &got))
	assert.Equal(t, BlockChecklist, got.Type)
	assert.Nil(t, got.Checklist)
}

func TestBlockDataUnmarshalMalformedPayload(t *testing.T) {
	var got BlockData
	err := json.Unmarshal([]byte(`{"type":"table","content":"","data":{"headers":"nope"}}`), &got)
	assert.Error(t, err)
}

func TestNoteDataScanValue(t *testing.T) {
	d := NoteData{Elements: []BlockData{
		{Type: BlockHeading, Content: "h"},
		{Type: BlockChecklist, Checklist: &ChecklistData{Items: []ChecklistItem{{Text: "x"}}}},
	}}

	v, err := d.Value()
	require.NoError(t, err)

	var got NoteData
	require.NoError(t, got.Scan(v))
	assert.Equal(t, d, got)

	var fromString NoteData
	require.NoError(t, fromString.Scan(string(v.([]byte))))
	assert.Equal(t, d, fromString)

	var fromNil NoteData
	require.NoError(t, fromNil.Scan(nil))
	assert.Empty(t, fromNil.Elements)
}
