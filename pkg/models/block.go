package models

import (
	"encoding/json"
	"fmt"
)

// BlockType identifies the kind of a block. The set is closed; anything
// outside it deserializes into an empty shell rather than failing the note.
type BlockType string

const (
	BlockHeading   BlockType = "heading"
	BlockText      BlockType = "text"
	BlockCode      BlockType = "code"
	BlockDivider   BlockType = "divider"
	BlockChecklist BlockType = "checklist"
	BlockTable     BlockType = "table"
	BlockImage     BlockType = "image"
	BlockVoice     BlockType = "voice"
	BlockImgText   BlockType = "img-text"
)

// Known reports whether t is one of the closed set of block types.
func (t BlockType) Known() bool {
	switch t {
	case BlockHeading, BlockText, BlockCode, BlockDivider,
		BlockChecklist, BlockTable, BlockImage, BlockVoice, BlockImgText:
		return true
	}
	return false
}

// BlockData is one serialized block: the {type, content, data} triple from
// the wire format. The per-type payload is a tagged union; exactly one of
// Checklist, Table, or Media is set, matching Type, or none for the plain
// text-like types.
type BlockData struct {
	Type    BlockType
	Content string

	Checklist *ChecklistData
	Table     *TableData
	Media     *MediaData
}

// ChecklistItem is one row of a checklist block.
type ChecklistItem struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// ChecklistData is the payload of a checklist block.
type ChecklistData struct {
	Items []ChecklistItem `json:"items"`
}

// TableData is the payload of a table block. Rows are rectangular with
// len(Headers) columns.
type TableData struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// MediaData is the payload of an image, voice, or img-text block.
// URL is nil when the media slot is empty or an upload failed.
// TempID is only present while the URL is a staged data:/blob: reference;
// it names the staging entry holding the raw payload.
type MediaData struct {
	URL         *string `json:"url"`
	TempID      string  `json:"temp_id,omitempty"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
}

// blockEnvelope is the wire shape of a block.
type blockEnvelope struct {
	Type    BlockType       `json:"type"`
	Content string          `json:"content"`
	Data    json.RawMessage `json:"data"`
}

var emptyObject = json.RawMessage(`{}`)

func (b BlockData) MarshalJSON() ([]byte, error) {
	env := blockEnvelope{
		Type:    b.Type,
		Content: b.Content,
		Data:    emptyObject,
	}

	var payload any
	switch b.Type {
	case BlockChecklist:
		if b.Checklist != nil {
			payload = b.Checklist
		}
	case BlockTable:
		if b.Table != nil {
			payload = b.Table
		}
	case BlockImage, BlockVoice, BlockImgText:
		if b.Media != nil {
			payload = b.Media
		}
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s block data: %w", b.Type, err)
		}
		env.Data = raw
	}

	return json.Marshal(env)
}

func (b *BlockData) UnmarshalJSON(data []byte) error {
	var env blockEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	*b = BlockData{Type: env.Type, Content: env.Content}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}

	switch env.Type {
	case BlockChecklist:
		var payload ChecklistData
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return fmt.Errorf("unmarshaling checklist data: %w", err)
		}
		b.Checklist = &payload
	case BlockTable:
		var payload TableData
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return fmt.Errorf("unmarshaling table data: %w", err)
		}
		b.Table = &payload
	case BlockImage, BlockVoice, BlockImgText:
		var payload MediaData
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return fmt.Errorf("unmarshaling media data: %w", err)
		}
		b.Media = &payload
	default:
		// Unknown or payload-free types keep their content and drop the
		// data object. An unrecognized type never fails the whole note.
	}
	return nil
}
