package editor

import (
	"github.com/canvasnote/canvasnote/pkg/models"
)

// Serialize reads the live canvas state into the wire block list. It never
// consults anything but the model; what you see on the canvas is what gets
// stored. Checklist items still carrying the placeholder text serialize as
// empty, and staged media keeps its temp ID so the save protocol can swap
// in the permanent URL after upload.
func Serialize(c *Canvas) []models.BlockData {
	out := make([]models.BlockData, 0, c.Len())
	for _, b := range c.Blocks() {
		out = append(out, serializeBlock(b))
	}
	return out
}

func serializeBlock(b *Block) models.BlockData {
	data := models.BlockData{Type: b.Type, Content: b.Content}

	switch {
	case b.Checklist != nil:
		items := make([]models.ChecklistItem, len(b.Checklist.Items))
		for i, item := range b.Checklist.Items {
			text := item.Text
			if text == ChecklistPlaceholder {
				text = ""
			}
			items[i] = models.ChecklistItem{Text: text, Checked: item.Checked}
		}
		data.Checklist = &models.ChecklistData{Items: items}
	case b.Table != nil:
		headers := make([]string, len(b.Table.Headers()))
		copy(headers, b.Table.Headers())
		rows := make([][]string, len(b.Table.Rows()))
		for i, row := range b.Table.Rows() {
			rows[i] = make([]string, len(row))
			copy(rows[i], row)
		}
		data.Table = &models.TableData{Headers: headers, Rows: rows}
	case b.Media != nil:
		media := &models.MediaData{
			Title:       b.Media.Title,
			Description: b.Media.Description,
		}
		if !b.Media.Empty() {
			url := b.Media.URL
			media.URL = &url
			if b.Media.Staged() {
				media.TempID = b.Media.TempID
			}
		}
		data.Media = media
	}
	return data
}

// Deserialize rebuilds a canvas from stored blocks. Missing payload fields
// fall back to the factory defaults; unknown types come back as empty
// shells so nothing stored is ever dropped on load.
func Deserialize(elements []models.BlockData) *Canvas {
	c := NewCanvas()
	for _, data := range elements {
		c.Append(deserializeBlock(data))
	}
	return c
}

func deserializeBlock(data models.BlockData) *Block {
	b := NewBlock(data.Type)
	b.Content = data.Content

	switch data.Type {
	case models.BlockChecklist:
		if data.Checklist != nil {
			items := make([]ChecklistItem, len(data.Checklist.Items))
			for i, item := range data.Checklist.Items {
				items[i] = ChecklistItem{Text: item.Text, Checked: item.Checked}
			}
			b.Checklist = &Checklist{Items: items}
		}
	case models.BlockTable:
		if data.Table != nil {
			b.Table = NewTable(data.Table.Headers, data.Table.Rows)
		}
	case models.BlockImage, models.BlockVoice, models.BlockImgText:
		if data.Media != nil {
			if data.Media.URL != nil {
				b.Media.URL = *data.Media.URL
			}
			b.Media.TempID = data.Media.TempID
			b.Media.Title = data.Media.Title
			b.Media.Description = data.Media.Description
		}
	}
	return b
}
