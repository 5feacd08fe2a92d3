package canvasnote

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/canvasnote/canvasnote/pkg/models"
)

// handleExportPDF renders a note's blocks into a PDF document served as an
// attachment.
func (a *App) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseNoteID(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid note ID")
		return
	}

	note, err := a.store.GetNote(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if note == nil {
		respondError(w, http.StatusNotFound, "Note not found")
		return
	}

	pdf := renderNotePDF(note)
	filename := note.Title
	if filename == "" {
		filename = "note"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// pdfLine is one rendered text line: which font object to use and at what
// size.
type pdfLine struct {
	text string
	font string // "F1" Helvetica, "F2" Courier
	size int
}

// noteLines flattens a note into printable lines. The layout is
// deliberately plain: headings larger, code in a monospace face, tables as
// pipe-joined rows, media as a reference line.
func noteLines(note *models.Note) []pdfLine {
	title := note.Title
	if title == "" {
		title = "Untitled note"
	}
	lines := []pdfLine{{text: title, font: "F1", size: 18}, {font: "F1", size: 11}}

	body := func(text string) {
		for _, part := range strings.Split(text, "\n") {
			lines = append(lines, pdfLine{text: part, font: "F1", size: 11})
		}
	}

	for _, b := range note.Data.Elements {
		switch b.Type {
		case models.BlockHeading:
			lines = append(lines, pdfLine{text: b.Content, font: "F1", size: 14})
		case models.BlockText:
			body(b.Content)
		case models.BlockCode:
			for _, part := range strings.Split(b.Content, "\n") {
				lines = append(lines, pdfLine{text: part, font: "F2", size: 10})
			}
		case models.BlockDivider:
			lines = append(lines, pdfLine{text: strings.Repeat("-", 40), font: "F1", size: 11})
		case models.BlockChecklist:
			if b.Checklist != nil {
				for _, item := range b.Checklist.Items {
					mark := "[ ]"
					if item.Checked {
						mark = "[x]"
					}
					lines = append(lines, pdfLine{text: mark + " " + item.Text, font: "F1", size: 11})
				}
			}
		case models.BlockTable:
			if b.Table != nil {
				lines = append(lines, pdfLine{text: strings.Join(b.Table.Headers, " | "), font: "F2", size: 10})
				for _, row := range b.Table.Rows {
					lines = append(lines, pdfLine{text: strings.Join(row, " | "), font: "F2", size: 10})
				}
			}
		case models.BlockImage, models.BlockVoice, models.BlockImgText:
			label := "[media]"
			switch b.Type {
			case models.BlockImage:
				label = "[image]"
			case models.BlockVoice:
				label = "[voice recording]"
			case models.BlockImgText:
				label = "[image]"
				if b.Media != nil && b.Media.Title != "" {
					label += " " + b.Media.Title
				}
			}
			if b.Media != nil && b.Media.URL != nil {
				label += " " + *b.Media.URL
			}
			lines = append(lines, pdfLine{text: label, font: "F1", size: 11})
			if b.Type == models.BlockImgText {
				if b.Media != nil && b.Media.Description != "" {
					body(b.Media.Description)
				}
				body(b.Content)
			}
		default:
			if b.Content != "" {
				body(b.Content)
			}
		}
		lines = append(lines, pdfLine{font: "F1", size: 11})
	}
	return lines
}

func escapePDFText(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`, "\r", "", "\t", "    ")
	return r.Replace(s)
}

const (
	pdfPageHeight = 792 // US Letter, points
	pdfPageWidth  = 612
	pdfMargin     = 72
	pdfLeading    = 16
)

// renderNotePDF produces a complete multi-page PDF with two standard fonts.
// The writer emits objects sequentially and builds the xref table from the
// recorded byte offsets.
func renderNotePDF(note *models.Note) []byte {
	lines := noteLines(note)

	linesPerPage := (pdfPageHeight - 2*pdfMargin) / pdfLeading
	var pages [][]pdfLine
	for start := 0; start < len(lines); start += linesPerPage {
		end := start + linesPerPage
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, lines[start:end])
	}
	if len(pages) == 0 {
		pages = [][]pdfLine{nil}
	}

	// Object layout: 1 catalog, 2 pages root, 3 Helvetica, 4 Courier,
	// then alternating page and content objects.
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // filled below once kid ids are known
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Courier >>",
	}

	var kids []string
	for _, pageLines := range pages {
		var content bytes.Buffer
		content.WriteString("BT\n")
		fmt.Fprintf(&content, "%d %d Td\n%d TL\n", pdfMargin, pdfPageHeight-pdfMargin, pdfLeading)
		for _, line := range pageLines {
			font, size := line.font, line.size
			if font == "" {
				font, size = "F1", 11
			}
			fmt.Fprintf(&content, "/%s %d Tf (%s) Tj T*\n", font, size, escapePDFText(line.text))
		}
		content.WriteString("ET\n")

		pageID := len(objects) + 1
		contentID := pageID + 1
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /Font << /F1 3 0 R /F2 4 0 R >> >> /Contents %d 0 R >>",
			pdfPageWidth, pdfPageHeight, contentID))
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()))
		kids = append(kids, fmt.Sprintf("%d 0 R", pageID))
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))

	var out bytes.Buffer
	out.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = out.Len()
		fmt.Fprintf(&out, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefStart := out.Len()
	fmt.Fprintf(&out, "xref\n0 %d\n", len(objects)+1)
	out.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&out, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&out, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefStart)
	return out.Bytes()
}
