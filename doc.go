// Package canvasnote is a block-based note-taking service with a
// drag-and-drop document model.
//
// A note is an ordered list of typed blocks (heading, text, code, divider,
// checklist, table, image, voice, img-text) edited on a canvas and stored
// as one JSON document. The repository is organized as:
//
//   - pkg/models: wire and persistence data model with typed UUID IDs and
//     the block tagged union
//   - pkg/editor: the editing engine as an explicit model: canvas, block
//     factory, drag-reorder state machine, serializer, media staging, and
//     the session that ties one open document together
//   - pkg/store: persistence interface with PostgreSQL (GORM) and embedded
//     SQLite backends
//   - pkg/canvasnote: the HTTP server: REST API, CSRF protection, media
//     uploads, PDF export, configuration and CLI
//   - pkg/client: typed REST client for the API
//   - pkg/canvasnotetesting: virtual editors for end-to-end tests
//
// Run the server with:
//
//	canvasnote run --backend sqlite --sqlite-path notes.db
package canvasnote
