// Package pkg contains the sub-packages of the canvasnote application:
// the data model, the editing engine, the persistence backends, the HTTP
// server, the API client, and the end-to-end testing helpers.
package pkg
