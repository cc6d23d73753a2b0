// Package models defines the data model for the playlist sorter.
//
// Types here are plain data carriers shared between the Spotify service
// layer, the sort engine, persistence, and the CLI/TUI front ends. Provider
// JSON is mapped into these shapes at the API boundary (internal/services)
// so the rest of the program never sees raw payloads.
package models
