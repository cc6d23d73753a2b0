// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for playlist sorting:
//  1. [PlaylistListView] : Browse and select Spotify playlists
//  2. [TrackListView] : Preview tracks in their current order
//  3. [RuleView] : Build the prioritized sort rule list
//  4. [ConfirmView] : Confirm before anything is written
//  5. [SortView] : Monitor real-time progress updates
//  6. [ResultView] : Display the created playlist
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the SortEngine, providing non-blocking status reporting during the run.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
