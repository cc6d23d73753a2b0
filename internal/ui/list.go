package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/duskmoss/sortify/internal/models"
	"github.com/duskmoss/sortify/internal/shared"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
	_ list.Item = fieldItem{}
)

// playlistItem wraps [models.PlaylistSummary] to implement [list.Item].
type playlistItem struct {
	playlist models.PlaylistSummary
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", i.playlist.TotalTracks)
	if i.playlist.OwnerName != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.OwnerName)
	}
	return desc
}

// trackItem wraps [models.TrackRow] to implement [list.Item].
type trackItem struct {
	track models.TrackRow
}

func (i trackItem) FilterValue() string { return i.track.Name }
func (i trackItem) Title() string       { return i.track.Name }
func (i trackItem) Description() string {
	desc := i.track.Artists
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return fmt.Sprintf("%s [%s]", desc, shared.FormatDuration(i.track.DurationMS))
}

// fieldItem wraps [models.SortField] to implement [list.Item] for rule selection.
type fieldItem struct {
	field models.SortField
}

func (i fieldItem) FilterValue() string { return string(i.field) }
func (i fieldItem) Title() string       { return string(i.field) }
func (i fieldItem) Description() string {
	switch i.field {
	case models.FieldName:
		return "track title"
	case models.FieldArtists:
		return "all artists, joined"
	case models.FieldMainArtist:
		return "first listed artist"
	case models.FieldAlbum:
		return "album title"
	case models.FieldPopularity:
		return "popularity score"
	case models.FieldDuration:
		return "track length"
	case models.FieldAddedAt:
		return "date added to playlist"
	default:
		return ""
	}
}
