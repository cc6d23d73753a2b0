package sorter

import (
	"testing"

	"github.com/duskmoss/sortify/internal/models"
)

func intPtr(v int) *int { return &v }

func names(rows []models.TrackRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func assertOrder(t *testing.T, rows []models.TrackRow, want ...string) {
	t.Helper()
	got := names(rows)
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestEngineSort(t *testing.T) {
	engine := New()

	t.Run("Primary then secondary rule", func(t *testing.T) {
		rows := []models.TrackRow{
			{Name: "B", Popularity: intPtr(50), OriginalIndex: 0},
			{Name: "A", Popularity: intPtr(50), OriginalIndex: 1},
			{Name: "C", Popularity: intPtr(90), OriginalIndex: 2},
		}
		rules := []models.SortRule{
			{Field: models.FieldPopularity, Direction: models.Descending},
			{Field: models.FieldName, Direction: models.Ascending},
		}

		assertOrder(t, engine.Sort(rows, rules), "C", "A", "B")
	})

	t.Run("Empty rules keep original order", func(t *testing.T) {
		rows := []models.TrackRow{
			{Name: "Z", OriginalIndex: 2},
			{Name: "A", OriginalIndex: 0},
			{Name: "M", OriginalIndex: 1},
		}

		assertOrder(t, engine.Sort(rows, nil), "A", "M", "Z")
	})

	t.Run("Original index breaks full ties", func(t *testing.T) {
		rows := []models.TrackRow{
			{Name: "same", OriginalIndex: 3},
			{Name: "same", OriginalIndex: 1},
			{Name: "same", OriginalIndex: 2},
		}
		rules := []models.SortRule{{Field: models.FieldName, Direction: models.Ascending}}

		sorted := engine.Sort(rows, rules)
		for i, want := range []int{1, 2, 3} {
			if sorted[i].OriginalIndex != want {
				t.Errorf("expected index %d at position %d, got %d", want, i, sorted[i].OriginalIndex)
			}
		}
	})

	t.Run("Case-insensitive string comparison", func(t *testing.T) {
		rows := []models.TrackRow{
			{Name: "banana", OriginalIndex: 0},
			{Name: "Apple", OriginalIndex: 1},
			{Name: "cherry", OriginalIndex: 2},
		}
		rules := []models.SortRule{{Field: models.FieldName, Direction: models.Ascending}}

		assertOrder(t, engine.Sort(rows, rules), "Apple", "banana", "cherry")
	})

	t.Run("Missing popularity sorts as zero", func(t *testing.T) {
		rows := []models.TrackRow{
			{Name: "rated", Popularity: intPtr(10), OriginalIndex: 0},
			{Name: "unrated", Popularity: nil, OriginalIndex: 1},
		}
		rules := []models.SortRule{{Field: models.FieldPopularity, Direction: models.Ascending}}

		assertOrder(t, engine.Sort(rows, rules), "unrated", "rated")
	})

	t.Run("Added-at compares as instant across offsets", func(t *testing.T) {
		rows := []models.TrackRow{
			{Name: "later", AddedAt: "2024-06-01T12:00:00Z", OriginalIndex: 0},
			{Name: "earlier", AddedAt: "2024-06-01T10:00:00+02:00", OriginalIndex: 1},
		}
		rules := []models.SortRule{{Field: models.FieldAddedAt, Direction: models.Ascending}}

		// 10:00+02:00 is 08:00Z, before 12:00Z.
		assertOrder(t, engine.Sort(rows, rules), "earlier", "later")
	})

	t.Run("Unparseable added-at sorts first ascending", func(t *testing.T) {
		rows := []models.TrackRow{
			{Name: "valid", AddedAt: "2024-01-01T00:00:00Z", OriginalIndex: 0},
			{Name: "broken", AddedAt: "not-a-time", OriginalIndex: 1},
		}
		rules := []models.SortRule{{Field: models.FieldAddedAt, Direction: models.Ascending}}

		assertOrder(t, engine.Sort(rows, rules), "broken", "valid")
	})

	t.Run("Unknown field falls through to tie-break", func(t *testing.T) {
		rows := []models.TrackRow{
			{Name: "b", OriginalIndex: 1},
			{Name: "a", OriginalIndex: 0},
		}
		rules := []models.SortRule{{Field: models.SortField("bogus"), Direction: models.Ascending}}

		assertOrder(t, engine.Sort(rows, rules), "a", "b")
	})

	t.Run("Descending duration", func(t *testing.T) {
		rows := []models.TrackRow{
			{Name: "short", DurationMS: 90_000, OriginalIndex: 0},
			{Name: "long", DurationMS: 300_000, OriginalIndex: 1},
			{Name: "mid", DurationMS: 180_000, OriginalIndex: 2},
		}
		rules := []models.SortRule{{Field: models.FieldDuration, Direction: models.Descending}}

		assertOrder(t, engine.Sort(rows, rules), "long", "mid", "short")
	})

	t.Run("Input slice is not mutated", func(t *testing.T) {
		rows := []models.TrackRow{
			{Name: "z", OriginalIndex: 0},
			{Name: "a", OriginalIndex: 1},
		}
		rules := []models.SortRule{{Field: models.FieldName, Direction: models.Ascending}}

		engine.Sort(rows, rules)
		if rows[0].Name != "z" || rows[1].Name != "a" {
			t.Errorf("input mutated: %v", names(rows))
		}
	})

	t.Run("Sorting is idempotent", func(t *testing.T) {
		rows := []models.TrackRow{
			{Name: "b", Popularity: intPtr(5), OriginalIndex: 0},
			{Name: "a", Popularity: intPtr(5), OriginalIndex: 1},
			{Name: "c", Popularity: intPtr(1), OriginalIndex: 2},
		}
		rules := []models.SortRule{
			{Field: models.FieldPopularity, Direction: models.Descending},
			{Field: models.FieldName, Direction: models.Ascending},
		}

		once := engine.Sort(rows, rules)
		twice := engine.Sort(once, rules)
		for i := range once {
			if once[i].OriginalIndex != twice[i].OriginalIndex {
				t.Fatalf("expected stable result, got %v then %v", names(once), names(twice))
			}
		}
	})
}
