package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"stemset/internal/artifact"
	"stemset/internal/services"
)

const sampleCatalog = `[
  {
    "fname": "evansb-waltzfordebby-1961",
    "track_name": "Waltz for Debby",
    "album_name": "Waltz for Debby",
    "recording_year": "1961",
    "musicians": {"leader": "pianist", "pianist": "Bill Evans", "bassist": "Scott LaFaro"},
    "timestamps": {"start": "02:11", "end": "03:40"},
    "channel_overrides": {"bass": "l"},
    "links": {"external": ["https://www.youtube.com/watch?v=abc123"]}
  },
  {
    "fname": "evansb-mydish-1959",
    "track_name": "My Dish",
    "timestamps": {"start": "1:02:00", "end": "1:03:30"},
    "channel_overrides": {},
    "links": {"external": []}
  }
]`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus_test.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestLoadParsesItems(t *testing.T) {
	t.Parallel()

	items, err := Load(writeCatalog(t, sampleCatalog))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	start, end, ok := first.Span()
	if !ok || start != 131 || end != 220 {
		t.Fatalf("unexpected span: start=%d end=%d ok=%v", start, end, ok)
	}
	if got := first.Overrides()[artifact.Bass]; got != artifact.ChannelLeft {
		t.Fatalf("expected bass override left, got %v", got)
	}
	if first.Leader() != "Bill Evans" {
		t.Fatalf("unexpected leader: %q", first.Leader())
	}

	second := items[1]
	start, end, ok = second.Span()
	if !ok || start != 3720 || end != 3810 {
		t.Fatalf("unexpected H:MM:SS span: start=%d end=%d ok=%v", start, end, ok)
	}
	if len(second.Overrides()) != 0 {
		t.Fatalf("expected no overrides, got %v", second.Overrides())
	}
}

func TestLoadRejectsUnknownOverrideRole(t *testing.T) {
	t.Parallel()

	bad := `[{"fname": "x", "timestamps": {"start": "0:10", "end": "0:20"}, "channel_overrides": {"vocals": "l"}, "links": {"external": []}}]`
	_, err := Load(writeCatalog(t, bad))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadRejectsDuplicateStems(t *testing.T) {
	t.Parallel()

	bad := `[{"fname": "x", "channel_overrides": {}, "links": {"external": []}},
	         {"fname": "x", "channel_overrides": {}, "links": {"external": []}}]`
	_, err := Load(writeCatalog(t, bad))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSpanSoftFailsOnMalformedTimestamp(t *testing.T) {
	t.Parallel()

	item := &Item{FName: "x", Timestamps: Timestamps{Start: "notatime", End: "01:00"}}
	if _, _, ok := item.Span(); ok {
		t.Fatal("expected malformed start to yield no span")
	}
	item = &Item{FName: "x", Timestamps: Timestamps{Start: "02:00", End: "01:00"}}
	if _, _, ok := item.Span(); ok {
		t.Fatal("expected inverted span to be rejected")
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		want  int
		ok    bool
	}{
		{"02:11", 131, true},
		{"0:05", 5, true},
		{"1:02:03", 3723, true},
		{"10:20:30", 37230, true},
		{"", 0, false},
		{"90", 0, false},
		{"02:61", 0, false},
		{"a:b", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseTimestamp(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseTimestamp(%q) = %d, %v; want %d, %v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestLoadByNameAppendsExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "corpus_bill_evans.json")
	if err := os.WriteFile(path, []byte(`[]`), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if _, err := LoadByName(dir, "corpus_bill_evans"); err != nil {
		t.Fatalf("LoadByName returned error: %v", err)
	}
	if _, err := LoadByName(dir, ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
}
