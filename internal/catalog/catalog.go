package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stemset/internal/artifact"
	"stemset/internal/services"
)

// Item is one catalog entry describing a single recording excerpt to build.
type Item struct {
	FName            string            `json:"fname"`
	TrackName        string            `json:"track_name"`
	AlbumName        string            `json:"album_name"`
	RecordingYear    string            `json:"recording_year"`
	Musicians        map[string]string `json:"musicians"`
	Timestamps       Timestamps        `json:"timestamps"`
	ChannelOverrides map[string]string `json:"channel_overrides"`
	Links            Links             `json:"links"`

	// Log holds the item's build log once the pipeline finalizes it.
	Log []string `json:"log,omitempty"`

	overrides map[artifact.Instrument]artifact.Channel
}

// Timestamps holds the formatted start/end strings from the catalog.
type Timestamps struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Links groups the candidate source locations for an item.
type Links struct {
	External []string `json:"external"`
}

// Span returns the declared [start, end) span in whole seconds. ok is false
// when either timestamp is absent or unparsable; freshness checks against a
// missing span fail and force a rebuild attempt, which then surfaces the
// validation error.
func (i *Item) Span() (start, end int, ok bool) {
	start, startOK := ParseTimestamp(i.Timestamps.Start)
	end, endOK := ParseTimestamp(i.Timestamps.End)
	if !startOK || !endOK || end <= start {
		return 0, 0, false
	}
	return start, end, true
}

// Overrides returns the validated instrument-to-channel override mapping.
func (i *Item) Overrides() map[artifact.Instrument]artifact.Channel {
	return i.overrides
}

// ExternalLinks returns the item's candidate source URIs in catalog order.
func (i *Item) ExternalLinks() []string {
	return i.Links.External
}

// Leader returns the name of the session leader, empty when unknown.
func (i *Item) Leader() string {
	role, ok := i.Musicians["leader"]
	if !ok {
		return ""
	}
	return i.Musicians[role]
}

// Describe renders the metadata line used when logging the start of a build.
func (i *Item) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%q", i.TrackName)
	if i.RecordingYear != "" {
		fmt.Fprintf(&b, " from %s", i.RecordingYear)
	}
	if i.AlbumName != "" {
		fmt.Fprintf(&b, " album %s", i.AlbumName)
	}
	if leader := i.Leader(); leader != "" {
		fmt.Fprintf(&b, ", leader %s", leader)
	}
	return b.String()
}

func (i *Item) resolveOverrides() error {
	i.overrides = make(map[artifact.Instrument]artifact.Channel, len(i.ChannelOverrides))
	for role, code := range i.ChannelOverrides {
		instrument, ok := artifact.ParseInstrument(role)
		if !ok {
			return services.Wrap(services.ErrValidation, "catalog", "overrides",
				fmt.Sprintf("item %s: unknown instrument role %q", i.FName, role), nil)
		}
		channel, ok := artifact.ParseChannel(code)
		if !ok || channel == artifact.ChannelNone {
			return services.Wrap(services.ErrValidation, "catalog", "overrides",
				fmt.Sprintf("item %s: unknown channel code %q for role %q", i.FName, code, role), nil)
		}
		i.overrides[instrument] = channel
	}
	return nil
}

// Load reads and validates a catalog file containing a JSON array of items.
func Load(path string) ([]*Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var items []*Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(items))
	for idx, item := range items {
		if strings.TrimSpace(item.FName) == "" {
			return nil, services.Wrap(services.ErrValidation, "catalog", "load",
				fmt.Sprintf("item %d: fname is required", idx), nil)
		}
		if _, dup := seen[item.FName]; dup {
			return nil, services.Wrap(services.ErrValidation, "catalog", "load",
				fmt.Sprintf("duplicate item stem %q", item.FName), nil)
		}
		seen[item.FName] = struct{}{}
		if err := item.resolveOverrides(); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// LoadByName resolves a catalog by name within the configured catalog
// directory, allowing both "corpus_bill_evans" and "corpus_bill_evans.json".
func LoadByName(catalogDir, name string) ([]*Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "load", "catalog name is required", nil)
	}
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	return Load(filepath.Join(catalogDir, name))
}
