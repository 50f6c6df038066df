package artifact

import (
	"strings"
)

// FileExt is the container/codec extension every pipeline artifact uses.
const FileExt = "wav"

// Instrument is one of the fixed instrument roles the corpus separates.
type Instrument string

const (
	Piano Instrument = "piano"
	Bass  Instrument = "bass"
	Drums Instrument = "drums"
)

// Instruments returns the fixed instrument-role set in stable order.
func Instruments() []Instrument {
	return []Instrument{Piano, Bass, Drums}
}

// ParseInstrument reports whether value names a known instrument role.
func ParseInstrument(value string) (Instrument, bool) {
	switch Instrument(strings.ToLower(strings.TrimSpace(value))) {
	case Piano:
		return Piano, true
	case Bass:
		return Bass, true
	case Drums:
		return Drums, true
	default:
		return "", false
	}
}

// Channel selects one side of a stereo recording, or the full mix.
type Channel string

const (
	ChannelNone  Channel = ""
	ChannelLeft  Channel = "left"
	ChannelRight Channel = "right"
)

// ParseChannel maps catalog override codes (including the short l/r forms) to a Channel.
func ParseChannel(value string) (Channel, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "l", "left":
		return ChannelLeft, true
	case "r", "right":
		return ChannelRight, true
	case "":
		return ChannelNone, true
	default:
		return ChannelNone, false
	}
}

// Tag returns the filename fragment for the channel ("lchan", "rchan"), empty
// for the stereo mix.
func (c Channel) Tag() string {
	switch c {
	case ChannelLeft:
		return "lchan"
	case ChannelRight:
		return "rchan"
	default:
		return ""
	}
}

// Index returns the audio channel index ffmpeg should extract.
func (c Channel) Index() int {
	if c == ChannelRight {
		return 1
	}
	return 0
}

// Ref is a structured artifact descriptor. Filenames are derived from it in
// one place instead of being re-parsed ad hoc during reconciliation.
type Ref struct {
	Stem       string
	Channel    Channel
	Instrument Instrument
}

// ExcerptName returns the filename for a raw or channel-derived excerpt,
// e.g. "track_1.wav" or "track_1-lchan.wav".
func (r Ref) ExcerptName() string {
	var b strings.Builder
	b.WriteString(r.Stem)
	if tag := r.Channel.Tag(); tag != "" {
		b.WriteByte('-')
		b.WriteString(tag)
	}
	b.WriteByte('.')
	b.WriteString(FileExt)
	return b.String()
}

// ExcerptBase returns ExcerptName without the extension. Backend B names its
// per-input output subdirectories this way.
func (r Ref) ExcerptBase() string {
	name := r.ExcerptName()
	return strings.TrimSuffix(name, "."+FileExt)
}

// StemName returns the filename for a separated per-instrument stem,
// e.g. "track_1-lchan_bass.wav" or "track_1_drums.wav".
func (r Ref) StemName() string {
	var b strings.Builder
	b.WriteString(r.ExcerptBase())
	b.WriteByte('_')
	b.WriteString(string(r.Instrument))
	b.WriteByte('.')
	b.WriteString(FileExt)
	return b.String()
}

// ParseStemName decodes a separated-stem filename produced under the fixed
// naming scheme. The instrument token is not validated against the configured
// role set: backends emit stems for roles the corpus never asked for (vocals,
// other) and reconciliation needs to see those to discard them.
func ParseStemName(name string) (Ref, bool) {
	base, ok := trimExt(name)
	if !ok {
		return Ref{}, false
	}
	idx := strings.LastIndexByte(base, '_')
	if idx <= 0 || idx == len(base)-1 {
		return Ref{}, false
	}
	stem, channel := splitChannelTag(base[:idx])
	if stem == "" {
		return Ref{}, false
	}
	return Ref{Stem: stem, Channel: channel, Instrument: Instrument(base[idx+1:])}, true
}

// ParseExcerptBase decodes an excerpt base name ("track_1-lchan") into its
// stem and channel.
func ParseExcerptBase(base string) (Ref, bool) {
	stem, channel := splitChannelTag(base)
	if stem == "" {
		return Ref{}, false
	}
	return Ref{Stem: stem, Channel: channel}, true
}

func trimExt(name string) (string, bool) {
	suffix := "." + FileExt
	if !strings.HasSuffix(name, suffix) {
		return "", false
	}
	return strings.TrimSuffix(name, suffix), true
}

func splitChannelTag(base string) (string, Channel) {
	switch {
	case strings.HasSuffix(base, "-"+ChannelLeft.Tag()):
		return strings.TrimSuffix(base, "-"+ChannelLeft.Tag()), ChannelLeft
	case strings.HasSuffix(base, "-"+ChannelRight.Tag()):
		return strings.TrimSuffix(base, "-"+ChannelRight.Tag()), ChannelRight
	default:
		return base, ChannelNone
	}
}
