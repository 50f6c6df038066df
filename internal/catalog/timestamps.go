package catalog

import (
	"strconv"
	"strings"
)

// ParseTimestamp converts a formatted duration string into whole seconds.
// Strings shorter than six characters are read as M:SS, longer ones as
// H:MM:SS, matching how the corpus spreadsheets record excerpt boundaries.
// Malformed values report ok=false rather than an error.
func ParseTimestamp(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	parts := strings.Split(value, ":")
	var hours, minutes, seconds int
	var err error
	switch {
	case len(value) < 6 && len(parts) == 2:
		if minutes, err = parseComponent(parts[0], 0); err != nil {
			return 0, false
		}
		if seconds, err = parseComponent(parts[1], 59); err != nil {
			return 0, false
		}
	case len(parts) == 3:
		if hours, err = parseComponent(parts[0], 0); err != nil {
			return 0, false
		}
		if minutes, err = parseComponent(parts[1], 59); err != nil {
			return 0, false
		}
		if seconds, err = parseComponent(parts[2], 59); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	return hours*3600 + minutes*60 + seconds, true
}

func parseComponent(value string, max int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if n < 0 || (max > 0 && n > max) {
		return 0, strconv.ErrRange
	}
	return n, nil
}
