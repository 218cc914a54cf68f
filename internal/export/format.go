package export

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// Format is an output sink kind.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatArrow    Format = "arrow"
	FormatSQLite   Format = "sqlite"
	FormatPostgres Format = "postgres"
)

// AllFormats returns all supported output formats
func AllFormats() []Format {
	return []Format{FormatCSV, FormatArrow, FormatSQLite, FormatPostgres}
}

// Extension is the file extension used for file-based formats.
func (f Format) Extension() string {
	switch f {
	case FormatArrow:
		return ".arrow"
	case FormatSQLite:
		return ".db"
	case FormatCSV:
		return ".csv"
	default:
		return ""
	}
}

// ParseFormats parses comma-separated formats, dropping duplicates
func ParseFormats(inputs ...string) ([]Format, error) {
	seen := make(map[Format]bool)
	var result []Format
	for _, input := range inputs {
		for _, p := range strings.Split(input, ",") {
			p = strings.ToLower(strings.TrimSpace(p))
			if p == "" {
				continue
			}
			f := Format(p)
			if p == "postgresql" || p == "pg" {
				f = FormatPostgres
			}
			valid := false
			for _, known := range AllFormats() {
				if f == known {
					valid = true
					break
				}
			}
			if !valid {
				return nil, fmt.Errorf("%w %q, valid formats: %v", ErrUnknownFormat, p, AllFormats())
			}
			if !seen[f] {
				seen[f] = true
				result = append(result, f)
			}
		}
	}
	return result, nil
}

// PathFor returns path with its extension replaced by the format's one.
func PathFor(path string, f Format) string {
	ext := f.Extension()
	if ext == "" {
		return path
	}
	if i := strings.LastIndex(path, "."); i > strings.LastIndex(path, "/") {
		path = path[:i]
	}
	return path + ext
}
