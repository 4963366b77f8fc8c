package detector

import (
	"regexp"

	"github.com/ccollicutt/revlog/pkg/parser"
)

// Format is a known timestamp format.
type Format struct {
	Name       string
	Pattern    *regexp.Regexp
	PatternStr string // source of Pattern, ready for timestamp_format.pattern
	Layout     string
	Example    string

	// Ambiguous marks formats where MM/DD and DD/MM cannot be told apart.
	Ambiguous bool
}

// builtinFormats is ordered most specific first; detection keeps this order
// between formats that match the same share of lines.
var builtinFormats = []Format{
	{
		Name:       "RFC 3339",
		PatternStr: `^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2}))`,
		Layout:     "2006-01-02T15:04:05.999999999Z07:00",
		Example:    "2024-01-15T10:30:00.123Z",
	},
	{
		Name:       "ISO 8601",
		PatternStr: `^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2})`,
		Layout:     "2006-01-02T15:04:05",
		Example:    "2024-01-15T10:30:00",
	},
	{
		Name:       "Bracketed datetime",
		PatternStr: `^\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\]`,
		Layout:     "2006-01-02 15:04:05",
		Example:    "[2024-01-15 10:30:00]",
	},
	{
		Name:       "Log4j/Java logging",
		PatternStr: `^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3})`,
		Layout:     "2006-01-02 15:04:05.000",
		Example:    "2024-01-15 10:30:00.123",
	},
	{
		Name:       "Python logging",
		PatternStr: `^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3})`,
		Layout:     "2006-01-02 15:04:05,000",
		Example:    "2024-01-15 10:30:00,123",
	},
	{
		Name:       "Datetime (space-separated)",
		PatternStr: `^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`,
		Layout:     "2006-01-02 15:04:05",
		Example:    "2024-01-15 10:30:00",
	},
	{
		Name:       "Syslog (BSD)",
		PatternStr: `^(\w{3}\s+\d{1,2} \d{2}:\d{2}:\d{2})`,
		Layout:     "Jan _2 15:04:05",
		Example:    "Jan 15 10:30:00",
	},
	{
		Name:       "Apache/NGINX CLF",
		PatternStr: `\[(\d{2}/\w{3}/\d{4}:\d{2}:\d{2}:\d{2} [+-]\d{4})\]`,
		Layout:     "02/Jan/2006:15:04:05 -0700",
		Example:    "[15/Jan/2024:10:30:00 +0000]",
	},
	{
		Name:       "Unix timestamp (milliseconds)",
		PatternStr: `^(\d{13})(?:[\s\]]|$)`,
		Layout:     parser.LayoutUnixMillis,
		Example:    "1705314600123",
	},
	{
		Name:       "Unix timestamp (seconds)",
		PatternStr: `^(\d{10})(?:[\s\]]|$)`,
		Layout:     parser.LayoutUnixSeconds,
		Example:    "1705314600",
	},
	{
		Name:       "US date (MM/DD/YYYY)",
		PatternStr: `^(\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2})`,
		Layout:     "01/02/2006 15:04:05",
		Example:    "01/15/2024 10:30:00",
		Ambiguous:  true,
	},
}

func init() {
	for i := range builtinFormats {
		builtinFormats[i].Pattern = regexp.MustCompile(builtinFormats[i].PatternStr)
	}
}

// DefaultFormats returns a copy of the built-in formats.
func DefaultFormats() []*Format {
	formats := make([]*Format, len(builtinFormats))
	for i := range builtinFormats {
		f := builtinFormats[i]
		formats[i] = &f
	}
	return formats
}
