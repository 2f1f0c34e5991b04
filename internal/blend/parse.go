package blend

import (
	"strings"

	"github.com/gcbaptista/go-recommendation-blender/internal/errors"
	"github.com/gcbaptista/go-recommendation-blender/model"
)

const (
	keySeparator   = ":"
	valueSeparator = ","
)

// ParseLine parses a "key:v1,v2,...,vN" line. The key is everything before the
// first colon. Trailing empty values are dropped, so "k:a,b," yields [a b].
// A missing colon or an empty value list is reported as a ParseError; source
// and lineNo only feed the error message.
func ParseLine(source string, lineNo int, text string) (model.SourceLine, error) {
	text = strings.TrimRight(text, "\r\n")

	key, rest, found := strings.Cut(text, keySeparator)
	if !found {
		return model.SourceLine{}, errors.NewParseError(source, lineNo, text, "missing ':' separator")
	}

	values := splitValues(rest)
	if len(values) == 0 {
		return model.SourceLine{}, errors.NewParseError(source, lineNo, text, "empty value list")
	}

	return model.SourceLine{Key: key, Values: values}, nil
}

// splitValues splits on commas, keeping empty fields in the middle but not at the end
func splitValues(s string) []string {
	if s == "" {
		return nil
	}
	values := strings.Split(s, valueSeparator)
	end := len(values)
	for end > 0 && values[end-1] == "" {
		end--
	}
	return values[:end]
}

// FormatLine renders a merged line as "key:v1,v2,...".
func FormatLine(line model.MergedLine) string {
	return line.Key + keySeparator + strings.Join(line.Values, valueSeparator)
}
