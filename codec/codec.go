// Package codec converts text between the form a spreadsheet cell holds and the
// form that can sit inside a JSON string literal.
package codec

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Both replacers scan the input once, left to right, so an escape produced
// for a backslash is never re-read as the start of another escape.
var (
	encoder = strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\b", `\b`,
		"\r", `\r`,
		"\n", `\n`,
		"\t", `\t`,
		"\f", `\f`,
	)
	decoder = strings.NewReplacer(
		`\\`, `\`,
		`\"`, `"`,
		`\b`, "\b",
		`\r`, "\r",
		`\n`, "\n",
		`\t`, "\t",
		`\f`, "\f",
	)
)

// Encode escapes backslash, double quote, backspace, carriage return, line
// feed, tab and form feed. Every other character is passed through unchanged,
// including other control characters and non-ASCII text.
func Encode(text string) string {
	return encoder.Replace(text)
}

// Decode reverses Encode on text returned by the server. Escapes it does not
// know, such as \u00e9 or \/, are left as they are.
func Decode(text string) string {
	return decoder.Replace(text)
}

// TrimOuterQuotes drops one leading and one trailing double quote. The trailing
// check runs on the string left after the leading trim, so `"` becomes empty.
func TrimOuterQuotes(text string) string {
	if text == "" {
		return text
	}
	text = strings.TrimPrefix(text, `"`)
	text = strings.TrimSuffix(text, `"`)
	return text
}

// MarshalJSON encodes v without HTML escaping and without a trailing newline.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
