package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeEscapesSpecialCharacters(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`a\b`, `a\\b`},
		{`say "hi"`, `say \"hi\"`},
		{"x\by", `x\by`},
		{"x\ry", `x\ry`},
		{"x\ny", `x\ny`},
		{"x\ty", `x\ty`},
		{"x\fy", `x\fy`},
		{"line1\n\"quoted\"", `line1\n\"quoted\"`},
		{`\"`, `\\\"`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Encode(tc.in), "Encode(%q)", tc.in)
	}
}

func TestEncodeLeavesOrdinaryTextAlone(t *testing.T) {
	for _, s := range []string{"", "hello", "こんにちは 世界", "a/b <c> & d", "tab-free, quote-free", "\x01\x7f"} {
		assert.Equal(t, s, Encode(s), "Encode(%q)", s)
	}
}

func TestDecodeReversesEscapes(t *testing.T) {
	assert.Equal(t, `a\b`, Decode(`a\\b`))
	assert.Equal(t, "line1\n\"quoted\"", Decode(`line1\n\"quoted\"`))
	assert.Equal(t, "\b\r\n\t\f", Decode(`\b\r\n\t\f`))
}

func TestDecodeDoesNotRescanEscapedBackslash(t *testing.T) {
	assert.Equal(t, `a\nb`, Decode(`a\\nb`))
	assert.Equal(t, `\t`, Decode(`\\t`))
}

func TestDecodeLeavesUnknownEscapes(t *testing.T) {
	assert.Equal(t, `caf\u00e9 a\/b \x`, Decode(`caf\u00e9 a\/b \x`))
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		`a\b`,
		`a\\b`,
		`\n is not a newline`,
		`trailing backslash \`,
		"\\\"\b\r\n\t\f",
		"mixed \"quotes\"\r\n\tand\\slashes\f\b",
		`"\"\\"`,
		"日本語\n改行",
	}
	for _, s := range inputs {
		assert.Equal(t, s, Decode(Encode(s)), "Decode(Encode(%q))", s)
	}
}

func TestTrimOuterQuotes(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`"hello"`, "hello"},
		{`"`, ""},
		{`""`, ""},
		{"", ""},
		{"no quotes", "no quotes"},
		{`"leading`, "leading"},
		{`trailing"`, "trailing"},
		{`""double""`, `"double"`},
		{`say "hi"`, `say "hi`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TrimOuterQuotes(tc.in), "TrimOuterQuotes(%q)", tc.in)
	}
}

func TestMarshalJSONKeepsHTMLAndDropsNewline(t *testing.T) {
	got, err := MarshalJSON("<b>&</b>")
	require.NoError(t, err)
	assert.Equal(t, `"<b>&</b>"`, string(got))

	got, err = MarshalJSON(struct {
		Message string `json:"message"`
		Model   string `json:"model"`
	}{"hello", "model-x"})
	require.NoError(t, err)
	assert.Equal(t, `{"message":"hello","model":"model-x"}`, string(got))
}

func TestMarshalJSONReportsUnsupportedValues(t *testing.T) {
	_, err := MarshalJSON(make(chan int))
	require.Error(t, err)
}
