package token

import "testing"

func newTestTokenizer(t *testing.T) *Tokenizer {
	t.Helper()
	tok, err := NewTokenizer()
	if err != nil {
		t.Skipf("cl100k_base encoding unavailable: %v", err)
	}
	return tok
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tok := newTestTokenizer(t)

	inputs := []string{
		"hello world",
		"The quick brown fox jumps over the lazy dog.",
		"line one\nline two\n\nparagraph",
		"",
	}
	for _, in := range inputs {
		if got := tok.Decode(tok.Encode(in)); got != in {
			t.Errorf("round trip mismatch: %q -> %q", in, got)
		}
	}
}

func TestCountMatchesEncode(t *testing.T) {
	tok := newTestTokenizer(t)

	s := "counting tokens should agree with encoding length"
	if tok.Count(s) != len(tok.Encode(s)) {
		t.Errorf("Count(%q) = %d, len(Encode) = %d", s, tok.Count(s), len(tok.Encode(s)))
	}
}

func TestTruncate(t *testing.T) {
	tok := newTestTokenizer(t)

	s := "one two three four five six seven eight nine ten"
	short := tok.Truncate(s, 3)
	if tok.Count(short) > 3 {
		t.Errorf("truncated text has %d tokens, want <= 3", tok.Count(short))
	}
	if got := tok.Truncate(s, 1000); got != s {
		t.Errorf("truncate above length changed text: %q", got)
	}
}
