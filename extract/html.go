package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hubenschmidt/ragserve/core"
)

// HTMLExtractor strips markup, keeping element text. Script and style
// contents are dropped entirely.
type HTMLExtractor struct{}

func (e *HTMLExtractor) Formats() []string {
	return []string{"html", "htm"}
}

func (e *HTMLExtractor) Extract(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("invalid UTF-8: %w", core.ErrExtraction)
	}

	s := string(data)
	var b strings.Builder
	b.Grow(len(s))

	inTag := false
	skipDepth := 0 // inside <script> or <style>
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '<':
			inTag = true
			rest := strings.ToLower(s[i:])
			if strings.HasPrefix(rest, "<script") || strings.HasPrefix(rest, "<style") {
				skipDepth++
			} else if strings.HasPrefix(rest, "</script") || strings.HasPrefix(rest, "</style") {
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case s[i] == '>':
			if inTag {
				inTag = false
				b.WriteByte(' ')
			}
		case !inTag && skipDepth == 0:
			b.WriteByte(s[i])
		}
	}

	return decodeEntities(b.String()), nil
}

func decodeEntities(s string) string {
	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	return replacer.Replace(s)
}
