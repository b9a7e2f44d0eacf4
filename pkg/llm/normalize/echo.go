package normalize

import (
	"strings"
	"unicode/utf8"

	"github.com/papercomputeco/advisor/pkg/llm/provider"
)

// minEchoPrefix is how many leading bytes a reply must share with the prompt
// before it is treated as a partial echo. Prompts shorter than this must be
// matched in full.
const minEchoPrefix = 16

// StripEcho removes an echoed prompt from the front of text using a
// longest-prefix match:
//
//  1. If text starts with the prompt, the prompt minus its BOS token, or
//     the prompt with all template tokens dropped (decoders skip special
//     tokens when they echo), the longest such prefix is removed.
//  2. Otherwise, if text shares at least minEchoPrefix leading bytes with the
//     prompt, everything up to the end of the last template echo marker is
//     removed, or up to the end of the shared prefix when no marker occurs.
//  3. Otherwise text is returned unchanged.
func StripEcho(text, prompt string, tmpl provider.Template) string {
	if prompt == "" || text == "" {
		return text
	}

	candidates := []string{prompt}
	if tmpl.BOS != "" && strings.HasPrefix(prompt, tmpl.BOS) {
		candidates = append(candidates, strings.TrimPrefix(prompt, tmpl.BOS))
	}
	if bare := stripTokens(prompt, tmpl); bare != prompt {
		candidates = append(candidates, bare)
	}

	full := 0
	for _, c := range candidates {
		if c != "" && len(c) > full && strings.HasPrefix(text, c) {
			full = len(c)
		}
	}
	if full > 0 {
		return text[full:]
	}

	shared := 0
	threshold := len(prompt)
	for _, c := range candidates {
		if n := commonPrefixLen(text, c); n > shared {
			shared = n
		}
		threshold = min(threshold, len(c))
	}
	threshold = min(threshold, minEchoPrefix)
	if shared == 0 || shared < threshold {
		return text
	}

	cut := shared
	if marker := strings.TrimSpace(tmpl.EchoMarker); marker != "" {
		if idx := strings.LastIndex(text, marker); idx >= 0 && idx+len(marker) > cut {
			cut = idx + len(marker)
		}
	}

	return text[cut:]
}

// stripTokens removes every template token from prompt.
func stripTokens(prompt string, tmpl provider.Template) string {
	tokens := tmpl.Tokens()
	if len(tokens) == 0 {
		return prompt
	}
	pairs := make([]string, 0, 2*len(tokens))
	for _, tok := range tokens {
		pairs = append(pairs, tok, "")
	}
	return strings.NewReplacer(pairs...).Replace(prompt)
}

// commonPrefixLen returns the length of the longest common prefix of a and
// b, backed off to a rune boundary of a.
func commonPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	for i > 0 && i < len(a) && !utf8.RuneStart(a[i]) {
		i--
	}
	return i
}
