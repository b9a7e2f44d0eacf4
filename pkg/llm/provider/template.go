package provider

import (
	"sort"
	"strings"
)

// Affix wraps the content of one turn.
type Affix struct {
	Prefix string `json:"prefix,omitempty"`
	Suffix string `json:"suffix,omitempty"`
}

// Wrap returns content surrounded by the affix.
func (a Affix) Wrap(content string) string {
	return a.Prefix + content + a.Suffix
}

// Template describes how turns are rendered into a single prompt string.
type Template struct {
	Name string `json:"name"`

	// BOS is emitted once at the start of the prompt.
	BOS string `json:"bos,omitempty"`

	System    Affix `json:"system"`
	User      Affix `json:"user"`
	Assistant Affix `json:"assistant"`

	// Separator is placed between rendered turns.
	Separator string `json:"separator,omitempty"`

	// Cue is appended after the new user turn to ask for a reply.
	Cue string `json:"cue,omitempty"`

	// EchoMarker marks the start of the reply when a provider echoes the
	// prompt back.
	EchoMarker string `json:"echo_marker,omitempty"`
}

// Tokens returns the distinct template markup (BOS, affixes and cue) with
// surrounding whitespace trimmed, longest first.
func (t Template) Tokens() []string {
	seen := map[string]bool{}
	var out []string
	for _, tok := range []string{
		t.BOS, t.Cue,
		t.System.Prefix, t.System.Suffix,
		t.User.Prefix, t.User.Suffix,
		t.Assistant.Prefix, t.Assistant.Suffix,
	} {
		tok = strings.TrimSpace(tok)
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}

// PlainTemplate renders "System: ..." / "User: ..." / "Assistant: ..." lines.
var PlainTemplate = Template{
	Name:       "plain",
	System:     Affix{Prefix: "System: "},
	User:       Affix{Prefix: "User: "},
	Assistant:  Affix{Prefix: "Assistant: "},
	Separator:  "\n",
	Cue:        "Assistant:",
	EchoMarker: "Assistant:",
}

// ZephyrTemplate uses the <|role|> ... </s> delimiter tokens.
var ZephyrTemplate = Template{
	Name:       "zephyr",
	System:     Affix{Prefix: "<|system|>\n", Suffix: "</s>"},
	User:       Affix{Prefix: "<|user|>\n", Suffix: "</s>"},
	Assistant:  Affix{Prefix: "<|assistant|>\n", Suffix: "</s>"},
	Separator:  "\n",
	Cue:        "<|assistant|>\n",
	EchoMarker: "<|assistant|>",
}

// InstTemplate is the Mistral/Llama [INST] block format.
var InstTemplate = Template{
	Name:       "inst",
	BOS:        "<s>",
	System:     Affix{Prefix: "[INST] <<SYS>>\n", Suffix: "\n<</SYS>> [/INST]"},
	User:       Affix{Prefix: "[INST] ", Suffix: " [/INST]"},
	Assistant:  Affix{Prefix: " ", Suffix: "</s>"},
	EchoMarker: "[/INST]",
}

// EOSTemplate joins bare turns with an end-of-sequence token, the way
// DialoGPT-style models expect.
var EOSTemplate = Template{
	Name:       "eos",
	System:     Affix{Suffix: "<|endoftext|>"},
	User:       Affix{Suffix: "<|endoftext|>"},
	Assistant:  Affix{Suffix: "<|endoftext|>"},
	EchoMarker: "<|endoftext|>",
}
