package content

import (
	"strings"
	"unicode/utf8"
)

// SectionLimit is the target upper bound for one citable chunk. Chunks stay
// small enough that a citation's excerpt can be verified by a human reader.
const SectionLimit = 1000

// SplitSections breaks text into section-sized chunks. Paragraph boundaries
// (blank lines) are preferred; a paragraph that still exceeds the limit is
// split at sentence boundaries, never mid-sentence. A single sentence longer
// than the limit is hard-wrapped at the limit.
func SplitSections(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var out []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			out = append(out, s)
		}
		current.Reset()
	}

	for _, para := range splitParagraphs(text) {
		if len(para) > SectionLimit {
			flush()
			out = append(out, splitLongParagraph(para)...)
			continue
		}
		// +2 for the paragraph separator we would re-insert
		if current.Len() > 0 && current.Len()+len(para)+2 > SectionLimit {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()
	return out
}

func splitParagraphs(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	var paras []string
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}

// splitLongParagraph packs sentences into chunks up to the limit. The split
// point is always the last sentence boundary before the limit.
func splitLongParagraph(para string) []string {
	sentences := splitSentences(para)
	var out []string
	var current strings.Builder

	for _, s := range sentences {
		if len(s) > SectionLimit {
			if current.Len() > 0 {
				out = append(out, strings.TrimSpace(current.String()))
				current.Reset()
			}
			out = append(out, hardWrap(s, SectionLimit)...)
			continue
		}
		if current.Len() > 0 && current.Len()+len(s)+1 > SectionLimit {
			out = append(out, strings.TrimSpace(current.String()))
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(s)
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		out = append(out, s)
	}
	return out
}

// splitSentences performs a conservative sentence split on '.', '!' and '?'
// followed by whitespace. Abbreviation handling is deliberately minimal; a
// wrong split only produces a slightly smaller chunk.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			// consume trailing closers like quotes or parens
			j := i + 1
			for j < len(runes) && (runes[j] == '"' || runes[j] == '\'' || runes[j] == ')') {
				j++
			}
			if j >= len(runes) || runes[j] == ' ' || runes[j] == '\n' || runes[j] == '\t' {
				s := strings.TrimSpace(string(runes[start:j]))
				if s != "" {
					sentences = append(sentences, s)
				}
				i = j
				start = j
			}
		}
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// hardWrap cuts on rune boundaries so multi-byte text never splits
// mid-character.
func hardWrap(s string, limit int) []string {
	var out []string
	for len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		out = append(out, s[:cut])
		s = s[cut:]
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}
