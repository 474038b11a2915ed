// Package parser extracts wikilink references and hashtags from note content.
package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#(\p{L}[\p{L}\p{N}_/-]*)`)
)

// Normalize trims surrounding whitespace and case-folds s. Titles and topic
// slugs are compared in this form.
func Normalize(s string) string {
	// A Caser is stateful, so each call gets its own.
	return cases.Fold().String(strings.TrimSpace(s))
}

// ExtractReferenceLabels returns the distinct [[Label]] targets of text in
// first-occurrence order. [[Target|alias]] yields Target.
func ExtractReferenceLabels(text string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target := labelOf(m[1])
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// ExtractHashtagLabels returns the distinct #label tokens of text in
// first-occurrence order. A hashtag starts at line start or after
// whitespace, so Markdown headings are not hashtags.
func ExtractHashtagLabels(text string) []string {
	matches := tagRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		t := strings.TrimRight(m[1], "-/")
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// FindReference returns the byte span of the first reference token in
// content that resolves to title, or ok=false.
func FindReference(content, title string) (start, end int, ok bool) {
	want := Normalize(title)
	if want == "" {
		return 0, 0, false
	}
	for _, loc := range wikilinkRe.FindAllStringSubmatchIndex(content, -1) {
		if Normalize(labelOf(content[loc[2]:loc[3]])) == want {
			return loc[0], loc[1], true
		}
	}
	return 0, 0, false
}

// Snippet returns content[start:end] widened by radius runes on each side,
// with "..." marking truncation and line breaks flattened to spaces.
func Snippet(content string, start, end, radius int) string {
	from := start
	for i := 0; i < radius && from > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(content[:from])
		from -= size
	}
	to := end
	for i := 0; i < radius && to < len(content); i++ {
		_, size := utf8.DecodeRuneInString(content[to:])
		to += size
	}

	var b strings.Builder
	if from > 0 {
		b.WriteString("...")
	}
	b.WriteString(flatten(content[from:to]))
	if to < len(content) {
		b.WriteString("...")
	}
	return b.String()
}

// Preview returns the first limit runes of content, flattened.
func Preview(content string, limit int) string {
	if utf8.RuneCountInString(content) <= limit {
		return flatten(content)
	}
	r := []rune(content)
	return flatten(string(r[:limit])) + "..."
}

func labelOf(raw string) string {
	if i := strings.Index(raw, "|"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}

func flatten(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return ' '
		}
		if !unicode.IsPrint(r) && r != ' ' {
			return -1
		}
		return r
	}, s)
}
