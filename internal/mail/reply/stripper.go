// Package reply reduces an email reply to its newly-authored content by
// cutting quoted history and signatures. The detection is heuristic: the goal
// is usually-correct, not provably-correct.
package reply

import (
	"regexp"
	"strings"
)

var (
	// Client-specific wrappers that mark the start of quoted history in HTML
	// bodies. Everything from the first match onward is dropped.
	htmlQuoteMarker = regexp.MustCompile(`(?is)<(?:div|blockquote|table)[^>]*\b(?:class|id)\s*=\s*["'][^"']*(?:gmail_quote|yahoo_quoted|moz-cite-prefix|divRplyFwdMsg|OLK_SRC_BODY_SECTION)[^"']*["']`)
	blockquoteSpan  = regexp.MustCompile(`(?is)<blockquote[^>]*>.*?</blockquote>`)
	lineBreakTag    = regexp.MustCompile(`(?i)<br\s*/?>|</p>|</div>|</tr>`)
	anyTag          = regexp.MustCompile(`<[^>]*>`)

	onWroteLine   = regexp.MustCompile(`(?i)^on\b.*wrote:$`)
	onDateStart   = regexp.MustCompile(`(?i)^on (mon|tue|wed|thu|fri|sat|sun|jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec|\d)`)
	wroteEnd      = regexp.MustCompile(`(?i)wrote:\s*$`)
	fromHeader    = regexp.MustCompile(`^From:\s*.+$`)
	outlookRule   = regexp.MustCompile(`^\s*(?:_{10,}|-{10,})\s*$`)
	origMessage   = regexp.MustCompile(`(?i)-+\s*original message\s*-+`)
	horizontalBar = regexp.MustCompile(`^\s*[-_=]{3,}\s*$`)
	sentFrom      = regexp.MustCompile(`(?i)^sent from (my )?(iphone|ipad|android|galaxy|samsung|mobile|outlook)`)
	getOutlook    = regexp.MustCompile(`(?i)^get outlook for (ios|android)`)
)

var htmlEntities = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// Extract picks the best body source and strips it. Plain text wins when
// present; otherwise the HTML body is flattened to text first.
func Extract(text, html string) string {
	if strings.TrimSpace(text) != "" {
		return Strip(text)
	}
	if strings.TrimSpace(html) == "" {
		return ""
	}
	return Strip(FlattenHTML(html))
}

// FlattenHTML converts an HTML body to plain text, discarding quoted
// sub-trees before tags are removed.
func FlattenHTML(html string) string {
	if loc := htmlQuoteMarker.FindStringIndex(html); loc != nil {
		html = html[:loc[0]]
	}
	html = blockquoteSpan.ReplaceAllString(html, "")
	html = lineBreakTag.ReplaceAllString(html, "\n")
	html = anyTag.ReplaceAllString(html, "")
	return htmlEntities.Replace(html)
}

// Strip walks the text line by line and truncates at the first line that
// looks like the start of quoted history or a signature. Lines before the
// first trigger are kept verbatim, internal blanks included; only trailing
// blanks are dropped before the final trim. Runs to a fixpoint: the final
// trim can expose a trigger (an indented "> quoted" line loses its
// indentation), and the exposed trigger must be cut too so that stripping
// already-stripped text changes nothing.
func Strip(text string) string {
	for {
		stripped := stripOnce(text)
		if stripped == text {
			return stripped
		}
		text = stripped
	}
}

func stripOnce(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines
	for i, line := range lines {
		if isTrigger(line, lines[i+1:]) {
			kept = lines[:i]
			break
		}
	}
	for len(kept) > 0 && strings.TrimSpace(kept[len(kept)-1]) == "" {
		kept = kept[:len(kept)-1]
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isTrigger(line string, rest []string) bool {
	trimmed := strings.TrimRight(line, "\r")
	switch trimmed {
	case "--", "-- ", "---":
		return true
	}
	if onWroteLine.MatchString(trimmed) {
		return true
	}
	if onDateStart.MatchString(trimmed) {
		if strings.Contains(trimmed, "<") && strings.Contains(trimmed, "@") {
			return true
		}
		// "On <date> ... wrote:" wrapped by the sending client; look a few
		// lines ahead for the closing marker.
		for i := 0; i < len(rest) && i < 3; i++ {
			if wroteEnd.MatchString(strings.TrimRight(rest[i], "\r")) {
				return true
			}
		}
	}
	if strings.HasPrefix(trimmed, ">") {
		return true
	}
	if fromHeader.MatchString(trimmed) {
		return true
	}
	if outlookRule.MatchString(trimmed) {
		return true
	}
	if origMessage.MatchString(trimmed) {
		return true
	}
	if horizontalBar.MatchString(trimmed) {
		return true
	}
	if sentFrom.MatchString(trimmed) {
		return true
	}
	return getOutlook.MatchString(trimmed)
}
