package reply

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripGmailQuote(t *testing.T) {
	in := "Hello\n\nOn Mon, Jan 1, 2024 at 3:00 PM John <j@x.com> wrote:\n> old text"
	assert.Equal(t, "Hello", Strip(in))
}

func TestStripSignatureDelimiter(t *testing.T) {
	in := "Thanks for the proof!\n\n--\nJane Doe\nPTA Treasurer"
	assert.Equal(t, "Thanks for the proof!", Strip(in))
}

func TestStripNoMarkers(t *testing.T) {
	in := "  Just a plain reply.\n\nSecond paragraph.\n"
	assert.Equal(t, "Just a plain reply.\n\nSecond paragraph.", Strip(in))
}

func TestStripKeepsInternalBlanks(t *testing.T) {
	in := "line one\n\nline two\n> quoted"
	assert.Equal(t, "line one\n\nline two", Strip(in))
}

func TestStripIdempotent(t *testing.T) {
	inputs := []string{
		"Hello\n\nOn Mon, Jan 1, 2024 at 3:00 PM John <j@x.com> wrote:\n> old",
		"Thanks!\n--\nsig",
		"no markers here at all",
		"Sounds good.\n\nSent from my iPhone",
		"ok\n__________\nFrom: Someone",
		"  > earlier quoted text",
		"hello\n  > indented quote",
		"keep\n--  \n> quoted",
	}
	for _, in := range inputs {
		once := Strip(in)
		assert.Equal(t, once, Strip(once), "input %q", in)
	}
}

func TestStripTriggers(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"wrapped on-wrote", "Yes please\nOn Tue, Mar 5, 2024 at 9:12 AM\nCoach Smith\nwrote:\n> earlier", "Yes please"},
		{"on line with address", "Sure\nOn 3/5/24 Pat Smith <pat@x.com>\nsaid something", "Sure"},
		{"on without followup kept", "On balance I prefer navy blue.\nSecond line.", "On balance I prefer navy blue.\nSecond line."},
		{"quote marker", "keep\n> quoted", "keep"},
		{"from header", "keep\nFrom: Pat <pat@x.com>", "keep"},
		{"outlook underscores", "keep\n____________", "keep"},
		{"original message", "keep\n-----Original Message-----", "keep"},
		{"horizontal rule", "keep\n===", "keep"},
		{"sent from android", "keep\nSent from Android", "keep"},
		{"get outlook", "keep\nGet Outlook for iOS", "keep"},
		{"everything stripped", "> all quoted\n> nothing new", ""},
		{"indented quote only", "  > all quoted", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Strip(tc.in))
		})
	}
}

func TestExtractPrefersPlainText(t *testing.T) {
	got := Extract("plain body\n> old", "<p>html body</p>")
	assert.Equal(t, "plain body", got)
}

func TestExtractFlattensHTML(t *testing.T) {
	got := Extract("", "<div>Looks great!</div><div class=\"gmail_quote\">On Mon someone wrote:<blockquote>old</blockquote></div>")
	assert.Equal(t, "Looks great!", got)
}

func TestFlattenHTML(t *testing.T) {
	in := "<p>Hi &amp; thanks</p><blockquote>old stuff</blockquote><div>more&nbsp;text</div>"
	got := FlattenHTML(in)
	assert.Equal(t, "Hi & thanks\nmore text\n", got)
}

func TestFlattenHTMLEntities(t *testing.T) {
	got := FlattenHTML("1 &lt; 2 &gt; 0 &quot;quoted&quot; it&#39;s")
	assert.Equal(t, `1 < 2 > 0 "quoted" it's`, got)
}
