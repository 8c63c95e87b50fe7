package classify

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/magclip/internal/clip"
	"go.klb.dev/magclip/internal/item"
)

func fakeStat(existing ...string) func(string) bool {
	set := make(map[string]bool, len(existing))
	for _, p := range existing {
		set[p] = true
	}
	return func(p string) bool { return set[p] }
}

func TestTextRules(t *testing.T) {
	c := &Classifier{Stat: fakeStat(`C:\Users\me\notes.txt`, "/etc/hosts"), POSIX: true}

	tests := []struct {
		name    string
		in      string
		kind    item.Kind
		payload string
		aux     string
	}{
		{"hex color", "#1a2b3c", item.KindColor, "#1a2b3c", "rgb(26, 43, 60)"},
		{"short hex", "#fff", item.KindColor, "#fff", "rgb(255, 255, 255)"},
		{"hex with alpha", "#FF000080", item.KindColor, "#FF000080", "rgb(255, 0, 0)"},
		{"rgb", "rgb(1, 2, 3)", item.KindColor, "rgb(1, 2, 3)", "rgb(1, 2, 3)"},
		{"rgba", "rgba(10,20,30,0.5)", item.KindColor, "rgba(10,20,30,0.5)", "rgb(10, 20, 30)"},
		{"hsl", "hsl(120, 100%, 50%)", item.KindColor, "hsl(120, 100%, 50%)", "rgb(0, 255, 0)"},
		{"url with tracking", "https://example.com/x?utm_source=foo&id=5", item.KindURL, "https://example.com/x?id=5", "https://example.com/x?utm_source=foo&id=5"},
		{"clean url", "http://example.com/a?b=1", item.KindURL, "http://example.com/a?b=1", ""},
		{"url case-insensitive scheme", "HTTPS://EXAMPLE.COM", item.KindURL, "HTTPS://EXAMPLE.COM", ""},
		{"existing windows path", `C:\Users\me\notes.txt`, item.KindFile, `C:\Users\me\notes.txt`, ""},
		{"missing windows path", `C:\nope\gone.txt`, item.KindText, `C:\nope\gone.txt`, ""},
		{"existing posix path", "/etc/hosts", item.KindFile, "/etc/hosts", ""},
		{"missing posix path", "/no/such/file", item.KindText, "/no/such/file", ""},
		{"trimmed", "  hello world \n", item.KindText, "hello world", ""},
		{"not a color", "#12345", item.KindText, "#12345", ""},
		{"url with spaces is text", "https://example.com/a b", item.KindText, "https://example.com/a b", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it, ok := c.Text(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.kind, it.Kind)
			assert.Equal(t, tt.payload, it.Payload)
			assert.Equal(t, tt.aux, it.Aux)
			require.NoError(t, it.Validate())
		})
	}
}

func TestTextEmpty(t *testing.T) {
	_, ok := New().Text("  \t\n")
	assert.False(t, ok)
}

func TestPOSIXPathsIgnoredWhenDisabled(t *testing.T) {
	c := &Classifier{Stat: fakeStat("/etc/hosts")}
	it, ok := c.Text("/etc/hosts")
	require.True(t, ok)
	assert.Equal(t, item.KindText, it.Kind)
}

func TestCleanURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://a.com/?utm_source=x", "https://a.com/"},
		{"https://a.com/p?a=1&UTM_Medium=x&b=2&fbclid=z", "https://a.com/p?a=1&b=2"},
		{"https://a.com/p?gclid=1&ref=hn", "https://a.com/p"},
		{"https://a.com/p?utm_id=7&x=1&utm_name=spring", "https://a.com/p?x=1"},
		{"https://a.com/p?utmost=1", "https://a.com/p?utmost=1"},
		{"https://a.com/p#frag", "https://a.com/p#frag"},
		{"https://a.com/p?q=1#frag", "https://a.com/p?q=1#frag"},
		{"http://[::1", "http://[::1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanURL(tt.in), tt.in)
	}
}

func TestParseColorRejectsOutOfRange(t *testing.T) {
	_, ok := ParseColor("rgb(256, 0, 0)")
	assert.False(t, ok)
	_, ok = ParseColor("hsl(400, 10%, 10%)")
	assert.False(t, ok)
	_, ok = ParseColor("blue")
	assert.False(t, ok)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestClassifyPriority(t *testing.T) {
	c := &Classifier{Stat: fakeStat()}

	t.Run("image beats text and files", func(t *testing.T) {
		items := c.Classify(clip.Content{Text: "alt text", Files: []string{"/a"}, Image: pngBytes(t, 4, 3)})
		require.Len(t, items, 1)
		assert.Equal(t, item.KindImage, items[0].Kind)
		assert.Equal(t, "4x3", items[0].Aux)
	})

	t.Run("one item per file", func(t *testing.T) {
		items := c.Classify(clip.Content{Text: "a\nb", Files: []string{"/a", "/b", " "}})
		require.Len(t, items, 2)
		assert.Equal(t, "/a", items[0].Payload)
		assert.Equal(t, "/b", items[1].Payload)
		assert.Equal(t, item.KindFile, items[1].Kind)
	})

	t.Run("text fallback", func(t *testing.T) {
		items := c.Classify(clip.Content{Text: "#abc"})
		require.Len(t, items, 1)
		assert.Equal(t, item.KindColor, items[0].Kind)
	})

	t.Run("nothing usable", func(t *testing.T) {
		assert.Empty(t, c.Classify(clip.Content{Text: "   "}))
		assert.Empty(t, c.Classify(clip.Content{}))
	})
}
