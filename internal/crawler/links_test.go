package crawler

import (
	"net/url"
	"reflect"
	"testing"
)

func TestDiscoverLinks(t *testing.T) {
	t.Parallel()

	base, err := url.Parse("https://example.com/articles/intro")
	if err != nil {
		t.Fatal(err)
	}

	body := []byte(`<html><body>
		<a href="/about">About</a>
		<a href="next">Next</a>
		<a href="https://other.example.org/page">External</a>
		<a href="#top">Top</a>
		<a href="">Empty</a>
		<a href="javascript:void(0)">JS</a>
		<a href="mailto:team@example.com">Mail</a>
		<a href="tel:+1555">Call</a>
		<a>No href</a>
	</body></html>`)

	got := discoverLinks(base, body)
	want := []string{
		"https://example.com/about",
		"https://example.com/articles/next",
		"https://other.example.org/page",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("discoverLinks() = %v, want %v", got, want)
	}
}

func TestDiscoverLinksNestedAnchors(t *testing.T) {
	t.Parallel()

	base, _ := url.Parse("https://example.com/")
	body := []byte(`<html><body><nav><ul><li><a href="/a">A</a></li><li><a href="/b">B</a></li></ul></nav></body></html>`)

	got := discoverLinks(base, body)
	want := []string{"https://example.com/a", "https://example.com/b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("discoverLinks() = %v, want %v", got, want)
	}
}

func TestDiscoverLinksMalformedHTML(t *testing.T) {
	t.Parallel()

	// The parser is tolerant; an unclosed tag still yields its links.
	base, _ := url.Parse("https://example.com/")
	body := []byte(`<html><body><a href="/a">unclosed`)

	got := discoverLinks(base, body)
	want := []string{"https://example.com/a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("discoverLinks() = %v, want %v", got, want)
	}
}

func TestResolveLink(t *testing.T) {
	t.Parallel()

	base, _ := url.Parse("https://example.com/dir/page")

	tests := []struct {
		href string
		want string
	}{
		{"/absolute", "https://example.com/absolute"},
		{"relative", "https://example.com/dir/relative"},
		{"../up", "https://example.com/up"},
		{"https://other.com/x", "https://other.com/x"},
		{"//cdn.example.com/x", "https://cdn.example.com/x"},
		{"  /trimmed  ", "https://example.com/trimmed"},
		{"", ""},
		{"#", ""},
		{"javascript:alert(1)", ""},
		{"mailto:x@y.z", ""},
		{"tel:123", ""},
		{"data:text/plain,hi", ""},
	}

	for _, tt := range tests {
		if got := resolveLink(base, tt.href); got != tt.want {
			t.Errorf("resolveLink(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}
