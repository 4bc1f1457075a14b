package crawler

import "testing"

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "lowercases scheme and host",
			raw:  "HTTPS://Example.COM/Path",
			want: "https://example.com/Path",
		},
		{
			name: "strips fragment",
			raw:  "https://example.com/page#section",
			want: "https://example.com/page",
		},
		{
			name: "empty path becomes root",
			raw:  "https://example.com",
			want: "https://example.com/",
		},
		{
			name: "preserves query",
			raw:  "https://example.com/a?topic=go",
			want: "https://example.com/a?topic=go",
		},
		{
			name: "trims whitespace",
			raw:  "  https://example.com/a  ",
			want: "https://example.com/a",
		},
		{
			name:    "unparseable",
			raw:     "https://exa mple.com/%zz",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NormalizeURL(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeURL(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	t.Parallel()

	once, err := NormalizeURL("HTTPS://Example.com/Page#frag")
	if err != nil {
		t.Fatal(err)
	}
	twice, err := NormalizeURL(once)
	if err != nil {
		t.Fatal(err)
	}
	if once != twice {
		t.Errorf("NormalizeURL not idempotent: %q != %q", once, twice)
	}
}

func TestAdmissionAdmit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		allowed []string
		url     string
		want    bool
	}{
		{
			name: "plain page",
			url:  "https://example.com/articles/go",
			want: true,
		},
		{
			name: "http scheme",
			url:  "http://example.com/",
			want: true,
		},
		{
			name: "ftp scheme rejected",
			url:  "ftp://example.com/file",
			want: false,
		},
		{
			name: "image extension rejected",
			url:  "https://example.com/logo.png",
			want: false,
		},
		{
			name: "uppercase extension rejected",
			url:  "https://example.com/Report.PDF",
			want: false,
		},
		{
			name: "minified asset rejected",
			url:  "https://example.com/static/app.min.js",
			want: false,
		},
		{
			name: "search query rejected",
			url:  "https://example.com/find?q=golang",
			want: false,
		},
		{
			name: "pagination query rejected",
			url:  "https://example.com/list?page=2",
			want: false,
		},
		{
			name: "benign query admitted",
			url:  "https://example.com/doc?lang=en",
			want: true,
		},
		{
			name:    "allowlisted domain",
			allowed: []string{"example.com"},
			url:     "https://example.com/a",
			want:    true,
		},
		{
			name:    "subdomain of allowlisted domain",
			allowed: []string{"example.com"},
			url:     "https://docs.example.com/a",
			want:    true,
		},
		{
			name:    "other domain rejected by allowlist",
			allowed: []string{"example.com"},
			url:     "https://evil.com/a",
			want:    false,
		},
		{
			name:    "suffix lookalike rejected",
			allowed: []string{"example.com"},
			url:     "https://notexample.com/a",
			want:    false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := NewAdmission(tt.allowed)
			if got := a.Admit(tt.url); got != tt.want {
				t.Errorf("Admit(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}
