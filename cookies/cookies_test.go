package cookies

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func cookieBody(header string) string {
	var b strings.Builder
	b.WriteString(header + "\n")
	for i := 0; i < 10; i++ {
		b.WriteString(".youtube.com\tTRUE\t/\tTRUE\t0\tname\tvalue\n")
	}
	return b.String()
}

func TestValidFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		write   bool
		want    bool
	}{
		{
			name:  "Missing file",
			write: false,
			want:  false,
		},
		{
			name:    "Too small",
			content: "# Netscape HTTP Cookie File\n",
			write:   true,
			want:    false,
		},
		{
			name:    "Netscape header",
			content: cookieBody("# Netscape HTTP Cookie File"),
			write:   true,
			want:    true,
		},
		{
			name:    "HTTP cookie header",
			content: cookieBody("# HTTP Cookie File"),
			write:   true,
			want:    true,
		},
		{
			name:    "Wrong header",
			content: cookieBody("<html>not cookies</html>"),
			write:   true,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".txt")
			if tt.write {
				if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
					t.Fatal(err)
				}
			}
			if got := ValidFile(path); got != tt.want {
				t.Errorf("ValidFile() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInstall(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cookies.txt")
	provider := NewFileProvider(path, "yt-dlp", 0, nil, zerolog.Nop())

	if err := provider.Install([]byte("junk")); err == nil {
		t.Error("expected rejection of malformed upload")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("rejected upload should not be written")
	}

	if err := provider.Install([]byte(cookieBody("# Netscape HTTP Cookie File"))); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if got, ok := provider.Current(); !ok || got != path {
		t.Errorf("Current() = (%q, %v), want (%q, true)", got, ok, path)
	}
}

func TestCurrentAbsent(t *testing.T) {
	provider := NewFileProvider(filepath.Join(t.TempDir(), "none.txt"), "yt-dlp", 0, nil, zerolog.Nop())
	if _, ok := provider.Current(); ok {
		t.Error("Current() reported cookies for a missing file")
	}
}
