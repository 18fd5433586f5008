package naming

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		wantBase  string
		wantTitle string
	}{
		{"simple", "My Video", "my-video", "My Video"},
		{"trims", "   hello world  ", "hello-world", "Hello world"},
		{"lowercase first letter", "x", "x", "X"},
		{"whitespace runs", "a \t\n b", "a-b", "A \t\n b"},
		{"drops punctuation", "Hello, World!", "hello-world", "Hello, World!"},
		{"punctuation between spaces", "a ! b", "a-b", "A ! b"},
		{"leading punctuation keeps hyphen", "!! start", "-start", "!! start"},
		{"trailing punctuation keeps hyphen", "end !!", "end-", "End !!"},
		{"keeps hyphens", "pre-release cut", "pre-release-cut", "Pre-release cut"},
		{"accented letters", "Đêm Hà Nội", "đêm-hà-nội", "Đêm Hà Nội"},
		{"digits", "Episode 42", "episode-42", "Episode 42"},
		{"only punctuation", "?!.,;", "", "?!.,;"},
		{"empty", "", "", ""},
		{"drops symbols in accent range", "a × b", "a-b", "A × b"},
		{"drops letters with no lower case", "ϒ ϓ ϔ a", "-a", "ϒ ϓ ϔ a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, title := Normalize(tt.title)
			if base != tt.wantBase {
				t.Errorf("Normalize(%q) base = %q, want %q", tt.title, base, tt.wantBase)
			}
			if title != tt.wantTitle {
				t.Errorf("Normalize(%q) title = %q, want %q", tt.title, title, tt.wantTitle)
			}
		})
	}
}

func TestNormalize_Truncates(t *testing.T) {
	title := strings.Repeat("abcde ", 20)
	base, _ := Normalize(title)

	if n := utf8.RuneCountInString(base); n != MaxBaseLen {
		t.Fatalf("Expected %d runes, got %d (%q)", MaxBaseLen, n, base)
	}
	if !strings.HasPrefix(base, "abcde-abcde-") {
		t.Errorf("Unexpected prefix: %q", base)
	}

	accented := strings.Repeat("é", 80)
	base, _ = Normalize(accented)
	if n := utf8.RuneCountInString(base); n != MaxBaseLen {
		t.Errorf("Expected %d runes for accented title, got %d", MaxBaseLen, n)
	}
}

func TestNormalize_Charset(t *testing.T) {
	titles := []string{
		"Hello World",
		"  ÀÉÎÕÜ ñ ç  ",
		"Tiếng Việt có dấu",
		"C'est la vie! (2024) [HD] {x}",
		"İstanbul",
		"snake_case and CamelCase",
		"emoji 🎬 title",
		strings.Repeat("long title ", 30),
	}

	for _, title := range titles {
		base, _ := Normalize(title)
		if utf8.RuneCountInString(base) > MaxBaseLen {
			t.Errorf("Normalize(%q) too long: %q", title, base)
		}
		for _, r := range base {
			ok := r == '-' ||
				(r >= '0' && r <= '9') ||
				(r >= 'a' && r <= 'z') ||
				(r >= 0x00C0 && r <= 0x1EF9)
			if !ok {
				t.Errorf("Normalize(%q) = %q contains %q", title, base, r)
			}
			if strings.ToLower(string(r)) != string(r) {
				t.Errorf("Normalize(%q) = %q contains upper-case %q", title, base, r)
			}
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	titles := []string{
		"My Video",
		"!! start",
		"end !!",
		"İstanbul by night",
		"Ärger im Büro",
		strings.Repeat("xyz ", 40),
		"",
	}

	for _, title := range titles {
		base, _ := Normalize(title)
		again, display := Normalize(base)
		if again != base {
			t.Errorf("Normalize(%q) not idempotent: %q -> %q", title, base, again)
		}
		if display != Capitalize(base) {
			t.Errorf("Normalize(%q) display = %q, want %q", base, display, Capitalize(base))
		}
	}
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"my-video.mp4", "My video"},
		{"a.mp4", "A"},
		{"UPPER.MP4", "UPPER"},
		{"no-ext", "No ext"},
		{"ép-cọc.mp4", "Ép cọc"},
		{".mp4", ""},
	}

	for _, tt := range tests {
		if got := TitleFromFilename(tt.filename); got != tt.want {
			t.Errorf("TitleFromFilename(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestIsMediaFile(t *testing.T) {
	if !IsMediaFile("clip.mp4") {
		t.Error("clip.mp4 should be a media file")
	}
	for _, name := range []string{"clip.mkv", "clip.MP4", "clip.mp4.part", "notes.txt"} {
		if IsMediaFile(name) {
			t.Errorf("%s should not be a media file", name)
		}
	}
}
