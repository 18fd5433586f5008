// Package naming derives on-disk media filenames and display titles from
// user-supplied titles.
package naming

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// Ext is the only media extension the catalog tracks.
	Ext = ".mp4"
	// MaxBaseLen bounds a base name, in runes.
	MaxBaseLen = 50
)

// Normalize maps a title to a filesystem-safe base name and a display title.
//
// The base name is the trimmed title lower-cased, stripped of everything but
// lower-case letters (ASCII and U+00C0..U+1EF9), ASCII digits, whitespace and hyphens,
// with whitespace runs replaced by a single hyphen and cut to MaxBaseLen runes.
// The cut can land mid-word. An input with no allowed characters yields "".
func Normalize(title string) (baseName, displayTitle string) {
	trimmed := strings.TrimSpace(title)
	return BaseName(trimmed), Capitalize(trimmed)
}

// BaseName returns the base-name half of Normalize.
func BaseName(title string) string {
	// Lower-case first: some runes expand into a letter plus a combining mark,
	// and the mark has to go through the filter too.
	lowered := cases.Lower(language.Und).String(strings.TrimSpace(title))

	out := make([]rune, 0, len(lowered))
	inSpace := false
	for _, r := range lowered {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if !allowed(r) {
			continue
		}
		if inSpace {
			out = append(out, '-')
			inSpace = false
		}
		out = append(out, r)
	}
	if inSpace {
		out = append(out, '-')
	}

	if len(out) > MaxBaseLen {
		out = out[:MaxBaseLen]
	}
	return string(out)
}

func allowed(r rune) bool {
	switch {
	case r == '-':
		return true
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r >= 0x00C0 && r <= 0x1EF9:
		// Runes with no lower-case form stay upper-case after lowering.
		return unicode.IsLetter(r) && !unicode.IsUpper(r) && !unicode.IsTitle(r)
	}
	return false
}

// Capitalize upper-cases the first rune of s and leaves the rest untouched.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return cases.Upper(language.Und).String(string(r)) + s[size:]
}

// Filename returns the on-disk name for a base name.
func Filename(baseName string) string {
	return baseName + Ext
}

// IsMediaFile reports whether name carries the tracked extension.
func IsMediaFile(name string) bool {
	return strings.HasSuffix(name, Ext)
}

// TitleFromFilename derives a display title for a file found on disk:
// "my-video.mp4" becomes "My video".
func TitleFromFilename(filename string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); strings.EqualFold(ext, Ext) {
		base = strings.TrimSuffix(base, ext)
	}
	return Capitalize(strings.ReplaceAll(base, "-", " "))
}
