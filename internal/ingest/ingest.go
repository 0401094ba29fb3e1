package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"stocksmith/internal/queue"
	"stocksmith/internal/services"
)

// ReadLines reads a newline-delimited UTF-8 file and returns its non-blank
// lines in order. Lines are trimmed of surrounding whitespace, so CRLF input
// works the same as LF input.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return nil, services.Wrap(services.ErrValidation, "ingest", "read", fmt.Sprintf("%s is not valid UTF-8 text", filepath.Base(path)), nil)
	}

	var lines []string
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// LoadPair reads the filenames and prompts files and pairs them line by line
// into work item seeds. Both files must contain the same non-zero number of
// usable lines; otherwise no seeds are returned.
func LoadPair(filenamesPath, promptsPath string) ([]queue.Seed, error) {
	filenames, err := ReadLines(filenamesPath)
	if err != nil {
		return nil, err
	}
	prompts, err := ReadLines(promptsPath)
	if err != nil {
		return nil, err
	}

	if len(filenames) == 0 {
		return nil, services.Wrap(services.ErrValidation, "ingest", "pair", fmt.Sprintf("%s contains no usable lines", filepath.Base(filenamesPath)), nil)
	}
	if len(prompts) == 0 {
		return nil, services.Wrap(services.ErrValidation, "ingest", "pair", fmt.Sprintf("%s contains no usable lines", filepath.Base(promptsPath)), nil)
	}
	if len(filenames) != len(prompts) {
		return nil, services.Wrap(services.ErrValidation, "ingest", "pair",
			fmt.Sprintf("filename count (%d) does not match prompt count (%d)", len(filenames), len(prompts)), nil)
	}

	seeds := make([]queue.Seed, len(filenames))
	for i := range filenames {
		seeds[i] = queue.Seed{Filename: filenames[i], Description: prompts[i]}
	}
	return seeds, nil
}

// DisplayLabel turns a filename into a human-readable label for log lines:
// the extension is dropped, separators become spaces, and each word is
// title-cased.
func DisplayLabel(filename string) string {
	if filename == "" {
		return ""
	}
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	label := strings.TrimSpace(cleaned.String())
	if label == "" {
		return filename
	}
	return cases.Title(language.Und).String(label)
}
