package catalog

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrInvalidFormat marks a section file that cannot be decoded into entries.
var ErrInvalidFormat = errors.New("invalid section format")

// FileFormat represents the supported section file formats
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	// FormatJSON is a JSON array of cards and lines.
	FormatJSON
	// FormatText holds one line entry per non-empty line.
	FormatText
)

// FormatInfo contains metadata about a section file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extension   string
	MinSize     int64
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatJSON: {
		Format:      FormatJSON,
		Description: "JSON section",
		Extension:   ".json",
		MinSize:     2, // []
	},
	FormatText: {
		Format:      FormatText,
		Description: "Plain text section",
		Extension:   ".txt",
		MinSize:     1,
	},
}

// DetectFormat returns the format implied by the file extension.
func DetectFormat(filename string) FileFormat {
	ext := strings.ToLower(filepath.Ext(filename))
	for format, info := range supportedFormats {
		if info.Extension == ext {
			return format
		}
	}
	return FormatUnknown
}

// ValidateFile checks size and leading bytes of a section file. Failures wrap
// ErrInvalidFormat; stat errors are returned as is.
func ValidateFile(filename string) error {
	format := DetectFormat(filename)
	info, ok := supportedFormats[format]
	if !ok {
		return fmt.Errorf("%w: %s has unsupported extension %q", ErrInvalidFormat, filename, filepath.Ext(filename))
	}

	stat, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}
	if stat.Size() < info.MinSize {
		return fmt.Errorf("%w: %s is too small (%d bytes) for %s (minimum: %d bytes)",
			ErrInvalidFormat, filename, stat.Size(), info.Description, info.MinSize)
	}

	if format == FormatJSON {
		return validateJSONFormat(filename)
	}
	return nil
}

// validateJSONFormat checks that the first non-space byte opens an array.
func validateJSONFormat(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	head, _ := reader.Peek(512)
	head = bytes.TrimLeft(head, " \t\r\n\ufeff")
	if len(head) == 0 || head[0] != '[' {
		return fmt.Errorf("%w: %s does not contain a JSON array", ErrInvalidFormat, filename)
	}

	log.Debugf("Section file %s validated", filename)
	return nil
}
