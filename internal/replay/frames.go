package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/2beens/formcheck/internal/pose"
)

const maxLineSize = 1024 * 1024

// ReadFrames decodes one JSON frame per line and hands each to fn. Blank
// lines and lines starting with # are skipped.
func ReadFrames(r io.Reader, fn func(f *pose.Frame) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var f pose.Frame
		if err := json.Unmarshal([]byte(line), &f); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := fn(&f); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}
