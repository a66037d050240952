package subtitle

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadFile reads an SRT file from disk
func ReadFile(path string) (Track, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".srt") {
		return nil, fmt.Errorf("only SRT format subtitle files are supported: %s", path)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("subtitle file does not exist: %s", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitle file: %w", err)
	}

	return DecodeSRT(string(content))
}

// WriteFile writes a track to disk in SRT format
func WriteFile(path string, track Track) error {
	if track == nil {
		return fmt.Errorf("subtitle data is empty")
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	if _, err := writer.WriteString(EncodeSRT(track)); err != nil {
		return fmt.Errorf("failed to write subtitle file: %w", err)
	}

	return nil
}
