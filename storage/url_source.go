package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// ErrInputFileMissing is returned when the URL list does not exist.
var ErrInputFileMissing = errors.New("input url file missing")

// ReadURLs returns the non-empty, trimmed lines of the file at path in
// file order. Lines starting with "#" are comments.
func ReadURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("urls: %q: %w: %w", path, ErrInputFileMissing, err)
		}
		return nil, fmt.Errorf("urls: open %q: %w", path, err)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("urls: read %q: %w", path, err)
	}
	return urls, nil
}
