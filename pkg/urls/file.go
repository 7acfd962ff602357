package urls

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strings"
)

// ParseFile reads feed URLs from a file, one per line. Blank lines and lines
// starting with "#" or "//" are skipped. A line that is not an absolute URL
// fails the whole file with its line number, so typos surface before any
// fetching starts.
func ParseFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open url file: %w", err)
	}
	defer file.Close()

	var result []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		u, err := url.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid feed url %q: %w", path, lineNum, line, err)
		}
		if !u.IsAbs() {
			return nil, fmt.Errorf("%s:%d: feed url %q is not absolute", path, lineNum, line)
		}
		result = append(result, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading url file at line %d: %w", lineNum, err)
	}
	return result, nil
}

// Dedupe removes repeated URLs while preserving first-seen order. The fetch
// orchestrator requires a set: its cache-safety contract assumes no two
// concurrent units share a URL.
func Dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	result := make([]string, 0, len(urls))
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		result = append(result, u)
	}
	return result
}
