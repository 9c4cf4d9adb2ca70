// Package manifest reads and writes the plain-text file lists that connect
// the registration step to the group-analysis step. A manifest holds one
// volume path per line; line order is load order.
package manifest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Read loads a manifest file and returns its paths in line order.
// Blank lines and surrounding whitespace are ignored. A manifest that
// yields zero paths is an error, since a group analysis over nothing
// can only be a mistake upstream.
func Read(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file list: %v", err)
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file list: %v", err)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("file list %s is empty", path)
	}

	return paths, nil
}

// Write saves the given paths to a manifest file, one per line, preserving
// order.
func Write(paths []string, outPath string) error {
	var sb strings.Builder
	for _, p := range paths {
		sb.WriteString(p)
		sb.WriteByte('\n')
	}

	if err := os.WriteFile(outPath, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write file list %s: %v", outPath, err)
	}

	return nil
}

// FilterByContrast returns the paths whose filename refers to the given
// contrast index. Registered outputs follow the FEAT naming convention,
// so contrast N shows up as ".copeN" or ".zstatN" inside the filename.
// The match is a plain substring test, mirroring how FSL pipelines are
// usually scripted.
func FilterByContrast(paths []string, contrast int) []string {
	cope := fmt.Sprintf(".cope%d", contrast)
	zstat := fmt.Sprintf(".zstat%d", contrast)

	filtered := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.Contains(p, cope) || strings.Contains(p, zstat) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// AllListPath returns the conventional location of the manifest listing
// every registered file of the given contrast type.
func AllListPath(outputDir, contrastType string) string {
	return filepath.Join(outputDir, fmt.Sprintf("all_%s_files.txt", contrastType))
}

// ContrastListPath returns the conventional location of the manifest for a
// single contrast index.
func ContrastListPath(outputDir, contrastType string, contrast int) string {
	return filepath.Join(outputDir, fmt.Sprintf("%s%d_files.txt", contrastType, contrast))
}
