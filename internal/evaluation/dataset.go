// Package evaluation measures how well a vision model identifies the books on a shelf
// by comparing its answers with hand-labelled photos.
package evaluation

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/parquet-go/parquet-go"
)

// ExpectedBook is a book a labeller saw on the shelf
type ExpectedBook struct {
	Title  string `json:"title" parquet:"title"`
	Author string `json:"author" parquet:"author"`
}

// Sample is one labelled shelf photo
type Sample struct {
	ID string `json:"id" parquet:"id"`
	// Image is a file path, relative to the dataset, or an http(s) URL
	Image string         `json:"image" parquet:"image"`
	Books []ExpectedBook `json:"books" parquet:"books,list"`
}

// LoadDataset reads samples from a JSONL or Parquet file.
// Relative image paths are resolved against the dataset's directory.
func LoadDataset(path string) ([]Sample, error) {
	var (
		samples []Sample
		err     error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".parquet":
		samples, err = loadParquet(path)
	case ".jsonl", ".json":
		samples, err = loadJSONL(path)
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s (supported: .parquet, .jsonl)", ext)
	}
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	for i := range samples {
		s := &samples[i]
		if s.Image == "" {
			return nil, fmt.Errorf("sample %d has no image", i+1)
		}
		if s.ID == "" {
			s.ID = fmt.Sprintf("sample-%d", i+1)
		}
		if !isURL(s.Image) && !filepath.IsAbs(s.Image) {
			s.Image = filepath.Join(dir, s.Image)
		}
	}

	slog.Debug("Loaded dataset", "path", path, "samples", len(samples))
	return samples, nil
}

func loadJSONL(path string) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var samples []Sample
	scanner := bufio.NewScanner(file)
	const maxCapacity = 1024 * 1024
	scanner.Buffer(make([]byte, maxCapacity), maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var s Sample
		if err := json.Unmarshal(line, &s); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}
	return samples, nil
}

func loadParquet(path string) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Sample](pf)
	defer reader.Close()

	var samples []Sample
	for {
		// fresh batch each time; rows hold slices the reader may reuse
		rows := make([]Sample, 128)
		n, err := reader.Read(rows)
		samples = append(samples, rows[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return samples, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
