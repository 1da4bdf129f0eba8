package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"swapEngine/internal/model"
)

// JsonlStorage appends audit records to JSONL files. Quotes and swaps
// go to separate files next to each other under the same directory.
type JsonlStorage struct {
	quotePath string
	swapPath  string
	mu        sync.Mutex
}

func NewJsonlStorage(dir string) *JsonlStorage {
	return &JsonlStorage{
		quotePath: filepath.Join(dir, "quotes.jsonl"),
		swapPath:  filepath.Join(dir, "swaps.jsonl"),
	}
}

// PutQuotes appends a batch of quote records as JSON lines.
func (s *JsonlStorage) PutQuotes(quotes []model.QuoteRecord) error {
	if len(quotes) == 0 {
		return nil
	}
	records := make([]any, len(quotes))
	for i, q := range quotes {
		records[i] = q
	}
	return s.appendLines(s.quotePath, records)
}

// PutSwaps appends a batch of swap records as JSON lines.
func (s *JsonlStorage) PutSwaps(swaps []model.SwapRecord) error {
	if len(swaps) == 0 {
		return nil
	}
	records := make([]any, len(swaps))
	for i, sw := range swaps {
		records[i] = sw
	}
	return s.appendLines(s.swapPath, records)
}

func (s *JsonlStorage) appendLines(path string, records []any) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal audit record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write audit record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
