package binary

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
)

const recordFile = "record.json"

func writeRecord(dir string, rec *Record) error {
	data, err := sonic.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, recordFile), data, 0644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// readRecord loads the record of a key directory. The binary path is
// re-anchored to dir so a relocated cache keeps working.
func readRecord(dir string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, recordFile))
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := sonic.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if rec.Path == "" {
		return nil, fmt.Errorf("record has no binary path")
	}
	rec.Path = filepath.Join(dir, filepath.Base(rec.Path))
	return &rec, nil
}
