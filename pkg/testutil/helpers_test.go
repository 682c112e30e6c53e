package testutil

import (
	"os"
	"testing"
)

func TestWriteFile(t *testing.T) {
	path := WriteFile(t, "sample.csv", CSV)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read back fixture: %v", err)
	}
	if string(data) != CSV {
		t.Fatalf("fixture content mismatch")
	}
}

func TestWriteDataFiles(t *testing.T) {
	csvPath, geoPath := WriteDataFiles(t)

	for _, path := range []string{csvPath, geoPath} {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected %s to exist: %v", path, err)
		}
		if info.Size() == 0 {
			t.Fatalf("expected %s to be non-empty", path)
		}
	}
}
