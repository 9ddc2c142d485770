package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"
)

func TestArchiveAssets(t *testing.T) {
	modified := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	raw, err := ArchiveAssets([]Asset{
		{Filename: "waifu-1.png", MIME: "image/png", Data: []byte("one")},
		{Filename: "../../etc/waifu-1.png", MIME: "image/png", Data: []byte("two")},
		{Filename: "", MIME: "image/png", Data: []byte("three")},
	}, modified)
	if err != nil {
		t.Fatalf("ArchiveAssets error: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	want := map[string]string{
		"waifu-1.png":   "one",
		"waifu-1-2.png": "two",
		"asset-3":       "three",
	}
	if len(zr.File) != len(want) {
		t.Fatalf("entries = %d, want %d", len(zr.File), len(want))
	}
	for _, f := range zr.File {
		expected, ok := want[f.Name]
		if !ok {
			t.Fatalf("unexpected entry %q", f.Name)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		if string(data) != expected {
			t.Fatalf("%s = %q, want %q", f.Name, data, expected)
		}
		if !f.Modified.Equal(modified) {
			t.Fatalf("%s modified = %v", f.Name, f.Modified)
		}
	}
}

func TestArchiveAssetsEmpty(t *testing.T) {
	raw, err := ArchiveAssets(nil, time.Now())
	if err != nil {
		t.Fatalf("ArchiveAssets error: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 0 {
		t.Fatalf("expected empty archive, got %d entries", len(zr.File))
	}
}
