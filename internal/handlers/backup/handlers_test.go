package backup

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"blinq/internal/models"
)

func archive(t *testing.T, name, content string) *zip.File {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	return zr.File[0]
}

func TestDecodeEntry(t *testing.T) {
	var settings models.Settings
	if err := decodeEntry(archive(t, settingsEntry, `{"currency":"EUR"}`), &settings); err != nil {
		t.Fatalf("decodeEntry: %v", err)
	}
	if settings.Currency != "EUR" {
		t.Errorf("currency = %q, want EUR", settings.Currency)
	}
}

func TestDecodeEntryRejectsOversizedEntries(t *testing.T) {
	old := maxEntryBytes
	maxEntryBytes = 64
	t.Cleanup(func() { maxEntryBytes = old })

	big := `{"currency":"` + strings.Repeat("x", 200) + `"}`

	var settings models.Settings
	if err := decodeEntry(archive(t, settingsEntry, big), &settings); err == nil {
		t.Error("expected an error for an entry over the limit")
	}

	// A header understating the size is caught while reading
	f := archive(t, settingsEntry, big)
	f.UncompressedSize64 = 10
	if err := decodeEntry(f, &settings); err == nil {
		t.Error("expected an error for a forged entry size")
	}
}
