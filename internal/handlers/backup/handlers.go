package backup

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apphttp "blinq/internal/http"
	"blinq/internal/models"
	"blinq/internal/services/finance"
	"blinq/internal/services/persistence"
	"blinq/internal/version"
)

// Archive entry names
const (
	financialEntry = "financial.json"
	settingsEntry  = "settings.json"
)

// maxBackupBytes caps uploaded backup archives
const maxBackupBytes = 50 << 20

// maxEntryBytes caps the decompressed size of one backup entry
var maxEntryBytes int64 = 20 << 20

var (
	fin   *finance.Service
	store *persistence.Store
)

// Initialize sets up the backup package with required dependencies
func Initialize(f *finance.Service, s *persistence.Store) {
	fin = f
	store = s
}

// RegisterRoutes registers backup routes. Requires RequireSession upstream.
func RegisterRoutes(r chi.Router) {
	r.Get("/backup", HandleBackup)
	r.Post("/restore", HandleRestore)
}

// HandleHealth reports liveness and build information
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	apphttp.WriteJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Get(),
	})
}

// HandleBackup streams a zip of the caller's documents. Archives are never
// encrypted so they stay portable.
func HandleBackup(w http.ResponseWriter, r *http.Request) {
	userID := apphttp.UserID(r)

	doc, _, err := fin.Document(r.Context(), userID)
	if err != nil {
		apphttp.Error(w, err)
		return
	}
	settings, err := store.LoadSettings(r.Context(), userID)
	if err != nil {
		apphttp.Error(w, err)
		return
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, v := range map[string]any{financialEntry: doc, settingsEntry: settings} {
		f, err := zw.Create(name)
		if err != nil {
			apphttp.Error(w, err)
			return
		}
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			apphttp.Error(w, err)
			return
		}
	}
	if err := zw.Close(); err != nil {
		apphttp.Error(w, err)
		return
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("blinq_backup_%s.zip", timestamp)

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Error writing backup: %v", err)
	}
}

// HandleRestore replaces the caller's documents with those in an uploaded backup
func HandleRestore(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxBackupBytes); err != nil {
		apphttp.ErrorResponse(w, "File too large", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apphttp.ErrorResponse(w, "Error reading file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".zip") {
		apphttp.ErrorResponse(w, "Only ZIP backup files are allowed", http.StatusBadRequest)
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		apphttp.ErrorResponse(w, "Error reading file", http.StatusInternalServerError)
		return
	}

	zipReader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		apphttp.ErrorResponse(w, "Invalid ZIP file", http.StatusBadRequest)
		return
	}

	var (
		doc      *models.FinancialDocument
		settings *models.Settings
	)
	for _, zipFile := range zipReader.File {
		if zipFile.FileInfo().IsDir() {
			continue
		}

		// Only the base name counts, so nested or traversing paths are harmless
		var target any
		switch path.Base(zipFile.Name) {
		case financialEntry:
			doc = &models.FinancialDocument{}
			target = doc
		case settingsEntry:
			settings = &models.Settings{}
			target = settings
		default:
			continue
		}

		if err := decodeEntry(zipFile, target); err != nil {
			apphttp.ErrorResponse(w, fmt.Sprintf("Invalid backup entry %s: %v", zipFile.Name, err), http.StatusBadRequest)
			return
		}
	}

	if doc == nil && settings == nil {
		apphttp.ErrorResponse(w, "No documents found in backup", http.StatusBadRequest)
		return
	}

	userID := apphttp.UserID(r)
	restored := 0

	if settings != nil {
		c, ok := models.ParseCurrency(string(settings.Currency))
		if !ok {
			apphttp.ErrorResponse(w, fmt.Sprintf("Unsupported currency %q in backup", settings.Currency), http.StatusBadRequest)
			return
		}
		settings.Currency = c
		if err := store.SaveSettings(r.Context(), userID, settings); err != nil {
			apphttp.Error(w, err)
			return
		}
		restored++
	}

	if doc != nil {
		_, rev, err := fin.Document(r.Context(), userID)
		if err != nil {
			apphttp.Error(w, err)
			return
		}
		if _, err := fin.Replace(r.Context(), userID, doc, rev); err != nil {
			apphttp.Error(w, err)
			return
		}
		restored++
	}

	log.Printf("Restore complete: %d documents restored", restored)
	apphttp.WriteJSON(w, http.StatusOK, map[string]int{"restored": restored})
}

func decodeEntry(f *zip.File, v any) error {
	if f.UncompressedSize64 > uint64(maxEntryBytes) {
		return fmt.Errorf("entry exceeds %d bytes", maxEntryBytes)
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	// the header size can be forged
	data, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes+1))
	if err != nil {
		return err
	}
	if int64(len(data)) > maxEntryBytes {
		return fmt.Errorf("entry exceeds %d bytes", maxEntryBytes)
	}
	return json.Unmarshal(data, v)
}
