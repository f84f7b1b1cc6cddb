// Package inventory stores uploaded inventory CSV files on disk and tracks
// upload history. The newest upload is the "current" file; superseded files
// move to the archive directory instead of being deleted.
package inventory

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/lotworks/recontrack/internal/models"
	"gorm.io/gorm"
)

// ErrNoCurrent is returned when no inventory file has been uploaded yet.
var ErrNoCurrent = errors.New("inventory: no current inventory file")

// Store manages inventory files under the configured data directory.
type Store struct {
	uploadsDir string
	archiveDir string
	db         *gorm.DB
}

// NewStore builds a Store, creating the directories on demand.
func NewStore(db *gorm.DB, uploadsDir, archiveDir string) (*Store, error) {
	for _, dir := range []string{uploadsDir, archiveDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("inventory: create %s: %w", dir, err)
		}
	}
	return &Store{uploadsDir: uploadsDir, archiveDir: archiveDir, db: db}, nil
}

// SaveUpload stores a new inventory CSV as the current file, archiving the
// previous one. The stored name carries an upload timestamp so history stays
// unambiguous even when the same export is uploaded twice.
func (s *Store) SaveUpload(originalName string, r io.Reader, vehicleCount, skipped int) (*models.InventoryFile, error) {
	now := time.Now()
	filename := fmt.Sprintf("Recon-%s-%s", now.Format("2006-01-02-1504"), filepath.Base(originalName))
	path := filepath.Join(s.uploadsDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("inventory: store %s: %w", filename, err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("inventory: write %s: %w", filename, err)
	}

	if err := s.archiveCurrent(); err != nil {
		return nil, err
	}

	rec := models.InventoryFile{
		Filename:     filename,
		StoredPath:   path,
		SizeBytes:    size,
		VehicleCount: vehicleCount,
		Skipped:      skipped,
		Current:      true,
		UploadedAt:   now,
	}
	if err := s.db.Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("inventory: record upload %s: %w", filename, err)
	}
	return &rec, nil
}

// archiveCurrent moves the current file (if any) into the archive directory
// and clears its current flag.
func (s *Store) archiveCurrent() error {
	cur, err := s.Current()
	if errors.Is(err, ErrNoCurrent) {
		return nil
	}
	if err != nil {
		return err
	}

	archived := filepath.Join(s.archiveDir, fmt.Sprintf("archived-%d-%s", time.Now().Unix(), cur.Filename))
	if err := os.Rename(cur.StoredPath, archived); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("inventory: archive %s: %w", cur.Filename, err)
	}

	updates := map[string]interface{}{"current": false, "stored_path": archived}
	if err := s.db.Model(&models.InventoryFile{}).Where("id = ?", cur.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("inventory: mark %s archived: %w", cur.Filename, err)
	}
	return nil
}

// Current returns the current inventory file record.
func (s *Store) Current() (*models.InventoryFile, error) {
	var rec models.InventoryFile
	if err := s.db.Where("current = ?", true).Order("uploaded_at DESC").First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoCurrent
		}
		return nil, fmt.Errorf("inventory: current: %w", err)
	}
	return &rec, nil
}

// History returns all uploads, newest first.
func (s *Store) History() ([]models.InventoryFile, error) {
	var files []models.InventoryFile
	if err := s.db.Order("uploaded_at DESC").Find(&files).Error; err != nil {
		return nil, fmt.Errorf("inventory: history: %w", err)
	}
	return files, nil
}

// WriteSnapshot writes a generated export (e.g. the nightly snapshot) into
// the archive directory and returns its path.
func (s *Store) WriteSnapshot(name string, write func(io.Writer) error) (string, error) {
	path := filepath.Join(s.archiveDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("inventory: snapshot %s: %w", name, err)
	}
	err = write(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("inventory: snapshot %s: %w", name, err)
	}
	return path, nil
}
