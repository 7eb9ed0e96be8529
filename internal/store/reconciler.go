// Package store reconciles canonical seller records against the
// database: one row per slug, one state term per seller, at most one
// logo asset per seller.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"sellersync/internal/logger"
	"sellersync/internal/models"
	"sellersync/internal/normalize"

	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Downloader fetches a remote binary into a directory, returning the
// stored path and content checksum.
type Downloader interface {
	Download(ctx context.Context, url, dir string) (string, string, error)
}

type Reconciler struct {
	db         *gorm.DB
	downloader Downloader
	logger     *logger.Logger
	uploadDir  string
}

func NewReconciler(db *gorm.DB, downloader Downloader, log *logger.Logger, uploadDir string) *Reconciler {
	return &Reconciler{
		db:         db,
		downloader: downloader,
		logger:     log,
		uploadDir:  uploadDir,
	}
}

// Upsert finds or creates the seller row for a canonical record,
// refreshes its fields and metadata, attaches the job's state term,
// and keeps the logo asset current. Term and logo failures are logged
// and skipped; only a failed write of the seller row itself is an
// error.
func (r *Reconciler) Upsert(ctx context.Context, rec *normalize.Seller, stateCode, stateName, stateSlug string) (string, error) {
	db := r.db.WithContext(ctx)

	identity := slug.Make(rec.Slug)
	if identity == "" {
		identity = slug.Make(rec.Name)
	}

	var seller models.Seller
	err := db.Where("slug = ?", identity).First(&seller).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("seller lookup failed for %q: %w", identity, err)
	}

	seller.Slug = identity
	seller.Name = plainText(rec.Name)
	seller.Status = "publish"
	seller.Excerpt = ""
	seller.Content = ""
	if rec.Description != "" {
		seller.Excerpt = excerpt(rec.Description)
		seller.Content = sanitizeBody(rec.Description)
	}

	// Empty canonical fields clear the stored metadata rather than
	// leaving stale values behind.
	seller.City = optional(rec.City)
	seller.Website = optional(rec.Website)
	seller.ProfileURL = optional(rec.ProfileURL)

	seller.Raw = nil
	if len(rec.Raw) > 0 {
		if raw, err := json.Marshal(rec.Raw); err == nil {
			seller.Raw = datatypes.JSON(raw)
		}
	}

	if termID, ok := r.resolveStateTerm(db, stateName, stateSlug); ok {
		seller.StateTermID = &termID
	}

	if err := db.Save(&seller).Error; err != nil {
		return "", fmt.Errorf("seller save failed for %q in %s: %w", rec.Slug, stateCode, err)
	}

	if rec.LogoURL != "" {
		r.setLogo(ctx, &seller, rec.LogoURL)
	}

	return seller.ID, nil
}

// resolveStateTerm finds the term by slug or creates it. A failed
// create is logged and the seller keeps whatever term it had.
func (r *Reconciler) resolveStateTerm(db *gorm.DB, stateName, stateSlug string) (string, bool) {
	var term models.StateTerm
	err := db.Where("slug = ?", stateSlug).First(&term).Error
	if err == nil {
		return term.ID, true
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		r.logger.Error("state term lookup failed for %s: %v", stateSlug, err)
		return "", false
	}

	term = models.StateTerm{Name: stateName, Slug: stateSlug}
	if err := db.Create(&term).Error; err != nil {
		r.logger.Error("state term create failed for %s: %v", stateSlug, err)
		return "", false
	}

	r.logger.Debug("state term created: %s (%s)", stateName, stateSlug)
	return term.ID, true
}

// setLogo downloads the logo and swaps it in as the seller's asset.
// An identical download (same checksum) leaves the current asset
// untouched. On any failure the previous logo is preserved.
func (r *Reconciler) setLogo(ctx context.Context, seller *models.Seller, logoURL string) {
	db := r.db.WithContext(ctx)

	path, checksum, err := r.downloader.Download(ctx, logoURL, r.uploadDir)
	if err != nil {
		r.logger.Error("logo download failed for %s (%s): %v", seller.Slug, logoURL, err)
		return
	}

	var current models.LogoAsset
	err = db.Where("seller_id = ?", seller.ID).First(&current).Error
	if err == nil && current.Checksum == checksum {
		// Same image; drop the fresh copy and keep the old file.
		os.Remove(path)
		return
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		r.logger.Error("logo lookup failed for %s: %v", seller.Slug, err)
		os.Remove(path)
		return
	}

	asset := models.LogoAsset{
		SellerID:  seller.ID,
		SourceURL: logoURL,
		Path:      path,
		Checksum:  checksum,
	}

	hadPrevious := current.ID != ""
	if hadPrevious {
		if err := db.Delete(&models.LogoAsset{}, "id = ?", current.ID).Error; err != nil {
			r.logger.Error("stale logo delete failed for %s: %v", seller.Slug, err)
			os.Remove(path)
			return
		}
	}

	if err := db.Create(&asset).Error; err != nil {
		r.logger.Error("logo save failed for %s: %v", seller.Slug, err)
		os.Remove(path)
		return
	}

	if hadPrevious {
		os.Remove(current.Path)
	}
}

// Purge deletes every synced seller, logo asset (row and file), state
// term, and the legacy sync cursor. Irreversible.
func (r *Reconciler) Purge(ctx context.Context) error {
	db := r.db.WithContext(ctx)

	var assets []models.LogoAsset
	if err := db.Find(&assets).Error; err != nil {
		return fmt.Errorf("asset listing failed: %w", err)
	}
	for _, asset := range assets {
		os.Remove(asset.Path)
	}

	if err := db.Where("1 = 1").Delete(&models.LogoAsset{}).Error; err != nil {
		return fmt.Errorf("asset purge failed: %w", err)
	}
	if err := db.Where("1 = 1").Delete(&models.Seller{}).Error; err != nil {
		return fmt.Errorf("seller purge failed: %w", err)
	}
	if err := db.Where("1 = 1").Delete(&models.StateTerm{}).Error; err != nil {
		return fmt.Errorf("state term purge failed: %w", err)
	}
	if err := db.Where("key = ?", models.LegacyCursorKey).Delete(&models.SyncOption{}).Error; err != nil {
		return fmt.Errorf("cursor purge failed: %w", err)
	}

	r.logger.Info("purged %d logo assets, all sellers and state terms", len(assets))
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
