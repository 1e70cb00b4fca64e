package initialize

import (
	"lessonfolders/config"
	. "lessonfolders/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"gorm.io/gorm"
)

func InitializeTables(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing essential production data")

	if err := backfillScopeKeys(db, log); err != nil {
		return log.Err("failed to backfill folder scope keys", err)
	}

	log.Info("Table initialization complete")
	return nil
}

// backfillScopeKeys derives scope_key for rows written before the column existed.
func backfillScopeKeys(db *gorm.DB, log logger.Logger) error {
	log = log.Function("backfillScopeKeys")

	var folders []Folder
	if err := db.Where("scope_key = ? OR scope_key IS NULL", "").Find(&folders).Error; err != nil {
		return log.Err("failed to load folders without scope key", err)
	}

	if len(folders) == 0 {
		log.Debug("No folders need a scope key")
		return nil
	}

	skipped := 0
	for _, folder := range folders {
		if err := folder.ValidateOwnership(); err != nil {
			log.Warn("Skipping folder with invalid ownership", "folderID", folder.ID, "error", err)
			skipped++
			continue
		}

		if err := db.Model(&Folder{}).
			Where("id = ?", folder.ID).
			UpdateColumn("scope_key", folder.Scope().Key()).Error; err != nil {
			return log.Err("failed to backfill scope key", err, "folderID", folder.ID)
		}
	}

	log.Info("Folder scope keys backfilled", "count", len(folders)-skipped, "skipped", skipped)
	return nil
}
