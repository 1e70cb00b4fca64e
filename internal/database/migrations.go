package database

import (
	"lessonfolders/internal/logger"
	"lessonfolders/internal/models"
)

// MigrateModels runs GORM AutoMigrate for every table the service reads or writes
// and then creates the partial indexes GORM cannot express.
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	modelsToMigrate := []any{
		&models.User{},
		&models.UserRole{},
		&models.Classroom{},
		&models.ClassEnrollment{},
		&models.LessonMaterial{},
		&models.Folder{},
		&models.FolderLessonMaterial{},
	}

	for _, model := range modelsToMigrate {
		if err := db.SQL.AutoMigrate(model); err != nil {
			return log.Err("Failed to migrate model", err, "model", model)
		}
	}

	if err := db.CreateIndexes(); err != nil {
		return err
	}

	log.Info("Database migration completed successfully")
	return nil
}

// folderIndexes hold the per-scope uniqueness rules for active folders. The
// statements are valid on both PostgreSQL and SQLite.
var folderIndexes = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_folders_active_scope_order ON folders(scope_key, sort_order) WHERE status = 'active'",
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_folders_active_scope_name ON folders(scope_key, name) WHERE status = 'active'",
}

var supportingIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_lesson_materials_creator_status ON lesson_materials(created_by_user_id, status)",
}

func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")
	log.Info("Creating additional database indexes")

	for _, indexSQL := range folderIndexes {
		if err := db.SQL.Exec(indexSQL).Error; err != nil {
			return log.Err("Failed to create folder index", err, "sql", indexSQL)
		}
	}

	for _, indexSQL := range supportingIndexes {
		if err := db.SQL.Exec(indexSQL).Error; err != nil {
			log.Warn("Failed to create index", "sql", indexSQL, "error", err)
		}
	}

	log.Info("Additional database indexes created")
	return nil
}
