package seed

import (
	"time"

	"lessonfolders/config"
	"lessonfolders/internal/handlers/middleware"
	"lessonfolders/internal/logger"
	. "lessonfolders/internal/models"
	"lessonfolders/internal/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const devTokenTTL = 24 * time.Hour

var (
	schoolID  = uuid.MustParse("0199a000-0000-7000-8000-000000000001")
	adminID   = uuid.MustParse("0199a000-0000-7000-8000-000000000010")
	teacherID = uuid.MustParse("0199a000-0000-7000-8000-000000000011")
	studentID = uuid.MustParse("0199a000-0000-7000-8000-000000000012")
	classID   = uuid.MustParse("0199a000-0000-7000-8000-000000000020")
)

func stringPtr(s string) *string {
	return &s
}

func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	users := []struct {
		user  User
		roles []types.Role
	}{
		{
			user: User{
				BaseUUIDModel: BaseUUIDModel{ID: adminID},
				DisplayName:   "School Admin",
				Email:         stringPtr("admin@example.com"),
				SchoolID:      &schoolID,
				IsActive:      true,
			},
			roles: []types.Role{types.RoleSchoolAdmin, types.RoleTeacher},
		},
		{
			user: User{
				BaseUUIDModel: BaseUUIDModel{ID: teacherID},
				DisplayName:   "Ada Lovelace",
				Email:         stringPtr("ada.lovelace@example.com"),
				SchoolID:      &schoolID,
				IsActive:      true,
			},
			roles: []types.Role{types.RoleTeacher},
		},
		{
			user: User{
				BaseUUIDModel: BaseUUIDModel{ID: studentID},
				DisplayName:   "Test Student",
				Email:         stringPtr("student@example.com"),
				SchoolID:      &schoolID,
				IsActive:      true,
			},
			roles: []types.Role{types.RoleStudent},
		},
	}

	for _, seeded := range users {
		user := seeded.user
		var existing User
		if err := db.First(&existing, "id = ?", user.ID).Error; err == nil {
			log.Info("User already exists", "userID", user.ID)
			continue
		}

		log.Info("Seeding user", "userID", user.ID, "displayName", user.DisplayName)
		if err := db.Create(&user).Error; err != nil {
			return log.Err("failed to create user", err, "userID", user.ID)
		}

		for _, role := range seeded.roles {
			userRole := UserRole{UserID: user.ID, Role: role.String()}
			if err := db.Create(&userRole).Error; err != nil {
				return log.Err("failed to create user role", err, "userID", user.ID, "role", role)
			}
		}
	}

	classroom := Classroom{
		BaseUUIDModel: BaseUUIDModel{ID: classID},
		Name:          "Algebra I",
		TeacherID:     teacherID,
		SchoolID:      schoolID,
	}
	if err := db.FirstOrCreate(&classroom, "id = ?", classID).Error; err != nil {
		return log.Err("failed to create classroom", err)
	}

	enrollment := ClassEnrollment{ClassID: classID, UserID: studentID}
	if err := db.FirstOrCreate(&enrollment, "class_id = ? AND user_id = ?", classID, studentID).Error; err != nil {
		return log.Err("failed to enroll student", err)
	}

	if err := seedFolders(db, log); err != nil {
		return err
	}

	for _, userID := range []uuid.UUID{adminID, teacherID, studentID} {
		token, err := middleware.SignAccessToken(config, userID, devTokenTTL)
		if err != nil {
			return log.Err("failed to sign development token", err, "userID", userID)
		}
		log.Info("Development token", "userID", userID, "token", token)
	}

	return nil
}

func seedFolders(db *gorm.DB, log logger.Logger) error {
	log = log.Function("seedFolders")

	folders := []Folder{
		{Name: "Unit 1: Linear Equations", Status: FolderStatusActive, Order: 0},
		{Name: "Unit 2: Inequalities", Status: FolderStatusActive, Order: 1},
	}
	materials := []LessonMaterial{
		{Title: "Solving for x", Status: LessonMaterialStatusActive, CreatedByUserID: teacherID},
		{Title: "Graphing inequalities", Status: LessonMaterialStatusActive, CreatedByUserID: teacherID},
	}

	for i := range folders {
		folder := &folders[i]
		folder.SetScope(ClassScope(classID))
		if err := db.Create(folder).Error; err != nil {
			return log.Err("failed to create folder", err, "name", folder.Name)
		}

		material := &materials[i]
		if err := db.Create(material).Error; err != nil {
			return log.Err("failed to create lesson material", err, "title", material.Title)
		}

		link := FolderLessonMaterial{FolderID: folder.ID, LessonMaterialID: material.ID}
		if err := db.Create(&link).Error; err != nil {
			return log.Err("failed to link lesson material", err, "folderID", folder.ID)
		}
	}

	personal := Folder{Name: "Drafts", Status: FolderStatusActive, Order: 0}
	personal.SetScope(PersonalScope(teacherID))
	if err := db.Create(&personal).Error; err != nil {
		return log.Err("failed to create personal folder", err)
	}

	log.Info("Seeded folders", "classFolders", len(folders), "personalFolders", 1)
	return nil
}
