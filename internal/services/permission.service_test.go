package services

import (
	"testing"

	"lessonfolders/internal/models"
	"lessonfolders/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type permissionFixture struct {
	school        uuid.UUID
	otherSchool   uuid.UUID
	teacher       Actor
	schoolAdmin   Actor
	foreignAdmin  Actor
	systemAdmin   Actor
	student       Actor
	owner         Actor
	classroom     *models.Classroom
	classFolder   *models.Folder
	personalOwned *models.Folder
}

func newPermissionFixture() permissionFixture {
	school := uuid.New()
	otherSchool := uuid.New()

	f := permissionFixture{
		school:      school,
		otherSchool: otherSchool,
		teacher: Actor{
			UserID:   uuid.New(),
			SchoolID: &school,
			Roles:    types.NewRoleSet(types.RoleTeacher),
		},
		schoolAdmin: Actor{
			UserID:   uuid.New(),
			SchoolID: &school,
			Roles:    types.NewRoleSet(types.RoleSchoolAdmin),
		},
		foreignAdmin: Actor{
			UserID:   uuid.New(),
			SchoolID: &otherSchool,
			Roles:    types.NewRoleSet(types.RoleSchoolAdmin),
		},
		systemAdmin: Actor{UserID: uuid.New(), Roles: types.NewRoleSet(types.RoleSystemAdmin)},
		student: Actor{
			UserID:   uuid.New(),
			SchoolID: &school,
			Roles:    types.NewRoleSet(types.RoleStudent),
		},
		owner: Actor{UserID: uuid.New(), Roles: types.NewRoleSet(types.RoleTeacher)},
	}

	f.classroom = &models.Classroom{TeacherID: f.teacher.UserID, SchoolID: school}
	f.classroom.ID = uuid.New()

	f.classFolder = &models.Folder{Name: "Unit 1", Status: models.FolderStatusActive}
	f.classFolder.SetScope(models.ClassScope(f.classroom.ID))

	f.personalOwned = &models.Folder{Name: "Mine", Status: models.FolderStatusActive}
	f.personalOwned.SetScope(models.PersonalScope(f.owner.UserID))

	return f
}

func TestPermissionService_CanMutate(t *testing.T) {
	f := newPermissionFixture()
	s := NewPermissionService()

	tests := []struct {
		name      string
		folder    *models.Folder
		actor     Actor
		classroom *models.Classroom
		expected  bool
	}{
		{"system admin on any personal folder", f.personalOwned, f.systemAdmin, nil, true},
		{"system admin on class folder without classroom", f.classFolder, f.systemAdmin, nil, true},
		{"owner on personal folder", f.personalOwned, f.owner, nil, true},
		{"stranger on personal folder", f.personalOwned, f.teacher, nil, false},
		{"school admin on personal folder", f.personalOwned, f.schoolAdmin, nil, false},
		{"class teacher", f.classFolder, f.teacher, f.classroom, true},
		{"same school admin", f.classFolder, f.schoolAdmin, f.classroom, true},
		{"other school admin", f.classFolder, f.foreignAdmin, f.classroom, false},
		{"student", f.classFolder, f.student, f.classroom, false},
		{"classroom absent", f.classFolder, f.teacher, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.CanMutate(tt.folder, tt.actor, tt.classroom))
		})
	}
}

func TestPermissionService_CanMutate_MismatchedClassroom(t *testing.T) {
	f := newPermissionFixture()
	s := NewPermissionService()

	other := &models.Classroom{TeacherID: f.teacher.UserID, SchoolID: f.school}
	other.ID = uuid.New()

	assert.False(t, s.CanMutate(f.classFolder, f.teacher, other))
}

func TestPermissionService_CanArchive(t *testing.T) {
	f := newPermissionFixture()
	s := NewPermissionService()

	moderator := Actor{UserID: f.teacher.UserID, Roles: types.NewRoleSet(types.RoleContentModerator)}

	assert.True(t, s.CanArchive(f.classFolder, f.teacher, f.classroom))
	assert.True(t, s.CanArchive(f.classFolder, moderator, f.classroom))
	assert.True(t, s.CanArchive(f.classFolder, f.schoolAdmin, f.classroom))
	assert.False(t, s.CanArchive(f.classFolder, f.student, f.classroom))
	assert.False(t, s.CanArchive(f.classFolder, f.teacher, nil))
	assert.True(t, s.CanArchive(f.personalOwned, f.owner, nil))
	assert.False(t, s.CanArchive(f.personalOwned, f.teacher, nil))
}

func TestPermissionService_CanReadScope(t *testing.T) {
	f := newPermissionFixture()
	s := NewPermissionService()
	classScope := f.classFolder.Scope()
	personalScope := f.personalOwned.Scope()

	tests := []struct {
		name      string
		scope     models.FolderScope
		actor     Actor
		classroom *models.Classroom
		enrolled  bool
		expected  bool
	}{
		{"owner reads personal", personalScope, f.owner, nil, false, true},
		{"system admin reads personal", personalScope, f.systemAdmin, nil, false, true},
		{"school admin cannot read personal", personalScope, f.schoolAdmin, nil, false, false},
		{"teacher reads class", classScope, f.teacher, f.classroom, false, true},
		{"school admin reads class", classScope, f.schoolAdmin, f.classroom, false, true},
		{"foreign admin cannot read class", classScope, f.foreignAdmin, f.classroom, false, false},
		{"enrolled student reads class", classScope, f.student, f.classroom, true, true},
		{"unenrolled student denied", classScope, f.student, f.classroom, false, false},
		{"missing classroom denied", classScope, f.teacher, nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.CanReadScope(tt.scope, tt.actor, tt.classroom, tt.enrolled))
		})
	}
}

func TestPermissionService_CanReadStatus(t *testing.T) {
	f := newPermissionFixture()
	s := NewPermissionService()
	classScope := f.classFolder.Scope()
	personalScope := f.personalOwned.Scope()

	tests := []struct {
		name      string
		scope     models.FolderScope
		status    models.FolderStatus
		actor     Actor
		classroom *models.Classroom
		expected  bool
	}{
		{"student sees active class folders", classScope, models.FolderStatusActive, f.student, f.classroom, true},
		{"student cannot see archived", classScope, models.FolderStatusArchived, f.student, f.classroom, false},
		{"student cannot see deleted", classScope, models.FolderStatusDeleted, f.student, f.classroom, false},
		{"teacher sees archived", classScope, models.FolderStatusArchived, f.teacher, f.classroom, true},
		{"school admin sees deleted", classScope, models.FolderStatusDeleted, f.schoolAdmin, f.classroom, true},
		{"owner sees own archived", personalScope, models.FolderStatusArchived, f.owner, nil, true},
		{"system admin sees archived", personalScope, models.FolderStatusArchived, f.systemAdmin, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.CanReadStatus(tt.scope, tt.status, tt.actor, tt.classroom))
		})
	}
}

func TestPermissionService_CanTargetClass(t *testing.T) {
	f := newPermissionFixture()
	s := NewPermissionService()

	assert.True(t, s.CanTargetClass(f.teacher, f.classroom, false))
	assert.True(t, s.CanTargetClass(f.teacher, f.classroom, true))
	assert.False(t, s.CanTargetClass(f.schoolAdmin, f.classroom, false))
	assert.True(t, s.CanTargetClass(f.schoolAdmin, f.classroom, true))
	assert.False(t, s.CanTargetClass(f.foreignAdmin, f.classroom, true))
	assert.False(t, s.CanTargetClass(f.teacher, nil, false))
}

func TestPermissionService_Deny(t *testing.T) {
	s := NewPermissionService()
	err := s.Deny("rename", uuid.New(), Actor{UserID: uuid.New()})

	assert.ErrorIs(t, err, types.ErrForbidden)
	assert.Contains(t, err.Error(), "rename")
}
