package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     FolderStatus
		to       FolderStatus
		expected bool
	}{
		{FolderStatusActive, FolderStatusArchived, true},
		{FolderStatusActive, FolderStatusDeleted, false},
		{FolderStatusActive, FolderStatusActive, false},
		{FolderStatusArchived, FolderStatusActive, true},
		{FolderStatusArchived, FolderStatusDeleted, true},
		{FolderStatusArchived, FolderStatusArchived, false},
		{FolderStatusDeleted, FolderStatusActive, false},
		{FolderStatusDeleted, FolderStatusArchived, false},
		{FolderStatus("bogus"), FolderStatusActive, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestParseFolderStatus(t *testing.T) {
	status, ok := ParseFolderStatus(" Archived ")
	assert.True(t, ok)
	assert.Equal(t, FolderStatusArchived, status)

	_, ok = ParseFolderStatus("trashed")
	assert.False(t, ok)
}

func TestFolder_ValidateOwnership(t *testing.T) {
	userID := uuid.New()
	classID := uuid.New()
	nilID := uuid.Nil

	tests := []struct {
		name    string
		folder  Folder
		wantErr bool
	}{
		{"personal with user", Folder{OwnerType: FolderOwnerPersonal, UserID: &userID}, false},
		{"class with class", Folder{OwnerType: FolderOwnerClass, ClassID: &classID}, false},
		{"personal without user", Folder{OwnerType: FolderOwnerPersonal}, true},
		{"personal with both", Folder{OwnerType: FolderOwnerPersonal, UserID: &userID, ClassID: &classID}, true},
		{"class with user only", Folder{OwnerType: FolderOwnerClass, UserID: &userID}, true},
		{"personal with nil uuid", Folder{OwnerType: FolderOwnerPersonal, UserID: &nilID}, true},
		{"unknown owner type", Folder{OwnerType: "group", UserID: &userID}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.folder.ValidateOwnership()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrFolderOwnership)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFolder_BeforeSaveDerivesScopeKey(t *testing.T) {
	userID := uuid.New()
	folder := &Folder{Name: "Math", Status: FolderStatusActive}
	folder.SetScope(PersonalScope(userID))
	folder.ScopeKey = ""

	require.NoError(t, folder.BeforeSave(nil))
	assert.Equal(t, "user:"+userID.String(), folder.ScopeKey)

	classID := uuid.New()
	folder.SetScope(ClassScope(classID))
	require.NoError(t, folder.BeforeSave(nil))
	assert.Equal(t, "class:"+classID.String(), folder.ScopeKey)
	assert.Nil(t, folder.UserID)
	assert.True(t, folder.IsClass())
}

func TestFolder_BeforeSaveRejectsInvalid(t *testing.T) {
	userID := uuid.New()

	invalidStatus := &Folder{Status: "gone"}
	invalidStatus.SetScope(PersonalScope(userID))
	assert.Error(t, invalidStatus.BeforeSave(nil))

	negativeOrder := &Folder{Status: FolderStatusActive, Order: -1}
	negativeOrder.SetScope(PersonalScope(userID))
	assert.Error(t, negativeOrder.BeforeSave(nil))

	orphan := &Folder{Status: FolderStatusActive, OwnerType: FolderOwnerPersonal}
	assert.ErrorIs(t, orphan.BeforeSave(nil), ErrFolderOwnership)
}

func TestBaseUUIDModel_BeforeCreateAssignsID(t *testing.T) {
	base := &BaseUUIDModel{}
	require.NoError(t, base.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, base.ID)

	existing := uuid.New()
	preset := &BaseUUIDModel{ID: existing}
	require.NoError(t, preset.BeforeCreate(nil))
	assert.Equal(t, existing, preset.ID)
}
