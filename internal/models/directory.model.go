package models

import (
	"time"

	"github.com/google/uuid"
)

// The directory tables are maintained by the identity and classroom services.
// This service only reads them.

type User struct {
	BaseUUIDModel
	DisplayName string     `gorm:"type:text"               json:"displayName"`
	Email       *string    `gorm:"type:text;uniqueIndex"   json:"email"`
	SchoolID    *uuid.UUID `gorm:"type:uuid;index"         json:"schoolId,omitempty"`
	IsActive    bool       `gorm:"type:bool;default:true"  json:"isActive"`
	Roles       []UserRole `gorm:"foreignKey:UserID"       json:"roles,omitempty"`
}

type UserRole struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"        json:"userId"`
	Role      string    `gorm:"type:varchar(32);primaryKey" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime"              json:"createdAt"`
}

type Classroom struct {
	BaseUUIDModel
	Name      string    `gorm:"type:text"                json:"name"`
	TeacherID uuid.UUID `gorm:"type:uuid;not null;index" json:"teacherId"`
	SchoolID  uuid.UUID `gorm:"type:uuid;not null;index" json:"schoolId"`
}

type ClassEnrollment struct {
	ClassID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"classId"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"userId"`
	CreatedAt time.Time `gorm:"autoCreateTime"       json:"createdAt"`
}
