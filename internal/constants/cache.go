package constants

import "time"

const (
	FolderListCachePrefix       = "folders"            // Folder listings by scope key and status (CacheBuilder adds colon)
	FolderGenerationCachePrefix = "folders_generation" // Listing generation by scope key
	UserCachePrefix             = "directory_user"     // Directory user by id
	UserRolesCachePrefix        = "directory_roles"    // Role names by user id
	ClassroomCachePrefix        = "directory_class"    // Classroom by id
	EnrollmentCachePrefix       = "directory_enrolled" // Enrollment flag by class id and user id
	DefaultFolderCacheTTL       = 5 * time.Minute
	DirectoryCacheExpiry        = 10 * time.Minute
	MaxBulkDeleteFolderSize     = 500
)
