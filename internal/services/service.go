package services

import (
	"lessonfolders/internal/database"
	"lessonfolders/internal/repositories"
)

type Service struct {
	Transaction *TransactionService
	Permission  *PermissionService
	Ordering    *OrderingService
	ScopeLock   *ScopeLockService
}

func New(db database.DB, repos repositories.Repository) Service {
	return Service{
		Transaction: NewTransactionService(db),
		Permission:  NewPermissionService(),
		Ordering:    NewOrderingService(repos.Folder),
		ScopeLock:   NewScopeLockService(),
	}
}
