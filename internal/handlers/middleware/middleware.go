package middleware

import (
	"lessonfolders/config"
	"lessonfolders/internal/database"
	"lessonfolders/internal/repositories"

	logger "github.com/Bparsons0904/goLogger"
)

type Middleware struct {
	DB     database.DB
	users  repositories.UserDirectory
	roles  repositories.RoleOracle
	Config config.Config
	log    logger.Logger
}

func New(
	db database.DB,
	config config.Config,
	repos repositories.Repository,
) Middleware {
	log := logger.New("middleware")

	return Middleware{
		DB:     db,
		users:  repos.Directory,
		roles:  repos.Directory,
		Config: config,
		log:    log,
	}
}
