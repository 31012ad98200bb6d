package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/linguapath-backend/internal/data/repos"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

type Repos struct {
	Curriculum     repos.CurriculumRepo
	Attempt        repos.AttemptRepo
	UnitCompletion repos.UnitCompletionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Curriculum:     repos.NewCurriculumRepo(db, log),
		Attempt:        repos.NewAttemptRepo(db, log),
		UnitCompletion: repos.NewUnitCompletionRepo(db, log),
	}
}
