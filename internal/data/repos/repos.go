package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/linguapath-backend/internal/data/repos/curriculum"
	"github.com/yungbote/linguapath-backend/internal/data/repos/progress"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

type CurriculumRepo = curriculum.CurriculumRepo

type AttemptRepo = progress.AttemptRepo
type UnitCompletionRepo = progress.UnitCompletionRepo

func NewCurriculumRepo(db *gorm.DB, baseLog *logger.Logger) CurriculumRepo {
	return curriculum.NewCurriculumRepo(db, baseLog)
}

func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	return progress.NewAttemptRepo(db, baseLog)
}

func NewUnitCompletionRepo(db *gorm.DB, baseLog *logger.Logger) UnitCompletionRepo {
	return progress.NewUnitCompletionRepo(db, baseLog)
}
