package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/yungbote/linguapath-backend/internal/data/db"
	"github.com/yungbote/linguapath-backend/internal/data/repos"
	types "github.com/yungbote/linguapath-backend/internal/domain"
	"github.com/yungbote/linguapath-backend/internal/platform/apierr"
	"github.com/yungbote/linguapath-backend/internal/platform/dbctx"
	"github.com/yungbote/linguapath-backend/internal/platform/logger"
)

const CodeInvalidCurriculum = "invalid_curriculum"

// CurriculumDocument is the bulk-upload format for the hierarchy. Positions
// follow list order.
type CurriculumDocument struct {
	Concepts []ConceptDoc `yaml:"concepts" validate:"dive"`
	Programs []ProgramDoc `yaml:"programs" validate:"required,min=1,dive"`
}

type ConceptDoc struct {
	ID          string `yaml:"id" validate:"required,max=64"`
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description"`
}

type ProgramDoc struct {
	ID          string     `yaml:"id" validate:"required,max=64"`
	Name        string     `yaml:"name" validate:"required"`
	Description string     `yaml:"description"`
	Stages      []StageDoc `yaml:"stages" validate:"dive"`
}

type StageDoc struct {
	ID          string    `yaml:"id" validate:"required,max=64"`
	Name        string    `yaml:"name" validate:"required"`
	Description string    `yaml:"description"`
	Units       []UnitDoc `yaml:"units" validate:"dive"`
}

type UnitDoc struct {
	ID          string          `yaml:"id" validate:"required,max=64"`
	Name        string          `yaml:"name" validate:"required"`
	Description string          `yaml:"description"`
	Subconcepts []SubconceptDoc `yaml:"subconcepts" validate:"dive"`
}

type SubconceptDoc struct {
	ID           string   `yaml:"id" validate:"required,max=64"`
	Description  string   `yaml:"description"`
	MaxScore     int      `yaml:"max_score" validate:"gte=0"`
	NumQuestions int      `yaml:"num_questions" validate:"gte=0"`
	ConceptID    string   `yaml:"concept_id" validate:"max=64"`
	Link         string   `yaml:"link"`
	Dependencies []string `yaml:"dependencies"`
}

type ImportSummary struct {
	Programs    int `json:"programs"`
	Stages      int `json:"stages"`
	Units       int `json:"units"`
	Subconcepts int `json:"subconcepts"`
	Concepts    int `json:"concepts"`
}

// ParseCurriculum decodes a YAML curriculum document, rejecting unknown fields.
func ParseCurriculum(r io.Reader) (*CurriculumDocument, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc CurriculumDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, apierr.BadRequest(CodeInvalidCurriculum, fmt.Errorf("decode curriculum: %w", err))
	}
	return &doc, nil
}

type CurriculumImportService interface {
	ImportCurriculum(ctx context.Context, doc *CurriculumDocument) (*ImportSummary, error)
}

type curriculumImportService struct {
	tx         db.TxRunner
	log        *logger.Logger
	curriculum repos.CurriculumRepo
	validate   *validator.Validate
}

func NewCurriculumImportService(tx db.TxRunner, baseLog *logger.Logger, curriculum repos.CurriculumRepo) CurriculumImportService {
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &curriculumImportService{
		tx:         tx,
		log:        baseLog.With("service", "CurriculumImportService"),
		curriculum: curriculum,
		validate:   validator.New(),
	}
}

// checkUnique rejects ids reused within one level of the document.
func checkUnique(doc *CurriculumDocument) error {
	seen := map[string]map[string]bool{}
	mark := func(kind, id string) error {
		if seen[kind] == nil {
			seen[kind] = map[string]bool{}
		}
		if seen[kind][id] {
			return apierr.BadRequest(CodeInvalidCurriculum, fmt.Errorf("duplicate %s id %q", kind, id))
		}
		seen[kind][id] = true
		return nil
	}
	for _, c := range doc.Concepts {
		if err := mark("concept", c.ID); err != nil {
			return err
		}
	}
	for _, p := range doc.Programs {
		if err := mark("program", p.ID); err != nil {
			return err
		}
		for _, st := range p.Stages {
			if err := mark("stage", st.ID); err != nil {
				return err
			}
			for _, u := range st.Units {
				if err := mark("unit", u.ID); err != nil {
					return err
				}
				for _, sc := range u.Subconcepts {
					if err := mark("subconcept", sc.ID); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func (s *curriculumImportService) ImportCurriculum(ctx context.Context, doc *CurriculumDocument) (*ImportSummary, error) {
	if doc == nil {
		return nil, apierr.BadRequest(CodeInvalidCurriculum, fmt.Errorf("empty curriculum"))
	}
	if err := s.validate.Struct(doc); err != nil {
		return nil, validationError(CodeInvalidCurriculum, err)
	}
	if err := checkUnique(doc); err != nil {
		return nil, err
	}

	sum := &ImportSummary{}
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		*sum = ImportSummary{}
		for _, c := range doc.Concepts {
			if err := s.curriculum.UpsertConcept(dbc, &types.Concept{ID: c.ID, Name: c.Name, Description: c.Description}); err != nil {
				return fmt.Errorf("concept %s: %w", c.ID, err)
			}
			sum.Concepts++
		}
		for _, p := range doc.Programs {
			if err := s.importProgram(dbc, p, sum); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("curriculum imported",
		"programs", sum.Programs,
		"stages", sum.Stages,
		"units", sum.Units,
		"subconcepts", sum.Subconcepts,
		"concepts", sum.Concepts,
	)
	return sum, nil
}

func (s *curriculumImportService) importProgram(dbc dbctx.Context, p ProgramDoc, sum *ImportSummary) error {
	program := &types.Program{ID: p.ID, Name: p.Name, Description: p.Description}
	if err := s.curriculum.UpsertProgram(dbc, program); err != nil {
		return fmt.Errorf("program %s: %w", p.ID, err)
	}
	sum.Programs++

	for si, st := range p.Stages {
		stage := &types.Stage{ID: st.ID, ProgramID: p.ID, Name: st.Name, Description: st.Description, Position: si}
		if err := s.curriculum.UpsertStage(dbc, stage); err != nil {
			return fmt.Errorf("stage %s: %w", st.ID, err)
		}
		sum.Stages++

		for ui, u := range st.Units {
			unit := &types.Unit{ID: u.ID, ProgramID: p.ID, StageID: st.ID, Name: u.Name, Description: u.Description, Position: ui}
			if err := s.curriculum.UpsertUnit(dbc, unit); err != nil {
				return fmt.Errorf("unit %s: %w", u.ID, err)
			}
			sum.Units++

			for ci, sc := range u.Subconcepts {
				row := &types.Subconcept{
					ID:           sc.ID,
					Description:  sc.Description,
					MaxScore:     sc.MaxScore,
					NumQuestions: sc.NumQuestions,
					Link:         sc.Link,
				}
				if cid := strings.TrimSpace(sc.ConceptID); cid != "" {
					row.ConceptID = &cid
				}
				if err := s.curriculum.UpsertSubconcept(dbc, row); err != nil {
					return fmt.Errorf("subconcept %s: %w", sc.ID, err)
				}
				deps, err := json.Marshal(nonNil(sc.Dependencies))
				if err != nil {
					return err
				}
				mapping := &types.UnitSubconcept{
					UnitID:       u.ID,
					SubconceptID: sc.ID,
					Position:     ci,
					Dependencies: datatypes.JSON(deps),
				}
				if err := s.curriculum.UpsertUnitSubconcept(dbc, mapping); err != nil {
					return fmt.Errorf("unit subconcept %s: %w", sc.ID, err)
				}
				sum.Subconcepts++
			}
		}
	}
	return s.curriculum.RefreshProgramCounts(dbc, p.ID)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
