package dose

import (
	"context"
	"sync"

	"github.com/fdg312/insulin-calc/internal/dosecalc"
	"github.com/fdg312/insulin-calc/internal/i18n"
	"github.com/sirupsen/logrus"
)

// Session owns the calculator state. All writes go through one mutex, so a
// carb edit and its derived counterpart are never observed apart.
type Session struct {
	mu   sync.Mutex
	repo *Repository
	log  logrus.FieldLogger

	inputs     Inputs
	showRatios bool
	lang       i18n.Language
	langStored bool
	loaded     bool
}

func NewSession(repo *Repository, logger logrus.FieldLogger) *Session {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Session{
		repo: repo,
		log:  logger.WithField("component", "dose"),
		lang: i18n.Default,
	}
}

// Load initializes inputs from the persisted record and the stored
// language. Carbs and blood glucose always start empty. Storage problems
// are logged and the defaults are used.
func (s *Session) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
}

func (s *Session) loadLocked(ctx context.Context) {
	persisted, err := s.repo.Load(ctx)
	if err != nil {
		s.log.WithError(err).Warn("persisted inputs unavailable, using defaults")
	}
	s.inputs = Inputs{
		TotalDailyDose:     persisted.TotalDailyDose,
		BasalDose:          persisted.BasalDose,
		TargetBloodGlucose: persisted.TargetBloodGlucose,
	}

	lang, found, err := s.repo.LoadLanguage(ctx)
	if err != nil {
		s.log.WithError(err).Warn("stored language unavailable")
	}
	s.lang = lang
	s.langStored = found
	s.loaded = true
}

func (s *Session) ensureLoaded(ctx context.Context) {
	if !s.loaded {
		s.loadLocked(ctx)
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	return State{
		Inputs:     s.inputs,
		ShowRatios:     s.showRatios,
		Language:       s.lang,
		LanguageStored: s.langStored,
	}
}

// View builds the rendered state. When no language was ever stored the
// client's Accept-Language header decides, without persisting it.
func (s *Session) View(ctx context.Context, acceptLanguage string) View {
	return RenderView(s.Snapshot(ctx), acceptLanguage)
}

// Apply performs one field edit. Edits to TDD, basal or target glucose are
// persisted; a failed write is logged and does not fail the edit.
func (s *Session) Apply(ctx context.Context, e Edit) (State, error) {
	if err := e.Validate(); err != nil {
		return State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	q := dosecalc.ParseQuantity(e.Value)
	switch e.Field {
	case FieldBloodGlucose:
		s.inputs.BloodGlucose = q
	case FieldTotalDailyDose:
		s.inputs.TotalDailyDose = q
	case FieldBasalDose:
		s.inputs.BasalDose = q
	case FieldTargetBloodGlucose:
		s.inputs.TargetBloodGlucose = q
	case FieldCarbGrams:
		s.inputs.Carbs.EditGrams(q)
	case FieldCarbUnits:
		s.inputs.Carbs.EditUnits(q)
	}

	if e.Field.persisted() {
		if err := s.repo.Save(ctx, s.inputs.persistedState()); err != nil {
			s.log.WithError(err).WithField("field", e.Field).Warn("failed to persist inputs")
		}
	}
	return s.stateLocked(), nil
}

// Refresh clears every field, restores the reset target glucose and
// removes the persisted record. Language and ratio visibility are kept.
func (s *Session) Refresh(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	s.inputs = Inputs{
		TargetBloodGlucose: dosecalc.QuantityOf(s.repo.resetTargetBG()),
	}
	if err := s.repo.Remove(ctx); err != nil {
		s.log.WithError(err).Warn("failed to remove persisted inputs")
	}
	return s.stateLocked()
}

// SetLanguage stores lang; unsupported values become English.
func (s *Session) SetLanguage(ctx context.Context, lang i18n.Language) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)
	s.setLanguageLocked(ctx, i18n.ParseLanguage(string(lang)))
	return s.stateLocked()
}

// ToggleLanguage switches between English and Thai.
func (s *Session) ToggleLanguage(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)
	s.setLanguageLocked(ctx, i18n.Toggle(s.lang))
	return s.stateLocked()
}

func (s *Session) setLanguageLocked(ctx context.Context, lang i18n.Language) {
	s.lang = lang
	s.langStored = true
	if err := s.repo.SaveLanguage(ctx, lang); err != nil {
		s.log.WithError(err).Warn("failed to persist language")
	}
}

// ToggleRatios flips ICR/ISF visibility. Not persisted.
func (s *Session) ToggleRatios(ctx context.Context) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)
	s.showRatios = !s.showRatios
	return s.stateLocked()
}
