// Package evaluation implements the student evaluation screen: the
// School → ClassGroup → Subject → Student cascade and one shared form whose
// schema follows the class group's education level.
package evaluation

import (
	"context"
	"sync"

	"github.com/seduc-pe/academic-hub/internal/application/cascade"
	"github.com/seduc-pe/academic-hub/internal/domain/academic"
	domain "github.com/seduc-pe/academic-hub/internal/domain/evaluation"
	"github.com/seduc-pe/academic-hub/internal/domain/shared"
	"github.com/seduc-pe/academic-hub/pkg/logger"
)

// Builder assembles one evaluation record at a time. Safe for concurrent use.
//
// The form belongs to the (class group, subject) pair: choosing a different
// subject starts a blank form, choosing a different student keeps it.
type Builder struct {
	cascade   *cascade.Controller
	store     domain.Store
	publisher shared.EventPublisher
	log       *logger.Logger

	mu      sync.Mutex
	form    *domain.Form
	formFor uint64
	last    *shared.SaveResult
}

// New creates a builder.
func New(dir academic.Directory, store domain.Store, publisher shared.EventPublisher, log *logger.Logger) *Builder {
	if publisher == nil {
		publisher = shared.NopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("evaluation"))
	return &Builder{
		cascade: cascade.New(dir,
			cascade.WithDepth(cascade.LevelStudent),
			cascade.WithRosterOn(cascade.LevelSubject),
			cascade.WithLogger(log)),
		store:     store,
		publisher: publisher,
		log:       log,
	}
}

// Cascade exposes the selection chain.
func (b *Builder) Cascade() *cascade.Controller { return b.cascade }

// Load fetches the school list.
func (b *Builder) Load(ctx context.Context) error {
	return b.cascade.Load(ctx)
}

// Select forwards a selection to the cascade.
func (b *Builder) Select(ctx context.Context, level cascade.Level, id shared.ID) error {
	return b.cascade.Select(ctx, level, id)
}

// Hydrate opens the screen directly on a class group.
func (b *Builder) Hydrate(ctx context.Context, classGroupID shared.ID) error {
	return b.cascade.Hydrate(ctx, classGroupID)
}

// SelectStudent switches the active record. The form is not saved or cleared.
func (b *Builder) SelectStudent(ctx context.Context, studentID shared.ID) error {
	return b.cascade.Select(ctx, cascade.LevelStudent, studentID)
}

// SetField writes a field of the active schema.
func (b *Builder) SetField(name string, value any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	form, err := b.activeForm("SetField")
	if err != nil {
		return err
	}
	return b.reject("SetField", form.SetField(name, value))
}

// ToggleAttitudinalFlag flips a lower-elementary attitudinal flag.
func (b *Builder) ToggleAttitudinalFlag(name string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	form, err := b.activeForm("ToggleAttitudinalFlag")
	if err != nil {
		return false, err
	}
	on, err := form.ToggleAttitudinalFlag(name)
	return on, b.reject("ToggleAttitudinalFlag", err)
}

// activeForm returns the form when a student is selected. Caller holds b.mu.
func (b *Builder) activeForm(op string) (*domain.Form, error) {
	snap := b.sync()
	if b.form == nil || !snap.StudentID.IsValid() {
		return nil, b.reject(op, shared.InvalidOperation("evaluation", op, "select a student first"))
	}
	return b.form, nil
}

func (b *Builder) reject(op string, err error) error {
	if err != nil && (shared.IsInvalidOperation(err) || shared.IsValidation(err)) {
		b.log.Debug("operation rejected", logger.Operation(op), logger.Err(err))
	}
	return err
}

// sync replaces the form whenever the subject or one of its ancestors is
// selected again. Caller holds b.mu.
func (b *Builder) sync() cascade.Snapshot {
	snap := b.cascade.Snapshot()
	if snap.ClassGroup == nil || !snap.SubjectID.IsValid() {
		b.form, b.last = nil, nil
		return snap
	}
	token := snap.Tokens[cascade.LevelSubject]
	if b.form == nil || b.formFor != token {
		b.form, _ = domain.NewForm(snap.ClassGroup.EducationLevel)
		b.formFor = token
		b.last = nil
	}
	return snap
}

// Submit saves the record of the selected student. The form is kept for the
// next student.
func (b *Builder) Submit(ctx context.Context) (shared.SaveResult, error) {
	b.mu.Lock()
	snap := b.sync()
	rec, err := b.record(snap)
	b.mu.Unlock()
	if err != nil {
		return shared.SaveResult{}, b.reject("Submit", err)
	}

	log := b.log.With(logger.StudentID(rec.StudentID.Int64()), logger.SubjectID(rec.SubjectID.Int64()))
	res, err := b.store.SaveEvaluation(ctx, rec)
	if err != nil {
		log.Warn("evaluation save failed", logger.Err(err))
		return shared.SaveResult{}, shared.ProviderFailure("evaluation", "Submit", err)
	}
	if !res.Success {
		return res, shared.NewDomainError("evaluation", "Submit", shared.ErrProviderFailure, "provider rejected the evaluation: "+res.Message)
	}

	b.mu.Lock()
	if b.formFor == snap.Tokens[cascade.LevelSubject] {
		b.last = &res
	}
	b.mu.Unlock()

	ev := shared.NewEvaluationSavedEvent(rec.StudentID, rec.SubjectID, rec.ClassGroupID, rec.EducationLevel.String(), res.ReceiptID)
	if err := b.publisher.Publish(ev); err != nil {
		log.Warn("failed to publish event", logger.Err(err))
	}
	log.Info("evaluation saved", logger.String("receipt_id", res.ReceiptID))
	return res, nil
}

// Record returns the record Submit would send.
func (b *Builder) Record() (domain.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.record(b.sync())
}

func (b *Builder) record(snap cascade.Snapshot) (domain.Record, error) {
	switch {
	case snap.ClassGroup == nil:
		return domain.Record{}, shared.MissingContext("evaluation", "Submit", "select a class group")
	case !snap.SubjectID.IsValid():
		return domain.Record{}, shared.MissingContext("evaluation", "Submit", "select a subject")
	case !snap.StudentID.IsValid() || b.form == nil:
		return domain.Record{}, shared.MissingContext("evaluation", "Submit", "select a student")
	}
	rec := domain.Record{
		StudentID:      snap.StudentID,
		SubjectID:      snap.SubjectID,
		ClassGroupID:   snap.ClassGroupID,
		EducationLevel: snap.ClassGroup.EducationLevel,
		Payload:        b.form.Payload(),
	}
	return rec, rec.Validate()
}

// View is what the evaluation screen renders.
type View struct {
	Cascade  cascade.Snapshot   `json:"cascade"`
	Student  *academic.Student  `json:"student,omitempty"`
	Fields   []string           `json:"fields"`
	Payload  domain.Payload     `json:"payload,omitempty"`
	LastSave *shared.SaveResult `json:"last_save,omitempty"`
}

// View returns the current screen state.
func (b *Builder) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	snap := b.sync()

	v := View{Cascade: snap, Fields: []string{}}
	if st, ok := snap.Student(); ok {
		v.Student = &st
	}
	if b.form != nil {
		v.Fields = domain.FieldsFor(b.form.Level())
		v.Payload = b.form.Payload()
	}
	if b.last != nil {
		res := *b.last
		v.LastSave = &res
	}
	return v
}
