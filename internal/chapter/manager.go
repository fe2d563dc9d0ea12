package chapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"chronicle/internal/event"
	"chronicle/internal/snapshot"
	"chronicle/internal/store"
	"chronicle/internal/telemetry"
)

type Status string

const (
	StatusCompleted  Status = "completed"
	StatusAborted    Status = "aborted"
	StatusMerged     Status = "merged"
	StatusNoBoundary Status = "no_boundary"
)

// Result reports what an orchestration call did. An aborted call changed
// nothing.
type Result struct {
	Status  Status
	Index   int
	Reason  event.ChapterReason
	Trigger event.TurnRef

	// DescriptionErr is set when the narrator failed and the previous
	// description, if any, was kept.
	DescriptionErr error
}

// Manager closes, recalculates and invalidates chapters on one store. Like
// the store, it is meant for a single writer.
type Manager struct {
	store    *store.Store
	resolver store.Resolver
	narrator Narrator
	cfg      Config
	now      func() time.Time
	tracer   trace.Tracer
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(m *Manager) { m.tracer = tracer }
}

func NewManager(s *store.Store, resolver store.Resolver, narrator Narrator, cfg Config, opts ...Option) *Manager {
	if narrator == nil {
		narrator = Untitled
	}
	m := &Manager{
		store:    s,
		resolver: resolver,
		narrator: narrator,
		cfg:      cfg,
		now:      time.Now,
		tracer:   telemetry.Tracer(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ProcessTurn runs boundary detection for a turn whose extraction has just
// been appended and closes a chapter there when one is found.
func (m *Manager) ProcessTurn(ctx context.Context, turnID int) (Result, error) {
	ctx, span := m.tracer.Start(ctx, "chapter.ProcessTurn", trace.WithAttributes(attribute.Int("turn", turnID)))
	defer span.End()

	trigger := event.Ref(turnID, m.resolver.CanonicalVariant(turnID))
	prevTurn, ok := m.previousTurn(turnID)
	if !ok || m.closedAt(trigger) {
		return Result{Status: StatusNoBoundary, Trigger: trigger}, nil
	}

	prev, err := m.store.ProjectStateAtMessage(prevTurn, m.resolver)
	if err != nil {
		return Result{}, fmt.Errorf("projecting turn %d: %w", prevTurn, err)
	}
	next, err := m.store.ProjectStateAtMessage(turnID, m.resolver)
	if err != nil {
		return Result{}, fmt.Errorf("projecting turn %d: %w", turnID, err)
	}

	reason, ok := DetectBoundary(prev, next, m.cfg)
	if !ok {
		return Result{Status: StatusNoBoundary, Trigger: trigger}, nil
	}
	span.SetAttributes(attribute.String("reason", string(reason)))
	return m.close(ctx, reason, trigger, next)
}

// CloseManually closes the current chapter at turnID regardless of boundaries.
func (m *Manager) CloseManually(ctx context.Context, turnID int) (Result, error) {
	ctx, span := m.tracer.Start(ctx, "chapter.CloseManually", trace.WithAttributes(attribute.Int("turn", turnID)))
	defer span.End()

	trigger := event.Ref(turnID, m.resolver.CanonicalVariant(turnID))
	if m.closedAt(trigger) {
		return Result{}, fmt.Errorf("turn %s already closes a chapter", trigger)
	}
	state, err := m.store.ProjectStateAtMessage(turnID, m.resolver)
	if err != nil {
		return Result{}, fmt.Errorf("projecting turn %d: %w", turnID, err)
	}
	return m.close(ctx, event.ReasonManual, trigger, state)
}

func (m *Manager) close(ctx context.Context, reason event.ChapterReason, trigger event.TurnRef, state *snapshot.Projection) (Result, error) {
	index := m.store.NextChapterIndex(m.resolver)
	result := Result{Status: StatusCompleted, Index: index, Reason: reason, Trigger: trigger}
	if ctx.Err() != nil {
		return aborted(result), nil
	}

	desc, err := m.describe(ctx, Input{
		Index:   index,
		Reason:  reason,
		Trigger: trigger,
		State:   state,
		Events:  m.chapterEvents(index, trigger.TurnID),
	})
	if ctx.Err() != nil {
		return aborted(result), nil
	}
	result.DescriptionErr = err

	return result, m.edit(func(work *store.Store) error {
		base := m.stamp(work, trigger.TurnID)
		work.Append(event.Event{
			ID:        uuid.NewString(),
			Source:    trigger,
			Timestamp: base,
			Payload:   event.ChapterEnded{ChapterIndex: index, Reason: reason},
		})
		if err == nil {
			work.Append(described(trigger, base+1, index, desc))
		}
		return m.freeze(work, index, trigger)
	})
}

// Recalculate regenerates the description of chapter index and rebuilds its
// snapshot. The chapter/ended event is never touched. If the narrator fails
// the old description stays and the snapshot is still rebuilt.
func (m *Manager) Recalculate(ctx context.Context, index int) (Result, error) {
	ctx, span := m.tracer.Start(ctx, "chapter.Recalculate", trace.WithAttributes(attribute.Int("chapter", index)))
	defer span.End()

	ended, ok := m.store.ChapterEnd(index, m.resolver)
	if !ok {
		return Result{}, fmt.Errorf("chapter %d: %w", index, store.ErrNotFound)
	}
	trigger := ended.Source
	if snap, ok := m.store.ChapterSnapshot(index); ok && snap.VariantID == m.resolver.CanonicalVariant(snap.Source.TurnID) {
		trigger = snap.Source
	}
	reason := ended.Payload.(event.ChapterEnded).Reason
	result := Result{Status: StatusCompleted, Index: index, Reason: reason, Trigger: trigger}
	if ctx.Err() != nil {
		return aborted(result), nil
	}

	state, err := m.store.ProjectFromInitial(trigger.TurnID, m.resolver)
	if err != nil {
		return Result{}, fmt.Errorf("projecting chapter %d: %w", index, err)
	}
	desc, descErr := m.describe(ctx, Input{
		Index:   index,
		Reason:  reason,
		Trigger: trigger,
		State:   state,
		Events:  m.chapterEvents(index, trigger.TurnID),
	})
	if ctx.Err() != nil {
		return aborted(result), nil
	}
	result.DescriptionErr = descErr

	return result, m.edit(func(work *store.Store) error {
		if descErr == nil {
			work.DeleteWhere(isDescription(index))
			work.Append(described(trigger, m.stamp(work, trigger.TurnID), index, desc))
		}
		work.RemoveChapterSnapshot(index)
		return m.freeze(work, index, trigger)
	})
}

// Invalidate re-evaluates chapter index after the canonical variant of its
// trigger turn changed. Without a boundary on the new content the chapter is
// removed and merges into the next one; otherwise its events are moved to the
// canonical variant and its snapshot rebuilt. Manually closed chapters stay
// closed.
func (m *Manager) Invalidate(ctx context.Context, index int) (Result, error) {
	ctx, span := m.tracer.Start(ctx, "chapter.Invalidate", trace.WithAttributes(attribute.Int("chapter", index)))
	defer span.End()

	turnID, oldReason, ok := m.triggerTurn(index)
	if !ok {
		return Result{}, fmt.Errorf("chapter %d: %w", index, store.ErrNotFound)
	}
	trigger := event.Ref(turnID, m.resolver.CanonicalVariant(turnID))
	result := Result{Status: StatusCompleted, Index: index, Trigger: trigger}
	if ctx.Err() != nil {
		return aborted(result), nil
	}

	state, err := m.store.ProjectStateAtMessage(turnID, m.resolver)
	if err != nil {
		return Result{}, fmt.Errorf("projecting turn %d: %w", turnID, err)
	}
	reason, boundary := event.ReasonManual, oldReason == event.ReasonManual
	if !boundary {
		if prevTurn, ok := m.previousTurn(turnID); ok {
			prev, err := m.store.ProjectStateAtMessage(prevTurn, m.resolver)
			if err != nil {
				return Result{}, fmt.Errorf("projecting turn %d: %w", prevTurn, err)
			}
			reason, boundary = DetectBoundary(prev, state, m.cfg)
		}
	}
	if ctx.Err() != nil {
		return aborted(result), nil
	}

	if !boundary {
		result.Status = StatusMerged
		span.SetAttributes(attribute.String("status", string(result.Status)))
		return result, m.edit(func(work *store.Store) error {
			work.DeleteWhere(isChapterEvent(index))
			work.RemoveChapterSnapshot(index)
			_, err := m.refreeze(work, othersFrom(index, turnID))
			return err
		})
	}

	result.Reason = reason
	desc, descErr := m.describe(ctx, Input{
		Index:   index,
		Reason:  reason,
		Trigger: trigger,
		State:   state,
		Events:  m.chapterEvents(index, turnID),
	})
	if ctx.Err() != nil {
		return aborted(result), nil
	}
	if descErr != nil {
		result.DescriptionErr = descErr
		if old, ok := m.anyDescription(index); ok {
			desc, descErr = Description{Title: old.Title, Summary: old.Summary}, nil
		}
	}

	return result, m.edit(func(work *store.Store) error {
		work.DeleteWhere(isChapterEvent(index))
		base := m.stamp(work, turnID)
		work.Append(event.Event{
			ID:        uuid.NewString(),
			Source:    trigger,
			Timestamp: base,
			Payload:   event.ChapterEnded{ChapterIndex: index, Reason: reason},
		})
		if descErr == nil {
			work.Append(described(trigger, base+1, index, desc))
		}
		work.RemoveChapterSnapshot(index)
		if err := m.freeze(work, index, trigger); err != nil {
			return err
		}
		_, err := m.refreeze(work, othersFrom(index, turnID))
		return err
	})
}

// SyncInitial rebuilds the initial snapshot when the canonical variant of its
// turn no longer matches the one it was built from, or when changedTurn is
// the initial turn and its events were edited in place. Pass -1 when no turn
// was edited.
func (m *Manager) SyncInitial(changedTurn int) (bool, error) {
	initial, ok := m.store.InitialSnapshot()
	if !ok {
		return false, store.ErrNotFound
	}
	turn := initial.Source.TurnID
	if changedTurn != turn && initial.VariantID == m.resolver.CanonicalVariant(turn) {
		return false, nil
	}
	if _, err := m.store.RebuildInitialSnapshot(m.resolver, event.ToMillis(m.now())); err != nil {
		return false, fmt.Errorf("rebuilding initial snapshot: %w", err)
	}
	logrus.Infof("chapter: rebuilt initial snapshot at turn %d", turn)
	return true, nil
}

// RefreshSnapshots rebuilds every chapter snapshot triggered at or after
// fromTurn. Ingest and edits call it when a turn's events changed in place,
// which leaves the variant ids unchanged but the snapshots stale. Snapshots
// whose chapter/ended event is gone are dropped rather than rebuilt.
func (m *Manager) RefreshSnapshots(fromTurn int) (int, error) {
	rebuilt := 0
	err := m.edit(func(work *store.Store) error {
		n, err := m.refreeze(work, func(snap snapshot.Snapshot) bool {
			return snap.Source.TurnID >= fromTurn
		})
		rebuilt = n
		return err
	})
	if err != nil {
		return 0, err
	}
	return rebuilt, nil
}

// refreeze rebuilds the chapter snapshots of work selected by stale and
// returns how many were rebuilt. A snapshot whose chapter/ended event no
// longer exists at its trigger ref is removed.
func (m *Manager) refreeze(work *store.Store, stale func(snapshot.Snapshot) bool) (int, error) {
	rebuilt := 0
	for _, snap := range work.Snapshots() {
		if snap.IsInitial() || !stale(snap) {
			continue
		}
		index := snap.Chapter()
		work.RemoveChapterSnapshot(index)
		if !work.ChapterClosedAt(index, snap.Source) {
			logrus.Infof("chapter: dropping orphaned snapshot of chapter %d at %s", index, snap.Source)
			continue
		}
		err := m.freeze(work, index, snap.Source)
		if errors.Is(err, store.ErrNoSnapshotAvailable) {
			logrus.Warnf("chapter: dropping snapshot of chapter %d at %s: %v", index, snap.Source, err)
			continue
		}
		if err != nil {
			return rebuilt, err
		}
		rebuilt++
	}
	return rebuilt, nil
}

// othersFrom selects every chapter snapshot other than index triggered at or
// after turnID.
func othersFrom(index, turnID int) func(snapshot.Snapshot) bool {
	return func(snap snapshot.Snapshot) bool {
		return snap.Chapter() != index && snap.Source.TurnID >= turnID
	}
}

func (m *Manager) describe(ctx context.Context, in Input) (Description, error) {
	ctx, span := m.tracer.Start(ctx, "chapter.describe")
	defer span.End()

	desc, err := m.narrator.Describe(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "describe failed")
		if ctx.Err() == nil {
			logrus.Warnf("chapter: describing chapter %d: %v", in.Index, err)
		}
		return Description{}, err
	}
	if desc.Title == "" {
		desc.Title = untitled(in.Index, in.Reason)
	}
	return desc, nil
}

// edit applies fn to a clone of the store and commits only if fn succeeds, so
// a failed step never leaves a snapshot removed without its rebuild.
func (m *Manager) edit(fn func(work *store.Store) error) error {
	session := m.store.BeginEdit()
	if err := fn(session.Work()); err != nil {
		session.Cancel()
		return err
	}
	return session.Commit()
}

// freeze stores a chapter snapshot computed from the initial snapshot and the
// canonical events up to trigger, with trigger's own variant used at its turn.
func (m *Manager) freeze(work *store.Store, index int, trigger event.TurnRef) error {
	pinned := store.ResolverFunc(func(turnID int) int {
		if turnID == trigger.TurnID {
			return trigger.VariantID
		}
		return m.resolver.CanonicalVariant(turnID)
	})
	p, err := work.ProjectFromInitial(trigger.TurnID, pinned)
	if err != nil {
		return fmt.Errorf("rebuilding chapter %d snapshot: %w", index, err)
	}
	work.PutChapterSnapshot(snapshot.FromProjection(p, snapshot.Meta{
		Type:         snapshot.TypeChapter,
		ChapterIndex: &index,
		Source:       trigger,
		CreatedAt:    event.ToMillis(m.now()),
	}))
	return nil
}

// stamp returns a timestamp that sorts after everything already at turnID.
func (m *Manager) stamp(s *store.Store, turnID int) int64 {
	now := event.ToMillis(m.now())
	if last, ok := s.LastTimestamp(turnID); ok && last >= now {
		return last + 1
	}
	return now
}

func (m *Manager) previousTurn(turnID int) (int, bool) {
	prev, found := 0, false
	for _, turn := range m.store.Turns() {
		if turn >= turnID {
			break
		}
		prev, found = turn, true
	}
	return prev, found
}

func (m *Manager) closedAt(trigger event.TurnRef) bool {
	for _, c := range m.store.Chapters(m.resolver) {
		if c.Trigger == trigger {
			return true
		}
	}
	return false
}

// triggerTurn locates the turn that closed chapter index from its snapshot or,
// failing that, from any live chapter/ended event regardless of variant.
func (m *Manager) triggerTurn(index int) (int, event.ChapterReason, bool) {
	ended, found := m.store.ChapterEnd(index, nil)
	var reason event.ChapterReason
	if found {
		reason = ended.Payload.(event.ChapterEnded).Reason
	}
	if snap, ok := m.store.ChapterSnapshot(index); ok {
		return snap.Source.TurnID, reason, true
	}
	if !found {
		return 0, "", false
	}
	return ended.Source.TurnID, reason, true
}

func (m *Manager) anyDescription(index int) (event.ChapterDescribed, bool) {
	return m.store.ChapterDescription(index, nil)
}

// chapterEvents returns the canonical events from the end of the previous
// chapter up to and including turnID.
func (m *Manager) chapterEvents(index, turnID int) []event.Event {
	after := -1
	if initial, ok := m.store.InitialSnapshot(); ok {
		after = initial.Source.TurnID - 1
	}
	if index > 0 {
		if prev, ok := m.store.ChapterEnd(index-1, m.resolver); ok {
			after = prev.Source.TurnID
		}
	}
	return m.store.Canonical(after, turnID, m.resolver)
}

func aborted(result Result) Result {
	result.Status = StatusAborted
	return result
}

func described(source event.TurnRef, ts int64, index int, desc Description) event.Event {
	return event.Event{
		ID:        uuid.NewString(),
		Source:    source,
		Timestamp: ts,
		Payload: event.ChapterDescribed{
			ChapterIndex: index,
			Title:        desc.Title,
			Summary:      desc.Summary,
		},
	}
}

func isDescription(index int) func(event.Event) bool {
	return func(e event.Event) bool {
		d, ok := e.Payload.(event.ChapterDescribed)
		return ok && d.ChapterIndex == index
	}
}

func isChapterEvent(index int) func(event.Event) bool {
	return func(e event.Event) bool {
		switch payload := e.Payload.(type) {
		case event.ChapterEnded:
			return payload.ChapterIndex == index
		case event.ChapterDescribed:
			return payload.ChapterIndex == index
		}
		return false
	}
}

func untitled(index int, reason event.ChapterReason) string {
	return fmt.Sprintf("Chapter %d (%s)", index+1, reason)
}
