// Package engine implements the reconciliation cycle between the origin
// and mirror task systems.
//
// Each cycle snapshots both sides, rebuilds the origin-to-mirror link map
// from note tags, applies origin state to mirror tasks, propagates mirror
// completions back to origin, creates mirror tasks for new origin work,
// and persists the processed-ID sets. The link map itself is never
// persisted: the note tag is the durable record of every link, so the map
// is reconstructible from the mirror snapshot alone.
//
// No failure inside a cycle is fatal. A failed remote call leaves that
// item untouched for the next cycle; a failed snapshot disables the steps
// that would act on the missing data.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"questsync/internal/logging"
	"questsync/internal/store"
	"questsync/internal/task"
)

// OriginService is the slice of the origin client the engine depends on.
type OriginService interface {
	FetchDueToday(ctx context.Context) ([]task.OriginTask, error)
	Close(ctx context.Context, id string) error
}

// MirrorService is the slice of the mirror client the engine depends on.
type MirrorService interface {
	FetchTodos(ctx context.Context) ([]task.MirrorTask, error)
	Create(ctx context.Context, text, notes string) (*task.MirrorTask, error)
	Complete(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// Engine runs reconciliation cycles. It is not safe for concurrent use;
// wrap it in a Runner to serialize callers.
type Engine struct {
	origin OriginService
	mirror MirrorService
	store  store.Store

	// links maps origin task IDs to mirror task IDs. Process-lifetime
	// only: rebuilt from note tags each cycle, never persisted.
	links map[string]string

	loc *time.Location
	now func() time.Time
}

// Config holds the engine's collaborators.
type Config struct {
	Origin OriginService
	Mirror MirrorService
	Store  store.Store

	// Location is the reference timezone that decides what "today" means.
	// Defaults to UTC.
	Location *time.Location
}

// New creates an engine with an empty link map.
func New(cfg Config) *Engine {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}

	return &Engine{
		origin: cfg.Origin,
		mirror: cfg.Mirror,
		store:  cfg.Store,
		links:  make(map[string]string),
		loc:    loc,
		now:    time.Now,
	}
}

// RunCycle executes one reconciliation cycle and reports what it did.
// It returns an error only when both snapshots are unavailable and there
// is nothing to reconcile; every lesser failure degrades the Outcome
// instead of aborting.
func (e *Engine) RunCycle(ctx context.Context) (*Outcome, error) {
	started := e.now()
	outcome := &Outcome{
		CycleID: uuid.Must(uuid.NewV7()).String(),
		Started: started,
	}
	log := logging.Get().WithComponent("engine").WithCycle(outcome.CycleID)

	today := started.In(e.loc).Format("2006-01-02")
	log.WithField("date", today).Info("Reconciliation cycle starting")

	state, err := e.store.Load(ctx)
	if err != nil {
		log.WithError(err).Warn("Failed to load state, continuing with empty sets")
	}

	// Snapshot both sides concurrently. Every mutation step afterwards is
	// serialized on the single link map.
	var (
		wg          sync.WaitGroup
		originTasks []task.OriginTask
		mirrorTasks []task.MirrorTask
		originErr   error
		mirrorErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		originTasks, originErr = e.origin.FetchDueToday(ctx)
	}()
	go func() {
		defer wg.Done()
		mirrorTasks, mirrorErr = e.mirror.FetchTodos(ctx)
	}()
	wg.Wait()

	if originErr != nil && mirrorErr != nil {
		log.WithError(mirrorErr).WithField("origin_error", originErr.Error()).
			Error("Both snapshots failed, nothing to reconcile")
		outcome.Duration = e.now().Sub(started)
		return outcome, fmt.Errorf("both snapshots failed: origin: %v; mirror: %w", originErr, mirrorErr)
	}

	originOK := originErr == nil
	mirrorOK := mirrorErr == nil
	if !originOK {
		// Without an origin snapshot, absence from it means nothing: no
		// task may be completed or deleted for being missing.
		log.WithError(originErr).Error("Origin fetch failed, origin-driven steps disabled this cycle")
	}
	if !mirrorOK {
		log.WithError(mirrorErr).Error("Mirror fetch failed, running on the in-memory link map only")
	}

	outcome.OriginTasks = len(originTasks)
	outcome.MirrorTasks = len(mirrorTasks)

	originByID := make(map[string]task.OriginTask, len(originTasks))
	for _, t := range originTasks {
		originByID[t.ID] = t
	}

	if mirrorOK {
		e.reconcileLinks(log, mirrorTasks)
	}
	if originOK {
		e.syncOriginSide(ctx, log, today, originByID, state, outcome)
	}
	if mirrorOK {
		e.propagateMirrorCompletions(ctx, log, mirrorTasks, state, outcome)
	}
	if originOK {
		e.createMissingMirrors(ctx, log, today, originTasks, state, outcome)
	}

	saveErr := e.store.Save(ctx, state)
	if saveErr != nil {
		log.WithError(saveErr).Error("Failed to persist processed state")
	}

	outcome.Duration = e.now().Sub(started)
	outcome.Success = originOK && mirrorOK && saveErr == nil && outcome.Failed == 0

	log.WithFields(map[string]interface{}{
		"origin_tasks": outcome.OriginTasks,
		"mirror_tasks": outcome.MirrorTasks,
		"created":      outcome.Created,
		"completed":    outcome.Completed,
		"closed":       outcome.Closed,
		"deleted":      outcome.Deleted,
		"failed":       outcome.Failed,
		"skipped":      outcome.Skipped,
		"duration":     outcome.Duration.String(),
		"success":      outcome.Success,
	}).Info("Reconciliation cycle finished")

	return outcome, nil
}

// reconcileLinks rebuilds the link map from mirror note tags. A tag that
// disagrees with a held entry wins: the notes are the durable record of
// the link, the map is only a cache.
func (e *Engine) reconcileLinks(log *logging.Logger, mirrorTasks []task.MirrorTask) {
	for _, m := range mirrorTasks {
		if !m.IsTodo() {
			continue
		}

		tid, ok := m.OriginID()
		if !ok {
			if task.HasTagPrefix(m.Notes) {
				log.WithField("mirror_id", m.ID).Warn("Mirror task has a malformed origin tag")
			}
			continue
		}

		if held, exists := e.links[tid]; exists && held != m.ID {
			log.WithFields(map[string]interface{}{
				"origin_id": tid,
				"held":      held,
				"tagged":    m.ID,
			}).Warn("Link map diverges from note tag, trusting the tag")
		}
		e.links[tid] = m.ID
	}
}

// syncOriginSide walks the link map and applies each origin task's current
// state to its mirror counterpart.
func (e *Engine) syncOriginSide(ctx context.Context, log *logging.Logger, today string, originByID map[string]task.OriginTask, state *store.State, outcome *Outcome) {
	for _, tid := range sortedKeys(e.links) {
		mid := e.links[tid]
		t, present := originByID[tid]

		switch {
		case present && t.Completed:
			if state.OriginProcessed(tid) {
				outcome.Skipped++
				continue
			}
			ev := Event{Action: ActionComplete, OriginID: tid, MirrorID: mid}
			if err := e.mirror.Complete(ctx, mid); err != nil {
				log.WithError(err).WithField("mirror_id", mid).Error("Failed to complete mirror task")
				ev.Error = err.Error()
			} else {
				state.MarkOrigin(tid)
				state.MarkMirror(mid)
			}
			outcome.record(ev)
			// Removed even on failure: the note tag rediscovers the link
			// next cycle, a stale entry must not drive retries.
			delete(e.links, tid)

		case present && !t.DueOn(today):
			// Rescheduled away from today.
			ev := Event{Action: ActionDelete, OriginID: tid, MirrorID: mid}
			if err := e.mirror.Delete(ctx, mid); err != nil {
				log.WithError(err).WithField("mirror_id", mid).Error("Failed to delete rescheduled mirror task")
				ev.Error = err.Error()
			} else {
				// Blocks a close of the still-open origin task off the
				// stale mirror snapshot later this cycle.
				state.MarkMirror(mid)
			}
			outcome.record(ev)
			delete(e.links, tid)

		case present:
			// Still due today and not completed.
			outcome.Skipped++

		default:
			// Vanished from origin: deleted, or completed out of the
			// active view. Completing the mirror task preserves history;
			// deleting it would erase earned credit.
			if state.OriginProcessed(tid) {
				outcome.Skipped++
				continue
			}
			ev := Event{Action: ActionComplete, OriginID: tid, MirrorID: mid}
			if err := e.mirror.Complete(ctx, mid); err != nil {
				log.WithError(err).WithField("mirror_id", mid).Error("Failed to complete mirror task for vanished origin task")
				ev.Error = err.Error()
			} else {
				state.MarkOrigin(tid)
				state.MarkMirror(mid)
			}
			outcome.record(ev)
			delete(e.links, tid)
		}
	}
}

// propagateMirrorCompletions closes origin tasks whose mirror counterpart
// the user completed.
func (e *Engine) propagateMirrorCompletions(ctx context.Context, log *logging.Logger, mirrorTasks []task.MirrorTask, state *store.State, outcome *Outcome) {
	for _, m := range mirrorTasks {
		if !m.Completed || state.MirrorProcessed(m.ID) {
			continue
		}

		// Resolve through the map first, then re-parse the tag: the map
		// entry may have been dropped earlier this cycle.
		tid := e.originIDFor(m.ID)
		if tid == "" {
			tid, _ = m.OriginID()
		}
		if tid == "" {
			if task.HasTagPrefix(m.Notes) {
				// Linked once, but the ID is no longer recoverable.
				// Marking it processed stops the retry every cycle.
				log.WithField("mirror_id", m.ID).Warn("Completed mirror task has no recoverable origin link, marking processed")
				state.MarkMirror(m.ID)
				outcome.Skipped++
			}
			continue
		}

		if state.OriginProcessed(tid) {
			// Counterpart already closed in an earlier cycle.
			state.MarkMirror(m.ID)
			outcome.Skipped++
			continue
		}

		ev := Event{Action: ActionClose, OriginID: tid, MirrorID: m.ID, Text: m.Text}
		if err := e.origin.Close(ctx, tid); err != nil {
			log.WithError(err).WithField("origin_id", tid).Error("Failed to close origin task")
			ev.Error = err.Error()
		} else {
			state.MarkOrigin(tid)
			state.MarkMirror(m.ID)
			delete(e.links, tid)
		}
		outcome.record(ev)
	}
}

// createMissingMirrors creates a mirror task for every origin task due
// today that has no link yet. The note tag written here is what makes the
// link survive restarts.
//
// Processed origin IDs are never re-mirrored: a completion propagated from
// the mirror side earlier this cycle drops the map entry, and without this
// guard the still-stale origin snapshot would get a duplicate mirror task.
func (e *Engine) createMissingMirrors(ctx context.Context, log *logging.Logger, today string, originTasks []task.OriginTask, state *store.State, outcome *Outcome) {
	for _, t := range originTasks {
		if t.Completed || !t.DueOn(today) {
			continue
		}
		if _, linked := e.links[t.ID]; linked {
			continue
		}
		if state.OriginProcessed(t.ID) {
			continue
		}

		notes := task.AppendTag(t.Description, t.ID)
		ev := Event{Action: ActionCreate, OriginID: t.ID, Text: t.Content}
		created, err := e.mirror.Create(ctx, t.Content, notes)
		switch {
		case err != nil:
			log.WithError(err).WithField("origin_id", t.ID).Error("Failed to create mirror task")
			ev.Error = err.Error()
		case created == nil || created.ID == "":
			log.WithField("origin_id", t.ID).Error("Mirror create returned no task ID")
			ev.Error = "create returned no task ID"
		default:
			e.links[t.ID] = created.ID
			ev.MirrorID = created.ID
		}
		outcome.record(ev)
	}
}

// originIDFor reverse-looks-up the link map. Returns "" when the mirror
// task is not a current map value.
func (e *Engine) originIDFor(mirrorID string) string {
	for _, tid := range sortedKeys(e.links) {
		if e.links[tid] == mirrorID {
			return tid
		}
	}
	return ""
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
