package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"locaudit/internal/audit"
	"locaudit/internal/logging"
	"locaudit/internal/services"
	"locaudit/internal/stage"
	"locaudit/internal/testsupport"
	"locaudit/internal/workflow"
)

type stubStage struct {
	name        string
	prepareHook func(*audit.Audit)
	executeHook func(*audit.Audit)
	prepareErr  error
	executeErr  error
	health      stage.Health
}

func newStubStage(name string) *stubStage {
	return &stubStage{name: name, health: stage.Healthy(name)}
}

func (s *stubStage) Prepare(_ context.Context, a *audit.Audit) error {
	if s.prepareHook != nil {
		s.prepareHook(a)
	}
	return s.prepareErr
}

func (s *stubStage) Execute(_ context.Context, a *audit.Audit) error {
	if s.executeHook != nil {
		s.executeHook(a)
	}
	return s.executeErr
}

func (s *stubStage) HealthCheck(context.Context) stage.Health {
	return s.health
}

type recordingNotifier struct {
	mu        sync.Mutex
	completed []int64
	blocked   []int64
	failed    []int64
}

func (r *recordingNotifier) AuditCompleted(_ context.Context, a *audit.Audit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, a.ID)
	return nil
}

func (r *recordingNotifier) AuditBlocked(_ context.Context, a *audit.Audit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocked = append(r.blocked, a.ID)
	return nil
}

func (r *recordingNotifier) AuditFailed(_ context.Context, a *audit.Audit, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, a.ID)
	return nil
}

func (r *recordingNotifier) TestNotification(context.Context) error { return nil }

func (r *recordingNotifier) counts() (completed, blocked, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completed), len(r.blocked), len(r.failed)
}

func waitForStatus(t *testing.T, store *audit.Store, id int64, want audit.Status) *audit.Audit {
	t.Helper()
	deadline := time.After(30 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for status %s", want)
		default:
		}
		a, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if a != nil && a.Status == want {
			return a
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func startManager(t *testing.T, store *audit.Store, notifier *recordingNotifier, set workflow.StageSet) *workflow.Manager {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 0

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	mgr.ConfigureStages(set)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)
	return mgr
}

func TestManagerProcessesAuditToCompletion(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	score := 85
	acquisition := newStubStage("acquisition")
	analysis := newStubStage("analysis")
	analysis.executeHook = func(a *audit.Audit) {
		a.OverallScore = &score
		a.Status = audit.StatusCompleted
	}

	notifier := &recordingNotifier{}
	startManager(t, store, notifier, workflow.StageSet{Acquisition: acquisition, Analysis: analysis})

	a := testsupport.NewComparisonAudit(t, store, "https://example.com/en", "https://example.com/ko")
	done := waitForStatus(t, store, a.ID, audit.StatusCompleted)

	if done.OverallScore == nil || *done.OverallScore != 85 {
		t.Errorf("OverallScore = %v", done.OverallScore)
	}
	deadline := time.After(10 * time.Second)
	for {
		if completed, _, _ := notifier.counts(); completed >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("expected completion notification")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestManagerLeavesBlockedAuditsParked(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	acquisition := newStubStage("acquisition")
	acquisition.executeHook = func(a *audit.Audit) {
		a.SetBlocked("challenge page detected")
	}
	analysis := newStubStage("analysis")

	notifier := &recordingNotifier{}
	startManager(t, store, notifier, workflow.StageSet{Acquisition: acquisition, Analysis: analysis})

	a := testsupport.NewComparisonAudit(t, store, "https://example.com/en", "https://example.com/ko")
	parked := waitForStatus(t, store, a.ID, audit.StatusBlocked)

	if parked.BlockedReason != "challenge page detected" {
		t.Errorf("BlockedReason = %q", parked.BlockedReason)
	}
	deadline := time.After(10 * time.Second)
	for {
		if _, blocked, _ := notifier.counts(); blocked >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("expected blocked notification")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestManagerRetryReentersPipeline(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	var mu sync.Mutex
	attempts := 0
	acquisition := newStubStage("acquisition")
	acquisition.executeHook = func(a *audit.Audit) {
		mu.Lock()
		attempts++
		first := attempts == 1
		mu.Unlock()
		if first {
			a.SetBlocked("rate limited")
			return
		}
	}
	analysis := newStubStage("analysis")
	analysis.executeHook = func(a *audit.Audit) {
		a.Status = audit.StatusCompleted
	}

	startManager(t, store, &recordingNotifier{}, workflow.StageSet{Acquisition: acquisition, Analysis: analysis})

	a := testsupport.NewComparisonAudit(t, store, "https://example.com/en", "https://example.com/ko")
	waitForStatus(t, store, a.ID, audit.StatusBlocked)

	if err := store.RetryBlocked(context.Background(), a.ID); err != nil {
		t.Fatalf("RetryBlocked: %v", err)
	}
	waitForStatus(t, store, a.ID, audit.StatusCompleted)
}

func TestManagerRecordsStageFailure(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	acquisition := newStubStage("acquisition")
	acquisition.executeErr = services.Wrap(services.ErrFetch, "acquisition", "fetch target", "connection refused", errors.New("dial tcp: refused"))

	notifier := &recordingNotifier{}
	startManager(t, store, notifier, workflow.StageSet{Acquisition: acquisition, Analysis: newStubStage("analysis")})

	a := testsupport.NewComparisonAudit(t, store, "https://example.com/en", "https://example.com/ko")
	failed := waitForStatus(t, store, a.ID, audit.StatusFailed)

	if failed.ErrorMessage == "" {
		t.Error("ErrorMessage not recorded")
	}
	deadline := time.After(10 * time.Second)
	for {
		if _, _, failures := notifier.counts(); failures >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("expected failure notification")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestManagerReclaimsInterruptedScraping(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	a := testsupport.NewComparisonAudit(t, store, "https://example.com/en", "https://example.com/ko")
	a.Status = audit.StatusScraping
	if err := store.Update(context.Background(), a); err != nil {
		t.Fatalf("Update: %v", err)
	}

	analysis := newStubStage("analysis")
	analysis.executeHook = func(a *audit.Audit) {
		a.Status = audit.StatusCompleted
	}
	startManager(t, store, &recordingNotifier{}, workflow.StageSet{Acquisition: newStubStage("acquisition"), Analysis: analysis})

	waitForStatus(t, store, a.ID, audit.StatusCompleted)
}

func TestManagerStatusIncludesStageHealth(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	cfg := testsupport.NewConfig(t)

	handler := newStubStage("acquisition")
	handler.health = stage.Unhealthy(handler.name, "fetcher unavailable")

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	mgr.ConfigureStages(workflow.StageSet{Acquisition: handler})

	status := mgr.Status(context.Background())
	if status.Running {
		t.Error("manager reported running before Start")
	}
	health, ok := status.StageHealth[handler.name]
	if !ok {
		t.Fatalf("no health entry for %s", handler.name)
	}
	if health.Ready {
		t.Errorf("health = %+v, want not ready", health)
	}
	if health.Detail != "fetcher unavailable" {
		t.Errorf("Detail = %q", health.Detail)
	}
}

func TestManagerStartRequiresStages(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	cfg := testsupport.NewConfig(t)

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &recordingNotifier{})
	if err := mgr.Start(context.Background()); err == nil {
		mgr.Stop()
		t.Fatal("expected error starting manager without stages")
	}
}
