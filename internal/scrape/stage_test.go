package scrape_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"locaudit/internal/audit"
	"locaudit/internal/config"
	"locaudit/internal/logging"
	"locaudit/internal/scrape"
	"locaudit/internal/services"
	"locaudit/internal/testsupport"
)

const sourcePage = `<html lang="en"><head><title>Example Shop</title></head>
<body><h1>Welcome</h1><p>Free shipping on every order.</p><button>Checkout</button></body></html>`

const targetPage = `<html lang="ko"><head><title>예제 상점</title></head>
<body><h1>환영합니다</h1><p>모든 주문에 무료 배송을 제공합니다.</p><button>결제하기</button></body></html>`

type fakeSnapshotter struct {
	available bool
	captured  []string
	err       error
}

func (f *fakeSnapshotter) Available() bool { return f.available }

func (f *fakeSnapshotter) Capture(_ context.Context, pageURL, outPath string) error {
	if f.err != nil {
		return f.err
	}
	f.captured = append(f.captured, pageURL)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outPath, []byte("png"), 0o644)
}

func newStage(t *testing.T, cfg *config.Config, snap scrape.Snapshotter) *scrape.Stage {
	t.Helper()
	return scrape.NewStageWithDeps(cfg, scrape.NewFetcher(cfg.Fetch), snap, logging.NewNop())
}

func TestExecuteComparisonAlignsPairs(t *testing.T) {
	sourceServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sourcePage))
	}))
	defer sourceServer.Close()
	targetServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(targetPage))
	}))
	defer targetServer.Close()

	cfg := testsupport.NewConfig(t)
	stg := newStage(t, cfg, &fakeSnapshotter{})
	a := &audit.Audit{
		Mode:        audit.ModeComparison,
		Acquisition: audit.AcquireAuto,
		SourceURL:   sourceServer.URL,
		TargetURL:   targetServer.URL,
	}

	if err := stg.Execute(context.Background(), a); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if a.ActualMethod != "text" {
		t.Fatalf("expected text method, got %q", a.ActualMethod)
	}
	if a.SourceLanguage != "en" || a.TargetLanguage != "ko" {
		t.Fatalf("expected language backfill, got %q/%q", a.SourceLanguage, a.TargetLanguage)
	}

	pairs, err := a.ContentPairs()
	if err != nil {
		t.Fatalf("ContentPairs failed: %v", err)
	}
	if pairs == nil || pairs.Title.Source == nil || pairs.Title.Target == nil {
		t.Fatalf("expected aligned titles, got %#v", pairs)
	}
	if *pairs.Title.Source != "Example Shop" || *pairs.Title.Target != "예제 상점" {
		t.Fatalf("unexpected title pair: %q / %q", *pairs.Title.Source, *pairs.Title.Target)
	}
	if len(pairs.Buttons) != 1 || *pairs.Buttons[0].Target != "결제하기" {
		t.Fatalf("unexpected button pairs: %#v", pairs.Buttons)
	}
}

func TestExecuteStandaloneTargetOnly(t *testing.T) {
	targetServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(targetPage))
	}))
	defer targetServer.Close()

	cfg := testsupport.NewConfig(t)
	stg := newStage(t, cfg, &fakeSnapshotter{})
	a := &audit.Audit{
		Mode:        audit.ModeStandalone,
		Acquisition: audit.AcquireAuto,
		TargetURL:   targetServer.URL,
	}

	if err := stg.Execute(context.Background(), a); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	pairs, err := a.ContentPairs()
	if err != nil {
		t.Fatalf("ContentPairs failed: %v", err)
	}
	if pairs.Title.Source != nil {
		t.Fatal("standalone pairs must not carry source values")
	}
	if pairs.Title.Target == nil || *pairs.Title.Target != "예제 상점" {
		t.Fatalf("unexpected target title: %#v", pairs.Title)
	}
}

func TestExecuteBlockedChallengeCapturesSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<html><head><title>Just a moment...</title></head><body></body></html>`))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	snap := &fakeSnapshotter{available: true}
	stg := newStage(t, cfg, snap)
	a := &audit.Audit{
		Mode:        audit.ModeStandalone,
		Acquisition: audit.AcquireAuto,
		TargetURL:   server.URL,
	}

	if err := stg.Execute(context.Background(), a); err != nil {
		t.Fatalf("Execute should not fail on a block: %v", err)
	}
	if a.Status != audit.StatusBlocked {
		t.Fatalf("expected blocked status, got %s", a.Status)
	}
	if a.BlockedReason == "" {
		t.Fatal("expected a block reason")
	}
	if a.TargetSnapshot == "" {
		t.Fatal("expected snapshot evidence captured during block")
	}
	if len(snap.captured) != 1 {
		t.Fatalf("expected one capture, got %d", len(snap.captured))
	}
}

func TestExecuteTextModeFailsOnForbiddenPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<html lang="ko"><head><title>접근이 거부되었습니다</title></head>
<body><h1>오류</h1><p>이 페이지에 접근할 수 없습니다. 관리자에게 문의하세요.</p></body></html>`))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Fetch.MaxAttempts = 1
	stg := newStage(t, cfg, &fakeSnapshotter{})
	a := &audit.Audit{
		Mode:        audit.ModeStandalone,
		Acquisition: audit.AcquireText,
		TargetURL:   server.URL,
	}

	err := stg.Execute(context.Background(), a)
	if !errors.Is(err, services.ErrFetch) {
		t.Fatalf("expected fetch error for 403 in text mode, got %v", err)
	}
	if a.Status == audit.StatusBlocked {
		t.Fatal("text mode must not reroute error pages to blocked")
	}
	if a.ContentPairsJSON != "" {
		t.Fatal("error page must not be stored as audit content")
	}
}

func TestExecuteScreenshotModeRequiresCommand(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stg := newStage(t, cfg, &fakeSnapshotter{available: false})
	a := &audit.Audit{
		Mode:        audit.ModeStandalone,
		Acquisition: audit.AcquireScreenshot,
		TargetURL:   "https://example.com/ko",
	}

	err := stg.Execute(context.Background(), a)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestExecuteScreenshotModeCapturesBothSides(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	snap := &fakeSnapshotter{available: true}
	stg := newStage(t, cfg, snap)
	a := &audit.Audit{
		ID:          7,
		Mode:        audit.ModeComparison,
		Acquisition: audit.AcquireScreenshot,
		SourceURL:   "https://example.com",
		TargetURL:   "https://example.com/ko",
	}

	if err := stg.Execute(context.Background(), a); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if a.SourceSnapshot == "" || a.TargetSnapshot == "" {
		t.Fatalf("expected both snapshots, got %q %q", a.SourceSnapshot, a.TargetSnapshot)
	}
	if a.ActualMethod != "screenshot" {
		t.Fatalf("unexpected method %q", a.ActualMethod)
	}
	if len(snap.captured) != 2 {
		t.Fatalf("expected two captures, got %d", len(snap.captured))
	}
}

func TestExecuteImageUploadSkipsFetch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stg := newStage(t, cfg, &fakeSnapshotter{})
	a := &audit.Audit{
		Mode:        audit.ModeComparison,
		Acquisition: audit.AcquireImageUpload,
	}
	if err := a.SetImages([]audit.LabeledImage{
		{Label: audit.ImageSource, Data: "c3Jj"},
		{Label: audit.ImageTarget, Data: "dGd0"},
	}); err != nil {
		t.Fatalf("SetImages failed: %v", err)
	}

	if err := stg.Execute(context.Background(), a); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if a.ActualMethod != "image_upload" {
		t.Fatalf("unexpected method %q", a.ActualMethod)
	}
}

func TestExecuteImageUploadRequiresImages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stg := newStage(t, cfg, &fakeSnapshotter{})
	a := &audit.Audit{Mode: audit.ModeComparison, Acquisition: audit.AcquireImageUpload}

	err := stg.Execute(context.Background(), a)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
