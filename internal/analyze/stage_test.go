package analyze

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"locaudit/internal/audit"
	"locaudit/internal/content"
	"locaudit/internal/services"
	"locaudit/internal/services/judge"
)

type fakeStore struct {
	updates        int
	failUpdateAt   int
	updateErr      error
	replaced       []audit.DimensionResult
	replacedFor    int64
	replaceResults error
}

func (f *fakeStore) Update(_ context.Context, _ *audit.Audit) error {
	f.updates++
	if f.updateErr != nil && f.updates >= f.failUpdateAt {
		return f.updateErr
	}
	return nil
}

func (f *fakeStore) ReplaceResults(_ context.Context, auditID int64, results []audit.DimensionResult) error {
	f.replacedFor = auditID
	f.replaced = results
	return f.replaceResults
}

type fakeResolver struct {
	glossary *audit.Glossary
	err      error
	calls    int
}

func (f *fakeResolver) Resolve(_ context.Context, _ *audit.Audit) (*audit.Glossary, error) {
	f.calls++
	return f.glossary, f.err
}

func analysisAudit(t *testing.T, mode audit.Mode) *audit.Audit {
	t.Helper()
	a := &audit.Audit{
		ID:             7,
		Mode:           mode,
		SourceLanguage: "en",
		TargetLanguage: "ko",
		Industry:       "ecommerce",
		Acquisition:    audit.AcquireAuto,
		Status:         audit.StatusAnalyzing,
	}
	pairs := content.Pairs{
		Title: content.Pair{Source: strptr("Free shipping"), Target: strptr("무료 배송")},
	}
	if err := a.SetContentPairs(pairs); err != nil {
		t.Fatalf("SetContentPairs: %v", err)
	}
	return a
}

func newAnalysisStage(store *fakeStore, resolver *fakeResolver, client *scriptedJudge) *Stage {
	return NewStage(store, resolver, NewEvaluator(client, nil), nil, nil)
}

func TestStageExecuteCompletesComparisonAudit(t *testing.T) {
	dimensions := audit.DimensionsFor(audit.ModeComparison)
	client := &scriptedJudge{}
	for i := range dimensions {
		client.responses = append(client.responses,
			judgeResponse(fmt.Sprintf(`{"score": %d}`, 60+i*5), 100, 20))
	}
	store := &fakeStore{}
	resolver := &fakeResolver{glossary: &audit.Glossary{Name: "E-commerce Standard Terms"}}
	s := newAnalysisStage(store, resolver, client)

	a := analysisAudit(t, audit.ModeComparison)
	if err := s.Prepare(context.Background(), a); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := s.Execute(context.Background(), a); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if a.Status != audit.StatusCompleted {
		t.Errorf("Status = %q", a.Status)
	}
	if a.OverallScore == nil {
		t.Fatal("OverallScore not set")
	}
	// Scores 60..95 step 5 over 8 dimensions average 77.5, rounded to 78.
	if *a.OverallScore != 78 {
		t.Errorf("OverallScore = %d, want 78", *a.OverallScore)
	}
	if a.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
	if client.calls != len(dimensions) {
		t.Errorf("judge calls = %d, want %d", client.calls, len(dimensions))
	}
	if resolver.calls != 1 {
		t.Errorf("resolver calls = %d", resolver.calls)
	}
	if store.replacedFor != a.ID || len(store.replaced) != len(dimensions) {
		t.Errorf("persisted %d results for audit %d", len(store.replaced), store.replacedFor)
	}
	if store.replaced[0].Score != 60 || store.replaced[0].Position != 0 {
		t.Errorf("weakest dimension not first: %+v", store.replaced[0])
	}
	if a.Usage.InputTokens != int64(100*len(dimensions)) {
		t.Errorf("InputTokens = %d", a.Usage.InputTokens)
	}
}

func TestStageExecuteProficiencySingleDimension(t *testing.T) {
	client := &scriptedJudge{}
	client.responses = append(client.responses, judgeResponse(`{"score": 91}`, 50, 10))
	store := &fakeStore{}
	s := newAnalysisStage(store, &fakeResolver{}, client)

	a := analysisAudit(t, audit.ModeProficiency)
	if err := s.Execute(context.Background(), a); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if client.calls != 1 {
		t.Errorf("judge calls = %d, want 1", client.calls)
	}
	if *a.OverallScore != 91 {
		t.Errorf("OverallScore = %d", *a.OverallScore)
	}
}

func TestStageExecuteStopsWhenAuditRemoved(t *testing.T) {
	client := &scriptedJudge{
		responses: []judge.Response{judgeResponse(`{"score": 80}`, 10, 10)},
	}
	store := &fakeStore{failUpdateAt: 2, updateErr: audit.ErrNotFound}
	s := newAnalysisStage(store, &fakeResolver{}, client)

	a := analysisAudit(t, audit.ModeComparison)
	err := s.Execute(context.Background(), a)
	if !errors.Is(err, audit.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound passthrough", err)
	}
	if store.replacedFor != 0 {
		t.Error("results persisted for a removed audit")
	}
}

func TestStageExecuteNoEvidence(t *testing.T) {
	s := newAnalysisStage(&fakeStore{}, &fakeResolver{}, &scriptedJudge{})

	a := analysisAudit(t, audit.ModeComparison)
	a.ContentPairsJSON = ""
	err := s.Execute(context.Background(), a)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestStageExecuteUploadedImages(t *testing.T) {
	client := &scriptedJudge{}
	for range audit.DimensionsFor(audit.ModeComparison) {
		client.responses = append(client.responses, judgeResponse(`{"score": 75}`, 10, 10))
	}
	s := newAnalysisStage(&fakeStore{}, &fakeResolver{}, client)

	a := analysisAudit(t, audit.ModeComparison)
	a.ContentPairsJSON = ""
	a.Acquisition = audit.AcquireImageUpload
	images := []audit.LabeledImage{
		{Label: audit.ImageSource, Name: "source.png", MediaType: "image/png", Data: "c3Jj"},
		{Label: audit.ImageTarget, Name: "target.png", MediaType: "image/png", Data: "dGd0"},
	}
	if err := a.SetImages(images); err != nil {
		t.Fatalf("SetImages: %v", err)
	}

	if err := s.Execute(context.Background(), a); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(client.requests[0].Images) != 2 {
		t.Errorf("request images = %d, want 2", len(client.requests[0].Images))
	}
}

func TestEvaluationLabelDistinguishesModes(t *testing.T) {
	comparison := evaluationLabel(audit.ModeComparison, audit.DimensionFluency, 2, 8)
	if comparison != "Comparing translations: FLUENCY (2/8)" {
		t.Fatalf("unexpected comparison label %q", comparison)
	}
	standalone := evaluationLabel(audit.ModeStandalone, audit.DimensionFluency, 2, 7)
	if standalone != "Assessing translation quality: FLUENCY (2/7)" {
		t.Fatalf("unexpected standalone label %q", standalone)
	}
	proficiency := evaluationLabel(audit.ModeProficiency, audit.DimensionLanguageProficiency, 1, 1)
	if proficiency != "Assessing translation quality: LANGUAGE_PROFICIENCY (1/1)" {
		t.Fatalf("unexpected proficiency label %q", proficiency)
	}
}

func TestStageHealthCheck(t *testing.T) {
	s := newAnalysisStage(&fakeStore{}, &fakeResolver{}, &scriptedJudge{})
	if health := s.HealthCheck(context.Background()); !health.Ready {
		t.Errorf("health = %+v, want ready without a checker", health)
	}

	s.evaluator = nil
	if health := s.HealthCheck(context.Background()); health.Ready {
		t.Error("nil evaluator reported ready")
	}
}
