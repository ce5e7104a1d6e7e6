package pipeline

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/mr1hm/disaster-scout/internal/agent"
	"github.com/mr1hm/disaster-scout/internal/geocode"
	"github.com/mr1hm/disaster-scout/internal/models"
	"github.com/mr1hm/disaster-scout/internal/outputparser"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeRunner answers discovery prompts with discovery and commentary
// prompts through commentary, keyed by location.
type fakeRunner struct {
	discovery    string
	discoveryErr error
	commentary   func(ctx context.Context, location string) (string, error)

	mu    sync.Mutex
	calls []string
}

func (f *fakeRunner) Run(ctx context.Context, instruction string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, instruction)
	f.mu.Unlock()

	if strings.Contains(instruction, "finding locations affected by disasters") {
		return f.discovery, f.discoveryErr
	}
	const marker = "commentary for the location "
	i := strings.Index(instruction, marker)
	if i < 0 {
		return "", errors.New("unexpected instruction")
	}
	rest := instruction[i+len(marker):]
	location := rest[:strings.Index(rest, ". Find the latest news")]
	return f.commentary(ctx, location)
}

type fakeGeocoder map[string]models.Coordinates

func (g fakeGeocoder) Geocode(ctx context.Context, name string) (models.Coordinates, error) {
	c, ok := g[name]
	if !ok {
		return models.Coordinates{}, &geocode.Error{Kind: geocode.ErrNotFound, Name: name}
	}
	return c, nil
}

type memoryStore struct {
	mu        sync.Mutex
	locations map[string][]string
	records   map[string][]models.CommentaryRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		locations: make(map[string][]string),
		records:   make(map[string][]models.CommentaryRecord),
	}
}

func (m *memoryStore) SaveLocations(ctx context.Context, runID, idea string, locations []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[runID] = locations
	return nil
}

func (m *memoryStore) SaveRecords(ctx context.Context, runID string, records []models.CommentaryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[runID] = records
	return nil
}

func commentaryJSON(location string) string {
	return fmt.Sprintf("```json\n{\"commentary\": \"news from %s\", \"date\": \"2021-06-07\", \"source\": \"https://www.ndtv.com/%s\"}\n```", location, strings.ToLower(location))
}

func okCommentary(ctx context.Context, location string) (string, error) {
	return commentaryJSON(location), nil
}

func TestSplitLocations(t *testing.T) {
	tests := []struct {
		answer string
		want   []string
	}{
		{"Pune, , Haiti ", []string{"Pune", "Haiti"}},
		{"Pirangut", []string{"Pirangut"}},
		{"  Assam ,Kerala,  Odisha", []string{"Assam", "Kerala", "Odisha"}},
		{"Pune, Pune", []string{"Pune", "Pune"}},
		{"", []string{}},
		{" , ,, ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			got := SplitLocations(tt.answer)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPrompts(t *testing.T) {
	lp := LocationPrompt("factory fire")
	if !strings.Contains(lp, "Given the prompt factory fire,") || !strings.Contains(lp, "separated by commas") {
		t.Errorf("unexpected location prompt %q", lp)
	}

	fi := outputparser.FormatInstructions(outputparser.CommentarySchemas)
	cp := CommentaryPrompt("Pirangut", fi)
	if !strings.HasPrefix(cp, answerPreamble+fi+"\n") {
		t.Error("expected format instructions right after the preamble")
	}
	if !strings.Contains(cp, "for the location Pirangut.") {
		t.Errorf("expected location in commentary prompt, got %q", cp)
	}
}

func TestDiscoverLocations_AgentFailure(t *testing.T) {
	runner := &fakeRunner{discoveryErr: &agent.Error{Kind: agent.ErrBudgetExhausted, Step: 8}}
	p := New(runner, fakeGeocoder{}, nil, Options{})

	_, err := p.DiscoverLocations(context.Background(), "floods")
	var de *DiscoveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DiscoveryError, got %v", err)
	}
	if !errors.Is(err, agent.ErrBudgetExhausted) {
		t.Errorf("expected wrapped ErrBudgetExhausted, got %v", err)
	}
}

func TestDiscoverLocations_EmptyAnswer(t *testing.T) {
	p := New(&fakeRunner{discovery: " "}, fakeGeocoder{}, nil, Options{})

	names, err := p.DiscoverLocations(context.Background(), "nothing happened")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected no locations, got %v", names)
	}
}

func TestGeocode_DropsFailures(t *testing.T) {
	geo := fakeGeocoder{
		"Pune":  {Latitude: 18.5204, Longitude: 73.8567},
		"Haiti": {Latitude: 18.9712, Longitude: 72.8015},
	}
	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			p := New(&fakeRunner{}, geo, nil, Options{Workers: workers})

			got := p.Geocode(context.Background(), []string{"Nowhereville", "Pune", "Atlantis", "Haiti", "Pune"})
			want := []models.GeocodedLocation{
				{Location: "Pune", Latitude: 18.5204, Longitude: 73.8567},
				{Location: "Haiti", Latitude: 18.9712, Longitude: 72.8015},
				{Location: "Pune", Latitude: 18.5204, Longitude: 73.8567},
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("expected %v, got %v", want, got)
			}
		})
	}
}

func TestGeocode_AllFail(t *testing.T) {
	p := New(&fakeRunner{}, fakeGeocoder{}, nil, Options{})
	got := p.Geocode(context.Background(), []string{"Nowhereville", "Atlantis"})
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestEnrich_SkipsFailedLocations(t *testing.T) {
	runner := &fakeRunner{commentary: func(ctx context.Context, location string) (string, error) {
		switch location {
		case "Haiti":
			return "", &agent.Error{Kind: agent.ErrUpstreamService, Step: 1}
		case "Assam":
			return "No recent disasters found.", nil
		default:
			return commentaryJSON(location), nil
		}
	}}
	locations := []models.GeocodedLocation{
		{Location: "Pune", Latitude: 18.5204, Longitude: 73.8567},
		{Location: "Haiti", Latitude: 18.9712, Longitude: 72.8015},
		{Location: "Assam", Latitude: 26.2, Longitude: 92.9},
		{Location: "Kerala", Latitude: 10.85, Longitude: 76.27},
	}

	p := New(runner, fakeGeocoder{}, nil, Options{Workers: 2})
	got := p.Enrich(context.Background(), locations)

	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(got), got)
	}
	for i, want := range []models.GeocodedLocation{locations[0], locations[3]} {
		r := got[i]
		if r.Location != want.Location || r.Latitude != want.Latitude || r.Longitude != want.Longitude {
			t.Errorf("record %d: location fields not copied verbatim: %+v", i, r)
		}
		if r.Commentary != "news from "+want.Location || r.Date != "2021-06-07" {
			t.Errorf("record %d: unexpected parsed fields %+v", i, r)
		}
	}
}

func TestRun_FactoryFire(t *testing.T) {
	runner := &fakeRunner{discovery: "Pirangut", commentary: okCommentary}
	geo := fakeGeocoder{"Pirangut": {Latitude: 18.5126, Longitude: 73.6804}}
	store := newMemoryStore()

	p := New(runner, geo, store, Options{RequestTimeout: time.Minute})
	got, err := p.Run(context.Background(), "factory fire")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := []models.CommentaryRecord{{
		Commentary: "news from Pirangut",
		Date:       "2021-06-07",
		Source:     "https://www.ndtv.com/pirangut",
		Location:   "Pirangut",
		Latitude:   18.5126,
		Longitude:  73.6804,
	}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	if len(store.locations) != 1 || len(store.records) != 1 {
		t.Fatalf("expected one snapshot of each stage, got %d and %d", len(store.locations), len(store.records))
	}
	for id, locs := range store.locations {
		if !reflect.DeepEqual(locs, []string{"Pirangut"}) {
			t.Errorf("unexpected location snapshot %v", locs)
		}
		if !reflect.DeepEqual(store.records[id], want) {
			t.Errorf("expected records snapshot under the same run id %s", id)
		}
	}
}

func TestRun_FaultIsolation(t *testing.T) {
	runner := &fakeRunner{discovery: "Nowhereville, Pune", commentary: okCommentary}
	geo := fakeGeocoder{"Pune": {Latitude: 18.5204, Longitude: 73.8567}}

	p := New(runner, geo, nil, Options{})
	got, err := p.Run(context.Background(), "chemical fire")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(got) != 1 || got[0].Location != "Pune" {
		t.Errorf("expected a single Pune record, got %+v", got)
	}
	for _, call := range runner.calls {
		if strings.Contains(call, "Nowhereville.") {
			t.Error("expected no commentary run for a location that failed geocoding")
		}
	}
}

func TestRun_DiscoveryFailureIsFatal(t *testing.T) {
	store := newMemoryStore()
	runner := &fakeRunner{discoveryErr: &agent.Error{Kind: agent.ErrUpstreamService, Step: 1, Err: errors.New("401")}}

	p := New(runner, fakeGeocoder{}, store, Options{})
	got, err := p.Run(context.Background(), "floods")
	if err == nil {
		t.Fatal("expected error")
	}
	if got != nil {
		t.Errorf("expected no records, got %v", got)
	}
	if len(store.locations) != 0 {
		t.Error("expected no snapshot after failed discovery")
	}
}

func TestRun_DeadlineCancelsRemainingWork(t *testing.T) {
	runner := &fakeRunner{
		discovery: "Pune, Haiti",
		commentary: func(ctx context.Context, location string) (string, error) {
			if location == "Pune" {
				return commentaryJSON(location), nil
			}
			<-ctx.Done()
			return "", &agent.Error{Kind: agent.ErrUpstreamService, Err: ctx.Err()}
		},
	}
	geo := fakeGeocoder{
		"Pune":  {Latitude: 18.5204, Longitude: 73.8567},
		"Haiti": {Latitude: 18.9712, Longitude: 72.8015},
	}
	store := newMemoryStore()

	p := New(runner, geo, store, Options{RequestTimeout: 50 * time.Millisecond})
	got, err := p.Run(context.Background(), "disasters")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(got) != 1 || got[0].Location != "Pune" {
		t.Errorf("expected only the record finished before the deadline, got %+v", got)
	}
	if len(store.records) != 1 {
		t.Error("expected records snapshot to be written after the deadline")
	}
}

// scriptedModel drives a real agent: it searches once per question, then
// answers from the prompt content.
type scriptedModel struct{}

func (scriptedModel) Complete(ctx context.Context, prompt string, stop []string) (string, error) {
	if !strings.Contains(prompt, "Observation: Fire at a sanitizer plant") {
		return " I should search.\nAction: search_tool\nAction Input: latest news", nil
	}
	if strings.Contains(prompt, "finding locations affected by disasters") {
		return " I now know the final answer\nFinal Answer: Pirangut, ", nil
	}
	return " I now know the final answer\nFinal Answer: " + commentaryJSON("Pirangut"), nil
}

func TestRun_WithReasoningAgent(t *testing.T) {
	var toolCalls int
	search := agent.Tool{
		Name:        "search_tool",
		Description: "To search for relevant information about the disaster",
		Invoke: func(ctx context.Context, input string) (string, error) {
			toolCalls++
			return "Fire at a sanitizer plant in Pirangut (https://www.ndtv.com/pirangut)", nil
		},
	}
	a, err := agent.New(scriptedModel{}, []agent.Tool{search}, agent.WithMaxIterations(3))
	if err != nil {
		t.Fatalf("agent.New failed: %v", err)
	}

	geo := fakeGeocoder{"Pirangut": {Latitude: 18.5126, Longitude: 73.6804}}
	p := New(a, geo, nil, Options{})

	got, err := p.Run(context.Background(), "factory fire")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(got) != 1 || got[0].Location != "Pirangut" || got[0].Latitude != 18.5126 {
		t.Errorf("unexpected records %+v", got)
	}
	if toolCalls != 2 {
		t.Errorf("expected one search per agent run, got %d", toolCalls)
	}
}

func TestDebugRecords(t *testing.T) {
	recs := DebugRecords()
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].Location != "Pune" || recs[0].Latitude != 18.5204 {
		t.Errorf("unexpected first record %+v", recs[0])
	}
	if recs[1].Location != "Haiti" || recs[1].Latitude != 18.9712 {
		t.Errorf("unexpected second record %+v", recs[1])
	}
}
