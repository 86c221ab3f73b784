package router

import (
	"context"
	"strings"
	"testing"

	"github.com/m4xw311/askai/config"
	"github.com/m4xw311/askai/errors"
	"github.com/m4xw311/askai/llm"
	"github.com/m4xw311/askai/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Provider = config.ProviderMock
	return cfg
}

func TestDetectDirectCommand(t *testing.T) {
	tests := []struct {
		question   string
		category   Category
		confidence float64
	}{
		{"list files in /tmp", CategoryListing, 0.95},
		{"Please LIST FILES in my home", CategoryListing, 0.95},
		{"ls", CategoryListing, 0.95},
		{"what's in the file notes", CategoryRead, 0.9},
		{"read the file config please", CategoryRead, 0.9},
		{"create a file called todo", CategoryWrite, 0.9},
		{"run the command uptime", CategoryTerminal, 0.9},
		{"open report.pdf", CategoryPath, 0.8},
		{"look at src/main", CategoryPath, 0.8},
		// Listing wins over read when both match.
		{"list files and read the file", CategoryListing, 0.95},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			c, ok := DetectDirectCommand(tt.question)
			require.True(t, ok)
			assert.True(t, c.IsDirectCommand)
			assert.False(t, c.IsComplex)
			assert.Equal(t, tt.category, c.Category)
			assert.Equal(t, tt.confidence, c.Confidence)
		})
	}
}

func TestDetectDirectCommandNoMatch(t *testing.T) {
	for _, q := range []string{
		"explain how garbage collection works",
		"what tools are best for profiling",
		"the bobcat is a wild animal",
		"version 1.2 is out",
		// Path-like, but too long for the heuristic.
		"could you please tell me a very long story about the file report.pdf and more",
	} {
		_, ok := DetectDirectCommand(q)
		assert.False(t, ok, q)
	}
}

func TestParseClassification(t *testing.T) {
	c, err := ParseClassification("CLASSIFICATION: SIMPLE\nCONFIDENCE: 0.85")
	require.NoError(t, err)
	assert.Equal(t, Classification{IsComplex: false, Confidence: 0.85}, c)

	c, err = ParseClassification("Sure.\nclassification: complex\nconfidence: .6\n")
	require.NoError(t, err)
	assert.Equal(t, Classification{IsComplex: true, Confidence: 0.6}, c)

	for _, reply := range []string{
		"CLASSIFICATION: SIMPLE",
		"CONFIDENCE: 0.4",
		"CLASSIFICATION: MAYBE\nCONFIDENCE: 0.4",
		"CLASSIFICATION: SIMPLE\nCONFIDENCE: 7",
	} {
		_, err := ParseClassification(reply)
		assert.True(t, errors.Is(err, errors.ErrClassificationParse), reply)
	}
}

func TestClassifyDefaultsToComplex(t *testing.T) {
	client := &llm.ScriptedLLMClient{Replies: []string{"CLASSIFICATION: SIMPLE"}}
	c := Classify(context.Background(), client, "light", "hello", nil)
	assert.Equal(t, Classification{IsComplex: true, Confidence: 1.0}, c)

	client = &llm.ScriptedLLMClient{Replies: []string{"ERROR: unavailable"}}
	c = Classify(context.Background(), client, "light", "hello", nil)
	assert.Equal(t, Classification{IsComplex: true, Confidence: 1.0}, c)
}

func TestClassifyUsesLightModel(t *testing.T) {
	client := &llm.ScriptedLLMClient{Replies: []string{"CLASSIFICATION: SIMPLE\nCONFIDENCE: 0.9"}}
	c := Classify(context.Background(), client, "mock-light", "what is 2+2", nil)
	assert.False(t, c.IsComplex)
	require.Len(t, client.Calls, 1)
	assert.Equal(t, "mock-light", client.Calls[0].Model)
	assert.Contains(t, client.Calls[0].Messages[0].Content, "Query: what is 2+2")
}

func TestDecide(t *testing.T) {
	assert.Equal(t, TierLight, Decide(Classification{IsDirectCommand: true, Confidence: 0.8}, 0.9))
	assert.Equal(t, TierLight, Decide(Classification{Confidence: 0.7}, 0.7))
	assert.Equal(t, TierPowerful, Decide(Classification{Confidence: 0.69}, 0.7))
	assert.Equal(t, TierPowerful, Decide(Classification{IsComplex: true, Confidence: 1}, 0.7))
}

func TestRouteDirectCommandSkipsClassifier(t *testing.T) {
	client := &llm.ScriptedLLMClient{Replies: []string{"CLASSIFICATION: COMPLEX\nCONFIDENCE: 1.0"}}
	r := New(testConfig(), nil)

	d := r.Route(context.Background(), client, "list files in /tmp", false)
	assert.Equal(t, TierLight, d.Tier)
	assert.Equal(t, "mock-light", d.Model)
	assert.Equal(t, CategoryListing, d.Classification.Category)
	assert.Equal(t, 0.95, d.Classification.Confidence)
	assert.Empty(t, client.Calls)
}

func TestRouteClassified(t *testing.T) {
	cfg := testConfig()
	cfg.Routing.Threshold = 0.8
	r := New(cfg, nil)

	client := &llm.ScriptedLLMClient{Replies: []string{"CLASSIFICATION: SIMPLE\nCONFIDENCE: 0.9"}}
	d := r.Route(context.Background(), client, "what is the capital of France", false)
	assert.Equal(t, TierLight, d.Tier)
	assert.Equal(t, "mock-light", d.Model)

	client = &llm.ScriptedLLMClient{Replies: []string{"CLASSIFICATION: SIMPLE\nCONFIDENCE: 0.5"}}
	d = r.Route(context.Background(), client, "what is the capital of France", false)
	assert.Equal(t, TierPowerful, d.Tier)
	assert.Equal(t, "mock-powerful", d.Model)
}

func TestRouteDisabledAndForced(t *testing.T) {
	cfg := testConfig()
	client := &llm.ScriptedLLMClient{Replies: []string{"CLASSIFICATION: SIMPLE\nCONFIDENCE: 1"}}
	r := New(cfg, nil)

	d := r.Route(context.Background(), client, "list files in /tmp", true)
	assert.Equal(t, TierPowerful, d.Tier)
	assert.False(t, d.Classified)

	cfg.Routing.Enabled = false
	d = r.Route(context.Background(), client, "list files in /tmp", false)
	assert.Equal(t, TierPowerful, d.Tier)
	assert.Empty(t, client.Calls)
}

func TestRouteRefine(t *testing.T) {
	cfg := testConfig()
	cfg.Reasoning.Enabled = true
	r := New(cfg, nil)
	client := &llm.ScriptedLLMClient{Replies: []string{"CLASSIFICATION: COMPLEX\nCONFIDENCE: 0.9"}}

	assert.True(t, r.Route(context.Background(), client, "design a cache", false).Refine)
	assert.False(t, r.Route(context.Background(), client, "list files in /tmp", false).Refine)
}

func TestRefine(t *testing.T) {
	r := New(testConfig(), nil)
	client := &llm.ScriptedLLMClient{Replies: []string{"step one", "step two", "final"}}
	history := []session.Message{{Role: session.RoleUser, Content: "why is the sky blue"}}

	res, err := r.Refine(context.Background(), client, "mock-powerful", history, 2)
	require.NoError(t, err)
	assert.Equal(t, "final", res.Answer)
	assert.Equal(t, []string{"step one", "step two"}, res.Steps)

	require.Len(t, client.Calls, 3)
	assert.Contains(t, lastContent(client.Calls[0].Messages), "iteration 1 of 2")
	assert.Contains(t, lastContent(client.Calls[1].Messages), "iteration 2 of 2")
	// Each turn sees the previous replies.
	assert.Len(t, client.Calls[2].Messages, 6)
	assert.Equal(t, "step two", client.Calls[2].Messages[4].Content)
	// The caller's history is not modified.
	assert.Len(t, history, 1)
}

func TestRefineProviderError(t *testing.T) {
	r := New(testConfig(), nil)
	client := &llm.ScriptedLLMClient{Replies: []string{"step one", "ERROR: down"}}

	_, err := r.Refine(context.Background(), client, "m", nil, 3)
	assert.True(t, errors.Is(err, errors.ErrProviderError))
	assert.Len(t, client.Calls, 2)
}

func lastContent(msgs []session.Message) string {
	if len(msgs) == 0 {
		return ""
	}
	return strings.TrimSpace(msgs[len(msgs)-1].Content)
}
