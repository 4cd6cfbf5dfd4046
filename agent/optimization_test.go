package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcrew/internal/testutil"
	"github.com/hupe1980/agentcrew/model"
)

func TestOptimizationUnit_WithLLM(t *testing.T) {
	llm := model.NewMockLLM("specialist")
	llm.AddResponse("slow dashboard", "Cut dashboard latency in half.\n- Cache the aggregate query\n- Paginate the result table")

	unit := NewOptimizationUnit(newTestDeps(testutil.NewRecordingSink(), llm))
	ec := testutil.NewContextBuilder().UserRequest("slow dashboard").Build()

	res, err := unit.Execute(context.Background(), ec, map[string]any{InputUserRequest: "slow dashboard"})
	require.NoError(t, err)
	require.True(t, res.Success)

	assert.Equal(t, "Cut dashboard latency in half.", res.Data[SpecialistKeySummary])
	assert.Equal(t, []string{"Cache the aggregate query", "Paginate the result table"}, res.Data[SpecialistKeyRecommendations])
	assert.Equal(t, true, res.Data[SpecialistKeyUsedLLM])
}

func TestOptimizationUnit_LLMFailureFallsBack(t *testing.T) {
	llm := model.NewMockLLM("specialist")
	llm.FailWith(errors.New("provider down"))

	unit := NewOptimizationUnit(newTestDeps(testutil.NewRecordingSink(), llm))
	ec := testutil.NewContextBuilder().UserRequest("slow dashboard").Build()

	res, err := unit.Execute(context.Background(), ec, nil)
	require.NoError(t, err)
	require.True(t, res.Success, "specialist degrades, it does not fail")

	assert.Equal(t, false, res.Data[SpecialistKeyUsedLLM])
	recs, ok := res.Data[SpecialistKeyRecommendations].([]string)
	require.True(t, ok)
	assert.NotEmpty(t, recs)
}

func TestOptimizationUnit_ConsumesGatheredData(t *testing.T) {
	llm := model.NewMockLLM("specialist")

	unit := NewOptimizationUnit(newTestDeps(testutil.NewRecordingSink(), llm))
	ec := testutil.NewContextBuilder().UserRequest("tune the cache").Build()

	input := map[string]any{
		InputUserRequest: "tune the cache",
		AgentDataGathering: map[string]any{
			GatheringKeyData: map[string]any{"session_state": map[string]any{"cache_hits": 0.4}},
		},
	}

	res, err := unit.Execute(context.Background(), ec, input)
	require.NoError(t, err)
	require.True(t, res.Success)

	// The gathered context must reach the LLM prompt.
	prompts := llm.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "cache_hits")
}

func TestSplitRecommendations(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantSummary string
		wantRecs    []string
	}{
		{
			name:        "summary with bullets",
			text:        "Do three things.\n- first\n- second\n- third",
			wantSummary: "Do three things.",
			wantRecs:    []string{"first", "second", "third"},
		},
		{
			name:        "bullets only",
			text:        "- lone item",
			wantSummary: "- lone item",
			wantRecs:    []string{"lone item"},
		},
		{
			name:        "no bullets",
			text:        "Just a sentence.",
			wantSummary: "Just a sentence.",
			wantRecs:    []string{"Just a sentence."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, recs := splitRecommendations(tt.text)
			assert.Equal(t, tt.wantSummary, summary)
			assert.Equal(t, tt.wantRecs, recs)
		})
	}
}
