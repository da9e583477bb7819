package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"BrandScene-server/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// chatReply 把业务 JSON 包进 chat completion 响应
func chatReply(t *testing.T, w http.ResponseWriter, inner interface{}) {
	t.Helper()
	content, err := json.Marshal(inner)
	require.NoError(t, err)
	resp := map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"content": string(content)}},
		},
	}
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func newFakeTextClient(srv *httptest.Server) *TextClient {
	return &TextClient{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "gpt-4-turbo-preview",
		HTTP:    srv.Client(),
		Log:     zap.NewNop(),
	}
}

func TestConductResearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		chatReply(t, w, map[string]interface{}{
			"insights":           []string{"年轻用户更信任短视频种草"},
			"trends":             []string{"竖屏短视频"},
			"competitorAnalysis": []string{"竞品以价格战为主"},
			"recommendations":    []string{"强调品质差异"},
			"sources":            []string{"industry-report"},
			"confidenceScore":    0.9,
		})
	}))
	defer srv.Close()

	c := newFakeTextClient(srv)
	got, err := c.ConductResearch(context.Background(), ResearchQuery{
		Topic:          "智能水杯",
		Context:        "保温提醒喝水",
		TargetAudience: "上班族",
	})
	require.NoError(t, err)
	require.Equal(t, 0.9, got.ConfidenceScore)
	require.Len(t, got.Insights, 1)
}

func TestGenerateScriptVariantsSequential(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		chatReply(t, w, GeneratedScript{
			Title:           "Variant",
			Content:         "script body",
			DurationSeconds: 30,
			Tone:            "inspirational",
			Style:           "storytelling",
		})
	}))
	defer srv.Close()

	c := newFakeTextClient(srv)
	got, err := c.GenerateScriptVariants(context.Background(), ScriptParams{
		BrandName:          "品牌",
		ProductName:        "产品",
		ProductDescription: "一段足够长的产品描述",
		TargetAudience:     "目标人群描述",
	}, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, 3, calls)
}

func TestPlanTransitionsFallsBackOnCountMismatch(t *testing.T) {
	// 返回的转场数量对不上分镜数，应回退固定方案
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, map[string]interface{}{
			"transitions": []map[string]interface{}{
				{"type": "zoom", "duration": 0.3, "reasoning": "pace"},
			},
		})
	}))
	defer srv.Close()

	s := &Stitcher{Text: newFakeTextClient(srv), Log: zap.NewNop()}
	scenes := []models.Scene{
		{SceneNumber: 1}, {SceneNumber: 2}, {SceneNumber: 3}, {SceneNumber: 4},
	}
	got := s.planTransitions(context.Background(), scenes)
	require.Len(t, got, 3)
	require.Equal(t, "fade", got[0].Type)
	require.Equal(t, "dissolve", got[1].Type)
	require.Equal(t, "fade", got[2].Type)
}

func TestSuggestMusicFallback(t *testing.T) {
	require.NotEmpty(t, SuggestMusic("energetic"))
	for _, track := range SuggestMusic("energetic") {
		require.Equal(t, "energetic", track.Mood)
	}

	// 未知情绪回退 professional
	for _, track := range SuggestMusic("mysterious") {
		require.Equal(t, "professional", track.Mood)
	}
}

func TestEstimateNarrationDuration(t *testing.T) {
	require.Equal(t, 2.0, EstimateNarrationDuration("five words in this sentence"))
	require.Equal(t, 0.0, EstimateNarrationDuration(""))
}
