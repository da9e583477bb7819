package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"BrandScene-server/apperr"
	"BrandScene-server/config"
	"BrandScene-server/models"

	"go.uber.org/zap"
)

// 各类生成调用的 token 上限与温度（沿用线上调好的值）
const (
	maxTokensResearch    = 2000
	maxTokensScript      = 1500
	maxTokensScenes      = 2000
	maxTokensTransitions = 1500

	tempResearch    = 0.7
	tempScript      = 0.8
	tempScenes      = 0.7
	tempTransitions = 0.7
)

// TextClient 文本生成适配器：构请求 -> 调外部 API -> 解析 JSON 结果。
// 自身不落库，调用方负责持久化。
type TextClient struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
	Log     *zap.Logger
}

func NewTextClient(cfg *config.Config, log *zap.Logger) *TextClient {
	return &TextClient{
		BaseURL: cfg.AI.TextAPI,
		APIKey:  cfg.AI.TextKey,
		Model:   cfg.AI.TextModel,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Log:     log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	MaxTokens      int           `json:"max_tokens"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chatJSON 一次 JSON 模式对话，结果解到 out
func (c *TextClient) chatJSON(ctx context.Context, system, user string, temperature float64, maxTokens int, out interface{}) error {
	req := chatRequest{
		Model:       c.Model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	req.ResponseFormat.Type = "json_object"

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request failed: %w", err)
	}

	call := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/chat/completions", bytes.NewReader(body))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

		resp, err := c.HTTP.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("text api status: %d", resp.StatusCode)
		}
		var cr chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
			return fmt.Errorf("decode response failed: %w", err)
		}
		if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
			return fmt.Errorf("no content received")
		}
		if err := json.Unmarshal([]byte(cr.Choices[0].Message.Content), out); err != nil {
			return fmt.Errorf("parse model output failed: %w", err)
		}
		return nil
	}
	return retryAI(ctx, c.Log, "chat", call)
}

// ResearchQuery 调研入参
type ResearchQuery struct {
	Topic          string
	Context        string
	TargetAudience string
}

// ConductResearch 市场调研：受众洞察/趋势/竞品/建议
func (c *TextClient) ConductResearch(ctx context.Context, q ResearchQuery) (*models.ResearchResults, error) {
	prompt := fmt.Sprintf(`You are a market research expert. Conduct comprehensive research for a marketing campaign with the following parameters:

Topic: %s
Context: %s
Target Audience: %s

Provide detailed insights in the following categories:
1. Target Audience Insights: Demographics, psychographics, pain points, and desires
2. Current Trends: Latest trends in the industry and marketing
3. Competitor Analysis: What competitors are doing well and gaps in the market
4. Recommendations: Actionable recommendations for the campaign

Format your response as valid JSON with the following structure:
{"insights": [...], "trends": [...], "competitorAnalysis": [...], "recommendations": [...], "sources": [...], "confidenceScore": 0.95}`,
		q.Topic, q.Context, q.TargetAudience)

	var result models.ResearchResults
	err := c.chatJSON(ctx,
		"You are an expert market researcher specializing in consumer insights and marketing strategy. Always respond with valid JSON.",
		prompt, tempResearch, maxTokensResearch, &result)
	if err != nil {
		return nil, apperr.AIService("Failed to conduct research", err)
	}
	return &result, nil
}

// ScriptParams 脚本生成入参（research 可为空）
type ScriptParams struct {
	BrandName          string
	ProductName        string
	ProductDescription string
	TargetAudience     string
	KeyBenefits        []string
	BrandVoice         string
	Tone               string
	Research           *models.ResearchResults
	VariantNumber      int
}

// GeneratedScript 生成的脚本结构
type GeneratedScript struct {
	Title           string                `json:"title"`
	Content         string                `json:"content"`
	DurationSeconds float64               `json:"durationSeconds"`
	Tone            string                `json:"tone"`
	Style           string                `json:"style"`
	Metadata        models.ScriptMetadata `json:"metadata"`
}

// GenerateScript 生成单个脚本变体
func (c *TextClient) GenerateScript(ctx context.Context, p ScriptParams) (*GeneratedScript, error) {
	voice := p.BrandVoice
	if voice == "" {
		voice = "professional and engaging"
	}
	tone := p.Tone
	if tone == "" {
		tone = "inspirational"
	}
	// 变体走不同优化方向
	focus := "direct response"
	switch p.VariantNumber {
	case 1:
		focus = "maximum engagement"
	case 2:
		focus = "emotional appeal"
	}

	researchContext := ""
	if p.Research != nil {
		researchContext = fmt.Sprintf(`
Research Insights:
- Key Insights: %s
- Current Trends: %s
- Recommendations: %s
`,
			strings.Join(p.Research.Insights, ", "),
			strings.Join(p.Research.Trends, ", "),
			strings.Join(p.Research.Recommendations, ", "))
	}

	prompt := fmt.Sprintf(`You are an expert copywriter and scriptwriter specializing in video marketing content. Create a compelling video script with the following parameters:

Brand: %s
Product: %s
Description: %s
Target Audience: %s
Key Benefits: %s
Brand Voice: %s
Tone: %s
Variant: #%d
%s
Create a script that:
1. Opens with a powerful hook to capture attention in the first 3 seconds
2. Clearly communicates the product's value proposition
3. Addresses the target audience's pain points and desires
4. Includes emotional storytelling elements
5. Has a strong call-to-action
6. Is optimized for %s
7. Duration: 30-60 seconds when read at natural pace

Format your response as valid JSON with the following structure:
{"title": "...", "content": "...", "durationSeconds": 45, "tone": "%s", "style": "storytelling", "metadata": {"hooks": [...], "keyMessages": [...], "callToAction": "..."}}`,
		p.BrandName, p.ProductName, p.ProductDescription, p.TargetAudience,
		strings.Join(p.KeyBenefits, ", "), voice, tone, p.VariantNumber,
		researchContext, focus, tone)

	var script GeneratedScript
	err := c.chatJSON(ctx,
		"You are an expert video scriptwriter who creates engaging, conversion-optimized scripts. Always respond with valid JSON.",
		prompt, tempScript, maxTokensScript, &script)
	if err != nil {
		return nil, apperr.AIService("Failed to generate script", err)
	}
	return &script, nil
}

// GenerateScriptVariants 顺序生成 count 个独立变体（不并发）
func (c *TextClient) GenerateScriptVariants(ctx context.Context, p ScriptParams, count int) ([]GeneratedScript, error) {
	variants := make([]GeneratedScript, 0, count)
	for i := 1; i <= count; i++ {
		p.VariantNumber = i
		script, err := c.GenerateScript(ctx, p)
		if err != nil {
			return nil, err
		}
		variants = append(variants, *script)
	}
	return variants, nil
}

// SceneBreakdown 单个分镜的拆解结果，每镜 3-10 秒
type SceneBreakdown struct {
	SceneNumber       int     `json:"sceneNumber"`
	NarrationText     string  `json:"narrationText"`
	VisualDescription string  `json:"visualDescription"`
	DurationSeconds   float64 `json:"durationSeconds"`
	Mood              string  `json:"mood"`
	CameraAngle       string  `json:"cameraAngle"`
	TransitionType    string  `json:"transitionType"`
}

// BreakdownScenes 脚本拆分镜
func (c *TextClient) BreakdownScenes(ctx context.Context, title, content string, targetDuration float64) ([]SceneBreakdown, error) {
	prompt := fmt.Sprintf(`You are an expert video director and cinematographer. Break down the following video script into logical scenes for production.

Script Title: %s
Script Content:
%s

Total Duration: %.0f seconds

For each scene, provide:
1. Scene number
2. Narration text (what the voiceover says)
3. Visual description (detailed description of what should be shown)
4. Duration in seconds
5. Mood (e.g., energetic, calm, inspiring, professional)
6. Camera angle (e.g., close-up, wide shot, medium shot, overhead)
7. Transition type to next scene (e.g., fade, cut, dissolve, zoom)

Ensure scenes flow naturally and match the script's tone. Each scene should be 3-10 seconds.

Format your response as valid JSON:
{"scenes": [{"sceneNumber": 1, "narrationText": "...", "visualDescription": "...", "durationSeconds": 5, "mood": "energetic", "cameraAngle": "wide shot", "transitionType": "fade"}]}`,
		title, content, targetDuration)

	var result struct {
		Scenes []SceneBreakdown `json:"scenes"`
	}
	err := c.chatJSON(ctx,
		"You are an expert video director. Always respond with valid JSON.",
		prompt, tempScenes, maxTokensScenes, &result)
	if err != nil {
		return nil, apperr.AIService("Failed to generate scenes", err)
	}
	if len(result.Scenes) == 0 {
		return nil, apperr.AIService("Failed to generate scenes", fmt.Errorf("empty scene list"))
	}
	return result.Scenes, nil
}

// SceneBrief 转场推荐的入参（有序）
type SceneBrief struct {
	Number      int     `json:"number"`
	Mood        string  `json:"mood"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
}

// TransitionConfig 相邻分镜间的转场
type TransitionConfig struct {
	Type      string  `json:"type"`
	Duration  float64 `json:"duration"`
	Reasoning string  `json:"reasoning"`
}

// RecommendTransitions 按分镜情绪推荐转场；调用失败由调用方走固定兜底
func (c *TextClient) RecommendTransitions(ctx context.Context, scenes []SceneBrief) ([]TransitionConfig, error) {
	briefJSON, _ := json.MarshalIndent(scenes, "", "  ")
	prompt := fmt.Sprintf(`You are a professional video editor. Analyze these video scenes and recommend the best transition type between each pair of consecutive scenes.

Scenes:
%s

For each transition, consider:
1. Mood compatibility between scenes
2. Visual flow and continuity
3. Pacing and rhythm
4. Professional video editing standards

Available transitions:
- fade: Smooth fade to black/white
- dissolve: Cross-dissolve blend
- cut: Direct cut (instant)
- wipe: Directional wipe effect
- zoom: Zoom in/out transition
- slide: Slide transition

Provide recommendations as valid JSON:
{"transitions": [{"fromScene": 1, "toScene": 2, "type": "fade", "duration": 0.5, "reasoning": "..."}]}`, briefJSON)

	var result struct {
		Transitions []struct {
			Type      string  `json:"type"`
			Duration  float64 `json:"duration"`
			Reasoning string  `json:"reasoning"`
		} `json:"transitions"`
	}
	err := c.chatJSON(ctx,
		"You are a professional video editor. Always respond with valid JSON.",
		prompt, tempTransitions, maxTokensTransitions, &result)
	if err != nil {
		return nil, apperr.AIService("Failed to recommend transitions", err)
	}

	out := make([]TransitionConfig, 0, len(result.Transitions))
	for _, t := range result.Transitions {
		out = append(out, TransitionConfig{Type: t.Type, Duration: t.Duration, Reasoning: t.Reasoning})
	}
	return out, nil
}
