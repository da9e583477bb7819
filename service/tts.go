package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"BrandScene-server/apperr"
	"BrandScene-server/config"

	"go.uber.org/zap"
)

// 旁白合成的缺省配置
const (
	DefaultVoiceID   = "EXAVITQu4vr4xnSDxMaL"
	ttsModelID       = "eleven_monolingual_v1"
	ttsStability     = 0.5
	ttsSimilarity    = 0.75
	narrationPerWord = 0.4 // 估算时长：约 150 词/分钟
)

// SpeechClient 语音合成适配器，返回音频字节流，上传由调用方处理
type SpeechClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Log     *zap.Logger
}

func NewSpeechClient(cfg *config.Config, log *zap.Logger) *SpeechClient {
	return &SpeechClient{
		BaseURL: cfg.AI.VoiceAPI,
		APIKey:  cfg.AI.VoiceKey,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
		Log:     log,
	}
}

// Synthesize 合成旁白音频，voiceID 为空时用缺省音色
func (c *SpeechClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if voiceID == "" {
		voiceID = DefaultVoiceID
	}

	reqBody, err := json.Marshal(map[string]interface{}{
		"text":     text,
		"model_id": ttsModelID,
		"voice_settings": map[string]interface{}{
			"stability":        ttsStability,
			"similarity_boost": ttsSimilarity,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	var audio []byte
	call := func() error {
		url := fmt.Sprintf("%s/v1/text-to-speech/%s", c.BaseURL, voiceID)
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
		if err != nil {
			return err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("xi-api-key", c.APIKey)
		httpReq.Header.Set("Accept", "audio/mpeg")

		resp, err := c.HTTP.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("voice api status: %d", resp.StatusCode)
		}
		audio, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read audio failed: %w", err)
		}
		if len(audio) == 0 {
			return fmt.Errorf("empty audio received")
		}
		return nil
	}
	if err := retryAI(ctx, c.Log, "synthesize_speech", call); err != nil {
		return nil, apperr.AIService("Failed to generate narration", err)
	}
	return audio, nil
}

// EstimateNarrationDuration 按词数估算旁白时长（秒）
func EstimateNarrationDuration(text string) float64 {
	words := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			inWord = false
			continue
		}
		if !inWord {
			words++
			inWord = true
		}
	}
	return float64(words) * narrationPerWord
}
