package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"BrandScene-server/apperr"
	"BrandScene-server/config"
	"BrandScene-server/models"

	"go.uber.org/zap"
)

// 生图固定走横版高清，与视频画幅一致
const (
	imageSize    = "1792x1024"
	imageQuality = "hd"
)

// ImageClient 生图适配器（与文本 API 同一套鉴权）
type ImageClient struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
	Log     *zap.Logger
}

func NewImageClient(cfg *config.Config, log *zap.Logger) *ImageClient {
	return &ImageClient{
		BaseURL: cfg.AI.ImageAPI,
		APIKey:  cfg.AI.TextKey,
		Model:   cfg.AI.ImageModel,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
		Log:     log,
	}
}

// Params 返回本次生图的参数快照（随候选图落库）
func (c *ImageClient) Params() models.GenerationParams {
	return models.GenerationParams{Model: c.Model, Size: imageSize, Quality: imageQuality}
}

// GenerateImage 按视觉描述生成一张图，返回图片 URL
func (c *ImageClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(map[string]interface{}{
		"model":   c.Model,
		"prompt":  prompt,
		"n":       1,
		"size":    imageSize,
		"quality": imageQuality,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request failed: %w", err)
	}

	var url string
	call := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/images/generations", bytes.NewReader(reqBody))
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
			return fmt.Errorf("image api status: %d", resp.StatusCode)
		}
		var result struct {
			Data []struct {
				URL string `json:"url"`
			} `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decode response failed: %w", err)
		}
		if len(result.Data) == 0 || result.Data[0].URL == "" {
			return fmt.Errorf("no image received")
		}
		url = result.Data[0].URL
		return nil
	}
	if err := retryAI(ctx, c.Log, "generate_image", call); err != nil {
		return "", apperr.AIService("Failed to generate image", err)
	}
	return url, nil
}
