package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"BrandScene-server/apperr"
	"BrandScene-server/config"

	"go.uber.org/zap"
)

const DefaultStockCount = 5

// StockVideo 素材库检索结果，字段与 video_clip 对齐
type StockVideo struct {
	SourceURL    string  `json:"sourceUrl"`
	Duration     float64 `json:"duration"`
	Resolution   string  `json:"resolution"`
	ThumbnailURL string  `json:"thumbnailUrl"`
}

// StockClient 视频素材库检索适配器
type StockClient struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	Log     *zap.Logger
}

func NewStockClient(cfg *config.Config, log *zap.Logger) *StockClient {
	return &StockClient{
		BaseURL: cfg.AI.StockAPI,
		APIKey:  cfg.AI.StockKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Log:     log,
	}
}

type stockSearchResponse struct {
	Videos []struct {
		ID       int     `json:"id"`
		Duration float64 `json:"duration"`
		Image    string  `json:"image"`
		Files    []struct {
			Quality string `json:"quality"`
			Width   int    `json:"width"`
			Height  int    `json:"height"`
			Link    string `json:"link"`
		} `json:"video_files"`
	} `json:"videos"`
}

// Search 按关键词检索横版素材，每条挑最优文件：优先 hd 且宽 >= 1920，
// 否则退回第一个文件。
func (c *StockClient) Search(ctx context.Context, query string, count int) ([]StockVideo, error) {
	if count <= 0 {
		count = DefaultStockCount
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", strconv.Itoa(count))
	q.Set("orientation", "landscape")

	var out []StockVideo
	call := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.BaseURL+"/videos/search?"+q.Encode(), nil)
		if err != nil {
			return err
		}
		httpReq.Header.Set("Authorization", c.APIKey)

		resp, err := c.HTTP.Do(httpReq)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("stock api status: %d", resp.StatusCode)
		}
		var sr stockSearchResponse
		if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
			return fmt.Errorf("decode response failed: %w", err)
		}

		out = out[:0]
		for _, v := range sr.Videos {
			if len(v.Files) == 0 {
				continue
			}
			best := v.Files[0]
			for _, f := range v.Files {
				if f.Quality == "hd" && f.Width >= 1920 {
					best = f
					break
				}
			}
			out = append(out, StockVideo{
				SourceURL:    best.Link,
				Duration:     v.Duration,
				Resolution:   fmt.Sprintf("%dx%d", best.Width, best.Height),
				ThumbnailURL: v.Image,
			})
		}
		return nil
	}
	if err := retryAI(ctx, c.Log, "stock_search", call); err != nil {
		return nil, apperr.ExternalService("Failed to search stock videos", err)
	}
	return out, nil
}
