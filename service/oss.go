package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"BrandScene-server/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// 预签名 URL 有效期
const presignExpiry = 72 * time.Hour

// AssetStore 对象存储封装，生成素材统一落到 MinIO 再发预签名 URL
type AssetStore struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

func NewAssetStore(cfg *config.Config, log *zap.Logger) (*AssetStore, error) {
	mc, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("MinIO 初始化失败: %w", err)
	}
	log.Info("MinIO 连接成功", zap.String("endpoint", cfg.MinIO.Endpoint))
	return &AssetStore{client: mc, bucket: cfg.MinIO.Bucket, log: log}, nil
}

// Upload 从 io.Reader 上传到 MinIO，返回可访问的预签名 URL。
// size 未知时传 -1。
func (s *AssetStore) Upload(ctx context.Context, reader io.Reader, objectName string, size int64) (string, error) {
	// 确保 Bucket 存在
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return "", fmt.Errorf("检查 Bucket 失败: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("创建 Bucket 失败: %w", err)
		}
		s.log.Info("Bucket 已创建", zap.String("bucket", s.bucket))
	}

	// 根据文件扩展名确定 ContentType
	contentType := "application/octet-stream"
	switch filepath.Ext(objectName) {
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	case ".webp":
		contentType = "image/webp"
	case ".mp4":
		contentType = "video/mp4"
	case ".mp3":
		contentType = "audio/mpeg"
	case ".wav":
		contentType = "audio/wav"
	}

	_, err = s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("上传到 MinIO 失败: %w", err)
	}

	presignedURL, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, presignExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("生成签名 URL 失败: %w", err)
	}

	s.log.Info("文件已上传", zap.String("object", objectName))
	return presignedURL.String(), nil
}

// Mirror 下载外部资源并转存到 MinIO，返回预签名 URL
func (s *AssetStore) Mirror(ctx context.Context, sourceURL, objectName string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download status: %d", resp.StatusCode)
	}
	return s.Upload(ctx, resp.Body, objectName, resp.ContentLength)
}
