package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	_ "image/gif" // 支援 GIF
	_ "image/png" // 支援 PNG

	"recipe-parser/internal/pkg/common"

	_ "golang.org/x/image/webp" // 支援 WebP
)

const jpegQuality = 85

// Service 圖片處理服務
type Service struct {
	maxSizeBytes int64
}

// NewService 創建新的圖片處理服務
func NewService(maxSizeBytes int64) *Service {
	return &Service{
		maxSizeBytes: maxSizeBytes,
	}
}

// ProcessImage 將 base64 或 data URI 圖片轉為 JPEG data URI
func (s *Service) ProcessImage(imageData string) (string, error) {
	img, _, err := s.decode(imageData)
	if err != nil {
		return "", err
	}

	// 將圖片轉換為 JPEG 格式
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("failed to encode image as JPEG: %w", err)
	}

	// 重新編碼為 base64
	encodedData := base64.StdEncoding.EncodeToString(buf.Bytes())
	return fmt.Sprintf("data:image/jpeg;base64,%s", encodedData), nil
}

// ValidateImage 驗證圖片
func (s *Service) ValidateImage(imageData string) error {
	_, _, err := s.decode(imageData)
	return err
}

func (s *Service) decode(imageData string) (image.Image, string, error) {
	payload := strings.TrimSpace(imageData)
	if payload == "" {
		return nil, "", common.NewInvalidInputError("image data is empty", nil)
	}

	// data URI 需去掉前綴
	if strings.HasPrefix(payload, "data:") {
		if !strings.HasPrefix(payload, "data:image/") {
			return nil, "", common.NewInvalidInputError("invalid image data format", nil)
		}
		parts := strings.SplitN(payload, ",", 2)
		if len(parts) != 2 || !strings.Contains(parts[0], ";base64") {
			return nil, "", common.NewInvalidInputError("invalid base64 data format", nil)
		}
		payload = parts[1]
	}

	// 解碼 base64 數據
	decodedData, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// 部分客戶端不補 padding
		decodedData, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, "", common.NewInvalidInputError("failed to decode base64 data", err)
		}
	}

	// 檢查文件大小
	if s.maxSizeBytes > 0 && int64(len(decodedData)) > s.maxSizeBytes {
		return nil, "", common.NewInvalidInputError(fmt.Sprintf("image size exceeds maximum limit of %d bytes", s.maxSizeBytes), nil)
	}

	// 解碼圖片
	img, format, err := image.Decode(bytes.NewReader(decodedData))
	if err != nil {
		return nil, "", common.NewInvalidInputError("failed to decode image", err)
	}

	// 檢查圖片格式
	if !isSupportedFormat(format) {
		return nil, "", common.NewInvalidInputError(fmt.Sprintf("unsupported image format: %s", format), nil)
	}

	return img, format, nil
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	supportedFormats := map[string]bool{
		"jpeg": true,
		"jpg":  true,
		"png":  true,
		"gif":  true,
		"webp": true,
	}
	return supportedFormats[format]
}
