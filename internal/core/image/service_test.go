package image

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"recipe-parser/internal/pkg/common"
)

func pngBase64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestProcessImage(t *testing.T) {
	svc := NewService(1024 * 1024)
	raw := pngBase64(t)

	tests := []struct {
		name  string
		input string
	}{
		{"raw base64", raw},
		{"data uri", "data:image/png;base64," + raw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := svc.ProcessImage(tt.input)
			if err != nil {
				t.Fatalf("ProcessImage() error = %v", err)
			}
			if !strings.HasPrefix(out, "data:image/jpeg;base64,") {
				t.Errorf("ProcessImage() = %q, want jpeg data uri", out[:30])
			}
		})
	}
}

func TestValidateImageRejects(t *testing.T) {
	svc := NewService(16)
	raw := pngBase64(t)

	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not base64", "!!!not-base64!!!"},
		{"non image data uri", "data:text/plain;base64,aGVsbG8="},
		{"too large", raw},
		{"not an image", base64.StdEncoding.EncodeToString([]byte("hello world"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ValidateImage(tt.input)
			if err == nil {
				t.Fatal("ValidateImage() expected error")
			}
			if common.ErrorCode(err) != common.ErrCodeInvalidInput {
				t.Errorf("ErrorCode() = %s, want %s", common.ErrorCode(err), common.ErrCodeInvalidInput)
			}
		})
	}
}
