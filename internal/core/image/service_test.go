package image

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-fridge/internal/infrastructure/config"
	"smart-fridge/internal/pkg/common"
)

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newTestService() *Service {
	return NewService(config.ImageConfig{MaxSizeBytes: 10 * 1024 * 1024, PlaceholderWidth: 400, PlaceholderHeight: 200})
}

func TestValidate(t *testing.T) {
	s := newTestService()

	info, err := s.Validate(pngDataURI(t, 4, 3))
	require.NoError(t, err)
	assert.Equal(t, "png", info.Format)
	assert.Equal(t, 4, info.Width)
	assert.Equal(t, 3, info.Height)

	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"not a data uri", "https://example.com/a.png", msgInvalidFormat},
		{"no payload", "data:image/png;base64", msgInvalidFormat},
		{"bad base64", "data:image/png;base64,%%%", msgInvalidFormat},
		{"not an image", "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("hello")), msgUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Validate(tt.input)
			require.Error(t, err)
			assert.Equal(t, 400, common.StatusOf(err))
			assert.Equal(t, tt.wantMsg, common.MessageOf(err))
		})
	}
}

func TestValidateSizeLimit(t *testing.T) {
	s := NewService(config.ImageConfig{MaxSizeBytes: 16})

	_, err := s.Validate(pngDataURI(t, 10, 10))
	require.Error(t, err)
	assert.Equal(t, common.ErrCodeInvalidImage, common.CodeOf(err))
	assert.Contains(t, common.MessageOf(err), "이미지 크기가 너무 큽니다")
}

func TestRenderPlaceholder(t *testing.T) {
	s := newTestService()

	uri, err := s.RenderPlaceholder("사과 3개, banana 2", 2, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	info, err := s.Validate(uri)
	require.NoError(t, err)
	assert.Equal(t, "png", info.Format)
	assert.Equal(t, 400, info.Width)
	assert.Equal(t, 200, info.Height)
}

func TestPlaceholderText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		items int
		want  string
	}{
		{"ascii text is drawn", "  apple x2 ", 1, "apple x2"},
		{"long ascii text is truncated", strings.Repeat("a", 45), 1, strings.Repeat("a", 40) + "..."},
		{"korean text becomes item count", "사과 두 개랑 우유", 2, "2 ingredients"},
		{"single item", "계란", 1, "1 ingredient"},
		{"no items falls back to length", "사과", 0, "2 characters"},
		{"empty", "", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, placeholderLine(tt.text, tt.items))
		})
	}
	assert.Equal(t, "abc...", truncateRunes("abcdef", 3))
	assert.Equal(t, "abc", truncateRunes("abc", 3))
}
