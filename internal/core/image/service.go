package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	_ "image/gif"  // 支援 GIF
	_ "image/jpeg" // 支援 JPEG

	"smart-fridge/internal/infrastructure/config"
	"smart-fridge/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp" // 支援 WebP
)

const (
	// DataURIPrefix 圖片 data URI 的前綴
	DataURIPrefix = "data:image/"

	msgInvalidFormat = "올바르지 않은 이미지 데이터 형식입니다."
	msgUnsupported   = "이미지 형식이 올바르지 않습니다. PNG, JPEG, GIF, WebP 형식의 이미지를 업로드해주세요."

	placeholderTitle   = "TEXT INPUT"
	placeholderMaxText = 40
)

var (
	colorBackground = color.RGBA{R: 0xf3, G: 0xf3, B: 0xf5, A: 0xff}
	colorBorder     = color.RGBA{R: 0xcb, G: 0xce, B: 0xd4, A: 0xff}
	colorTitle      = color.RGBA{R: 0x03, G: 0x02, B: 0x13, A: 0xff}
	colorMuted      = color.RGBA{R: 0x71, G: 0x71, B: 0x82, A: 0xff}
)

// Info 驗證通過的圖片資訊
type Info struct {
	Format string
	Width  int
	Height int
	Bytes  int
}

// Service 圖片處理服務
type Service struct {
	maxSizeBytes int64
	width        int
	height       int
}

// NewService 創建新的圖片處理服務
func NewService(cfg config.ImageConfig) *Service {
	s := &Service{maxSizeBytes: cfg.MaxSizeBytes, width: cfg.PlaceholderWidth, height: cfg.PlaceholderHeight}
	if s.width <= 0 {
		s.width = 400
	}
	if s.height <= 0 {
		s.height = 200
	}
	return s
}

// HasDataURIPrefix 檢查是否為圖片 data URI
func HasDataURIPrefix(imageData string) bool {
	return strings.HasPrefix(imageData, DataURIPrefix)
}

// Validate 驗證 data URI：前綴、base64、大小與可解碼的格式
func (s *Service) Validate(imageData string) (*Info, error) {
	if !HasDataURIPrefix(imageData) {
		return nil, common.NewError(common.ErrCodeInvalidImage, msgInvalidFormat, http.StatusBadRequest, nil)
	}

	header, payload, ok := strings.Cut(imageData, ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, common.NewError(common.ErrCodeInvalidImage, msgInvalidFormat, http.StatusBadRequest, fmt.Errorf("missing base64 payload"))
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, common.NewError(common.ErrCodeInvalidImage, msgInvalidFormat, http.StatusBadRequest, fmt.Errorf("decode base64: %w", err))
	}

	if s.maxSizeBytes > 0 && int64(len(decoded)) > s.maxSizeBytes {
		msg := fmt.Sprintf("이미지 크기가 너무 큽니다. %dMB 이하의 이미지를 업로드해주세요.", s.maxSizeBytes/(1024*1024))
		return nil, common.NewError(common.ErrCodeInvalidImage, msg, http.StatusBadRequest,
			fmt.Errorf("image size %d exceeds limit %d", len(decoded), s.maxSizeBytes))
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(decoded))
	if err != nil {
		return nil, common.NewError(common.ErrCodeInvalidImage, msgUnsupported, http.StatusBadRequest, fmt.Errorf("decode image: %w", err))
	}
	if !isSupportedFormat(format) {
		return nil, common.NewError(common.ErrCodeInvalidImage, msgUnsupported, http.StatusBadRequest, fmt.Errorf("unsupported image format: %s", format))
	}

	info := &Info{Format: format, Width: cfg.Width, Height: cfg.Height, Bytes: len(decoded)}
	common.LogImageProcessing("debug",
		zap.String("format", info.Format),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
		zap.Int("bytes", info.Bytes),
	)
	return info, nil
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	switch format {
	case "jpeg", "png", "gif", "webp":
		return true
	}
	return false
}

// RenderPlaceholder 為文字輸入產生 PNG data URI，items 為辨識出的食材數
func (s *Service) RenderPlaceholder(text string, items int, at time.Time) (string, error) {
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	draw.Draw(img, img.Bounds(), image.NewUniform(colorBackground), image.Point{}, draw.Src)
	drawBorder(img, 2, colorBorder)

	lines := []struct {
		text string
		y    int
		c    color.Color
	}{
		{placeholderTitle, s.height/2 - 20, colorTitle},
		{placeholderLine(text, items), s.height/2 + 10, colorMuted},
		{at.Format("2006-01-02 15:04:05"), s.height/2 + 40, colorMuted},
	}
	for _, l := range lines {
		drawCentered(img, l.text, l.y, l.c)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode placeholder: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func drawBorder(img *image.RGBA, width int, c color.Color) {
	b := img.Bounds()
	src := image.NewUniform(c)
	for _, r := range []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+width),
		image.Rect(b.Min.X, b.Max.Y-width, b.Max.X, b.Max.Y),
		image.Rect(b.Min.X, b.Min.Y, b.Min.X+width, b.Max.Y),
		image.Rect(b.Max.X-width, b.Min.Y, b.Max.X, b.Max.Y),
	} {
		draw.Draw(img, r, src, image.Point{}, draw.Src)
	}
}

func drawCentered(img *image.RGBA, text string, baseline int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
	}
	width := d.MeasureString(text).Ceil()
	x := (img.Bounds().Dx() - width) / 2
	if x < 0 {
		x = 0
	}
	d.Dot = fixed.P(x, baseline)
	d.DrawString(text)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// placeholderLine basicfont 只含 ASCII 字形；無法顯示的文字改為摘要
func placeholderLine(text string, items int) string {
	text = strings.TrimSpace(text)
	if text != "" && isPrintableASCII(text) {
		return truncateRunes(text, placeholderMaxText)
	}
	switch {
	case items == 1:
		return "1 ingredient"
	case items > 1:
		return fmt.Sprintf("%d ingredients", items)
	case text != "":
		return fmt.Sprintf("%d characters", utf8.RuneCountInString(text))
	default:
		return ""
	}
}

func isPrintableASCII(s string) bool {
	for _, r := range s {
		if r < 0x20 || r > 0x7e {
			return false
		}
	}
	return true
}
