package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ParseJSON 解析 JSON 字符串到結構體
func ParseJSON(data string, v interface{}) error {
	return decodeJSON(strings.NewReader(data), v)
}

// ParseJSONBytes 解析 JSON 位元組切片到結構體
func ParseJSONBytes(data []byte, v interface{}) error {
	return decodeJSON(bytes.NewReader(data), v)
}

func decodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		return err
	}

	// 確保沒有多餘資料
	for {
		t, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if t != nil {
			return fmt.Errorf("unexpected extra JSON data")
		}
	}
}

// 只處理行首的開頭標記（可帶語言標籤）與行尾的結尾標記，字串值中的 ``` 保持原樣
var (
	openFencePattern  = regexp.MustCompile("(?m)^[ \t]*```+[A-Za-z0-9_+-]*[ \t]*")
	closeFencePattern = regexp.MustCompile("(?m)[ \t]*```+[ \t]*$")
)

// ExtractJSON 從模型回應中取出候選 JSON 物件
//
// 先移除行首與行尾的 ``` 區塊標記，若剩餘內容不是以 { 開頭且以 } 結尾，
// 就取第一個 { 到最後一個 } 之間的內容。不做括號平衡檢查。
func ExtractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	text = openFencePattern.ReplaceAllString(text, "")
	text = strings.TrimSpace(closeFencePattern.ReplaceAllString(text, ""))

	if strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}") {
		return text, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", ErrNoJSONFound
	}
	return text[start : end+1], nil
}

var invalidCharPattern = regexp.MustCompile(`invalid character '((?:\\.|[^'])+)'`)

// InvalidJSONToken 若為非法字元造成的語法錯誤，回傳該字元
func InvalidJSONToken(err error) (string, bool) {
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return "", false
	}
	m := invalidCharPattern.FindStringSubmatch(syntaxErr.Error())
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsTruncatedJSON 判斷 JSON 是否在中途被截斷
func IsTruncatedJSON(err error) bool {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var syntaxErr *json.SyntaxError
	return errors.As(err, &syntaxErr) && strings.Contains(syntaxErr.Error(), "unexpected end of JSON input")
}

// FlexInt 接受數字、數字字串或 null，無法轉換時為 0
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	v, ok := looseNumber(data)
	if !ok {
		*f = 0
		return nil
	}
	// 超出 int32 範圍的值直接截斷，避免浮點轉整數溢位
	*f = FlexInt(math.Max(math.MinInt32, math.Min(math.MaxInt32, math.Round(v))))
	return nil
}

// FlexFloat 接受數字、數字字串或 null，無法轉換時為 0
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	v, _ := looseNumber(data)
	*f = FlexFloat(v)
	return nil
}

// FlexString 接受字串或數字
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	*f = FlexString(looseString(data))
	return nil
}

// FlexStrings 接受字串陣列；單一字串視為只有一個元素的陣列
type FlexStrings []string

func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		if s := strings.TrimSpace(looseString(trimmed)); s != "" {
			*f = FlexStrings{s}
		} else {
			*f = nil
		}
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		*f = nil
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(looseString(item)); s != "" {
			out = append(out, s)
		}
	}
	*f = out
	return nil
}

func looseNumber(data []byte) (float64, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0, false
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return 0, false
		}
		trimmed = []byte(strings.TrimSpace(s))
	}
	v, err := strconv.ParseFloat(string(trimmed), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func looseString(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return ""
		}
		return s
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return ""
	}
	return string(trimmed)
}
