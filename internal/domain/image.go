package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// PlaceholderImage 持久化与接口层表示“尚未上传图片”的哨兵值
const PlaceholderImage = "/placeholder.png"

// IsPlaceholderRef 判断引用是否为占位图（空串或包含 placeholder 字样）
func IsPlaceholderRef(ref string) bool {
	ref = strings.TrimSpace(ref)
	return ref == "" || strings.Contains(ref, "placeholder")
}

// ImageSlot 图片槽位：Missing 或 Present(ref)。
// 零值即 Missing，序列化时 Missing 编码为 PlaceholderImage。
type ImageSlot struct {
	ref string
}

// MissingImage 返回空槽位
func MissingImage() ImageSlot {
	return ImageSlot{}
}

// ParseImageSlot 从外部引用解析槽位，占位引用视为 Missing
func ParseImageSlot(ref string) ImageSlot {
	if IsPlaceholderRef(ref) {
		return ImageSlot{}
	}
	return ImageSlot{ref: strings.TrimSpace(ref)}
}

// IsPresent 是否为真实图片
func (s ImageSlot) IsPresent() bool {
	return s.ref != ""
}

// Ref 返回真实图片引用
func (s ImageSlot) Ref() (string, bool) {
	return s.ref, s.ref != ""
}

// String 返回边界表示：真实引用或占位哨兵
func (s ImageSlot) String() string {
	if s.ref == "" {
		return PlaceholderImage
	}
	return s.ref
}

func (s ImageSlot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ImageSlot) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = ImageSlot{}
		return nil
	}
	var ref string
	if err := json.Unmarshal(data, &ref); err != nil {
		return err
	}
	*s = ParseImageSlot(ref)
	return nil
}

// ColorImages 颜色对应的图片组
type ColorImages struct {
	Front    ImageSlot `json:"front"`
	Back     ImageSlot `json:"back"`
	Optional []string  `json:"optional"`
}

// Refs 返回全部真实图片引用：正面、背面、附加图，已去重
func (ci ColorImages) Refs() []string {
	var refs []string
	seen := make(map[string]struct{})
	add := func(ref string) {
		if IsPlaceholderRef(ref) {
			return
		}
		if _, ok := seen[ref]; ok {
			return
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	if ref, ok := ci.Front.Ref(); ok {
		add(ref)
	}
	if ref, ok := ci.Back.Ref(); ok {
		add(ref)
	}
	for _, ref := range ci.Optional {
		add(strings.TrimSpace(ref))
	}
	return refs
}

// FilterOptionalImages 去掉占位引用与空白项
func FilterOptionalImages(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if IsPlaceholderRef(ref) {
			continue
		}
		out = append(out, strings.TrimSpace(ref))
	}
	return out
}
