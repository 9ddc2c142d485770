package visitor

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Asset is one image included in a session export.
type Asset struct {
	Name string
	MIME string
	Data []byte
}

// Assets collects the displayed image and every inline chat image. Chat
// images referenced by URL are not downloaded.
func (v *Visitor) Assets() []Asset {
	v.touch()
	v.mu.Lock()
	defer v.mu.Unlock()

	var assets []Asset
	if v.image != nil {
		assets = append(assets, Asset{
			Name: fmt.Sprintf("waifu-%d%s", v.image.Version, extensionFor(v.image.MIME)),
			MIME: v.image.MIME,
			Data: append([]byte(nil), v.image.Data...),
		})
	}
	n := 0
	for _, msg := range v.transcript {
		if msg.Image == "" {
			continue
		}
		mime, data, ok := decodeDataURI(msg.Image)
		if !ok {
			continue
		}
		n++
		assets = append(assets, Asset{
			Name: fmt.Sprintf("chat-%02d%s", n, extensionFor(mime)),
			MIME: mime,
			Data: data,
		})
	}
	return assets
}

func decodeDataURI(ref string) (string, []byte, bool) {
	rest, ok := strings.CutPrefix(ref, "data:")
	if !ok {
		return "", nil, false
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, false
	}
	return strings.TrimSuffix(meta, ";base64"), data, true
}

func extensionFor(mime string) string {
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
