package imagegen

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/bookreel/trailer-service/internal/domain/entity"
)

// imageResponse covers every reply shape seen from image-capable endpoints.
type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
			Images  []struct {
				ImageURL struct {
					URL string `json:"url"`
				} `json:"image_url"`
			} `json:"images"`
		} `json:"message"`
	} `json:"choices"`
	Output struct {
		Results []struct {
			URL string `json:"url"`
		} `json:"results"`
	} `json:"output"`
}

type extractor func(r *imageResponse) (entity.ImageAsset, bool)

// extractors run in priority order: inline payloads, hosted URLs, then URLs
// embedded in free text.
var extractors = []extractor{
	fromB64JSON,
	fromMessageImages,
	fromContentDataURL,
	fromHostedURL,
	fromContentURL,
}

var (
	dataURLPattern = regexp.MustCompile(`data:(image/[a-zA-Z0-9.+-]+);base64,([A-Za-z0-9+/=]+)`)
	httpURLPattern = regexp.MustCompile(`https?://[^\s"'<>)\]]+`)
)

func extractImage(body []byte) (entity.ImageAsset, bool) {
	var r imageResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return entity.ImageAsset{}, false
	}
	for _, ex := range extractors {
		if asset, ok := ex(&r); ok {
			return asset, true
		}
	}
	return entity.ImageAsset{}, false
}

func fromB64JSON(r *imageResponse) (entity.ImageAsset, bool) {
	for _, d := range r.Data {
		if d.B64JSON == "" {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(d.B64JSON)
		if err != nil || len(raw) == 0 {
			continue
		}
		return entity.ImageAsset{Data: raw, MIMEType: sniffImageType(raw)}, true
	}
	return entity.ImageAsset{}, false
}

func fromMessageImages(r *imageResponse) (entity.ImageAsset, bool) {
	for _, c := range r.Choices {
		for _, img := range c.Message.Images {
			if asset, ok := decodeDataURL(img.ImageURL.URL); ok {
				return asset, true
			}
			if isHTTPURL(img.ImageURL.URL) {
				return entity.ImageAsset{URL: img.ImageURL.URL}, true
			}
		}
	}
	return entity.ImageAsset{}, false
}

func fromContentDataURL(r *imageResponse) (entity.ImageAsset, bool) {
	for _, c := range r.Choices {
		if asset, ok := decodeDataURL(contentText(c.Message.Content)); ok {
			return asset, true
		}
	}
	return entity.ImageAsset{}, false
}

func fromHostedURL(r *imageResponse) (entity.ImageAsset, bool) {
	for _, d := range r.Data {
		if isHTTPURL(d.URL) {
			return entity.ImageAsset{URL: d.URL}, true
		}
	}
	for _, res := range r.Output.Results {
		if isHTTPURL(res.URL) {
			return entity.ImageAsset{URL: res.URL}, true
		}
	}
	return entity.ImageAsset{}, false
}

func fromContentURL(r *imageResponse) (entity.ImageAsset, bool) {
	for _, c := range r.Choices {
		if u := httpURLPattern.FindString(contentText(c.Message.Content)); u != "" {
			return entity.ImageAsset{URL: strings.TrimRight(u, ".,;")}, true
		}
	}
	return entity.ImageAsset{}, false
}

// contentText flattens a message content that is either a string or a list
// of typed parts.
func contentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var parts []struct {
		Text     string `json:"text"`
		ImageURL struct {
			URL string `json:"url"`
		} `json:"image_url"`
	}
	if json.Unmarshal(raw, &parts) != nil {
		return ""
	}
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.Text)
		b.WriteByte(' ')
		b.WriteString(p.ImageURL.URL)
		b.WriteByte(' ')
	}
	return b.String()
}

func decodeDataURL(s string) (entity.ImageAsset, bool) {
	m := dataURLPattern.FindStringSubmatch(s)
	if m == nil {
		return entity.ImageAsset{}, false
	}
	raw, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil || len(raw) == 0 {
		return entity.ImageAsset{}, false
	}
	return entity.ImageAsset{Data: raw, MIMEType: m[1]}, true
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func sniffImageType(raw []byte) string {
	if ct := http.DetectContentType(raw); strings.HasPrefix(ct, "image/") {
		return ct
	}
	return "image/png"
}
