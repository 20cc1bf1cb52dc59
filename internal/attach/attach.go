package attach

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// Resolver turns a raw image payload (a data URI) into a durable URL.
// Failures are transient by contract: callers must treat a failed
// upload as "no attachment", never as a reason to drop the message.
type Resolver interface {
	Upload(ctx context.Context, blob string) (string, error)
}

// blobPayload is a decoded data URI.
type blobPayload struct {
	contentType string
	data        []byte
}

// parseDataURI decodes a "data:<mime>;base64,<payload>" URI. Bare
// base64 payloads without a header are accepted as image/png, which is
// what older clients send.
func parseDataURI(blob string) (*blobPayload, error) {
	contentType := "image/png"
	payload := blob

	if strings.HasPrefix(blob, "data:") {
		header, rest, ok := strings.Cut(blob[len("data:"):], ",")
		if !ok {
			return nil, fmt.Errorf("malformed data uri")
		}

		mime, enc, _ := strings.Cut(header, ";")
		if enc != "base64" {
			return nil, fmt.Errorf("unsupported data uri encoding %q", enc)
		}
		if mime != "" {
			contentType = mime
		}
		payload = rest
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	return &blobPayload{contentType: contentType, data: data}, nil
}

// extForContentType maps the mime types clients actually send to an
// object key extension.
func extForContentType(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}
