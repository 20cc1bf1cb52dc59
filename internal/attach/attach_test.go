package attach

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDataURI(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G'}
	encoded := base64.StdEncoding.EncodeToString(raw)

	t.Run("full data uri", func(t *testing.T) {
		payload, err := parseDataURI("data:image/jpeg;base64," + encoded)
		assert.NoError(t, err, "expected no error parsing data uri")
		assert.Equal(t, "image/jpeg", payload.contentType, "expected mime type from header")
		assert.Equal(t, raw, payload.data, "expected decoded payload")
	})

	t.Run("bare base64 payload", func(t *testing.T) {
		payload, err := parseDataURI(encoded)
		assert.NoError(t, err, "expected bare payload to parse")
		assert.Equal(t, "image/png", payload.contentType, "expected default mime type")
		assert.Equal(t, raw, payload.data, "expected decoded payload")
	})

	t.Run("missing comma", func(t *testing.T) {
		_, err := parseDataURI("data:image/png;base64")
		assert.Error(t, err, "expected error for malformed uri")
	})

	t.Run("non-base64 encoding", func(t *testing.T) {
		_, err := parseDataURI("data:image/png;quoted-printable,abcd")
		assert.Error(t, err, "expected error for unsupported encoding")
	})

	t.Run("invalid payload", func(t *testing.T) {
		_, err := parseDataURI("data:image/png;base64,%%%%")
		assert.Error(t, err, "expected error for invalid base64")
	})
}

func TestExtForContentType(t *testing.T) {
	assert.Equal(t, "jpg", extForContentType("image/jpeg"))
	assert.Equal(t, "gif", extForContentType("image/gif"))
	assert.Equal(t, "webp", extForContentType("image/webp"))
	assert.Equal(t, "png", extForContentType("image/png"))
	assert.Equal(t, "png", extForContentType("application/octet-stream"))
}

func TestObjectURL(t *testing.T) {
	t.Run("public url prefix", func(t *testing.T) {
		r := &S3Resolver{bucket: "imgs", region: "us-east-1", publicURL: "https://cdn.example.com"}
		assert.Equal(t, "https://cdn.example.com/chat_images/a.png", r.objectURL("chat_images/a.png"))
	})

	t.Run("custom endpoint", func(t *testing.T) {
		r := &S3Resolver{bucket: "imgs", region: "us-east-1", endpoint: "http://localhost:9000/"}
		assert.Equal(t, "http://localhost:9000/imgs/chat_images/a.png", r.objectURL("chat_images/a.png"))
	})

	t.Run("aws default", func(t *testing.T) {
		r := &S3Resolver{bucket: "imgs", region: "eu-west-1"}
		assert.Equal(t, "https://imgs.s3.eu-west-1.amazonaws.com/chat_images/a.png", r.objectURL("chat_images/a.png"))
	})
}
