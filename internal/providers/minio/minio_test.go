package minio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectNameFromURL(t *testing.T) {
	base := "http://localhost:9000/openchat-media"

	name, ok := ObjectNameFromURL(base, base+"/images/ayla-1700000000000-ab12cd34.png")
	assert.True(t, ok)
	assert.Equal(t, "images/ayla-1700000000000-ab12cd34.png", name)

	name, ok = ObjectNameFromURL(base+"/", base+"/audio/x.webm?X-Amz-Expires=60")
	assert.True(t, ok)
	assert.Equal(t, "audio/x.webm", name)

	_, ok = ObjectNameFromURL(base, "https://elsewhere.example/images/a.png")
	assert.False(t, ok)

	_, ok = ObjectNameFromURL(base, base+"/")
	assert.False(t, ok)
}

func TestDetectContentType(t *testing.T) {
	assert.Equal(t, "image/png", DetectContentType("a.PNG"))
	assert.Equal(t, "audio/webm", DetectContentType("voice.webm"))
	assert.Equal(t, "application/octet-stream", DetectContentType("notes.txt"))
}
