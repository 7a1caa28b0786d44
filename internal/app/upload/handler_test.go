package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"openchat/internal/providers/minio"
)

type memStorage struct {
	objects map[string][]byte
}

func (m *memStorage) Upload(_ context.Context, name, contentType string, r io.Reader, size int64) (*minio.UploadedObject, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.objects[name] = data
	return &minio.UploadedObject{URL: "http://cdn/" + name, ObjectName: name, Size: size, ContentType: contentType}, nil
}

func uploadRequest(t *testing.T, kind, objectPath, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("kind", kind))
	if objectPath != "" {
		require.NoError(t, w.WriteField("path", objectPath))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func newUploadRouter(storage Storage) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/api"), NewHandler(storage, Limits{MaxImageBytes: 16, MaxAudioBytes: 64}, zap.NewNop()))
	return r
}

func TestUploadImage(t *testing.T) {
	store := &memStorage{objects: map[string][]byte{}}
	r := newUploadRouter(store)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, uploadRequest(t, "image", "images/ayla-1-abcd1234.png", "cat.png", "image/png", []byte("png-bytes")))
	require.Equal(t, http.StatusCreated, rec.Code)

	var got minio.UploadedObject
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "images/ayla-1-abcd1234.png", got.ObjectName)
	assert.Equal(t, "http://cdn/images/ayla-1-abcd1234.png", got.URL)
	assert.Equal(t, []byte("png-bytes"), store.objects["images/ayla-1-abcd1234.png"])
}

func TestUploadRejects(t *testing.T) {
	r := newUploadRouter(&memStorage{objects: map[string][]byte{}})

	cases := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"too large", uploadRequest(t, "image", "", "big.png", "image/png", bytes.Repeat([]byte("x"), 17)), http.StatusRequestEntityTooLarge},
		{"wrong type", uploadRequest(t, "audio", "", "cat.png", "image/png", []byte("x")), http.StatusBadRequest},
		{"bad kind", uploadRequest(t, "video", "", "a.mp4", "video/mp4", []byte("x")), http.StatusBadRequest},
		{"escaping path", uploadRequest(t, "image", "images/../secrets.png", "a.png", "image/png", []byte("x")), http.StatusBadRequest},
		{"wrong prefix", uploadRequest(t, "audio", "images/a.webm", "a.webm", "audio/webm", []byte("x")), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, tc.req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestUploadWithoutStorage(t *testing.T) {
	r := newUploadRouter(nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, uploadRequest(t, "audio", "", "a.webm", "audio/webm", []byte("x")))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestObjectNameGenerated(t *testing.T) {
	name, err := ObjectName(KindAudio, "", "Voice.WEBM")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "audio/"))
	assert.True(t, strings.HasSuffix(name, ".webm"))
}
