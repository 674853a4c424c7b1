package storage

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestContentKey(t *testing.T) {
	data := []byte("same bytes")
	a := ContentKey("recipes", data, "image/jpeg")
	b := ContentKey("/recipes/", data, "image/jpeg")
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "recipes/"))
	assert.True(t, strings.HasSuffix(a, ".jpg"))
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(a, "recipes/"), ".jpg"), 64)

	assert.NotEqual(t, a, ContentKey("recipes", []byte("other bytes"), "image/jpeg"))
	assert.False(t, strings.Contains(ContentKey("", data, "image/png"), "/"))
}

func TestDetectType(t *testing.T) {
	img := pngBytes(t, 2, 2)
	assert.Equal(t, "image/png", DetectType("", img))
	assert.Equal(t, "image/png", DetectType("application/octet-stream", img))
	assert.Equal(t, "image/jpeg", DetectType("image/jpeg; charset=binary", img))
}

func TestUploadAllOrderedAndDeduplicated(t *testing.T) {
	mem := NewMemoryStore("https://cdn.example.com")
	var calls atomic.Int32
	u := NewUploader(mem, "recipes", 5, 1<<20)
	u.OnUpload = func(bool) { calls.Add(1) }

	first, second := pngBytes(t, 2, 2), pngBytes(t, 3, 3)
	ups, err := u.UploadAll(context.Background(), []File{
		{Name: "a.png", Data: first},
		{Name: "b.png", Data: second},
	})
	require.NoError(t, err)
	require.Len(t, ups, 2)
	assert.Equal(t, ContentKey("recipes", first, "image/png"), ups[0].Key)
	assert.Equal(t, ContentKey("recipes", second, "image/png"), ups[1].Key)
	assert.Equal(t, "https://cdn.example.com/"+ups[0].Key, ups[0].URL)
	assert.Equal(t, int64(len(first)), ups[0].Size)
	assert.False(t, ups[0].Deduplicated)
	assert.Equal(t, 2, mem.Puts())

	again, err := u.UploadAll(context.Background(), []File{{Name: "a-copy.png", Data: first}})
	require.NoError(t, err)
	assert.True(t, again[0].Deduplicated)
	assert.Equal(t, ups[0].Key, again[0].Key)
	assert.Equal(t, 2, mem.Puts())
	assert.Equal(t, int32(3), calls.Load())
}

func TestUploadAllLimits(t *testing.T) {
	u := NewUploader(NewMemoryStore(""), "recipes", 1, 100)
	img := pngBytes(t, 1, 1)

	_, err := u.UploadAll(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoFiles)

	_, err = u.UploadAll(context.Background(), []File{{Data: img}, {Data: img}})
	assert.ErrorIs(t, err, ErrTooManyFiles)

	_, err = u.UploadAll(context.Background(), []File{{Name: "big", Data: make([]byte, 101)}})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = u.UploadAll(context.Background(), []File{{Name: "notes.txt", Data: []byte("hello")}})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestUploadAllFailsWholeBatch(t *testing.T) {
	mem := NewMemoryStore("")
	boom := errors.New("bucket down")
	mem.PutErr = boom
	u := NewUploader(mem, "recipes", 5, 1<<20)

	ups, err := u.UploadAll(context.Background(), []File{
		{Name: "a.png", Data: pngBytes(t, 2, 2)},
		{Name: "b.png", Data: pngBytes(t, 4, 4)},
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, ups)
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore("")
	ctx := context.Background()
	require.NoError(t, m.Put(ctx, "k.png", []byte{1}, "image/png"))

	ok, err := m.Exists(ctx, "k.png")
	require.NoError(t, err)
	assert.True(t, ok)

	data, ct, found := m.Get("k.png")
	assert.True(t, found)
	assert.Equal(t, []byte{1}, data)
	assert.Equal(t, "image/png", ct)
	assert.Equal(t, "/objects/k.png", m.URL("k.png"))

	require.NoError(t, m.Delete(ctx, "k.png"))
	ok, _ = m.Exists(ctx, "k.png")
	assert.False(t, ok)
}
