package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmpim/assemblifier"
)

var blackPixel = []byte{0, 0, 0, 255}

func newTestServer() http.Handler {
	return New(Config{
		Options: func() assemblifier.Options {
			return assemblifier.Options{Rand: rand.New(rand.NewSource(1)), Verify: true}
		},
	})
}

func decodeResult(t *testing.T, body []byte) assemblifier.Result {
	var res assemblifier.Result
	require.NoError(t, json.Unmarshal(body, &res))
	return res
}

func TestGenerate(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/generate?width=1&height=1", bytes.NewReader(blackPixel))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeResult(t, rec.Body.Bytes())
	assert.Equal(t, int32(assemblifier.StatusOK), res.Status)
	assert.Equal(t, ".section .text\n"+
		"MESSAGE:\n"+
		"    .quad 0x1000000000010120\n"+
		"    .quad 0x000000000000010a\n", res.Message)
}

func TestGenerateFormatError(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/generate?width=2&height=1", bytes.NewReader(blackPixel))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	res := decodeResult(t, rec.Body.Bytes())
	assert.Equal(t, int32(assemblifier.StatusError), res.Status)
	assert.Contains(t, res.Message, "invalid image format")
}

func TestGenerateBadParams(t *testing.T) {
	srv := newTestServer()

	for _, query := range []string{"", "?width=1", "?width=a&height=1", "?width=1&height=99999999999"} {
		req := httptest.NewRequest(http.MethodPost, "/api/generate"+query, bytes.NewReader(blackPixel))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "query %q", query)
	}
}

func TestGenerateBodyLimit(t *testing.T) {
	srv := New(Config{BodyLimit: "1K"})

	body := bytes.Repeat(blackPixel, 1024)
	req := httptest.NewRequest(http.MethodPost, "/api/generate?width=1024&height=1", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func encodePNG(t *testing.T, width, height int, col color.Color) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, col)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImage(t *testing.T) {
	srv := newTestServer()

	body := encodePNG(t, 40, 20, color.NRGBA{R: 255, A: 255})
	req := httptest.NewRequest(http.MethodPost, "/api/image?cols=10", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "generated.s")

	// 10 columns, round(20/40*10*0.43) = 2 rows, one run and one newline each.
	lines := strings.Split(strings.TrimSuffix(rec.Body.String(), "\n"), "\n")
	require.Len(t, lines, 2+4)
	assert.Equal(t, ".section .text", lines[0])
	assert.Equal(t, "MESSAGE:", lines[1])

	var listing assemblifier.Listing
	for _, line := range lines[2:] {
		require.True(t, strings.HasPrefix(line, "    .quad 0x"), "line %q", line)
		word, err := strconv.ParseUint(strings.TrimPrefix(line, "    .quad 0x"), 16, 64)
		require.NoError(t, err)
		listing = append(listing, word)
	}

	first, next := assemblifier.Unpack(listing[0])
	assert.Equal(t, uint8(196), first.Background)
	assert.Equal(t, uint8(10), first.Repeat)
	assert.NotZero(t, next)

	records, err := assemblifier.Walk(listing)
	require.NoError(t, err)
	run := assemblifier.Record{Background: 196, Repeat: 10, Char: 0x20}
	assert.Equal(t, []assemblifier.Record{run, assemblifier.Newline, run, assemblifier.Newline}, records)
}

func TestImageTooManyPixels(t *testing.T) {
	srv := New(Config{MaxPixels: 100})

	body := encodePNG(t, 20, 10, color.Black)
	req := httptest.NewRequest(http.MethodPost, "/api/image?cols=10", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	body = encodePNG(t, 10, 10, color.Black)
	req = httptest.NewRequest(http.MethodPost, "/api/image?cols=10", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestImageBadInput(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		query string
		body  []byte
	}{
		{"?cols=0", encodePNG(t, 4, 4, color.Black)},
		{"?cols=100000", encodePNG(t, 4, 4, color.Black)},
		{"?cols=x", encodePNG(t, 4, 4, color.Black)},
		{"", []byte("not an image")},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/image"+tt.query, bytes.NewReader(tt.body))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "query %q", tt.query)
	}
}

func TestWebsocket(t *testing.T) {
	ts := httptest.NewServer(newTestServer())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(wsRequest{Width: 1, Height: 1}))
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, blackPixel))

	var res assemblifier.Result
	require.NoError(t, conn.ReadJSON(&res))
	assert.Equal(t, int32(assemblifier.StatusOK), res.Status)
	assert.Contains(t, res.Message, "    .quad 0x1000000000010120\n")

	require.NoError(t, conn.WriteJSON(wsRequest{Width: 3, Height: 1}))
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, blackPixel))
	require.NoError(t, conn.ReadJSON(&res))
	assert.Equal(t, int32(assemblifier.StatusError), res.Status)

	require.NoError(t, conn.WriteJSON(wsRequest{Width: 1, Height: 1}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, blackPixel))
	require.NoError(t, conn.ReadJSON(&res))
	assert.Equal(t, int32(assemblifier.StatusError), res.Status)
	assert.Equal(t, "expected binary pixel message", res.Message)
}
