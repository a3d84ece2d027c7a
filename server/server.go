// Package server exposes the converter over HTTP and websockets.
package server

import (
	"bytes"
	"image"
	"io/ioutil"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"github.com/tmpim/assemblifier"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

const (
	defaultBodyLimit  = "16M"
	defaultReadLimit  = 16 << 20
	defaultMaxColumns = 1000
	defaultMaxPixels  = 4096 * 4096
)

// Config configures the server. The zero value is usable.
type Config struct {
	// BodyLimit caps HTTP request bodies, in echo's size notation.
	BodyLimit string

	// ReadLimit caps a single websocket message in bytes.
	ReadLimit int64

	// MaxColumns caps the column count of /api/image.
	MaxColumns int

	// MaxPixels caps the decoded size of an uploaded image.
	MaxPixels int

	// Options returns the encoder options for a request. A fresh value is
	// requested per conversion since a Shuffler is not safe for concurrent
	// use.
	Options func() assemblifier.Options
}

type handler struct {
	cfg      Config
	upgrader websocket.Upgrader
}

// New returns an echo instance serving the conversion API.
func New(cfg Config) *echo.Echo {
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = defaultBodyLimit
	}
	if cfg.ReadLimit == 0 {
		cfg.ReadLimit = defaultReadLimit
	}
	if cfg.MaxColumns == 0 {
		cfg.MaxColumns = defaultMaxColumns
	}
	if cfg.MaxPixels == 0 {
		cfg.MaxPixels = defaultMaxPixels
	}

	h := &handler{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 5 * time.Second,
		},
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	api := e.Group("/api")
	api.POST("/generate", h.handleGenerate)
	api.POST("/image", h.handleImage)
	api.GET("/ws", h.handleWebsocket)

	return e
}

func (h *handler) options() assemblifier.Options {
	if h.cfg.Options == nil {
		return assemblifier.Options{}
	}
	return h.cfg.Options()
}

func queryInt(c echo.Context, name string, def int) (int, error) {
	value := c.QueryParam(name)
	if value == "" && def != 0 {
		return def, nil
	}

	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}

	return int(n), nil
}

func writeResult(c echo.Context, res assemblifier.Result) error {
	status := http.StatusOK
	if res.Status != assemblifier.StatusOK {
		status = http.StatusUnprocessableEntity
	}

	return c.JSON(status, &res)
}

// handleGenerate converts a raw RGBA body.
func (h *handler) handleGenerate(c echo.Context) error {
	width, err := queryInt(c, "width", 0)
	if err != nil {
		return err
	}

	height, err := queryInt(c, "height", 0)
	if err != nil {
		return err
	}

	data, err := ioutil.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}

	return writeResult(c, assemblifier.Convert(data, int32(width), int32(height), h.options()))
}

// handleImage decodes an uploaded PNG, JPEG or BMP, scales it to the requested
// column count and returns the source as a download.
func (h *handler) handleImage(c echo.Context) error {
	cols, err := queryInt(c, "cols", assemblifier.DefaultColumns)
	if err != nil {
		return err
	}

	if cols <= 0 || cols > h.cfg.MaxColumns {
		return echo.NewHTTPError(http.StatusBadRequest,
			"cols must be between 1 and "+strconv.Itoa(h.cfg.MaxColumns))
	}

	data, err := ioutil.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}

	conf, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to decode image: "+err.Error())
	}

	if conf.Width <= 0 || conf.Height <= 0 ||
		int64(conf.Width)*int64(conf.Height) > int64(h.cfg.MaxPixels) {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			"image must have between 1 and "+strconv.Itoa(h.cfg.MaxPixels)+" pixels")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to decode image: "+err.Error())
	}

	fitted, err := assemblifier.FitColumns(img, cols)
	if err != nil {
		return writeResult(c, assemblifier.NewResult("", err))
	}

	pix, width, height := assemblifier.FromImage(fitted)
	text, err := assemblifier.Generate(pix, width, height, h.options())
	if err != nil {
		return writeResult(c, assemblifier.NewResult("", err))
	}

	c.Response().Header().Set("Content-Disposition", `attachment; filename="generated.s"`)
	return c.String(http.StatusOK, text)
}

type wsRequest struct {
	Width  int32 `json:"width"`
	Height int32 `json:"height"`
}

// handleWebsocket serves conversions over a websocket. Each conversion is a JSON
// text message carrying the dimensions followed by a binary message with the
// pixels, answered with a JSON Result.
func (h *handler) handleWebsocket(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	ws.SetReadLimit(h.cfg.ReadLimit)

	for {
		var req wsRequest
		if err := ws.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("assemblifier server: websocket read:", err)
			}
			return nil
		}

		mt, data, err := ws.ReadMessage()
		if err != nil {
			log.Println("assemblifier server: websocket read:", err)
			return nil
		}

		res := assemblifier.Result{
			Status:  assemblifier.StatusError,
			Message: "expected binary pixel message",
		}
		if mt == websocket.BinaryMessage {
			res = assemblifier.Convert(data, req.Width, req.Height, h.options())
		}

		if err := ws.WriteJSON(&res); err != nil {
			log.Println("assemblifier server: websocket write:", err)
			return nil
		}
	}
}
