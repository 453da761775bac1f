package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/gorilla/mux"

	"github.com/inamate/facefinder/internal/document"
	"github.com/inamate/facefinder/internal/engine"
	"github.com/inamate/facefinder/internal/sketch"
)

const (
	maxBodySize = 4 << 20 // 4MB
	minSize     = 16
	maxSize     = 4096
)

var ErrSize = errors.New("size must be between 16 and 4096")

// Validator rejects documents the server will not solve.
type Validator interface {
	Validate(doc *document.Sketch) error
}

type Handler struct {
	validator Validator
	size      int
	opts      []sketch.Option
}

// NewHandler renders exports of size x size pixels unless the request asks
// for another size. opts are passed to every solve.
func NewHandler(validator Validator, size int, opts ...sketch.Option) *Handler {
	return &Handler{validator: validator, size: size, opts: opts}
}

// Export renders the faces of the posted sketch as png or svg. The optional
// query parameters are size (pixels) and, for png, thumb, which downsamples
// the rendering to a smaller square.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := mux.Vars(r)["format"]
	if format != "png" && format != "svg" {
		http.Error(w, "invalid format: must be png or svg", http.StatusBadRequest)
		return
	}

	size, err := sizeParam(r, "size", h.size)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	thumb, err := sizeParam(r, "thumb", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var doc document.Sketch
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "invalid sketch document", http.StatusBadRequest)
		return
	}
	if err := h.validator.Validate(&doc); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	faces, err := engine.Solve(&doc, h.opts...)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"error":  engine.ErrorCode(err),
			"detail": err.Error(),
		})
		return
	}
	sc := engine.BuildScene(&doc, faces)

	var buf bytes.Buffer
	switch format {
	case "png":
		img := RenderPNG(sc, size)
		if thumb > 0 && thumb < size {
			img = imaging.Fit(img, thumb, thumb, imaging.Lanczos)
		}
		err = imaging.Encode(&buf, img, imaging.PNG)
		w.Header().Set("Content-Type", "image/png")
	case "svg":
		err = WriteSVG(&buf, sc, size)
		w.Header().Set("Content-Type", "image/svg+xml")
	}
	if err != nil {
		slog.Error("encode export", "error", err, "format", format)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	slog.Info("export complete", "format", format, "faces", len(faces), "size", size, "bytes", buf.Len())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func sizeParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < minSize || v > maxSize {
		return 0, ErrSize
	}
	return v, nil
}
