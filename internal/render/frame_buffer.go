package render

import (
	"bytes"
	"image"
	"image/draw"
	"io"
	"sync"
	"sync/atomic"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"

	"corridor/internal/metrics"
)

// ErrFrameSize is returned when a frame does not match the buffer size
var ErrFrameSize = errors.New("frame size mismatch")

// ErrNoFrame is returned before the first frame has been published
var ErrNoFrame = errors.New("no frame published yet")

// FrameBuffer is a double buffer between the render loop and readers such
// as the HTTP frame endpoint. Publish copies into the back slot and swaps;
// readers always see a complete frame.
type FrameBuffer struct {
	mu     sync.RWMutex
	frames [2]*image.RGBA
	front  int
	ready  bool
	bounds image.Rectangle

	// Stats
	framesWritten uint64
	framesDropped uint64
	framesRead    uint64
}

// NewFrameBuffer pre-allocates both slots
func NewFrameBuffer(width, height int) *FrameBuffer {
	bounds := image.Rect(0, 0, width, height)
	return &FrameBuffer{
		frames: [2]*image.RGBA{image.NewRGBA(bounds), image.NewRGBA(bounds)},
		bounds: bounds,
	}
}

// Publish copies img into the back slot and makes it current.
// Mismatched sizes are dropped.
func (fb *FrameBuffer) Publish(img image.Image) error {
	if img == nil || img.Bounds().Size() != fb.bounds.Size() {
		atomic.AddUint64(&fb.framesDropped, 1)
		return errors.WithStack(ErrFrameSize)
	}

	fb.mu.Lock()
	back := fb.frames[1-fb.front]
	if src, ok := img.(*image.RGBA); ok && src.Stride == back.Stride && src.Rect.Min == (image.Point{}) {
		copy(back.Pix, src.Pix)
	} else {
		draw.Draw(back, fb.bounds, img, img.Bounds().Min, draw.Src)
	}
	fb.front = 1 - fb.front
	fb.ready = true
	fb.mu.Unlock()

	atomic.AddUint64(&fb.framesWritten, 1)
	metrics.IncFramesPublished()
	return nil
}

// Latest returns a copy of the current frame
func (fb *FrameBuffer) Latest() (*image.RGBA, error) {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	if !fb.ready {
		return nil, errors.WithStack(ErrNoFrame)
	}

	src := fb.frames[fb.front]
	out := image.NewRGBA(fb.bounds)
	copy(out.Pix, src.Pix)
	atomic.AddUint64(&fb.framesRead, 1)
	return out, nil
}

// WritePNG encodes the current frame
func (fb *FrameBuffer) WritePNG(w io.Writer) error {
	img, err := fb.Latest()
	if err != nil {
		return err
	}
	if err := gg.NewContextForRGBA(img).EncodePNG(w); err != nil {
		return errors.Wrap(err, "encode frame")
	}
	return nil
}

// PNG returns the current frame as PNG bytes
func (fb *FrameBuffer) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := fb.WritePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Bounds returns the frame size
func (fb *FrameBuffer) Bounds() image.Rectangle { return fb.bounds }

// GetStats returns buffer statistics.
func (fb *FrameBuffer) GetStats() (written, dropped, read uint64) {
	return atomic.LoadUint64(&fb.framesWritten),
		atomic.LoadUint64(&fb.framesDropped),
		atomic.LoadUint64(&fb.framesRead)
}

// Reset forgets the current frame and zeroes the stats
func (fb *FrameBuffer) Reset() {
	fb.mu.Lock()
	fb.ready = false
	fb.mu.Unlock()
	atomic.StoreUint64(&fb.framesWritten, 0)
	atomic.StoreUint64(&fb.framesDropped, 0)
	atomic.StoreUint64(&fb.framesRead, 0)
}
