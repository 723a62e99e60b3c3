package audio

import (
	"context"
	"encoding/binary"
	"io"
	"time"

	"github.com/pkg/errors"
)

// Pump pulls one frame of mixed PCM per tick (sampleRate/fps stereo samples,
// s16le interleaved) and writes it to w until ctx is cancelled. A nil writer
// discards. The mixer only advances while something pumps it.
func (e *Engine) Pump(ctx context.Context, w io.Writer, fps int) error {
	if fps <= 0 {
		fps = 30
	}
	if w == nil {
		w = io.Discard
	}

	samplesPerFrame := int(e.format.SampleRate) / fps
	pcm := make([]int16, samplesPerFrame*2)
	out := make([]byte, len(pcm)*2)

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n := e.ReadSamples(pcm)
			for i := 0; i < n; i++ {
				binary.LittleEndian.PutUint16(out[i*2:], uint16(pcm[i]))
			}
			if _, err := w.Write(out[:n*2]); err != nil {
				return errors.Wrap(err, "audio pump write")
			}
		}
	}
}
