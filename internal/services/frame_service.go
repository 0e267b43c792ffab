package services

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"

	"tour-playback-service/internal/platform/obs"
	"tour-playback-service/internal/ports"
	"tour-playback-service/internal/render"
)

const renderWindow = 512

// FrameService turns scenes into PNG bytes, reusing frames already encoded
// for an identical scene and size.
type FrameService struct {
	comp    *render.Compositor
	cache   ports.FrameCache
	timings *obs.Durations

	latest atomic.Pointer[liveFrame]
}

// liveFrame is a full-size frame from Follow and the key of its scene.
type liveFrame struct {
	key uint64
	png []byte
}

// NewFrameService builds a frame service. cache may be nil.
func NewFrameService(comp *render.Compositor, cache ports.FrameCache) *FrameService {
	return &FrameService{
		comp:    comp,
		cache:   cache,
		timings: obs.NewDurations("render.frame", renderWindow),
	}
}

// PNG returns the encoded frame for scene. A non-zero width asks for a
// thumbnail of that width.
func (f *FrameService) PNG(scene render.Scene, width uint) ([]byte, error) {
	key, err := frameKey(scene, width)
	if err != nil {
		return nil, fmt.Errorf("frame png: %w", err)
	}
	if f.cache != nil {
		if b, ok := f.cache.Get(key); ok {
			return b, nil
		}
	}

	start := time.Now()
	img := f.comp.Render(scene)
	b, err := render.PNGBytes(render.Thumbnail(img, width))
	if err != nil {
		return nil, fmt.Errorf("frame png: %w", err)
	}
	dur := time.Since(start)
	f.timings.Observe(dur, len(b))

	if f.cache != nil {
		f.cache.Add(key, b)
	}
	if dur > 100*time.Millisecond {
		log.Printf("slow frame: dur=%dms size=%s width=%d", dur.Milliseconds(), humanize.Bytes(uint64(len(b))), width)
	}
	return b, nil
}

// Follow re-renders the full-size frame of src's view on every change signal
// until ctx ends. Signals coalesce, so a slow render skips to the newest state.
func (f *FrameService) Follow(ctx context.Context, src *RunController) {
	signal, release := src.Hub().Subscribe()
	defer release()

	for {
		if err := f.refresh(src.View().Scene()); err != nil {
			log.Printf("live frame failed: err=%v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-signal:
		}
	}
}

func (f *FrameService) refresh(scene render.Scene) error {
	key, err := frameKey(scene, 0)
	if err != nil {
		return err
	}
	b, err := f.PNG(scene, 0)
	if err != nil {
		return err
	}
	f.latest.Store(&liveFrame{key: key, png: b})
	return nil
}

// Latest returns the most recent frame rendered by Follow.
func (f *FrameService) Latest() ([]byte, bool) {
	lf := f.latest.Load()
	if lf == nil {
		return nil, false
	}
	return lf.png, true
}

// Current returns the frame for scene. The live frame is reused only when it
// was rendered from the same scene; anything older is rendered again.
func (f *FrameService) Current(scene render.Scene, width uint) ([]byte, error) {
	if width == 0 {
		if lf := f.latest.Load(); lf != nil {
			key, err := frameKey(scene, 0)
			if err != nil {
				return nil, fmt.Errorf("current frame: %w", err)
			}
			if key == lf.key {
				return lf.png, nil
			}
		}
	}
	return f.PNG(scene, width)
}

// Stats summarises recent render times.
func (f *FrameService) Stats() obs.Summary { return f.timings.Summary() }

func frameKey(scene render.Scene, width uint) (uint64, error) {
	fp, err := render.Fingerprint(scene)
	if err != nil {
		return 0, err
	}
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], fp)
	binary.LittleEndian.PutUint64(buf[8:], uint64(width))
	return xxhash.Sum64(buf[:]), nil
}
