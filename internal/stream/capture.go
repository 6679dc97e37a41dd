package stream

import (
	"context"
	"time"
)

// Capturer is the abstraction the Capture Pipeline pulls frames through.
// It stands in for the platform screen-capture API (ScreenCaptureKit,
// Windows Graphics Capture, X11) described in spec.md §4.E: real capture
// APIs emit BGRA, so CaptureBGRA's contract matches that regardless of the
// concrete backend (see capturer_screenshot.go for how the stdlib-adjacent
// Go backend this repo uses gets there).
type Capturer interface {
	// Displays enumerates the available capture targets.
	Displays() ([]DisplayInfo, error)
	// CaptureBGRA captures one frame of display, returning its dimensions
	// and tightly packed BGRA pixel data (4 bytes/pixel, row-major).
	CaptureBGRA(display DisplayInfo) (width, height int, data []byte, err error)
}

// selectTarget implements the Capture Pipeline's target-selection rule: use
// the requested display id if it exists among the enumerated targets,
// otherwise fall back to the primary (or first) display, logging a
// warning when a requested id could not be honoured.
func selectTarget(targets []DisplayInfo, requested *uint32, logger Logger) DisplayInfo {
	if requested != nil {
		for _, t := range targets {
			if t.ID == *requested {
				return t
			}
		}
		logger.Printf("stream: display %d not found, falling back to the default display", *requested)
	}
	return defaultTarget(targets)
}

func defaultTarget(targets []DisplayInfo) DisplayInfo {
	for _, t := range targets {
		if t.IsPrimary {
			return t
		}
	}
	return targets[0]
}

// runCapture is the Capture Pipeline's thread loop. It runs until ctx is
// cancelled, pulling frames at the requested rate, validating them,
// downscaling when necessary, and publishing into broadcaster. Publishing
// never blocks on a slow subscriber: real-time display tolerates dropped
// frames far better than stale ones.
func runCapture(ctx context.Context, capturer Capturer, display DisplayInfo, fps int, broadcaster *frameBroadcaster, logger Logger) {
	interval := time.Second / time.Duration(fps)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		start := time.Now()

		width, height, bgra, err := capturer.CaptureBGRA(display)
		if err != nil {
			logger.Printf("stream: capture error: %v", err)
		} else if width <= 0 || height <= 0 || len(bgra) < width*height*4 {
			logger.Printf("stream: skipping undersized frame (%dx%d, %d bytes)", width, height, len(bgra))
		} else {
			broadcaster.publish(downscaleBGRAtoRGBA(bgra, width, height))
		}

		if sleep := interval - time.Since(start); sleep > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(sleep):
			}
		}
	}
}

// downscaleBGRAtoRGBA converts a captured BGRA buffer into the wire Frame
// format, swapping channels and, when the source is wider than
// maxFrameWidth, nearest-neighbour subsampling rows and columns at the
// computed scale factor. When scale is 1 this degenerates to a pure
// channel swap.
func downscaleBGRAtoRGBA(bgra []byte, width, height int) Frame {
	scale := 1
	if width > maxFrameWidth {
		scale = (width + maxFrameWidth - 1) / maxFrameWidth
	}

	dstW := (width + scale - 1) / scale
	dstH := (height + scale - 1) / scale

	frame := newFrame(dstW, dstH)
	pix := frame.Pixels()

	for y := 0; y < dstH; y++ {
		srcY := y * scale
		for x := 0; x < dstW; x++ {
			srcX := x * scale
			srcIdx := (srcY*width + srcX) * 4
			dstIdx := (y*dstW + x) * 4
			pix[dstIdx+0] = bgra[srcIdx+2] // R
			pix[dstIdx+1] = bgra[srcIdx+1] // G
			pix[dstIdx+2] = bgra[srcIdx+0] // B
			pix[dstIdx+3] = bgra[srcIdx+3] // A
		}
	}

	return frame
}
