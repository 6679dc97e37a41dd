package stream

import (
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// screenshotCapturer implements Capturer on top of kbinani/screenshot,
// which targets ScreenCaptureKit/X11/GDI under the hood depending on
// platform. screenshot.CaptureRect returns *image.RGBA; CaptureBGRA swaps
// R and B at the source so every downstream consumer in this package can
// keep treating "captured frame" as BGRA, matching what the native
// platform capture APIs the front end eventually targets actually hand
// back.
type screenshotCapturer struct{}

func newScreenshotCapturer() *screenshotCapturer {
	return &screenshotCapturer{}
}

func (screenshotCapturer) Displays() ([]DisplayInfo, error) {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		return nil, fmt.Errorf("no active displays found")
	}

	displays := make([]DisplayInfo, 0, n)
	for i := 0; i < n; i++ {
		displays = append(displays, DisplayInfo{
			ID:        uint32(i),
			Title:     fmt.Sprintf("Display %d", i+1),
			IsPrimary: i == 0,
		})
	}
	return displays, nil
}

func (screenshotCapturer) CaptureBGRA(display DisplayInfo) (int, int, []byte, error) {
	bounds := screenshot.GetDisplayBounds(int(display.ID))
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("capture display %d: %w", display.ID, err)
	}

	width, height := img.Rect.Dx(), img.Rect.Dy()
	bgra := rgbaToBGRA(img)
	return width, height, bgra, nil
}

// rgbaToBGRA copies img's pixels into a tightly packed BGRA buffer,
// swapping the R and B channels and dropping any stride padding.
func rgbaToBGRA(img *image.RGBA) []byte {
	width, height := img.Rect.Dx(), img.Rect.Dy()
	out := make([]byte, width*height*4)

	for y := 0; y < height; y++ {
		srcRowStart := y * img.Stride
		dstRowStart := y * width * 4
		for x := 0; x < width; x++ {
			s := srcRowStart + x*4
			d := dstRowStart + x*4
			out[d+0] = img.Pix[s+2] // B
			out[d+1] = img.Pix[s+1] // G
			out[d+2] = img.Pix[s+0] // R
			out[d+3] = img.Pix[s+3] // A
		}
	}

	return out
}
