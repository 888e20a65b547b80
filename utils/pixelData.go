package utils

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"dcmtag2table/dicom"
)

type ScalingFunction int

const (
	Linear ScalingFunction = iota
	LinearExact
	Sigmoid
)

type RenderImageWindowParameters struct {
	WindowCenter float64
	WindowWidth  float64
	Function     ScalingFunction
	// Invert renders MONOCHROME1 style, high values dark.
	Invert bool
}

// RenderFrame maps the native samples of frame to an 8-bit grayscale image.
// A zero window width falls back to the sample range of the frame.
func RenderFrame(frame dicom.Frame, windowParameters RenderImageWindowParameters) (*image.Gray, error) {
	if frame.Encapsulated {
		return nil, fmt.Errorf("encapsulated frames are not rendered")
	}
	if frame.Rows <= 0 || frame.Cols <= 0 {
		return nil, fmt.Errorf("invalid frame geometry %dx%d", frame.Cols, frame.Rows)
	}
	pixels := frame.Rows * frame.Cols
	if len(frame.Samples) < pixels {
		return nil, fmt.Errorf("frame has %d samples, want %d", len(frame.Samples), pixels)
	}
	samplesPerPixel := len(frame.Samples) / pixels

	if windowParameters.WindowWidth <= 0 {
		windowParameters = fitWindow(frame.Samples, windowParameters)
	}

	img := image.NewGray(image.Rect(0, 0, frame.Cols, frame.Rows))
	for j := 0; j < pixels; j++ {
		// first sample of each pixel
		value := applyWindowing(float64(frame.Samples[j*samplesPerPixel]), windowParameters)
		if windowParameters.Invert {
			value = 255 - value
		}
		img.SetGray(j%frame.Cols, j/frame.Cols, color.Gray{Y: value})
	}

	return img, nil
}

func fitWindow(samples []int, windowParameters RenderImageWindowParameters) RenderImageWindowParameters {
	lo, hi := samples[0], samples[0]
	for _, s := range samples {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	windowParameters.WindowWidth = math.Max(float64(hi-lo), 1)
	windowParameters.WindowCenter = float64(lo) + windowParameters.WindowWidth/2
	return windowParameters
}

func applyWindowing(x float64, windowParameters RenderImageWindowParameters) uint8 {
	switch windowParameters.Function {
	case LinearExact:
		return applyLinearExactWindowing(x, windowParameters.WindowWidth, windowParameters.WindowCenter)
	case Sigmoid:
		return applySigmoidWindowing(x, windowParameters.WindowWidth, windowParameters.WindowCenter)
	default:
		return applyLinearWindowing(x, windowParameters.WindowWidth, windowParameters.WindowCenter)
	}
}

// PS3.3 C.11.2.1.2.1
func applyLinearWindowing(x, width, center float64) uint8 {
	switch {
	case width <= 1:
		if x <= center-0.5 {
			return 0
		}
		return 255
	case x <= center-0.5-(width-1)/2:
		return 0
	case x > center-0.5+(width-1)/2:
		return 255
	}
	return uint8(math.Round(((x-(center-0.5))/(width-1) + 0.5) * 255))
}

// PS3.3 C.11.2.1.3.2
func applyLinearExactWindowing(x, width, center float64) uint8 {
	switch {
	case x <= center-width/2:
		return 0
	case x > center+width/2:
		return 255
	}
	return uint8(math.Round((x - center + width/2) / width * 255))
}

// PS3.3 C.11.2.1.3.1
func applySigmoidWindowing(x, width, center float64) uint8 {
	return uint8(math.Round(255 / (1 + math.Exp(-4*(x-center)/width))))
}
