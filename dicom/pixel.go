package dicom

import (
	"slices"

	godicom "github.com/suyashkumar/dicom"
)

// Frame is one decoded image frame. Native frames carry their samples,
// encapsulated (compressed) frames their raw bytes.
type Frame struct {
	Rows         int
	Cols         int
	Encapsulated bool
	Samples      []int
	Data         []byte
}

// PixelData holds the frames of a pixel data element.
type PixelData struct {
	Encapsulated bool
	Frames       []Frame
}

func (p *PixelData) clone() *PixelData {
	if p == nil {
		return nil
	}
	out := &PixelData{Encapsulated: p.Encapsulated, Frames: make([]Frame, len(p.Frames))}
	for i, f := range p.Frames {
		f.Samples = slices.Clone(f.Samples)
		f.Data = slices.Clone(f.Data)
		out.Frames[i] = f
	}
	return out
}

// PixelStats summarises native samples across all frames.
type PixelStats struct {
	Count int
	Min   int
	Max   int
	Mean  float64
}

// Stats computes statistics over the native samples. Encapsulated frames
// are not decompressed and contribute nothing.
func (p *PixelData) Stats() PixelStats {
	var stats PixelStats
	var sum float64
	for _, f := range p.Frames {
		for _, s := range f.Samples {
			if stats.Count == 0 || s < stats.Min {
				stats.Min = s
			}
			if stats.Count == 0 || s > stats.Max {
				stats.Max = s
			}
			sum += float64(s)
			stats.Count++
		}
	}
	if stats.Count > 0 {
		stats.Mean = sum / float64(stats.Count)
	}
	return stats
}

func convertPixelData(element *godicom.Element) (*PixelData, error) {
	if element == nil || element.Value == nil {
		return nil, errNoPixelElement
	}
	info, ok := element.Value.GetValue().(godicom.PixelDataInfo)
	if !ok {
		return nil, errNoPixelElement
	}
	if len(info.Frames) == 0 {
		return nil, errNoFrames
	}

	pixels := &PixelData{Encapsulated: info.IsEncapsulated}
	for _, frame := range info.Frames {
		if frame.Encapsulated {
			pixels.Frames = append(pixels.Frames, Frame{
				Encapsulated: true,
				Data:         append([]byte(nil), frame.EncapsulatedData.Data...),
			})
			continue
		}

		native := frame.NativeData
		samples := make([]int, 0, len(native.Data))
		for i := 0; i < len(native.Data); i++ {
			samples = append(samples, native.Data[i]...)
		}
		pixels.Frames = append(pixels.Frames, Frame{
			Rows:    native.Rows,
			Cols:    native.Cols,
			Samples: samples,
		})
	}
	return pixels, nil
}
