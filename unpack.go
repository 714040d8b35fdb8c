package framebridge

import (
	"errors"
	"fmt"
)

const bytesPerPixel = 3

var (
	// ErrShortBuffer is returned when a raw sample holds fewer than
	// Stride*Height bytes.
	ErrShortBuffer = errors.New("raw sample shorter than stride*height")

	// ErrStrideMismatch is returned when the declared stride cannot hold a
	// full row of pixels, i.e. Width*3 > Stride.
	ErrStrideMismatch = errors.New("row stride smaller than width*3")
)

// UnpackFrame copies the pixel data of s into a new, tightly packed Frame of
// exactly Width*Height*3 bytes, discarding any per-row padding. The source
// buffer is read row by row and never beyond Stride*Height bytes; no
// reference into s.Data is retained.
func UnpackFrame(s RawSample) (*Frame, error) {
	if s.Width <= 0 || s.Height <= 0 || s.Stride <= 0 {
		return nil, fmt.Errorf("invalid sample geometry %dx%d, stride %d", s.Width, s.Height, s.Stride)
	}
	rowBytes := s.Width * bytesPerPixel
	if rowBytes > s.Stride {
		return nil, fmt.Errorf("%w: width*3=%d, stride=%d", ErrStrideMismatch, rowBytes, s.Stride)
	}
	if len(s.Data) < s.Stride*s.Height {
		return nil, fmt.Errorf("%w: got %d bytes, need %d", ErrShortBuffer, len(s.Data), s.Stride*s.Height)
	}

	packed := make([]byte, rowBytes*s.Height)
	for row := 0; row < s.Height; row++ {
		src := s.Data[row*s.Stride : row*s.Stride+rowBytes]
		copy(packed[row*rowBytes:], src)
	}

	return &Frame{
		Data:           packed,
		Width:          s.Width,
		Height:         s.Height,
		StrideInferred: s.StrideInferred,
	}, nil
}

// InferStride derives the row stride of a decoded buffer when the pipeline
// does not report one. An exact fit (size == width*3*height) means the buffer
// carries no padding. Otherwise the stride is approximated as size/height,
// which is only correct when the true stride divides the buffer size evenly;
// samples built from that path are flagged via RawSample.StrideInferred so
// consumers can treat them as degraded confidence.
func InferStride(size, width, height int) (stride int, inferred bool, err error) {
	if width <= 0 || height <= 0 {
		return 0, false, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if size == width*bytesPerPixel*height {
		return width * bytesPerPixel, false, nil
	}
	if size%height == 0 && size/height >= width*bytesPerPixel {
		return size / height, true, nil
	}
	return 0, false, fmt.Errorf("cannot infer stride: %d bytes for %dx%d", size, width, height)
}
