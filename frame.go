package framebridge

import (
	"time"
)

// Frame is an owned, tightly packed pixel buffer handed to the consumer.
// Data holds exactly Height*Width*3 bytes of interleaved BGR with no row
// padding. Once published, a Frame is never written to again; downstream
// encoders may read it without copying.
type Frame struct {
	Data   []byte
	Width  int
	Height int

	// Seq is assigned when the frame is admitted to the queue and is
	// strictly increasing among admitted frames.
	Seq       uint64
	Timestamp time.Time
	TraceID   string

	// StrideInferred marks frames whose row stride had to be derived from
	// the total buffer size instead of pipeline metadata. Such frames are
	// best-effort; see RawSample.
	StrideInferred bool
}

// RawSample is a borrowed view of a decoded image as delivered by the
// pipeline. Data belongs to the pipeline and is only valid for the duration
// of a single callback invocation; it must never be stored or aliased past
// that point. Stride is the number of bytes per row and may exceed Width*3
// when rows are padded for alignment.
type RawSample struct {
	Data   []byte
	Stride int
	Width  int
	Height int

	// StrideInferred is set when Stride was approximated as
	// len(Data)/Height because no stride metadata was available.
	StrideInferred bool
}
