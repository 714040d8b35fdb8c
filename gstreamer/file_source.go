package gstreamer

import (
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-gst/go-glib/glib"
	"github.com/go-gst/go-gst/gst"
	"github.com/go-gst/go-gst/gst/app"
	"github.com/google/uuid"
	"github.com/mengelbart/framebridge"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

type FileSourceOption func(*FileSource) error

func FileSourceResolution(width, height int) FileSourceOption {
	return func(s *FileSource) error {
		if width <= 0 || height <= 0 {
			return fmt.Errorf("invalid resolution %dx%d", width, height)
		}
		s.width = width
		s.height = height
		return nil
	}
}

func FileSourceQueueCapacity(n int) FileSourceOption {
	return func(s *FileSource) error {
		s.queueCapacity = n
		return nil
	}
}

// FileSource plays a local video file once and delivers decoded, tightly
// packed BGR frames through a bounded queue. The decode pipeline runs on
// GStreamer's own streaming thread; frames are copied out in the appsink
// callback and never alias pipeline memory. Overflow drops the newest frame
// so the decode thread is never blocked.
type FileSource struct {
	location      string
	width         int
	height        int
	queueCapacity int

	queue     *framebridge.FrameQueue
	lifecycle framebridge.Lifecycle

	pipeline *gst.Pipeline
	mainloop *glib.MainLoop

	unpackErrors atomic.Uint64
}

// SourceStats is a snapshot of the source's frame counters.
type SourceStats struct {
	Frames       uint64
	Dropped      uint64
	UnpackErrors uint64
}

// NewFileSource constructs the decode pipeline for the given file:
//
//	filesrc ! decodebin ! videoconvert ! videoscale !
//	video/x-raw,format=BGR,width=W,height=H ! appsink
//
// The pipeline is built but not started; call Start to begin playback.
func NewFileSource(location string, opts ...FileSourceOption) (*FileSource, error) {
	gst.Init(nil)

	s := &FileSource{
		location:      location,
		width:         DefaultWidth,
		height:        DefaultHeight,
		queueCapacity: framebridge.DefaultQueueCapacity,
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.queue = framebridge.NewFrameQueue(s.queueCapacity)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	s.pipeline = pipeline

	filesrc, err := gst.NewElement("filesrc")
	if err != nil {
		return nil, err
	}
	filesrc.Set("location", s.location)

	decodebin, err := gst.NewElement("decodebin")
	if err != nil {
		return nil, err
	}

	convert, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, err
	}
	scale, err := gst.NewElement("videoscale")
	if err != nil {
		return nil, err
	}
	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, err
	}
	caps := gst.NewCapsFromString(fmt.Sprintf(
		"video/x-raw,format=BGR,width=%d,height=%d", s.width, s.height,
	))
	if err := capsfilter.SetProperty("caps", caps); err != nil {
		return nil, err
	}

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, err
	}
	if err := SetProperties(appsink.Element, map[string]any{
		"sync":        false,
		"max-buffers": uint(2),
		"drop":        true,
	}); err != nil {
		return nil, err
	}

	if err := pipeline.AddMany(filesrc, decodebin, convert, scale, capsfilter, appsink.Element); err != nil {
		return nil, err
	}
	if err := filesrc.Link(decodebin); err != nil {
		return nil, err
	}
	if err := gst.ElementLinkMany(convert, scale, capsfilter, appsink.Element); err != nil {
		return nil, err
	}

	// decodebin pads only exist once the stream is demuxed, link the video
	// pad to the convert chain when it appears
	decodebin.Connect("pad-added", func(_ *gst.Element, decodeSrcPad *gst.Pad) {
		var isVideo bool
		padCaps := decodeSrcPad.GetCurrentCaps()
		for i := 0; i < padCaps.GetSize(); i++ {
			if strings.HasPrefix(padCaps.GetStructureAt(i).Name(), "video/") {
				isVideo = true
			}
		}
		if !isVideo {
			return
		}
		sinkPad := convert.GetStaticPad("sink")
		if decodeSrcPad.Link(sinkPad) != gst.PadLinkOK {
			slog.Error("failed to link decodebin to videoconvert")
		}
	})

	appsink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: s.onNewSample,
	})

	return s, nil
}

// Start transitions the pipeline to playing and begins watching its bus for
// end-of-stream and error notifications. It must be called exactly once.
func (s *FileSource) Start() error {
	if err := s.lifecycle.BeginPlaying(); err != nil {
		return err
	}

	s.mainloop = glib.NewMainLoop(glib.MainContextDefault(), false)

	s.pipeline.GetPipelineBus().AddWatch(func(msg *gst.Message) bool {
		switch msg.Type() {
		case gst.MessageEOS:
			slog.Info("end of stream", "location", s.location)
			s.shutdown()
		case gst.MessageError:
			err := msg.ParseError()
			slog.Error("pipeline error",
				"error", err.Error(),
				"debug", err.DebugString(),
				"location", s.location,
			)
			s.shutdown()
		}
		return true
	})

	if err := s.pipeline.SetState(gst.StatePlaying); err != nil {
		s.shutdown()
		return fmt.Errorf("failed to start pipeline: %w", err)
	}

	go s.mainloop.Run()

	return nil
}

// Stop tears the pipeline down and closes the frame queue, waking any
// consumer blocked in NextFrame. Safe to call multiple times and safe to
// call after the stream ended on its own.
func (s *FileSource) Stop() error {
	s.shutdown()
	return nil
}

// shutdown performs the single Stopped transition: pipeline to null, main
// loop quit, queue closed. Later calls are no-ops.
func (s *FileSource) shutdown() {
	if !s.lifecycle.MarkStopped() {
		return
	}
	s.pipeline.BlockSetState(gst.StateNull)
	if s.mainloop != nil && s.mainloop.IsRunning() {
		s.mainloop.Quit()
	}
	s.queue.Close()
}

// Done reports whether playback has terminated, by Stop, end of stream, or
// pipeline error. Buffered frames may still be retrievable via NextFrame
// after Done returns true.
func (s *FileSource) Done() bool {
	return s.lifecycle.Done()
}

func (s *FileSource) State() framebridge.PipelineState {
	return s.lifecycle.State()
}

// NextFrame blocks until a decoded frame is available. It returns
// (nil, false) once the source is stopped and all buffered frames have been
// consumed.
func (s *FileSource) NextFrame() (*framebridge.Frame, bool) {
	return s.queue.Pop()
}

func (s *FileSource) Stats() SourceStats {
	qs := s.queue.Stats()
	return SourceStats{
		Frames:       qs.Pushed,
		Dropped:      qs.Dropped,
		UnpackErrors: s.unpackErrors.Load(),
	}
}

// onNewSample runs on the GStreamer streaming thread for every decoded
// frame. It copies the sample out into an owned Frame and hands it to the
// queue without ever blocking. Malformed samples are skipped; a stopped
// source discards everything.
func (s *FileSource) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		return gst.FlowEOS
	}
	if s.lifecycle.Done() {
		return gst.FlowEOS
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		slog.Warn("sample without buffer, skipping")
		return gst.FlowOK
	}

	width, height, ok := sampleDimensions(sample)
	if !ok {
		width, height = s.width, s.height
	}

	mapInfo := buffer.Map(gst.MapRead)
	defer buffer.Unmap()
	data := mapInfo.AsUint8Slice()

	stride, inferred, err := framebridge.InferStride(len(data), width, height)
	if err != nil {
		s.unpackErrors.Add(1)
		slog.Warn("dropping sample", "error", err)
		return gst.FlowOK
	}
	if inferred {
		slog.Debug("stride inferred from buffer size",
			"stride", stride, "width", width, "height", height)
	}

	frame, err := framebridge.UnpackFrame(framebridge.RawSample{
		Data:           data,
		Stride:         stride,
		Width:          width,
		Height:         height,
		StrideInferred: inferred,
	})
	if err != nil {
		s.unpackErrors.Add(1)
		slog.Warn("dropping sample", "error", err)
		return gst.FlowOK
	}
	frame.Timestamp = time.Now()
	frame.TraceID = uuid.NewString()

	if !s.queue.TryPush(frame) {
		slog.Debug("queue full, dropping frame")
	}

	return gst.FlowOK
}

// sampleDimensions reads width and height from the sample's negotiated caps.
func sampleDimensions(sample *gst.Sample) (width int, height int, ok bool) {
	caps := sample.GetCaps()
	if caps == nil || caps.GetSize() == 0 {
		return 0, 0, false
	}
	st := caps.GetStructureAt(0)
	w, err := st.GetValue("width")
	if err != nil {
		return 0, 0, false
	}
	h, err := st.GetValue("height")
	if err != nil {
		return 0, 0, false
	}
	width, wok := w.(int)
	height, hok := h.(int)
	if !wok || !hok || width <= 0 || height <= 0 {
		return 0, 0, false
	}
	return width, height, true
}
