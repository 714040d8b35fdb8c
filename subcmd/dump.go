package subcmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mengelbart/framebridge"
	"github.com/mengelbart/framebridge/cmdmain"
	"github.com/mengelbart/framebridge/gstreamer"
	"github.com/mengelbart/framebridge/internal/logging"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func init() {
	cmdmain.RegisterSubCmd("dump", func() cmdmain.SubCmd { return new(dump) })
}

type dump struct {
	location  string
	outDir    string
	width     int
	height    int
	capacity  int
	count     int
	maxFPS    float64
	format    string
	logFrames bool
}

// Exec implements cmdmain.SubCmd. It plays a video file once and writes the
// decoded frames to disk, consuming them the way a downstream application
// would: the blocking pull runs on its own goroutine while the main
// goroutine stays responsive to interrupts.
func (d *dump) Exec(cmd string, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	fs.StringVar(&d.location, "file", "", "Input video file")
	fs.StringVar(&d.outDir, "out", ".", "Output directory for frame files")
	fs.IntVar(&d.width, "width", gstreamer.DefaultWidth, "Target frame width")
	fs.IntVar(&d.height, "height", gstreamer.DefaultHeight, "Target frame height")
	fs.IntVar(&d.capacity, "queue", framebridge.DefaultQueueCapacity, "Frame queue capacity")
	fs.IntVar(&d.count, "count", 0, "Stop after this many frames (0 = until end of stream)")
	fs.Float64Var(&d.maxFPS, "max-fps", 0, "Throttle consumption to this rate (0 = unthrottled)")
	fs.StringVar(&d.format, "format", "ppm", "Output format: ppm or bgr")
	fs.BoolVar(&d.logFrames, "log-frames", false, "Log metadata of every consumed frame")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Decode a video file and dump its frames to disk

Usage:
	%s dump [flags]

Flags:
`, cmd)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr)
	}
	fs.Parse(args)

	if d.location == "" {
		return fmt.Errorf("missing input file")
	}
	if d.format != "ppm" && d.format != "bgr" {
		return fmt.Errorf("unknown output format: %q", d.format)
	}

	source, err := gstreamer.NewFileSource(d.location,
		gstreamer.FileSourceResolution(d.width, d.height),
		gstreamer.FileSourceQueueCapacity(d.capacity),
	)
	if err != nil {
		return err
	}

	if err := source.Start(); err != nil {
		return err
	}
	defer source.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		source.Stop()
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.consume(ctx, source)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	stats := source.Stats()
	fmt.Printf("frames: %d, dropped: %d, unpack errors: %d\n",
		stats.Frames, stats.Dropped, stats.UnpackErrors)
	return nil
}

func (d *dump) consume(ctx context.Context, source *gstreamer.FileSource) error {
	var limiter *rate.Limiter
	if d.maxFPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(d.maxFPS), 1)
	}
	frameLogger := logging.NewFrameLogger("dump", nil)

	written := 0
	for {
		frame, ok := source.NextFrame()
		if !ok {
			return nil
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
		}
		if d.logFrames {
			frameLogger.LogFrame(frame)
		}
		if err := d.writeFrame(frame, written); err != nil {
			return err
		}
		written++
		if d.count > 0 && written >= d.count {
			return nil
		}
	}
}

func (d *dump) writeFrame(frame *framebridge.Frame, index int) error {
	name := filepath.Join(d.outDir, fmt.Sprintf("frame-%06d.%s", index, d.format))
	switch d.format {
	case "bgr":
		return os.WriteFile(name, frame.Data, 0o644)
	case "ppm":
		return os.WriteFile(name, encodePPM(frame), 0o644)
	default:
		return fmt.Errorf("unknown output format: %q", d.format)
	}
}

// encodePPM renders a frame as a binary PPM image. PPM expects RGB, the
// frame carries BGR, so the channels are swapped per pixel.
func encodePPM(frame *framebridge.Frame) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "P6\n%d %d\n255\n", frame.Width, frame.Height)
	for i := 0; i+2 < len(frame.Data); i += 3 {
		buf.WriteByte(frame.Data[i+2])
		buf.WriteByte(frame.Data[i+1])
		buf.WriteByte(frame.Data[i])
	}
	return buf.Bytes()
}

// Help implements cmdmain.SubCmd.
func (d *dump) Help() string {
	return "Decode a video file and dump its frames to disk"
}
