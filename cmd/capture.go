package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/maxaltenhuber/framegrab/internal/capture"
	"github.com/maxaltenhuber/framegrab/internal/devices"
	"github.com/maxaltenhuber/framegrab/internal/logging"
	"github.com/maxaltenhuber/framegrab/internal/metrics"
	"github.com/maxaltenhuber/framegrab/internal/sink"
)

// CreateCaptureCmd creates the capture command.
func CreateCaptureCmd() *cobra.Command {
	var (
		encoding  string
		aspect    string
		input     int
		fps       int
		cachingMs int
		duration  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "capture [device]",
		Short: "Run one capture session and report frame statistics",
		Long: `Opens a V4L2 device, negotiates a format, and drives the capture loop ` +
			`until interrupted or the duration elapses. Frames are counted and ` +
			`discarded; this is a bring-up and soak-test tool, not a recorder.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			logging.DisableJournal()
			logger := logging.GetLogger("capture")

			path, err := devices.ResolveDevicePath(args[0])
			if err != nil {
				return err
			}

			cfg := capture.Config{
				DevicePath:     path,
				OutputEncoding: encoding,
				AspectRatio:    aspect,
				Input:          input,
				FrameRate:      fps,
				Caching:        time.Duration(cachingMs) * time.Millisecond,
			}

			hub := sink.NewHub(logging.GetLogger("sink"))
			defer hub.Stop()

			session, err := capture.Open(cfg, hub, metrics.NewCapture(), logger)
			if err != nil {
				return err
			}
			defer session.Close()

			f := session.Format()
			info := f.StreamInfo(cfg.AspectRatio)
			fmt.Printf("capturing %s: %s %dx%d, rate %d/%d, sar %d:%d, io %s\n",
				path, f.Desc.Output, f.Width, f.Height,
				info.RateNum, info.RateDen, info.SARNum, info.SARDen,
				session.Strategy())

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

			var deadline <-chan time.Time
			if duration > 0 {
				deadline = time.After(duration)
			}

			start := time.Now()
			var frames, bytes uint64
			stream := session.Stream()
			frameCh, cancel, err := hub.Subscribe(stream.ID(), 16)
			if err != nil {
				return err
			}
			defer cancel()

			stop := make(chan struct{})
			done := make(chan error, 1)
			go func() {
				for {
					select {
					case <-stop:
						done <- nil
						return
					default:
					}
					if _, stepErr := session.Step(); stepErr != nil {
						done <- stepErr
						return
					}
				}
			}()
			halt := func() {
				close(stop)
				<-done
			}

			report := time.NewTicker(5 * time.Second)
			defer report.Stop()

			for {
				select {
				case frame := <-frameCh:
					frames++
					bytes += uint64(len(frame.Data))
				case <-report.C:
					elapsed := time.Since(start).Seconds()
					fmt.Printf("%d frames in %.1fs (%.2f fps, %.1f MiB)\n",
						frames, elapsed, float64(frames)/elapsed,
						float64(bytes)/(1024*1024))
				case err := <-done:
					return err
				case <-sig:
					halt()
					fmt.Printf("interrupted after %d frames\n", frames)
					return nil
				case <-deadline:
					halt()
					elapsed := time.Since(start).Seconds()
					fmt.Printf("done: %d frames in %.1fs (%.2f fps)\n",
						frames, elapsed, float64(frames)/elapsed)
					return nil
				}
			}
		},
	}

	cmd.Flags().StringVarP(&encoding, "encoding", "e", "", "Request a specific output encoding tag")
	cmd.Flags().StringVar(&aspect, "aspect", "4:3", "Display aspect ratio")
	cmd.Flags().IntVar(&input, "input", 0, "Video input index")
	cmd.Flags().IntVar(&fps, "fps", 0, "Request a frame rate (0 keeps the driver's rate)")
	cmd.Flags().IntVar(&cachingMs, "caching", 300, "Scheduling delay in milliseconds")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop after this long (0 runs until interrupted)")
	return cmd
}
