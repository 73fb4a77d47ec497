// Command scope-wav plays a WAV file through the scope pipeline and draws the
// level meters and waveform in the terminal.
//
// Usage:
//
//	scope-wav input.wav
//	scope-wav -fps 60 -mode streaming -points 2048 input.wav
//	scope-wav -fast input.wav          # decode without real-time pacing
//
// 8, 16, 24 and 32-bit PCM files are accepted; samples are reduced to 16 bits
// before they reach the pipeline, as a media engine would deliver them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	scope "github.com/tphakala/go-audio-scope"
	"github.com/tphakala/go-audio-scope/internal/wavengine"
)

const (
	minRequiredArgs = 1

	// CLI defaults
	defaultFPS        = 30
	defaultPoints     = 48
	defaultBarWidth   = 40
	defaultBlockFrame = wavengine.DefaultBlockFrames
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	fps := flag.Int("fps", defaultFPS, "Display refresh rate in Hz (30 or 60)")
	mode := flag.String("mode", "chunked", "Waveform mode: chunked, streaming")
	points := flag.Int("points", defaultPoints, "Waveform points (chunked) or window length (streaming)")
	peak := flag.Bool("peak", false, "Reduce waveform chunks to peak instead of RMS")
	floor := flag.Float64("floor", scope.DefaultMeterFloor, "Meter floor in dBFS")
	width := flag.Int("width", defaultBarWidth, "Meter bar width in characters")
	block := flag.Int("block", defaultBlockFrame, "Callback block size in frames")
	fast := flag.Bool("fast", false, "Deliver blocks as fast as possible instead of in real time")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		return errors.New("insufficient arguments")
	}
	inputPath := args[0]

	waveMode, err := scope.ParseWaveformMode(*mode)
	if err != nil {
		return err
	}

	// The pipeline is not built yet; Ready reads it once Play starts.
	var p *scope.Pipeline
	eng, err := wavengine.Open(inputPath, wavengine.Config{
		BlockFrames: *block,
		Realtime:    !*fast,
		Ready:       func() bool { return p.Audible() },
	})
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	format := eng.Format()
	cfg := scope.DefaultConfig()
	cfg.SampleRate = format.SampleRate
	cfg.Channels = format.Channels
	cfg.WaveformMode = waveMode
	cfg.WaveformSize = *points
	cfg.WaveformPeak = *peak
	cfg.MeterFloor = *floor
	cfg.PresentRate = *fps

	p, err = scope.New(eng, cfg)
	if err != nil {
		return err
	}

	if *verbose {
		log.Printf("Input: %s", inputPath)
		log.Printf("Input format: %d Hz, %d channels, %d-bit", format.SampleRate, format.Channels, eng.BitDepth())
		if d := eng.Duration(); d > 0 {
			log.Printf("Duration: %s", d.Round(time.Millisecond))
		}
		log.Printf("Waveform: %s, %d points", waveMode, *points)
		log.Printf("Refresh: %d Hz", *fps)
		log.Printf("SIMD: %s", p.SIMDInfo())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- p.Run(ctx) }()

	r := newRenderer(os.Stdout, *width, *floor)
	presentDone := make(chan struct{})
	go func() {
		defer close(presentDone)
		_ = scope.NewPresenter(p).Run(ctx, r.draw)
	}()

	start := time.Now()
	playErr := eng.Play(ctx)

	// Let the final frames and the end-of-stream reset reach the display.
	time.Sleep(2 * time.Second / time.Duration(*fps))
	cancel()
	<-presentDone
	<-runDone
	r.finish()

	if playErr != nil && !errors.Is(playErr, context.Canceled) {
		return playErr
	}

	st := p.Stats()
	fmt.Printf("Played %s\n", filepath.Base(inputPath))
	fmt.Printf("  %d Hz, %d channels, %d-bit\n", format.SampleRate, format.Channels, eng.BitDepth())
	fmt.Printf("  Elapsed: %.2fs\n", time.Since(start).Seconds())
	fmt.Printf("  Blocks: %d analysed, %d dropped, %d late, %d rejected\n",
		st.Consumed, st.Dropped, st.Late, st.Rejected)
	if r.clips > 0 {
		fmt.Printf("  Clipped samples: %d\n", r.clips)
	}
	return nil
}
