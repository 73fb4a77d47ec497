// Command scope-demo feeds synthetic tones through the scope pipeline and
// prints what a renderer would see, including the silence published between
// sessions.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"time"

	scope "github.com/tphakala/go-audio-scope"
)

func main() {
	var (
		sampleRate = flag.Int("rate", defaultSampleRate, "Sample rate in Hz")
		channels   = flag.Int("channels", defaultChannels, "Number of audio channels")
		duration   = flag.Duration("duration", defaultDuration, "Length of each session")
		mode       = flag.String("mode", "chunked", "Waveform mode: chunked, streaming")
		verbose    = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := run(*sampleRate, *channels, *duration, *mode, *verbose); err != nil {
		log.Fatal(err)
	}
}

type session struct {
	name   string
	format scope.Format
	level  float64 // dBFS of the tone
	gap    bool    // alternate tone and silence every report period
}

func run(sampleRate, channels int, duration time.Duration, mode string, verbose bool) error {
	waveMode, err := scope.ParseWaveformMode(mode)
	if err != nil {
		return err
	}

	cfg := scope.DefaultConfig()
	cfg.SampleRate = sampleRate
	cfg.Channels = channels
	cfg.WaveformMode = waveMode
	cfg.WaveformSize = 16

	p, err := scope.New(nil, cfg)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	if verbose {
		log.Printf("SIMD: %s", p.SIMDInfo())
		log.Printf("Ring: %d slots of %d frames", cfg.RingSlots, cfg.SlotFrames)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runDone := make(chan error, 1)
	go func() { runDone <- p.Run(ctx) }()

	sessions := []session{
		{"Loud tone", cfg.Format(), loudLevelDB, false},
		{"Quiet tone with gaps", scope.Format{SampleRate: sampleRateCD, Channels: monoChannels}, quietLevelDB, true},
	}

	pr := scope.NewPresenter(p)
	fmt.Println("=== Go Audio Scope Demo ===")

	for i, s := range sessions {
		if err := p.Start(ctx, s.format); err != nil {
			return err
		}
		fmt.Printf("\n%d. %s (%d Hz, %d ch, %.0f dBFS)\n", i+1, s.name, s.format.SampleRate, s.format.Channels, s.level)
		fmt.Println("----------------------------")

		produceDone := make(chan struct{})
		go func() {
			defer close(produceDone)
			produce(ctx, p, s, duration)
		}()

		ticker := time.NewTicker(reportEvery)
		for reporting := true; reporting; {
			select {
			case <-produceDone:
				reporting = false
			case <-ticker.C:
				printDisplay(pr.Pull())
			}
		}
		ticker.Stop()

		if err := p.Stop(ctx); err != nil {
			return err
		}
		fmt.Print("  after stop: ")
		printDisplay(pr.Pull())
	}

	st := p.Stats()
	fmt.Printf("\nBlocks: %d published, %d analysed, %d dropped, %d late\n",
		st.Published, st.Consumed, st.Dropped, st.Late)

	cancel()
	<-runDone
	return nil
}

// produce plays the role of the audio thread: one block per period.
func produce(ctx context.Context, p *scope.Pipeline, s session, duration time.Duration) {
	frames := max(1, blockFrames*s.format.SampleRate/defaultSampleRate)
	block := make([]int16, frames*s.format.Channels)
	period := time.Duration(frames) * time.Second / time.Duration(s.format.SampleRate)

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	amp := math.Pow(10, s.level/20) * fullScale16
	omega := 2 * math.Pi * testSignalFrequency / float64(s.format.SampleRate)
	var pos int
	for elapsed := time.Duration(0); elapsed < duration; elapsed += period {
		silent := s.gap && (elapsed/reportEvery)%2 == 1
		for f := range frames {
			v := int16(0)
			if !silent {
				v = int16(amp * math.Sin(omega*float64(pos+f)))
			}
			for ch := range s.format.Channels {
				block[f*s.format.Channels+ch] = v
			}
		}
		pts := time.Duration(pos) * time.Second / time.Duration(s.format.SampleRate)
		if err := p.Write(block, s.format.Channels, s.format.SampleRate, pts); err != nil {
			log.Printf("write failed: %v", err)
			return
		}
		pos += frames

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func printDisplay(d scope.Display) {
	fmt.Printf("  t=%5.2fs peak %6.1f dB  rms %6.1f dB  held %6.1f dB  waveform %.3f\n",
		d.PTS.Seconds(), d.PeakDB, d.RMSDB, d.HeldPeakDB, d.Waveform)
}
