// Package scope turns the 16-bit PCM blocks a media engine delivers on its
// audio thread into live level meters and a waveform view, without ever
// blocking or allocating on that thread.
//
// # Features
//
//   - Peak and RMS metering in dBFS, with clip counting and presenter peak hold
//   - Streaming (sliding window) or chunked (K-point RMS/peak) waveform views
//   - Lock-free single-producer/single-consumer slot ring that drops the
//     oldest unread block under backpressure
//   - Latest-value publication to the UI through a triple buffer
//   - Optional SIMD acceleration (AVX2/SSE/NEON) via github.com/tphakala/simd
//   - Pure Go implementation with no CGO dependencies
//
// # Quick Start
//
// Feeding blocks directly:
//
//	p, err := scope.New(nil, scope.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go p.Run(ctx)
//	if err := p.Start(ctx, scope.Format{SampleRate: 48000, Channels: 2}); err != nil {
//	    log.Fatal(err)
//	}
//
//	// on the audio thread
//	p.Write(block, 2, 48000, pts)
//
//	// on the UI thread, 30 or 60 times a second
//	frame, changed := p.Latest()
//
// With an [Engine], [New] registers [Pipeline.OnAudio] as the audio callback
// and [Pipeline.Run] follows the engine's playback events.
//
// # Architecture
//
//	audio thread         analysis loop (Run)           UI thread
//	OnAudio/Write -----> ring ---> meter, waveform ---> triple buffer ---> Latest/Presenter
//	(convert, downmix)
//
// Every reset (session start or stop) happens on the analysis loop after the
// producer has been quiesced, and the pipeline is marked audible only after
// the ring, the reducer and the published frame have been cleared, so no block
// from a previous session can leak into a new one.
//
// # Thread Safety
//
// [Pipeline.Write] and [Pipeline.OnAudio] must be called from one goroutine
// at a time. [Pipeline.Latest] and [Presenter] belong to one presentation
// goroutine. [Pipeline.Levels], [Pipeline.State] and [Pipeline.Stats] are safe
// from any goroutine.
package scope
