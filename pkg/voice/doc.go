// Package voice turns one uploaded clip into one spoken answer.
//
// A Pipeline transcribes the clip, filters noise through the quality gate,
// loads the caller's dialogue from the session store, runs one turn through
// the conversation engine, stores the trimmed dialogue back and synthesizes
// the answer. Every request produces a Reply; only programming errors and
// unreadable uploads surface as Go errors.
//
// # Usage
//
//	pipeline, err := voice.New(voice.Components{
//	    Transcriber: whisper,
//	    Gate:        quality.New(quality.DefaultConfig()),
//	    Engine:      engine,
//	    Store:       session.NewMemory(),
//	    Synthesizer: synth,
//	}, voice.WithEventSink(turnHub))
//
//	reply, err := pipeline.HandleAudio(ctx, sessionKey, voice.Upload{
//	    Data:     body,
//	    Filename: "clip.webm",
//	})
//
// # Latency Metrics
//
// Each request is measured per stage:
//
//	s := pipeline.Metrics().Summary()
//	fmt.Println(s.Last.FormatLatency())
//	// 412ms ASR | 1.2s LLM | 640ms TTS | 2.3s TOTAL
package voice
