package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"corridor/internal/api"
	"corridor/internal/audio"
	"corridor/internal/config"
	"corridor/internal/debug"
	"corridor/internal/game"
	"corridor/internal/input"
	"corridor/internal/level"
	"corridor/internal/metrics"
	"corridor/internal/render"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  CORRIDOR - GO ENGINE")
	log.Println("🎮 ================================")

	appConfig := config.Load()
	videoCfg := appConfig.Video
	engineCfg := appConfig.Engine
	audioCfg := appConfig.Audio
	serverCfg := appConfig.Server

	log.Printf("🎮 Config: %dx%d @ %d FPS, fov %.0f°, fault threshold %d",
		videoCfg.Width, videoCfg.Height, videoCfg.FPS, videoCfg.FOV, engineCfg.FaultThreshold)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Debug server (pprof + /metrics)
	if appConfig.Debug.Enabled {
		if err := metrics.StartDebugServer(metrics.DebugServerConfig{
			Enabled:       true,
			ListenAddr:    appConfig.Debug.ListenAddr,
			BasicAuthUser: appConfig.Debug.BasicAuthUser,
			BasicAuthPass: appConfig.Debug.BasicAuthPass,
		}); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	dbg := debug.NewMetrics()
	dbg.Echo = true

	// Renderer draws into an offscreen gg context; finished frames are
	// published for /api/frame.png
	hudFont, err := render.LoadFontFace(videoCfg.HUDFont, render.DefaultHUDFontSize)
	if err != nil {
		log.Printf("⚠️ HUD font %q unavailable, using bitmap font: %v", videoCfg.HUDFont, err)
		hudFont = nil
	}
	frames := render.NewFrameBuffer(videoCfg.Width, videoCfg.Height)
	renderer, err := render.NewRenderer(render.NewSurface(videoCfg.Width, videoCfg.Height), dbg, render.Config{
		FOV:     videoCfg.FOV,
		Frames:  frames,
		HUDFont: hudFont,
	})
	if err != nil {
		log.Fatalf("❌ Renderer: %v", err)
	}

	// Audio
	audioEngine := audio.NewEngine(audio.Config{
		Enabled:    audioCfg.Enabled,
		SampleRate: audioCfg.SampleRate,
		Volume:     audioCfg.Volume,
	}, dbg)
	defer audioEngine.Close()

	soundtrack := audio.NewSoundtrack(audioEngine, audio.DefaultTracks(audioCfg.SoundtrackDir))
	if err := soundtrack.Start(); err != nil {
		log.Printf("⚠️ Soundtrack disabled: %v", err)
	}
	defer soundtrack.Stop()

	pcmOut, closeOut := openAudioSink(audioCfg.OutPath)
	defer closeOut()
	go func() {
		if err := audioEngine.Pump(ctx, pcmOut, videoCfg.FPS); err != nil && err != context.Canceled {
			log.Printf("⚠️ Audio pump stopped: %v", err)
		}
	}()

	// Engine
	sampler := input.NewSampler()
	host := game.NewTickerHost(videoCfg.FPS)
	engine, err := game.NewEngine(game.EngineConfig{
		Renderer:       renderer,
		Level:          level.Primary(),
		Debug:          dbg,
		Input:          sampler,
		Host:           host,
		Audio:          audioEngine,
		FaultThreshold: engineCfg.FaultThreshold,
		MaxDelta:       engineCfg.SchedulerMaxDelta(),
		MaxEntities:    engineCfg.MaxEntities,
	})
	if err != nil {
		log.Fatalf("❌ Engine: %v", err)
	}

	go host.Run(ctx)
	engine.Start()
	log.Println("✅ Engine started")

	// API
	server := api.NewServer(api.RouterConfig{
		Engine:         engine,
		Input:          sampler,
		Debug:          dbg,
		Frames:         frames,
		Origins:        api.NewOriginPolicy(serverCfg.AllowedOrigins),
		MaxConnections: serverCfg.MaxConnections,
	})

	addr := ":" + strconv.Itoa(serverCfg.Port)
	serverErr := make(chan error, 1)
	go func() {
		log.Printf("🌐 API server on http://localhost%s", addr)
		serverErr <- server.Start(ctx, addr)
	}()

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	select {
	case <-ctx.Done():
		log.Println("🛑 Shutting down...")
		if err := <-serverErr; err != nil {
			log.Printf("⚠️ %v", err)
		}
	case err := <-serverErr:
		log.Printf("❌ %v", err)
	}

	engine.Stop()
	log.Println("👋 Goodbye!")
}

// openAudioSink opens the raw PCM output. An empty path discards samples.
func openAudioSink(path string) (io.Writer, func()) {
	if path == "" {
		return nil, func() {}
	}
	f, err := os.Create(path)
	if err != nil {
		log.Printf("⚠️ Audio output disabled: %v", err)
		return nil, func() {}
	}
	log.Printf("🔊 Writing s16le PCM to %s", path)
	return f, func() { f.Close() }
}
