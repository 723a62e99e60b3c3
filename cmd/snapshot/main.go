// =============================================================================
// CORRIDOR - SNAPSHOT
// =============================================================================
// Headless run of the engine: drives a fixed number of frames with synthetic
// timestamps, optionally holding keys, then writes the last frame as PNG and
// the instrumentation dump as JSON.
//
// USAGE:
//   SNAPSHOT_FRAMES=90 SNAPSHOT_KEYS=KeyW,Space go run ./cmd/snapshot
// =============================================================================
package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/joho/godotenv"

	"corridor/internal/config"
	"corridor/internal/debug"
	"corridor/internal/game"
	"corridor/internal/input"
	"corridor/internal/level"
	"corridor/internal/render"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}

	videoCfg := config.VideoFromEnv()
	engineCfg := config.EngineFromEnv()

	snapCfg := config.SnapshotFromEnv()
	frameCount := snapCfg.Frames
	keys := snapCfg.Keys
	outPath := snapCfg.OutPath
	dumpPath := snapCfg.DebugPath

	log.Printf("📸 Snapshot: %d frames at %dx%d, keys %v", frameCount, videoCfg.Width, videoCfg.Height, keys)

	dbg := debug.NewMetrics()
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

	sampler := input.NewSampler()
	for _, k := range keys {
		if err := sampler.Press(k); err != nil {
			log.Fatalf("❌ Key %s: %v", k, err)
		}
	}

	host := &game.ManualHost{}
	engine, err := game.NewEngine(game.EngineConfig{
		Renderer:       renderer,
		Level:          level.Primary(),
		Debug:          dbg,
		Input:          sampler,
		Host:           host,
		FaultThreshold: engineCfg.FaultThreshold,
		MaxDelta:       engineCfg.SchedulerMaxDelta(),
		MaxEntities:    engineCfg.MaxEntities,
	})
	if err != nil {
		log.Fatalf("❌ Engine: %v", err)
	}

	engine.Start()
	step := 1000 / float64(videoCfg.FPS)
	for i := 0; i < frameCount; i++ {
		if !host.Step(float64(i) * step) {
			log.Printf("⛔ Loop stopped after %d frames (%s)", i, engine.State())
			break
		}
	}
	engine.Stop()

	snap := engine.Snapshot()
	log.Printf("🎮 Frame %d, state %s, faults %d, %d entities", snap.Frame, snap.State, snap.Faults, len(snap.Entities))

	f, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("❌ Output: %v", err)
	}
	if err := frames.WritePNG(f); err != nil {
		f.Close()
		log.Fatalf("❌ Encode: %v", err)
	}
	f.Close()
	log.Printf("✅ Wrote %s", outPath)

	if dumpPath != "" {
		data, err := json.MarshalIndent(dbg.Snapshot(), "", "  ")
		if err != nil {
			log.Fatalf("❌ Debug dump: %v", err)
		}
		if err := os.WriteFile(dumpPath, data, 0o644); err != nil {
			log.Fatalf("❌ Debug dump: %v", err)
		}
		log.Printf("✅ Wrote %s", dumpPath)
	}
}
