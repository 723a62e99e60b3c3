// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for engine, render, audio and server settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"strings"
)

// =============================================================================
// VIDEO & CANVAS CONFIGURATION
// =============================================================================

// VideoConfig holds all video/canvas related settings.
// These values are shared between the frame host and the renderer.
type VideoConfig struct {
	Width  int     // Canvas width in pixels
	Height int     // Canvas height in pixels
	FPS    int     // Frames requested per second by the ticker host
	FOV    float64 // Horizontal field of view in degrees
	// HUDFont is an optional TTF/OTF path; empty uses the built-in bitmap font
	HUDFont string
}

// DefaultVideo returns the default video configuration.
func DefaultVideo() VideoConfig {
	return VideoConfig{
		Width:  960,
		Height: 540,
		FPS:    30,
		FOV:    75,
	}
}

// VideoFromEnv returns video configuration with environment variable overrides.
// Environment variables take precedence over defaults.
func VideoFromEnv() VideoConfig {
	cfg := DefaultVideo()

	if w := getEnvInt("CANVAS_WIDTH", 0); w > 0 {
		cfg.Width = w
	}
	if h := getEnvInt("CANVAS_HEIGHT", 0); h > 0 {
		cfg.Height = h
	}
	if fps := getEnvInt("FRAME_FPS", 0); fps > 0 {
		cfg.FPS = fps
	}
	if fov := getEnvFloat("FOV_DEGREES", 0); fov > 0 && fov < 180 {
		cfg.FOV = fov
	}
	cfg.HUDFont = os.Getenv("HUD_FONT")

	return cfg
}

// =============================================================================
// ENGINE CONFIGURATION
// =============================================================================

// EngineConfig controls the frame scheduler.
type EngineConfig struct {
	FaultThreshold int     // Consecutive faulted frames before halting
	MaxDelta       float64 // Seconds; larger frame gaps are clamped (0 disables)
	MaxEntities    int     // Spawns beyond this are dropped
}

// DefaultEngine returns the default scheduler configuration.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		FaultThreshold: 3,
		MaxDelta:       0.1,
		MaxEntities:    256,
	}
}

// EngineFromEnv returns engine configuration with environment variable overrides.
func EngineFromEnv() EngineConfig {
	cfg := DefaultEngine()

	if n := getEnvInt("FAULT_THRESHOLD", 0); n > 0 {
		cfg.FaultThreshold = n
	}
	if d := getEnvFloat("MAX_FRAME_DELTA", -1); d >= 0 {
		cfg.MaxDelta = d
	}
	if n := getEnvInt("MAX_ENTITIES", 0); n > 0 {
		cfg.MaxEntities = n
	}

	return cfg
}

// SchedulerMaxDelta converts MaxDelta to the engine's convention, where 0
// means "use the default" and a negative value disables clamping.
func (c EngineConfig) SchedulerMaxDelta() float64 {
	if c.MaxDelta == 0 {
		return -1
	}
	return c.MaxDelta
}

// =============================================================================
// AUDIO CONFIGURATION
// =============================================================================

// AudioConfig holds audio mixer settings.
type AudioConfig struct {
	SampleRate    int     // Audio sample rate in Hz
	Volume        float64 // Master volume (0.0 to 1.0)
	Enabled       bool    // Whether audio is mixed at all
	SoundtrackDir string  // Directory holding the soundtrack loops
	OutPath       string  // Raw s16le PCM sink ("" discards)
}

// DefaultAudio returns the default audio configuration.
func DefaultAudio() AudioConfig {
	return AudioConfig{
		SampleRate:    44100,
		Volume:        0.8,
		Enabled:       true,
		SoundtrackDir: "assets/soundtrack",
	}
}

// AudioFromEnv returns audio configuration with environment variable overrides.
func AudioFromEnv() AudioConfig {
	cfg := DefaultAudio()

	if v := getEnvFloat("AUDIO_VOLUME", -1); v >= 0 {
		cfg.Volume = v
	}
	if os.Getenv("AUDIO_ENABLED") == "false" {
		cfg.Enabled = false
	}
	if dir := os.Getenv("SOUNDTRACK_DIR"); dir != "" {
		cfg.SoundtrackDir = dir
	}
	cfg.OutPath = os.Getenv("AUDIO_OUT")

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	MaxConnections int      // websocket observers
	AllowedOrigins []string // CORS
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:           3000,
		MaxConnections: 64,
		AllowedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if mc := getEnvInt("MAX_CONNECTIONS", 0); mc > 0 {
		cfg.MaxConnections = mc
	}
	if origins := splitList(os.Getenv("ALLOWED_ORIGINS")); len(origins) > 0 {
		cfg.AllowedOrigins = origins
	}

	return cfg
}

// =============================================================================
// DEBUG SERVER CONFIGURATION
// =============================================================================

// DebugConfig holds the pprof/metrics listener settings.
type DebugConfig struct {
	Enabled       bool
	ListenAddr    string
	BasicAuthUser string
	BasicAuthPass string
}

// DefaultDebug returns a localhost-only debug listener.
func DefaultDebug() DebugConfig {
	return DebugConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// DebugFromEnv returns debug configuration with environment variable overrides.
func DebugFromEnv() DebugConfig {
	cfg := DefaultDebug()

	if os.Getenv("DEBUG_SERVER") == "false" {
		cfg.Enabled = false
	}
	if addr := os.Getenv("DEBUG_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	cfg.BasicAuthUser = os.Getenv("DEBUG_USER")
	cfg.BasicAuthPass = os.Getenv("DEBUG_PASS")

	return cfg
}

// =============================================================================
// SNAPSHOT CONFIGURATION
// =============================================================================

// SnapshotConfig drives the headless snapshot binary.
type SnapshotConfig struct {
	Frames    int      // Frames stepped before the PNG is written
	Keys      []string // Key codes held for the whole run
	OutPath   string   // PNG destination
	DebugPath string   // Optional JSON dump of the debug metrics
}

// DefaultSnapshot returns a 60-frame idle run writing frame.png.
func DefaultSnapshot() SnapshotConfig {
	return SnapshotConfig{
		Frames:  60,
		OutPath: "frame.png",
	}
}

// SnapshotFromEnv returns snapshot configuration with environment variable overrides.
func SnapshotFromEnv() SnapshotConfig {
	cfg := DefaultSnapshot()

	if n := getEnvInt("SNAPSHOT_FRAMES", 0); n > 0 {
		cfg.Frames = n
	}
	cfg.Keys = splitList(os.Getenv("SNAPSHOT_KEYS"))
	cfg.OutPath = getEnvWithDefault("SNAPSHOT_OUT", cfg.OutPath)
	cfg.DebugPath = os.Getenv("SNAPSHOT_DEBUG_OUT")

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Video  VideoConfig
	Engine EngineConfig
	Audio  AudioConfig
	Server ServerConfig
	Debug  DebugConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Video:  VideoFromEnv(),
		Engine: EngineFromEnv(),
		Audio:  AudioFromEnv(),
		Server: ServerFromEnv(),
		Debug:  DebugFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvWithDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// splitList parses a comma-separated value, dropping blanks
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
