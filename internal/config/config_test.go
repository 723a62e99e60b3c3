package config

import "testing"

func TestDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Engine.FaultThreshold != 3 {
		t.Errorf("Expected fault threshold 3, got %d", cfg.Engine.FaultThreshold)
	}
	if cfg.Engine.MaxDelta != 0.1 {
		t.Errorf("Expected max delta 0.1, got %v", cfg.Engine.MaxDelta)
	}
	if cfg.Video.FOV != 75 {
		t.Errorf("Expected FOV 75, got %v", cfg.Video.FOV)
	}
	if cfg.Debug.ListenAddr != "127.0.0.1:6060" {
		t.Errorf("Debug server must default to localhost, got %s", cfg.Debug.ListenAddr)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CANVAS_WIDTH", "640")
	t.Setenv("FAULT_THRESHOLD", "5")
	t.Setenv("MAX_FRAME_DELTA", "0")
	t.Setenv("AUDIO_ENABLED", "false")
	t.Setenv("FOV_DEGREES", "200") // out of range, ignored
	t.Setenv("PORT", "not-a-number")

	cfg := Load()

	if cfg.Video.Width != 640 {
		t.Errorf("Expected width 640, got %d", cfg.Video.Width)
	}
	if cfg.Engine.FaultThreshold != 5 {
		t.Errorf("Expected threshold 5, got %d", cfg.Engine.FaultThreshold)
	}
	if cfg.Engine.MaxDelta != 0 {
		t.Errorf("MAX_FRAME_DELTA=0 should disable clamping, got %v", cfg.Engine.MaxDelta)
	}
	if cfg.Audio.Enabled {
		t.Error("Audio should be disabled")
	}
	if cfg.Video.FOV != 75 {
		t.Errorf("Invalid FOV should keep default, got %v", cfg.Video.FOV)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Invalid PORT should keep default, got %d", cfg.Server.Port)
	}
}

func TestSchedulerMaxDelta(t *testing.T) {
	tests := []struct {
		configured float64
		want       float64
	}{
		{0.1, 0.1},
		{0, -1},
		{0.25, 0.25},
	}
	for _, tt := range tests {
		cfg := EngineConfig{MaxDelta: tt.configured}
		if got := cfg.SchedulerMaxDelta(); got != tt.want {
			t.Errorf("SchedulerMaxDelta(%v) = %v, want %v", tt.configured, got, tt.want)
		}
	}
}

func TestSnapshotFromEnv(t *testing.T) {
	t.Setenv("SNAPSHOT_FRAMES", "90")
	t.Setenv("SNAPSHOT_KEYS", "KeyW, Space,,")
	t.Setenv("SNAPSHOT_DEBUG_OUT", "dump.json")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := SnapshotFromEnv()
	if cfg.Frames != 90 {
		t.Errorf("Expected 90 frames, got %d", cfg.Frames)
	}
	if len(cfg.Keys) != 2 || cfg.Keys[0] != "KeyW" || cfg.Keys[1] != "Space" {
		t.Errorf("Expected [KeyW Space], got %v", cfg.Keys)
	}
	if cfg.OutPath != "frame.png" {
		t.Errorf("Expected default out path, got %s", cfg.OutPath)
	}
	if cfg.DebugPath != "dump.json" {
		t.Errorf("Expected dump.json, got %s", cfg.DebugPath)
	}

	if origins := ServerFromEnv().AllowedOrigins; len(origins) != 2 || origins[1] != "https://b.example" {
		t.Errorf("Expected two origins, got %v", origins)
	}
}
