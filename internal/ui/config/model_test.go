package config

import (
	"testing"

	"github.com/nhle/adminfeed/internal/model"
)

func baseConfig() *model.AppConfig {
	return &model.AppConfig{
		API:    model.APIConfig{BaseURL: "http://localhost:5000/api", TimeoutSec: 30},
		Poll:   model.PollConfig{DetectionIntervalSec: 30, AnalyticsIntervalSec: 5},
		Server: model.ServerConfig{Port: 4100},
		Log:    model.LogConfig{Level: "info"},
	}
}

func TestNewFormPrefills(t *testing.T) {
	f := NewForm(baseConfig())
	if f.BaseURL != "http://localhost:5000/api" || f.DetectionInterval != "30" || f.Port != "4100" {
		t.Errorf("form = %+v", f)
	}
	if f.Token != "" {
		t.Error("token must not be pre-filled")
	}
	if f.Build() == nil {
		t.Error("Build returned nil")
	}
}

func TestApply(t *testing.T) {
	cfg := baseConfig()
	f := NewForm(cfg)
	f.BaseURL = "https://studio.example.com/api/"
	f.DetectionInterval = "60"
	f.AnalyticsInterval = "10"
	f.Port = "8080"
	f.LogLevel = "debug"

	if err := f.Apply(cfg); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if cfg.API.BaseURL != "https://studio.example.com/api" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Poll.DetectionIntervalSec != 60 || cfg.Poll.AnalyticsIntervalSec != 10 {
		t.Errorf("Poll = %+v", cfg.Poll)
	}
	if cfg.Server.Port != 8080 || cfg.Log.Level != "debug" {
		t.Errorf("Server/Log = %+v / %+v", cfg.Server, cfg.Log)
	}
}

func TestApply_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *Form)
	}{
		{"missing scheme", func(f *Form) { f.BaseURL = "studio.example.com" }},
		{"empty url", func(f *Form) { f.BaseURL = " " }},
		{"zero interval", func(f *Form) { f.DetectionInterval = "0" }},
		{"text interval", func(f *Form) { f.AnalyticsInterval = "fast" }},
		{"port range", func(f *Form) { f.Port = "70000" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			f := NewForm(cfg)
			tt.mutate(f)
			if err := f.Apply(cfg); err == nil {
				t.Error("expected error")
			}
			if cfg.Server.Port != 4100 {
				t.Error("config changed on rejected input")
			}
		})
	}
}
