package scrfd

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestVariantFiles(t *testing.T) {

	tests := []struct {
		variant Variant
		ext     string
		file    string
		kps     bool
	}{
		{Variant500M, "onnx", "scrfd_500m-opt2.onnx", false},
		{Variant500MKps, ".onnx", "scrfd_500m_kps-opt2.onnx", true},
		{Variant2_5GKps, "param", "scrfd_2.5g_kps-opt2.param", true},
		{Variant34G, "bin", "scrfd_34g-opt2.bin", false},
	}

	for _, tc := range tests {
		if got := tc.variant.File(tc.ext); got != tc.file {
			t.Errorf("%s: expected file %s, got %s", tc.variant, tc.file, got)
		}

		if got := tc.variant.HasKeyPoints(); got != tc.kps {
			t.Errorf("%s: expected HasKeyPoints %v, got %v", tc.variant, tc.kps, got)
		}

		if !tc.variant.Valid() {
			t.Errorf("%s: expected valid variant", tc.variant)
		}
	}

	if Variant("5g").Valid() {
		t.Error("expected unknown variant to be invalid")
	}
}

func TestModelPaths(t *testing.T) {

	cfg := DefaultConfig()
	cfg.ModelDir = "models"

	det, lmk := cfg.ModelPaths("onnx")

	if det != filepath.Join("models", "scrfd_500m_kps-opt2.onnx") {
		t.Errorf("unexpected detector path %s", det)
	}

	if lmk != filepath.Join("models", "2d106det.onnx") {
		t.Errorf("unexpected landmark path %s", lmk)
	}
}

func TestConfigValidate(t *testing.T) {

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown variant", func(c *Config) { c.Variant = "1m" }},
		{"no variant", func(c *Config) { c.Variant = "" }},
		{"zero target", func(c *Config) { c.TargetSize = 0 }},
		{"negative crop", func(c *Config) { c.CropSize = -1 }},
		{"prob above one", func(c *Config) { c.ProbThreshold = 1.5 }},
		{"zero nms", func(c *Config) { c.NMSThreshold = 0 }},
		{"no sessions", func(c *Config) { c.Sessions = 0 }},
	}

	for _, tc := range tests {
		cfg := DefaultConfig()
		tc.modify(&cfg)

		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", tc.name, err)
		}
	}
}

func TestNewInvalidConfig(t *testing.T) {

	cfg := DefaultConfig()
	cfg.Sessions = 0

	if _, err := New(cfg, nil, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	if _, err := New(DefaultConfig(), nil, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for missing models, got %v", err)
	}
}

func TestCheckThresholds(t *testing.T) {

	if err := checkThresholds(0.5, 0.45); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	for _, th := range [][2]float32{{0, 0.5}, {0.5, 0}, {-0.1, 0.5}, {0.5, 1.01}} {
		if err := checkThresholds(th[0], th[1]); !errors.Is(err, ErrInvalidThreshold) {
			t.Errorf("thresholds %v: expected ErrInvalidThreshold, got %v", th, err)
		}
	}
}
