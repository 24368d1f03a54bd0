package config

import "testing"

func TestEnvInt(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  int
	}{
		{"unset falls back", "", 10},
		{"plain number", "42", 42},
		{"negative number", "-3", -3},
		{"garbage falls back", "10m", 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.value != "" {
				t.Setenv("COURSEKIT_TEST_INT", tc.value)
			}
			if got := envInt("COURSEKIT_TEST_INT", 10); got != tc.want {
				t.Errorf("envInt(%q) = %d, want %d", tc.value, got, tc.want)
			}
		})
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.Mode != ModeDev {
		t.Errorf("mode: got %q, want dev default", cfg.Mode)
	}
	if cfg.HTTPAddr == "" || cfg.DBDriver == "" {
		t.Errorf("missing defaults: %+v", cfg)
	}
	if len(cfg.CORSOrigins) == 0 {
		t.Errorf("expected a default CORS origin")
	}
}
