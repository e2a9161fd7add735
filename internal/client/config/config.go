package config

import (
	"strings"
	"time"
)

// Config holds runtime settings for the DMO Clinic client.
//
// Fields:
//   - ServerEndpointAddr: host:port of the document store gRPC endpoint.
//   - LocalDatabasePath: SQLite file holding checklist snapshots.
//   - AccessToken: JWT sent with every call; prompted for when empty.
//   - RolloverCheckInterval: how often the diet screen checks for a new day.
//   - StoreTimeout: deadline of a single remote store call.
//   - LogFormat: text, json or zap.
//   - ReconcileChecklist: align cached checklists with edited diets.
//   - ClinicianEmails: sign-ups with these emails become clinicians.
type Config struct {
	ServerEndpointAddr    string
	LocalDatabasePath     string
	AccessToken           string
	RolloverCheckInterval time.Duration
	StoreTimeout          time.Duration
	LogFormat             string
	ReconcileChecklist    bool
	ClinicianEmails       []string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.LocalDatabasePath = "dmoclinic.db"
	c.AccessToken = ""
	c.RolloverCheckInterval = 60 * time.Second
	c.StoreTimeout = 10 * time.Second
	c.LogFormat = "text"
	c.ReconcileChecklist = false
	c.ClinicianEmails = nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
