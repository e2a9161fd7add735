package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/dmoclinic/internal/flagx"
	"github.com/dmitrijs2005/dmoclinic/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "60s" or as integer nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr    string         `json:"server_endpoint_addr"`
	LocalDatabasePath     string         `json:"local_database_path"`
	AccessToken           string         `json:"access_token"`
	RolloverCheckInterval timex.Duration `json:"rollover_check_interval"`
	StoreTimeout          timex.Duration `json:"store_timeout"`
	LogFormat             string         `json:"log_format"`
	ReconcileChecklist    bool           `json:"reconcile_checklist"`
	ClinicianEmails       []string       `json:"clinician_emails"`
}

// parseJson overlays Config with values loaded from the file named by the -c
// or -config flag. Without the flag nothing is loaded. Read and unmarshal
// errors panic.
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	cfg.LocalDatabasePath = jc.LocalDatabasePath
	cfg.AccessToken = jc.AccessToken
	cfg.RolloverCheckInterval = time.Duration(jc.RolloverCheckInterval.Duration)
	cfg.StoreTimeout = time.Duration(jc.StoreTimeout.Duration)
	cfg.LogFormat = jc.LogFormat
	cfg.ReconcileChecklist = jc.ReconcileChecklist
	cfg.ClinicianEmails = jc.ClinicianEmails
}
