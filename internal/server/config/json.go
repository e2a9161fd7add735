package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/dmoclinic/internal/flagx"
	"github.com/dmitrijs2005/dmoclinic/internal/timex"
)

// JsonConfig is the JSON file form of Config. Durations use timex.Duration,
// so both "1s" strings and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	EndpointAddrMetrics         string         `json:"endpoint_addr_metrics"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	SnapshotInterval            timex.Duration `json:"snapshot_interval"`
	ClinicianEmails             []string       `json:"clinician_emails"`
	LogFormat                   string         `json:"log_format"`
}

// parseJson loads configuration values from the file named by the -c or
// -config flag. Without the flag nothing is loaded. Unreadable files and
// invalid JSON panic.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddrGRPC = c.EndpointAddrGRPC
	config.EndpointAddrMetrics = c.EndpointAddrMetrics
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.SnapshotInterval = time.Duration(c.SnapshotInterval.Duration)
	config.ClinicianEmails = c.ClinicianEmails
	config.LogFormat = c.LogFormat
}
