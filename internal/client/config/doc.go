// Package config loads runtime configuration for the DMO Clinic client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "local_database_path": "dmoclinic.db",
//	  "access_token": "eyJ...",
//	  "rollover_check_interval": "60s",
//	  "store_timeout": "10s",
//	  "log_format": "text",
//	  "reconcile_checklist": false,
//	  "clinician_emails": ["omar.salem@dmo.com"]
//	}
//
// This package does not read environment variables.
package config
