package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/dmoclinic/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the document store
//	-l string   local SQLite database path
//	-t string   access token
//	-i int      day rollover check interval in seconds
//	-w int      remote call timeout in seconds
//	-f string   log format: text, json or zap
//	-r          reconcile cached checklists with the current diet
//	-k string   comma-separated clinician emails
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-l", "-t", "-i", "-w", "-f", "-r", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.LocalDatabasePath, "l", cfg.LocalDatabasePath, "local database path")
	fs.StringVar(&cfg.AccessToken, "t", cfg.AccessToken, "access token")
	rolloverInterval := fs.Int("i", int(cfg.RolloverCheckInterval.Seconds()), "day rollover check interval (in seconds)")
	storeTimeout := fs.Int("w", int(cfg.StoreTimeout.Seconds()), "remote call timeout (in seconds)")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format (text, json, zap)")
	fs.BoolVar(&cfg.ReconcileChecklist, "r", cfg.ReconcileChecklist, "reconcile cached checklists with the diet")
	clinicians := fs.String("k", strings.Join(cfg.ClinicianEmails, ","), "clinician emails, comma-separated")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RolloverCheckInterval = time.Duration(*rolloverInterval) * time.Second
	cfg.StoreTimeout = time.Duration(*storeTimeout) * time.Second
	cfg.ClinicianEmails = splitList(*clinicians)
}
