// Package config provides configuration loading and validation for
// Callisto.
//
// Configuration is loaded from a YAML file, merged with defaults,
// optionally overridden by CALLISTO_* environment variables, and
// validated before use:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The Initialize/Get pair provides process-wide access for the CLI:
//
//	if err := config.Initialize("config.yaml"); err != nil {
//	    return err
//	}
//	cfg := config.Get()
//
// The FileWatcher supports hot-reloading retention settings when the
// configuration file changes on disk.
package config
