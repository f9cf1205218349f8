// Package config provides configuration management for tbimport.
//
// Configuration is resolved in four layers, each overriding the last:
//
//  1. Hardcoded defaults
//  2. An optional YAML file (tbimport.yaml, or TBIMPORT_CONFIG)
//  3. Environment variables (TBIMPORT_*)
//  4. Command-line flags (applied by the cmd package)
//
// The resulting Config is immutable after startup: it is passed by value
// into the transform, batch, and upload stages, so no stage can observe a
// mid-run change and the pipeline is testable without process-level setup.
//
// # Usage
//
//	cfg, err := config.Load("tbimport.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	delay := cfg.Upload.Delay()
package config
