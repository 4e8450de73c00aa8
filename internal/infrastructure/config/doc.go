// Package config provides configuration loading for Appliance Link.
//
// Configuration is loaded from a YAML file with three layers of precedence:
//
//  1. Hardcoded defaults
//  2. YAML file values
//  3. APPLINK_* environment variables
//
// Secrets (cloud password, InfluxDB token) should always come from the
// environment rather than the config file.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, dev := range cfg.Devices {
//	    // build a session per device
//	}
package config
