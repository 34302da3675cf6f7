// Package config provides configuration loading for statesvc.
//
// The configuration lives in statesvc.json (or .yaml, .yml, .toml) and is
// read through viper, so every value can be overridden from the environment
// with a STATESVC_ prefix and dots replaced by underscores
// (STATESVC_METRICS_NAMESPACE).
//
// # Configuration File Structure
//
//	{
//	  "eviction": "refcount",
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "statesvc"
//	  },
//	  "render": {
//	    "doctype": "<!DOCTYPE html>",
//	    "payloadVar": "__STATESVC_PROPS__"
//	  },
//	  "log": {
//	    "level": "info"
//	  }
//	}
//
// # Usage
//
//	cfg, err := config.Resolve(flagPath, ".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := statesvc.NewStore(cfg.StoreOptions(logger)...)
package config
