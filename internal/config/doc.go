// Package config provides configuration parsing for navhist.
//
// The configuration is stored in navhist.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "name": "shop",
//	  "mode": "browser",
//	  "server": {
//	    "host": "localhost",
//	    "port": 4000,
//	    "basePath": "/_navhist",
//	    "allowedOrigins": ["http://localhost:4000"]
//	  },
//	  "memory": {
//	    "initialEntries": ["/", "/cart"],
//	    "initialIndex": 1
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "navhist",
//	    "path": "/metrics"
//	  },
//	  "tracing": { "tracerName": "shop" },
//	  "log": { "level": "debug" },
//	  "blocking": { "discardOnCancel": false }
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
