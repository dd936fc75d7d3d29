// Package config loads the infix service configuration from YAML.
//
// A configuration file has four sections:
//
//	engine:
//	  workers: 8
//	  max_depth: 1000
//	  lenient: false
//	  latex: true
//	logging:
//	  level: info
//	  format: json
//	metrics:
//	  enabled: true
//	  path: /metrics
//	server:
//	  listen_address: 127.0.0.1:8080
//	  read_timeout: 10s
//
// Missing fields take their defaults. Environment variables named
// INFIX_SECTION_FIELD (for example INFIX_SERVER_LISTEN_ADDRESS or
// INFIX_ENGINE_MAX_DEPTH) override the file when loaded with
// LoadConfigWithEnvOverrides. A Watcher reloads the file when it changes.
package config
