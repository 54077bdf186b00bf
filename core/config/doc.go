// Package config provides configuration management for rcconf-manager.
//
// It utilizes Viper for loading configuration from environment variables,
// an optional .env file and an optional config file. Every field declares its
// default in a struct tag, so the zero deployment (sqlite override store,
// templates from ./templates, files written to /etc) needs no configuration.
//
// # Configuration Structure
//
//   - Server: HTTP port, API key, shutdown budget
//   - Database: override store driver and connection
//   - Storage: S3/MinIO publishing of generated files
//   - Etc: mount point, template plugin directories, drift cache TTL
//   - Events: NATS URL for the RPC and event surface
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".", "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Etc.Mountpoint)
package config
