// Package config provides configuration management for tabula.
//
// # Usage
//
//	cfg, err := config.LoadFile("tabula.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := logger.Init(cfg.LoggerConfig()); err != nil {
//		log.Fatal(err)
//	}
//	exec := sqlexec.NewExecutor(cfg.Database.ConnectionString, cfg.ExecutorOptions()...)
//
// # Environment Variable Substitution
//
// Any ${VAR_NAME} in the file is replaced before parsing, which keeps
// credentials out of checked-in files:
//
//	database:
//	  connection_string: postgres://app:${PG_PASSWORD}@db:5432/app
//	  max_open_conns: 8
//	  connect_timeout: 5s
//	logging:
//	  level: debug
//	  encoding: console
//	save:
//	  strategy: upsert
//	  index_column: id
//	csv:
//	  delimiter: ";"
//	  null_values: ["", "NULL"]
package config
