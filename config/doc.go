// Package config loads augkit run configuration.
//
// Files are resolved the way services in this module expect: an explicit
// path first, then config.yml under cmd/<name>, config/ or the working
// directory, with an optional .env file loaded through godotenv. Viper
// merges the YAML with environment variables, so AUGKIT_PIPELINE_BATCH_SIZE
// overrides pipeline.batch_size.
//
// # Usage
//
//	cfg, err := config.Load("augkit", config.WithConfigFile("train.yml"))
//	if err != nil {
//	    return err
//	}
//	logger.Init(cfg.Logging)
package config
