// Package config loads speakline configuration with Viper.
//
// Values come from a YAML file, then from a .env file loaded with godotenv,
// then from environment variables carrying the service prefix, each layer
// overriding the previous one:
//
//	var cfg AppConfig
//	err := config.LoadConfig("speakline", &cfg, config.WithConfigFile(path))
//
// SPEAKLINE_MEDIA_FFMPEG_PATH=/opt/bin/ffmpeg overrides media.ffmpeg_path.
package config
