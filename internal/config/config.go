// Package config содержит логику чтения конфигурации сервиса полевых продаж.
package config

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса полевых продаж.
type Config struct {
	RunAddress      string `env:"RUN_ADDRESS"`
	SpreadsheetID   string `env:"SPREADSHEET_ID"`
	DriveFolderID   string `env:"DRIVE_FOLDER_ID"`
	CredentialsFile string `env:"GOOGLE_CREDENTIALS"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envSpreadsheetID := cfg.SpreadsheetID
	envDriveFolderID := cfg.DriveFolderID
	envCredentialsFile := cfg.CredentialsFile

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.SpreadsheetID, "s", "", "ID of the shared Google spreadsheet")
	flag.StringVar(&cfg.DriveFolderID, "f", "", "ID of the Drive folder for shop photos")
	flag.StringVar(&cfg.CredentialsFile, "c", "", "path to the service account credentials file")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envSpreadsheetID != "" {
		cfg.SpreadsheetID = envSpreadsheetID
	}
	if envDriveFolderID != "" {
		cfg.DriveFolderID = envDriveFolderID
	}
	if envCredentialsFile != "" {
		cfg.CredentialsFile = envCredentialsFile
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}

	return cfg, nil
}
