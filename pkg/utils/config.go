package utils

import (
	"os"
	"path/filepath"
	"runtime"
)

// GetConfigDir returns the appropriate configuration directory for the current operating system
func GetConfigDir() string {
	var appDataDir string

	switch runtime.GOOS {
	case "windows":
		// Windows: %APPDATA%\Puppeteer\configs
		appData := os.Getenv("APPDATA")
		if appData != "" {
			appDataDir = filepath.Join(appData, "Puppeteer", "configs")
		}
	case "darwin":
		// macOS: ~/Library/Application Support/Puppeteer/configs
		homeDir, err := os.UserHomeDir()
		if err == nil {
			appDataDir = filepath.Join(homeDir, "Library", "Application Support", "Puppeteer", "configs")
		}
	}

	if appDataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			appDataDir = filepath.Join(homeDir, ".puppeteer", "configs")
		} else {
			appDataDir = filepath.Join(".", "configs")
		}
	}

	return appDataDir
}

// GetScriptsDir returns the directory holding recorded action scripts
func GetScriptsDir() string {
	return filepath.Join(filepath.Dir(GetConfigDir()), "scripts")
}
