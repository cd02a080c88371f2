package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/cazylab/ceclust/internal/errors"
)

// DotEnvPath returns the .env file that sits next to the config at configPath.
func DotEnvPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), ".env")
}

// LoadDotEnv reads the dotenv file at path. A missing file yields an empty map.
func LoadDotEnv(path string) (map[string]string, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, errors.Wrapf(err, "cannot read dotenv file %s", path)
	}
	return m, nil
}

// GetConfigValue returns the effective value for key, using process
// environment variables first and falling back to the dotenv file.
func GetConfigValue(key, dotEnvPath string) (string, error) {
	if v := os.Getenv(key); v != "" {
		return v, nil
	}
	dotenv, err := LoadDotEnv(dotEnvPath)
	if err != nil {
		return "", err
	}
	return dotenv[key], nil
}

// EnsureDotEnvTemplate creates the dotenv file at path if it does not exist.
func EnsureDotEnvTemplate(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, errors.Wrapf(err, "cannot stat dotenv file %s", path)
	}

	body := "" +
		"# Overrides 'database' in ceclust.yaml (SQLite path or postgres:// DSN)\n" +
		DatabaseEnv + "=\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		return false, errors.Wrapf(err, "cannot write dotenv template %s", path)
	}
	return true, nil
}
