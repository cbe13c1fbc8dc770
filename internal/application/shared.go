package application

import "fmt"

// LoadConfig loads the config at configPath, falling back to DefaultConfig
// when the file does not exist.
func LoadConfig(loader ConfigLoader, configPath string) (Config, error) {
	exists, err := loader.Exists(configPath)
	if err != nil {
		return Config{}, err
	}
	if !exists {
		return DefaultConfig(), nil
	}
	cfg, err := loader.Load(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, configPath, err)
	}
	if len(cfg.Coverage.Files) == 0 {
		return Config{}, fmt.Errorf("%w: no coverage files configured", ErrInvalidConfig)
	}
	return cfg, nil
}
