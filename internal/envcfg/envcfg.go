// Package envcfg bootstraps the workspace credentials and service
// endpoints from the environment and a local .env file, prompting
// interactively on first run when credentials are missing.
package envcfg

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds everything the daemon needs to reach its collaborators.
type Config struct {
	// Workspace and AccessKey authenticate against the training service.
	Workspace string `env:"SIM_WORKSPACE"`
	AccessKey string `env:"SIM_ACCESS_KEY"`
	// APIHost overrides the training service endpoint.
	APIHost string `env:"SIM_API_HOST"`

	// Concept predictor endpoints.
	ConceptOneURL string `env:"CONCEPT1_URL" envDefault:"http://localhost:1111"`
	ConceptTwoURL string `env:"CONCEPT2_URL" envDefault:"http://localhost:2222"`
}

// setKey writes or replaces KEY=VALUE in the .env file at path, creating
// the file when absent.
func setKey(path, key, value string) error {
	vars, err := godotenv.Read(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		vars = map[string]string{}
	}
	vars[key] = value
	if err := godotenv.Write(vars, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// prompt reads one line from in after printing label.
func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Load resolves the configuration from the .env file at path plus the
// process environment. Variables already set in the environment win over
// the file; a missing file is not an error. When the workspace id or
// access key is still missing it prompts on in/out and persists the
// answers back to the .env file for the next run. A nil in disables
// prompting and leaves missing credentials empty.
func Load(path string, in io.Reader, out io.Writer) (Config, error) {
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load %s: %w", path, err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	if in == nil {
		return cfg, nil
	}
	reader := bufio.NewReader(in)

	if cfg.Workspace == "" {
		ws, err := prompt(reader, out, "Please enter your workspace id: ")
		if err != nil {
			return Config{}, err
		}
		if err := setKey(path, "SIM_WORKSPACE", ws); err != nil {
			return Config{}, err
		}
		cfg.Workspace = ws
	}
	if cfg.AccessKey == "" {
		key, err := prompt(reader, out, "Please enter your access key: ")
		if err != nil {
			return Config{}, err
		}
		if err := setKey(path, "SIM_ACCESS_KEY", key); err != nil {
			return Config{}, err
		}
		cfg.AccessKey = key
	}

	return cfg, nil
}
