package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# microcap-trader configuration

[trading]
# Directory for the ledger database and CSV exports.
# data_dir = "~/.config/microcap-trader"
starting_cash = 100.0

[risk]
# Stop level attached to buys that arrive without one, as percent below entry.
default_stop_loss_percent = 15.0
max_positions = 10

[metrics]
risk_free_rate = 0.045
trading_days_per_year = 252
benchmarks = ["^RUT", "IWO", "XBI", "^SPX"]

[ai]
provider = "openai"
model = "gpt-4o"
confidence_threshold = 0.3
max_recommendations = 7
timeout_seconds = 60

[data]
timeout_seconds = 15
max_retries = 2
`

const credentialsTemplate = `# microcap-trader credentials
# Environment variables OPENAI_API_KEY and OLLAMA_HOST override these.

[openai]
api_key = ""

[ollama]
host = "http://localhost:11434"
`

func createTemplateConfig(configDir string) error {
	return writeTemplate(configDir, "config.toml", configTemplate, 0644)
}

func createTemplateCredentials(configDir string) error {
	// Credentials are secrets; keep the file owner-only.
	return writeTemplate(configDir, "credentials.toml", credentialsTemplate, 0600)
}

func writeTemplate(configDir, name, content string, perm os.FileMode) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return fmt.Errorf("writing %s template: %w", name, err)
	}
	return nil
}
