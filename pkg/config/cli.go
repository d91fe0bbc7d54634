package config

// CLIConfig holds defaults for the everhack command line client.
type CLIConfig struct {
	APIBaseURL string
}

// LoadCLIConfig constructs a CLIConfig from environment variables.
func LoadCLIConfig() CLIConfig {
	loadDotEnv()
	return CLIConfig{
		APIBaseURL: GetString("EVERHACK_API", "http://localhost:4000"),
	}
}
