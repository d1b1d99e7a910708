package config

// Config represents the progressio CLI configuration.
// Use mapstructure tags for Viper unmarshaling.
type Config struct {
	Progress string      `mapstructure:"progress"`
	Lines    LinesConfig `mapstructure:"lines"`
	Sum      SumConfig   `mapstructure:"sum"`
	Cat      CatConfig   `mapstructure:"cat"`
}

// LinesConfig holds settings for the lines command.
type LinesConfig struct {
	// Separator is the line separator with Go escapes, e.g. `\r\n`.
	Separator string `mapstructure:"separator"`
}

// SumConfig holds settings for the sum command.
type SumConfig struct {
	Algorithm string `mapstructure:"algorithm"`
}

// CatConfig holds settings for the cat command.
type CatConfig struct {
	// Decompress is one of auto, none, gzip or zstd.
	Decompress string `mapstructure:"decompress"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Progress: "auto",
		Lines:    LinesConfig{Separator: `\n`},
		Sum:      SumConfig{Algorithm: "sha256"},
		Cat:      CatConfig{Decompress: "none"},
	}
}

// Settings flattens c into dotted keys, the form Viper defaults and
// `config init` use.
func (c Config) Settings() map[string]any {
	return map[string]any{
		"progress":        c.Progress,
		"lines.separator": c.Lines.Separator,
		"sum.algorithm":   c.Sum.Algorithm,
		"cat.decompress":  c.Cat.Decompress,
	}
}
