package config

// Config holds docgraph configuration.
// Loaded from ./config.yaml or ~/.docgraph/config.yaml, with DOCGRAPH_ env overrides.
type Config struct {
	Neo4j      Neo4jCfg      `mapstructure:"neo4j" yaml:"neo4j"`
	LLM        LLMCfg        `mapstructure:"llm" yaml:"llm"`
	Extraction ExtractionCfg `mapstructure:"extraction" yaml:"extraction"`
	Index      IndexCfg      `mapstructure:"index" yaml:"index"`
}

// Neo4jCfg configures the graph store connection.
type Neo4jCfg struct {
	URI      string `mapstructure:"uri" yaml:"uri"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"` // Supports ${ENV_VAR} syntax
	Database string `mapstructure:"database" yaml:"database"`
}

// LLMCfg configures the structure generator.
type LLMCfg struct {
	APIKey            string `mapstructure:"api_key" yaml:"api_key"` // Supports ${ENV_VAR} syntax
	BaseURL           string `mapstructure:"base_url" yaml:"base_url"`
	Model             string `mapstructure:"model" yaml:"model"`
	MaxTokens         int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	MaxRetries        int    `mapstructure:"max_retries" yaml:"max_retries"`
}

// ExtractionCfg configures the structure extraction pipeline.
type ExtractionCfg struct {
	// Mode selects the generation variant: "text" or "vision".
	Mode string `mapstructure:"mode" yaml:"mode"`
	// Convention selects the serialization the generator is asked for:
	// "marker" (line-oriented, truncation-tolerant) or "json".
	Convention    string `mapstructure:"convention" yaml:"convention"`
	RenderDPI     int    `mapstructure:"render_dpi" yaml:"render_dpi"`
	MaxImageWidth int    `mapstructure:"max_image_width" yaml:"max_image_width"`
	JPEGQuality   int    `mapstructure:"jpeg_quality" yaml:"jpeg_quality"`
	// ContextBudget bounds per-section context text in fallback outlines.
	ContextBudget int `mapstructure:"context_budget" yaml:"context_budget"`
}

// IndexCfg configures the retrieval-index handoff.
type IndexCfg struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Neo4j: Neo4jCfg{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
			Password: "${NEO4J_PASSWORD}",
			Database: "neo4j",
		},
		LLM: LLMCfg{
			APIKey:            "${OPENROUTER_API_KEY}",
			Model:             "anthropic/claude-3.5-sonnet",
			MaxTokens:         8192,
			TimeoutSeconds:    180,
			RequestsPerMinute: 150,
			MaxRetries:        3,
		},
		Extraction: ExtractionCfg{
			Mode:          "vision",
			Convention:    "marker",
			RenderDPI:     150,
			MaxImageWidth: 1200,
			JPEGQuality:   85,
			ContextBudget: 500,
		},
		Index: IndexCfg{
			Dir: "",
		},
	}
}
