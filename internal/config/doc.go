// Package config handles configuration loading for advisor-bot.
//
// Configuration is loaded from YAML files with environment variable
// expansion. The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	telegram:
//	  token: "${TELEGRAM_BOT_TOKEN}"
//
// # Configuration Sections
//
// Assistant variants (at least one required, each needs a remote id):
//
//	assistants:
//	  - key: "market"
//	    assistant_id: "${OPENAI_ASSISTANT_ID_MARKET}"
//	    display_name: "📊 Market Analysis"
//	    description: "Market sizing and competitor research"
//
// Run polling:
//
//	runs:
//	  poll_interval: "1s"
//	  max_attempts: 30
//
// Outbound transport:
//
//	transport:
//	  max_chunk_len: 4096
//
// Database and health endpoint:
//
//	database:
//	  path: "data/users.db"
//	server:
//	  http_addr: ":8080"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
package config
