// Package config reads the service configuration from the environment,
// optionally seeded from a .env file.
//
// Variables:
//   - PORT             listen port (default 8080)
//   - GIN_MODE         gin mode (default release)
//   - MODEL_PATH       classifier resource (default resources/model.yaml)
//   - SCALER_PATH      scaler resource (default resources/scaler.yaml)
//   - HISTORY_PATH     CSV history log (default history.csv)
//   - ENABLE_DB        mirror history into Postgres (default false)
//   - DATABASE_URL     required when ENABLE_DB=true
//   - LOG_LEVEL        debug|info|warn|error (default info)
//   - LOG_FORMAT       json|text (default json)
//   - MAX_UPLOAD_BYTES request body limit (default 10 MiB)
package config
