package config

import "os"

// Conventional environment variable names honored on top of the
// FINANCEFLOW_ prefixed ones.
const (
	EnvFirebaseCredentials = "FIREBASE_CREDENTIALS_JSON"
	EnvGroqAPIKey          = "GROQ_API_KEY"
	EnvMongoURI            = "MONGODB_URI"
	EnvPort                = "PORT"
)

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceFile   APIKeySource = "file"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of a credential.
type KeyStatus struct {
	Name   string       `json:"name"`
	Source APIKeySource `json:"source"`
	IsSet  bool         `json:"is_set"`
	Masked string       `json:"masked,omitempty"` // e.g., "gsk...abc"
}

// CheckAPIKeys returns the status of every credential the server uses.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("Groq API Key", cfg.LLM.APIKey, EnvGroqAPIKey, "FINANCEFLOW_LLM_API_KEY"),
		firebaseStatus(cfg),
		checkKey("MongoDB URI", cfg.Store.Mongo.URI, EnvMongoURI, "FINANCEFLOW_STORE_MONGO_URI"),
	}
}

// firebaseStatus reports inline credentials first, then the key file.
func firebaseStatus(cfg *Config) KeyStatus {
	fs := cfg.Store.Firestore
	if fs.CredentialsJSON != "" {
		return checkKey("Firebase Credentials", fs.CredentialsJSON, EnvFirebaseCredentials, "FINANCEFLOW_STORE_FIRESTORE_CREDENTIALS_JSON")
	}
	status := KeyStatus{Name: "Firebase Credentials", Source: KeySourceNone}
	if fs.KeyFile != "" {
		if info, err := os.Stat(fs.KeyFile); err == nil && !info.IsDir() {
			status.IsSet = true
			status.Source = KeySourceFile
			status.Masked = fs.KeyFile
		}
	}
	return status
}

// checkKey checks if a key is set and where it came from.
func checkKey(name, value string, envVars ...string) KeyStatus {
	status := KeyStatus{
		Name:  name,
		IsSet: value != "",
	}
	if value == "" {
		status.Source = KeySourceNone
		return status
	}

	status.Source = KeySourceConfig
	for _, env := range envVars {
		if os.Getenv(env) != "" {
			status.Source = KeySourceEnv
			break
		}
	}
	status.Masked = maskKey(value)
	return status
}

// maskKey masks an API key for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
