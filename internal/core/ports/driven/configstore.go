package driven

// ConfigStore is a flat key/value view of the config file. Keys use dot
// notation ("generation.model") and writes are persisted immediately.
type ConfigStore interface {
	// Get returns the raw value and whether the key is present.
	Get(key string) (any, bool)

	// GetString returns "" for missing or non-string values.
	GetString(key string) string

	// GetInt accepts any decoded numeric type. Missing keys return 0.
	GetInt(key string) int

	Set(key string, value any) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(key string) error

	// Path identifies the backing file, or ":memory:".
	Path() string
}
