package core

// Config carries the engine limits and index tuning parameters. A Config is
// fixed at construction time and shared by the tokenizer, parser and tables
// of one engine instance, so independently configured instances can coexist
// in a single process.
type Config struct {
	// MaxStatementLength is the maximum accepted SQL statement length in bytes.
	MaxStatementLength int

	// MaxTokens is the maximum number of tokens a single statement may produce.
	MaxTokens int

	// MaxTableNameLength and MaxColumnNameLength bound identifier lengths.
	MaxTableNameLength  int
	MaxColumnNameLength int

	// BTreeOrder is the fan-out of ordered indexes (children per node).
	BTreeOrder int

	// HashTableSize is the initial bucket count of point indexes.
	HashTableSize int
}

// DefaultConfig returns the standard engine limits.
func DefaultConfig() Config {
	return Config{
		MaxStatementLength:  10000,
		MaxTokens:           1000,
		MaxTableNameLength:  64,
		MaxColumnNameLength: 32,
		BTreeOrder:          4,
		HashTableSize:       1000,
	}
}
