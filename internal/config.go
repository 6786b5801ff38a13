package internal

import (
	"fmt"
	"time"
)

// Config holds the server's environment-driven settings.
type Config struct {
	Host            string        `env:"HOST,default=0.0.0.0"`
	Port            int           `env:"PORT,default=8080"`
	SQLitePath      string        `env:"SQLITE_PATH,required=true"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`

	// CensoredDir points at a directory of .txt word lists. Empty
	// disables moderation entirely.
	CensoredDir     string `env:"CENSORED_DIR"`
	CharReplacement string `env:"CHARACTER_REPLACEMENT,default=*"`
}

// CharacterRune enforces that the replacement setting is exactly one
// character before it becomes a rune.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("CHARACTER_REPLACEMENT must be a single character, got %q", str)
	}
	return r[0], nil
}
