package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads optional dotenv files, most specific first. godotenv
// never overwrites variables that are already set, so real environment
// variables win over .env.local, which wins over .env. Returns the
// files that were found.
func LoadDotEnv() []string {
	var found []string
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err == nil {
			found = append(found, name)
		}
	}
	if len(found) == 0 {
		return nil
	}
	_ = godotenv.Load(found...)
	return found
}
