package instance

import (
	"os"
	"strings"
)

// GetID returns an identifier for this process: KAME_INSTANCE_ID, then the platform
// dyno name, then the hostname.
func GetID() string {
	for _, key := range []string{"KAME_INSTANCE_ID", "DYNO"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
