//go:build !windows

package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".config", "meminfo-sampler", "config.yaml"),
		"/etc/meminfo-sampler/config.yaml",
	}
}
