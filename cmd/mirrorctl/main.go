// Command mirrorctl runs the connector demo harness: it reads a YAML
// config naming clusters and replication pairs, starts a SourceConnector
// and CheckpointConnector per pair, hot-reloads on config changes, and
// serves a small status/health API.
package main

import (
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kmirror/connector/internal/config"
	"github.com/kmirror/connector/internal/logx"
	"github.com/kmirror/connector/internal/statusapi"
)

func findConfigPath() string {
	names := []string{"mirror.yml", "mirror.yaml"}
	var candidates []string

	for _, n := range names {
		candidates = append(candidates, "./"+n)
	}

	home, _ := os.UserHomeDir()
	if runtime.GOOS == "windows" {
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			for _, n := range names {
				candidates = append(candidates, filepath.Join(appdata, "kmirror", n))
			}
		}
	} else {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			for _, n := range names {
				candidates = append(candidates, filepath.Join(xdg, "kmirror", n))
			}
		}
		if home != "" {
			for _, n := range names {
				candidates = append(candidates, filepath.Join(home, ".config", "kmirror", n))
			}
		}
		for _, n := range names {
			candidates = append(candidates, filepath.Join("/etc", "kmirror", n))
		}
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "./mirror.yml"
}

func main() {
	_ = godotenv.Load()
	logx.InitLogger()

	configPath := os.Getenv("KMIRROR_CONFIG")
	if configPath == "" {
		configPath = findConfigPath()
	}

	registry := config.New(logx.Logger)
	if err := registry.LoadFromFile(configPath); err != nil {
		logx.Logger.Warn("failed to load config file", "path", configPath, "err", err)
	} else {
		logx.Logger.Info("configuration loaded", "path", configPath)
	}
	if err := registry.Watch(configPath); err != nil {
		logx.Logger.Error("failed to start config watcher", "err", err)
	}
	defer registry.Close()

	addr := os.Getenv("KMIRROR_STATUS_ADDR")
	if addr == "" {
		addr = ":8090"
	}
	server := statusapi.New(registry, logx.Logger)
	go func() {
		if err := server.Run(addr); err != nil && err != http.ErrServerClosed {
			logx.Logger.Fatal("status API terminated", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logx.Logger.Info("shutting down")
}
