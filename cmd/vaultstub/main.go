// Package main runs the development vault stub server. It serves the toy
// login protocol over plain HTTP for local development; it is not a
// production vault.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/vaultfill/vaultfill/internal/config"
	"github.com/vaultfill/vaultfill/internal/logger"
	"github.com/vaultfill/vaultfill/internal/vaultstub"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

// loadAccounts reads the stub's account list from a JSON file.
func loadAccounts(path string) ([]vaultstub.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read accounts file: %w", err)
	}
	var accounts []vaultstub.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("parse accounts file: %w", err)
	}
	return accounts, nil
}

func main() {
	options := config.Parse()

	fmt.Printf("vaultstub version: %s, build date: %s\n", version, buildDate)

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init("info"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	zapLogger := log.Log

	accounts, err := loadAccounts(options.AccountsPath)
	if err != nil {
		zapLogger.Fatal("cannot load accounts", zap.Error(err))
	}

	handler := vaultstub.NewLoginHandler(zapLogger)
	for _, a := range accounts {
		handler.AddAccount(a)
	}
	zapLogger.Info("accounts loaded", zap.Int("count", len(accounts)))

	router := vaultstub.NewRouter(handler, zapLogger)

	zapLogger.Info("vault stub listening", zap.String("addr", options.ListenAddr))
	if err := nethttp.ListenAndServe(options.ListenAddr, router); err != nil {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}
