package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"octopanel/internal/config"
	"octopanel/internal/logger"
	"octopanel/pkg/sdk"

	"github.com/spf13/cobra"
)

const tokenFileName = "cli_token"

var (
	Client   *sdk.Client
	BaseURL  string
	LogLevel string
	Logger   *slog.Logger
)

var RootCmd = &cobra.Command{
	Use:   "octopanel-cli",
	Short: "CLI for the Octopanel game server panel",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		Client = sdk.NewClient(BaseURL)
		if token := loadToken(); token != "" {
			Client.SetToken(token)
		}
		Logger = newCLILogger()
	},
	Run: func(cmd *cobra.Command, args []string) {
		RunDashboard()
	},
}

func Execute(port int) {
	RootCmd.PersistentFlags().StringVar(&BaseURL, "url", fmt.Sprintf("http://localhost:%d", port), "URL of the Octopanel daemon")
	RootCmd.PersistentFlags().StringVar(&LogLevel, "log-level", "info", "Log level for the CLI log file")

	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func cliDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, config.AppDirName())
}

// The TUI owns the terminal, so logs go to a file next to the token.
func newCLILogger() *slog.Logger {
	dir := cliDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return logger.Discard()
	}
	f, err := os.OpenFile(filepath.Join(dir, "cli.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return logger.Discard()
	}
	return logger.New(f, "text", LogLevel)
}

func loadToken() string {
	data, err := os.ReadFile(filepath.Join(cliDir(), tokenFileName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func saveToken(token string) error {
	dir := cliDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, tokenFileName), []byte(token), 0600)
}

func clearToken() {
	_ = os.Remove(filepath.Join(cliDir(), tokenFileName))
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}
