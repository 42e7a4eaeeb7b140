package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	var logLevel string
	var logFormat string

	rootCmd := &cobra.Command{
		Use:          "z80emu",
		Short:        "Z80 interpreter with CP/M and MSX-style frame harnesses",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configureLogging(logrus.StandardLogger(), logLevel, logFormat)
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warning", "Log level (panic, fatal, error, warning, info, debug, trace)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(newRunCmd(), newZexCmd(), newDisasmCmd(), newSelftestCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func configureLogging(l *logrus.Logger, level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.SetLevel(lvl)
	l.SetOutput(os.Stderr)
	switch format {
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format: %s", format)
	}
	return nil
}

// parseImmediate accepts 0x-prefixed hex, h-suffixed hex or decimal.
func parseImmediate(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty")
	}

	// Handle hex: 0xFF, FFh, 0x00, etc.
	if strings.HasPrefix(s, "0X") || strings.HasPrefix(s, "0x") {
		var v int
		_, err := fmt.Sscanf(s[2:], "%x", &v)
		return v, err
	}
	if strings.HasSuffix(strings.ToUpper(s), "H") {
		s = s[:len(s)-1]
		var v int
		_, err := fmt.Sscanf(s, "%x", &v)
		return v, err
	}

	// Decimal
	var v int
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

// parseAddress parses a 16-bit address flag value.
func parseAddress(name, s string) (uint16, error) {
	v, err := parseImmediate(s)
	if err != nil {
		return 0, fmt.Errorf("--%s %q: %w", name, s, err)
	}
	if v < 0 || v > 0xFFFF {
		return 0, fmt.Errorf("--%s %q: out of range", name, s)
	}
	return uint16(v), nil
}
