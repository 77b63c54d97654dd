package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dicekv/dicekv/ctl/internal/client"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	v      *viper.Viper
	client *client.Client
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "dicectl",
		Short: "dicectl talks to a dicekv server",
		Long: `dicectl creates, reads, updates and deletes records on a dicekv server,
and inspects its statistics, metrics and live record stream.

Settings come from flags, DICECTL_* environment variables, and
~/.dicectl.yaml (or --config), in that order of precedence.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.String(keyConfig, "", "config file (default ~/.dicectl.yaml)")
	pf.String(keyServer, defaultServer, "server base URL")
	pf.String(keyAPIKey, "", "API key sent with every request")
	pf.String(keyHeader, defaultHeader, "header carrying the API key")
	pf.String(keyCAFile, "", "PEM bundle of extra trusted CAs")
	pf.Bool(keyInsecure, false, "skip TLS certificate verification")
	pf.Duration(keyTimeout, 10*time.Second, "per-request timeout")
	pf.StringP(keyOutput, "o", outputText, "output format: text | json")
	pf.BoolP(keyVerbose, "v", false, "log debug output to stderr")
	_ = a.v.BindPFlags(pf)

	root.AddCommand(
		a.createCmd(),
		a.getCmd(),
		a.listCmd(),
		a.updateCmd(),
		a.deleteCmd(),
		a.statsCmd(),
		a.metricsCmd(),
		a.watchCmd(),
	)
	return root
}

// setup loads settings and builds the API client before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	level := slog.LevelWarn
	if a.v.GetBool(keyVerbose) {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	if err := loadConfig(a.v, a.v.GetString(keyConfig)); err != nil {
		return err
	}

	out := a.v.GetString(keyOutput)
	if out != outputText && out != outputJSON {
		return fmt.Errorf("unknown output format %q (want text or json)", out)
	}

	c, err := client.New(client.Options{
		BaseURL:            a.v.GetString(keyServer),
		APIKey:             a.v.GetString(keyAPIKey),
		Header:             a.v.GetString(keyHeader),
		CAFile:             a.v.GetString(keyCAFile),
		InsecureSkipVerify: a.v.GetBool(keyInsecure),
		Timeout:            a.v.GetDuration(keyTimeout),
	})
	if err != nil {
		return err
	}
	a.client = c
	slog.Debug("dicectl: client ready", "server", a.v.GetString(keyServer), "config", a.v.ConfigFileUsed())
	return nil
}

func (a *app) jsonOutput() bool {
	return a.v.GetString(keyOutput) == outputJSON
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: must be an unsigned 64-bit integer", s)
	}
	return id, nil
}
