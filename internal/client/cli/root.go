package cli

import (
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/facelock/internal/client/config"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configFile string
	addr       string
	token      string
	locale     string
	timeout    time.Duration
	stateDB    string
}

func (a *App) NewRootCmd() *cobra.Command {
	var f rootFlags

	root := &cobra.Command{
		Use:   "facelock",
		Short: "FaceLock - face-locked messages and files",
		Long: `FaceLock locks messages and files so that only the intended recipient can
open them, by face, within a limited number of attempts. Exhausting the attempts
destroys the item; attempts by anyone else alert the owner.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig(cmd, f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configFile, "config", "c", "", "config file (json or yaml)")
	pf.StringVarP(&f.addr, "addr", "a", "", "server gRPC address")
	pf.StringVar(&f.token, "token", "", "access token")
	pf.StringVar(&f.locale, "locale", "", "preferred message language (en, ru)")
	pf.DurationVar(&f.timeout, "timeout", 0, "request timeout")
	pf.StringVar(&f.stateDB, "state-db", "", "sqlite file for local watch state")
	pf.BoolVar(&a.jsonOutput, "json", false, "output in JSON format")

	root.AddCommand(
		a.newSendCmd(),
		a.newPlaceholderCmd(),
		a.newUnlockCmd(),
		a.newCancelCmd(),
		a.newWatchCmd(),
		a.newSeenCmd(),
		a.newRiskCmd(),
		a.newFaceCmd(),
		a.newTokenCmd(),
		a.newPingCmd(),
		a.newVersionCmd(),
	)
	return root
}

// loadConfig layers flags that were set explicitly over file and env values.
func (a *App) loadConfig(cmd *cobra.Command, f rootFlags) error {
	cfg, err := config.LoadConfig(f.configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.ServerEndpointAddr = f.addr
	}
	if flags.Changed("token") {
		cfg.AccessToken = f.token
	}
	if flags.Changed("locale") {
		cfg.Locale = f.locale
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = f.timeout
	}
	if flags.Changed("state-db") {
		cfg.StateDB = f.stateDB
	}

	a.config = cfg
	return nil
}

// output prints v as JSON when --json is set, otherwise calls human.
func (a *App) output(cmd *cobra.Command, v any, human func()) error {
	if !a.jsonOutput {
		human()
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
