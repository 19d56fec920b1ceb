package kv

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ValentinKolb/fKV/cmd/util"
	"github.com/spf13/cobra"
)

var (
	execCmd = &cobra.Command{
		Use:   "exec [script]",
		Short: "Runs a command script against the store (stdin if no file is given)",
		Long: `Runs a command script against the store. One command per line:

  put <key> <value>
  get <key>
  del <key>
  findorcreate <key> <value>
  scan <begin|-> <end|-> [bounds]   ("-" = open boundary, bounds: [] [) (] ())
  maintenance
  location
  info

Empty lines and lines starting with # are ignored.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = os.Stdin
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			s := &session{store: store, cache: storeCache, out: cmd.OutOrStdout()}
			return s.run(in)
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints information about the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(store.Info(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "location: %s\n%s\n", util.FormatLocation(store.Location()), data)
			return nil
		},
	}
)
