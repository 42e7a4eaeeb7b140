package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oisee/z80emu/pkg/result"
	"github.com/oisee/z80emu/pkg/verify"
)

func newSelftestCmd() *cobra.Command {
	var numWorkers int
	var output string
	var only []string
	var verbose bool
	var list bool

	cmd := &cobra.Command{
		Use:   "selftest",
		Short: "Check the flag engine and interpreter over exhaustive inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list {
				for _, p := range verify.Properties() {
					fmt.Fprintf(out, "%-20s %8d  %s\n", p.Name, p.Cases, p.Desc)
				}
				return nil
			}

			log := logrus.StandardLogger()
			if verbose && !log.IsLevelEnabled(logrus.InfoLevel) {
				log.SetLevel(logrus.InfoLevel)
			}
			table, err := verify.Run(verify.Config{
				NumWorkers: numWorkers,
				Only:       only,
				Verbose:    verbose,
				Logger:     log,
			})
			if err != nil {
				return err
			}

			outcomes := table.Outcomes()
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROPERTY\tCASES\tFAILURES\tTIME\tFIRST FAILURE")
			for _, o := range outcomes {
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", o.Property, o.Cases, o.Failures, o.Elapsed, o.Example)
			}
			w.Flush()

			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				if err := result.WriteJSON(f, outcomes); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(out, "Written to %s\n", output)
			}

			if n := table.Failed(); n > 0 {
				return fmt.Errorf("%d of %d properties failed", n, table.Len())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&numWorkers, "workers", 0, "Number of workers (0 = NumCPU)")
	cmd.Flags().StringVar(&output, "output", "", "Output JSON file path")
	cmd.Flags().StringSliceVar(&only, "only", nil, "Run only these properties")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	cmd.Flags().BoolVar(&list, "list", false, "List properties and exit")
	return cmd
}
