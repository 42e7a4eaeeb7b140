package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oisee/z80emu/pkg/cpm"
	"github.com/oisee/z80emu/pkg/cpu"
	"github.com/oisee/z80emu/pkg/memory"
)

func newZexCmd() *cobra.Command {
	var spectrum bool
	var strict bool

	cmd := &cobra.Command{
		Use:   "zex FILE",
		Short: "Run a ZEXDOC/ZEXALL style exerciser to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			log := logrus.StandardLogger()
			ram := memory.NewRAM()
			c := cpu.New(ram, nil, cpu.WithLogger(log), cpu.WithStrict(strict))
			bdos := cpm.New(c, os.Stdin, os.Stdout, log)

			var err error
			if spectrum {
				err = bdos.LoadSpectrum(ram, args[0])
			} else {
				err = bdos.LoadCOM(ram, args[0], nil)
			}
			if err != nil {
				return err
			}

			start := time.Now()
			err = bdos.Run(ctx)
			elapsed := time.Since(start)
			fmt.Fprintf(os.Stderr, "\n%d T-states in %s (%.2f MHz effective)\n",
				c.Cycles(), elapsed.Round(time.Millisecond),
				float64(c.Cycles())/elapsed.Seconds()/1e6)
			return err
		},
	}
	cmd.Flags().BoolVar(&spectrum, "spectrum", false, "Image is the Spectrum build (org 8000h, RST 10h output)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on unimplemented opcodes")
	return cmd
}
