package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oisee/z80emu/pkg/inst"
	"github.com/oisee/z80emu/pkg/memory"
)

func newDisasmCmd() *cobra.Command {
	var org, start string
	var count int

	cmd := &cobra.Command{
		Use:   "disasm FILE",
		Short: "Disassemble a binary image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := parseAddress("org", org)
			if err != nil {
				return err
			}
			addr := base
			if start != "" {
				if addr, err = parseAddress("start", start); err != nil {
					return err
				}
			}

			ram := memory.NewRAM()
			n, err := ram.LoadFile(args[0], base)
			if err != nil {
				return err
			}
			if count <= 0 {
				count = n
			}

			out := cmd.OutOrStdout()
			end := uint32(base) + uint32(n)
			for i := 0; i < count && uint32(addr) < end; i++ {
				text, size := inst.Disassemble(ram, addr)
				fmt.Fprintf(out, "%04X  %-12s %s\n", addr, hexBytes(ram, addr, size), text)
				if uint32(addr)+uint32(size) > 0xFFFF {
					break
				}
				addr += uint16(size)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&org, "org", "0x0100", "Load address")
	cmd.Flags().StringVar(&start, "start", "", "First address to disassemble (defaults to --org)")
	cmd.Flags().IntVar(&count, "count", 0, "Number of instructions (0 = whole image)")
	return cmd
}

func hexBytes(mem inst.Reader, addr uint16, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%02X", mem.ReadUnsigned8(addr+uint16(i)))
	}
	return strings.Join(parts, " ")
}
