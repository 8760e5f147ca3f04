package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"klish/internal/ktp"
)

func helpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "help [line...]",
		Short: "show help for a command line's next tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHelp(strings.Join(args, " "))
		},
	}
}

func runHelp(line string) error {
	c, closeConn, err := connect()
	if err != nil {
		return err
	}
	defer closeConn()

	if err := c.Help(line); err != nil {
		return err
	}
	f, err := c.Next()
	if err != nil {
		return err
	}
	if f.Opcode != ktp.OpHelpAck {
		return fmt.Errorf("klish: unexpected reply opcode %q", f.Opcode)
	}
	for _, t := range f.TLVs {
		if t.Tag == ktp.TagPromptText {
			parts := strings.SplitN(string(t.Value), "\t", 2)
			if len(parts) == 2 {
				fmt.Printf("  %-16s %s\n", parts[0], parts[1])
			} else {
				fmt.Println(parts[0])
			}
		}
	}
	return nil
}
