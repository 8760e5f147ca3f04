package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"klish/internal/ktp"
)

func completeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete [line...]",
		Short: "list completion candidates for a partial command line",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompletion(strings.Join(args, " "))
		},
	}
}

func runCompletion(line string) error {
	c, closeConn, err := connect()
	if err != nil {
		return err
	}
	defer closeConn()

	if err := c.Completion(line); err != nil {
		return err
	}
	f, err := c.Next()
	if err != nil {
		return err
	}
	if f.Opcode != ktp.OpCompletionAck {
		return fmt.Errorf("klish: unexpected reply opcode %q", f.Opcode)
	}
	for _, t := range f.TLVs {
		if t.Tag == ktp.TagCompletion {
			fmt.Println(string(t.Value))
		}
	}
	return nil
}
