package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"klish/internal/ktp"
)

func execCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec [line...]",
		Short: "run a command line against klishd and stream its output",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLine(strings.Join(args, " "))
		},
	}
}

// runLine sends one command request and prints stdout/stderr chunks as
// they arrive until the ack (spec.md §4.H ordering guarantee: ACK
// arrives after all chunks for that request).
func runLine(line string) error {
	c, closeConn, err := connect()
	if err != nil {
		return err
	}
	defer closeConn()

	if err := c.Command(line); err != nil {
		return err
	}

	for {
		f, err := c.Next()
		if err != nil {
			return err
		}
		switch f.Opcode {
		case ktp.OpStdout:
			if v, ok := f.Get(ktp.TagData); ok {
				os.Stdout.Write(v)
			}
		case ktp.OpStderr:
			if v, ok := f.Get(ktp.TagData); ok {
				os.Stderr.Write(v)
			}
		case ktp.OpCommandAck:
			status := 0
			if v, ok := f.Get(ktp.TagStatus); ok {
				status, _ = strconv.Atoi(string(v))
			}
			if status != 0 {
				return fmt.Errorf("klish: command exited %d", status)
			}
			return nil
		}
	}
}
