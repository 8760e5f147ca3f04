package main

import (
	"fmt"
	"strings"

	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"

	"klish/internal/ktp"
)

func pickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pick [prefix...]",
		Short: "fuzzy-pick a completion candidate and run it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPick(strings.Join(args, " "))
		},
	}
}

// runPick fetches the daemon's completion candidates for prefix and
// opens a fuzzy picker over them, then runs the chosen full line.
func runPick(prefix string) error {
	c, closeConn, err := connect()
	if err != nil {
		return err
	}

	if err := c.Completion(prefix); err != nil {
		closeConn()
		return err
	}
	f, err := c.Next()
	if err != nil {
		closeConn()
		return err
	}
	closeConn()
	if f.Opcode != ktp.OpCompletionAck {
		return fmt.Errorf("klish: unexpected reply opcode %q", f.Opcode)
	}

	var candidates []string
	for _, t := range f.TLVs {
		if t.Tag == ktp.TagCompletion {
			candidates = append(candidates, string(t.Value))
		}
	}
	if len(candidates) == 0 {
		return fmt.Errorf("klish: no completion candidates for %q", prefix)
	}

	idx, err := fuzzyfinder.Find(
		candidates,
		func(i int) string { return candidates[i] },
		fuzzyfinder.WithPromptString("klish> "),
	)
	if err != nil {
		return err
	}

	// The ack's TagLine is the partial last token; the candidate replaces it.
	partial, _ := f.Get(ktp.TagLine)
	chosen := strings.TrimSpace(strings.TrimSuffix(prefix, string(partial)) + candidates[idx])
	return runLine(chosen)
}
