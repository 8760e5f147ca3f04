package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"klish/internal/ktp"
	"klish/internal/ktp/client"
)

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "interactive read-eval-print loop against klishd",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl()
		},
	}
}

// runRepl holds one connection for the life of the session, completing
// and running lines against it in turn (spec.md §4.F "one session per
// connection"). Falls back to a bare line reader when stdin isn't a
// tty, for scripted/piped use.
func runRepl() error {
	c, closeConn, err := connect()
	if err != nil {
		return err
	}
	defer closeConn()

	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return runReplPlain(c)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "klish> ",
		AutoComplete:    &replCompleter{c: c},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := runReplLine(c, line); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

func runReplPlain(c *client.Client) error {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := runReplLine(c, line); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	return sc.Err()
}

func runReplLine(c *client.Client, line string) error {
	if line == "exit" || line == "quit" {
		c.Cancel()
		os.Exit(0)
	}

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
				return fmt.Errorf("exit status %d", status)
			}
			return nil
		}
	}
}

// replCompleter adapts the daemon's completion RPC to readline's
// AutoCompleter interface.
type replCompleter struct {
	c *client.Client
}

func (r *replCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	prefix := string(line[:pos])
	if err := r.c.Completion(prefix); err != nil {
		return nil, 0
	}
	f, err := r.c.Next()
	if err != nil || f.Opcode != ktp.OpCompletionAck {
		return nil, 0
	}

	var candidates [][]rune
	for _, t := range f.TLVs {
		if t.Tag == ktp.TagCompletion {
			candidates = append(candidates, []rune(string(t.Value)))
		}
	}

	lastSpace := strings.LastIndexByte(prefix, ' ')
	return candidates, pos - (lastSpace + 1)
}
