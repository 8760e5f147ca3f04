package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"klish/internal/kscheme"
	"klish/internal/kscheme/kdeploy"
)

func wizardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wizard",
		Short: "interactively scaffold a new view entry and print its deploy text",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWizard()
		},
	}
}

// runWizard prompts for the handful of attributes needed to scaffold a
// new VIEW entry and prints it in deploy format for pasting into a
// scheme file.
func runWizard() error {
	var (
		name    string
		help    string
		addCmd  bool
		cmdName string
		cmdHelp string
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("View name").Value(&name).Validate(func(s string) error {
				if s == "" {
					return fmt.Errorf("view name cannot be empty")
				}
				return nil
			}),
			huh.NewInput().Title("Help text").Value(&help),
			huh.NewConfirm().Title("Add a starter command?").Value(&addCmd),
		),
		huh.NewGroup(
			huh.NewInput().Title("Command name").Value(&cmdName),
			huh.NewInput().Title("Command help").Value(&cmdHelp),
		).WithHideFunc(func() bool { return !addCmd }),
	)

	if err := form.Run(); err != nil {
		return err
	}

	view := kscheme.EntryImage{
		Name: name,
		Help: help,
		Mode: kscheme.ModeSwitch,
	}
	if addCmd && cmdName != "" {
		view.Entries = append(view.Entries, kscheme.EntryImage{
			Name: cmdName,
			Help: cmdHelp,
		})
	}

	fmt.Print(kdeploy.Encode(kscheme.Image{Views: []kscheme.EntryImage{view}}))
	return nil
}
