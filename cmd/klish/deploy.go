package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"klish/internal/kscheme"
	"klish/internal/kscheme/kdeploy"
	"klish/internal/kscheme/kyaml"
)

func deployCmd() *cobra.Command {
	var validate bool
	cmd := &cobra.Command{
		Use:   "deploy <scheme-file>...",
		Short: "render one or more scheme sources as canonical deploy text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := loadSchemeFiles(args)
			if err != nil {
				return err
			}
			if validate {
				if _, err := kscheme.Prepare(img); err != nil {
					return fmt.Errorf("klish: scheme does not prepare: %w", err)
				}
			}
			fmt.Print(kdeploy.Encode(img))
			return nil
		},
	}
	cmd.Flags().BoolVar(&validate, "validate", false, "also run Prepare and fail on scheme errors")
	return cmd
}

// loadSchemeFiles merges one or more scheme sources into a single Image,
// dispatching by extension the same way klishd does (spec.md §3 merge
// semantics apply across files too).
func loadSchemeFiles(files []string) (kscheme.Image, error) {
	var img kscheme.Image
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return kscheme.Image{}, fmt.Errorf("klish: read %s: %w", path, err)
		}

		var part kscheme.Image
		if strings.HasSuffix(path, ".dpl") {
			part, err = kdeploy.Decode(string(data))
		} else {
			part, err = kyaml.Decode(data)
		}
		if err != nil {
			return kscheme.Image{}, fmt.Errorf("klish: parse %s: %w", path, err)
		}

		img.Plugins = append(img.Plugins, part.Plugins...)
		img.Ptypes = append(img.Ptypes, part.Ptypes...)
		img.Views = append(img.Views, part.Views...)
	}
	return img, nil
}
