package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"github.com/atlas-moltbot/vitrine-de-imagens/prompts"
	"github.com/spf13/cobra"
)

var errNoLibrary = errors.New("VITRINE_LIBRARY_URL is not set")

func libraryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage the saved image library",
	}

	var itemType string
	list := &cobra.Command{
		Use:   "list",
		Short: "List saved items, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.libraryStore()
			if store == nil {
				return errNoLibrary
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			items, err := store.List(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tSAVED\tTITLE")
			for _, it := range items {
				if itemType != "" && string(it.Type) != itemType {
					continue
				}
				saved := time.UnixMilli(it.Timestamp).Format(time.DateTime)
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.ID, it.Type, saved, it.Title)
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&itemType, "type", "", "only items of this type (generated, edited, ...)")

	rm := &cobra.Command{
		Use:   "rm ID...",
		Short: "Delete saved items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.libraryStore()
			if store == nil {
				return errNoLibrary
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			for _, id := range args {
				if err := store.Delete(ctx, id); err != nil {
					return fmt.Errorf("delete %s: %w", id, err)
				}
				success(a.out, "deleted %s", id)
			}
			return nil
		},
	}

	cmd.AddCommand(list, rm)
	return cmd
}

func settingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and write user settings",
		Long: fmt.Sprintf(`Read and write user settings.

Known keys: %s, %s, %s, %s.
Environment variables prefixed with VITRINE_ override the file.`,
			vitrine.SettingAPIKey, vitrine.SettingImageModel, vitrine.SettingAtlasWebhook, vitrine.SettingAtlasUser),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get KEY",
			Short: "Print a setting",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, ok := a.settings.GetString(args[0])
				if !ok {
					return fmt.Errorf("setting %q is not set", args[0])
				}
				a.printf("%s\n", v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set KEY VALUE",
			Short: "Store a setting",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.settings.SetString(args[0], args[1]); err != nil {
					return err
				}
				success(a.out, "%s saved to %s", args[0], a.settings.Path())
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the settings file location",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				a.printf("%s\n", a.settings.Path())
			},
		},
	)
	return cmd
}

func promptsCmd(a *app) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Browse the prompt catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogue, err := prompts.Default()
			if err != nil {
				return err
			}
			categories := catalogue.Categories()
			if category != "" {
				categories = []string{category}
			}
			for _, c := range categories {
				okColor.Fprintln(a.out, c)
				for _, t := range catalogue.ByCategory(c) {
					a.printf("  %s\n", t.Name)
				}
			}
			okColor.Fprintln(a.out, "Precision presets")
			for _, p := range catalogue.Presets {
				a.printf("  %-16s %s\n", p.ID, p.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show NAME",
			Short: "Print the composed prompt of a template",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				catalogue, err := prompts.Default()
				if err != nil {
					return err
				}
				name := strings.Join(args, " ")
				t, ok := catalogue.Template(name)
				if !ok {
					return fmt.Errorf("unknown template %q", name)
				}
				a.printf("%s\n", prompts.Compose(t.Brief()))
				return nil
			},
		},
		&cobra.Command{
			Use:   "preset ID IMAGE",
			Short: "Analyze an image and print a precision preset prompt for it",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				catalogue, err := prompts.Default()
				if err != nil {
					return err
				}
				preset, ok := catalogue.Preset(args[0])
				if !ok {
					return fmt.Errorf("unknown preset %q", args[0])
				}
				img, err := vitrine.ReadImageFile(args[1])
				if err != nil {
					return err
				}
				svc, err := a.service()
				if err != nil {
					return err
				}
				ctx, cancel := a.context(cmd.Context())
				defer cancel()

				analysis, err := svc.Analyze(ctx, img)
				if err != nil {
					return err
				}
				prompt, err := preset.Build(*analysis)
				if err != nil {
					return err
				}
				a.printf("%s\n", prompt)
				return nil
			},
		},
	)
	return cmd
}
