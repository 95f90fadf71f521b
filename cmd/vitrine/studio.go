package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
	"github.com/atlas-moltbot/vitrine-de-imagens/prompts"
	"github.com/atlas-moltbot/vitrine-de-imagens/region"
	"github.com/atlas-moltbot/vitrine-de-imagens/studio"
	"github.com/spf13/cobra"
)

func analyzeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze IMAGE",
		Short: "Describe scene, objects, mood, lighting and colors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := vitrine.ReadImageFile(args[0])
			if err != nil {
				return err
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			result, err := svc.Analyze(ctx, img)
			if err != nil {
				return err
			}
			return a.printJSON(result)
		},
	}
}

func editCmd(a *app) *cobra.Command {
	var (
		prompt      string
		regionFlag  string
		boxFlag     string
		findText    string
		replaceText string
		out         string
	)
	cmd := &cobra.Command{
		Use:   "edit IMAGE",
		Short: "Edit an image with an instruction, optionally inside a region",
		Long: `Edit an image with an instruction.

The region can be given in the 0-1000 space with --region ymin,xmin,ymax,xmax
or in image pixels with --box x0,y0,x1,y1. --replace-text builds a text
replacement instruction instead of --prompt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := vitrine.ReadImageFile(args[0])
			if err != nil {
				return err
			}
			r, err := editRegion(img, regionFlag, boxFlag)
			if err != nil {
				return err
			}
			if replaceText != "" {
				prompt = prompts.TextEdit(findText, replaceText, r)
			}

			svc, err := a.service()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			edited, err := svc.Edit(ctx, img, prompt, r)
			if err != nil {
				return err
			}
			return a.writeImage(out, edited)
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "edit instruction")
	cmd.Flags().StringVar(&regionFlag, "region", "", "region as ymin,xmin,ymax,xmax in the 0-1000 space")
	cmd.Flags().StringVar(&boxFlag, "box", "", "region as x0,y0,x1,y1 in image pixels")
	cmd.Flags().StringVar(&findText, "find-text", "", "text to replace (with --replace-text)")
	cmd.Flags().StringVar(&replaceText, "replace-text", "", "new text to write into the image")
	cmd.Flags().StringVarP(&out, "out", "o", "edited.png", "output file")
	cmd.MarkFlagsMutuallyExclusive("region", "box")
	cmd.MarkFlagsMutuallyExclusive("prompt", "replace-text")
	return cmd
}

// editRegion resolves --region or --box to a normalised region.
func editRegion(img *vitrine.Image, regionFlag, boxFlag string) (*region.Region, error) {
	switch {
	case regionFlag != "":
		r, err := region.Parse(regionFlag)
		if err != nil {
			return nil, err
		}
		return &r, nil
	case boxFlag != "":
		box, err := parseFloats(boxFlag, 4)
		if err != nil {
			return nil, fmt.Errorf("--box: %w", err)
		}
		w, h, _, err := region.ImageSize(bytes.NewReader(img.Data))
		if err != nil {
			return nil, err
		}
		r, err := region.FromPixels(box[0], box[1], box[2], box[3], w, h)
		if err != nil {
			return nil, err
		}
		return &r, nil
	}
	return nil, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Split(s, ",")
	if len(fields) != n {
		return nil, fmt.Errorf("want %d comma-separated numbers, got %q", n, s)
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", f)
		}
		out[i] = v
	}
	return out, nil
}

func generateCmd(a *app) *cobra.Command {
	var (
		ratio    string
		template string
		out      string
	)
	cmd := &cobra.Command{
		Use:   "generate [PROMPT...]",
		Short: "Generate an image from a prompt or a catalogue template",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			if template != "" {
				catalogue, err := prompts.Default()
				if err != nil {
					return err
				}
				t, ok := catalogue.Template(template)
				if !ok {
					return fmt.Errorf("unknown template %q", template)
				}
				brief := t.Brief()
				if prompt != "" {
					brief.Prompt = ""
					brief.Product = prompt
				}
				prompt = prompts.Compose(brief)
			}
			r, err := vitrine.ParseAspectRatio(ratio)
			if err != nil {
				return err
			}

			svc, err := a.service()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			img, err := svc.Generate(ctx, prompt, r)
			if err != nil {
				return err
			}
			return a.writeImage(out, img)
		},
	}
	cmd.Flags().StringVarP(&ratio, "aspect-ratio", "r", "1:1", "output aspect ratio")
	cmd.Flags().StringVarP(&template, "template", "t", "", "catalogue template name; PROMPT then names the product")
	cmd.Flags().StringVarP(&out, "out", "o", "generated.png", "output file")
	return cmd
}

func describeCmd(a *app) *cobra.Command {
	var prompt string
	cmd := &cobra.Command{
		Use:   "describe IMAGE",
		Short: "Write a short description of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := vitrine.ReadImageFile(args[0])
			if err != nil {
				return err
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			text, err := svc.Describe(ctx, img, prompt)
			if err != nil {
				return err
			}
			a.printf("%s\n", text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", studio.DefaultDescribePrompt, "description instruction")
	return cmd
}

func detectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect IMAGE",
		Short: "Locate the main objects as labelled points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := vitrine.ReadImageFile(args[0])
			if err != nil {
				return err
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			points, err := svc.DetectObjects(ctx, img)
			if err != nil {
				return err
			}
			for _, p := range points {
				a.printf("%-24s y=%d x=%d\n", p.Label, p.Point[0], p.Point[1])
			}
			return nil
		},
	}
}

func segmentCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "segment IMAGE LABEL",
		Short: "Cut out one object as a mask image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := vitrine.ReadImageFile(args[0])
			if err != nil {
				return err
			}
			svc, err := a.service()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			mask, err := svc.Segment(ctx, img, args[1])
			if err != nil {
				return err
			}
			return a.writeImage(out, mask)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "mask.png", "output file")
	return cmd
}

func askCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask QUESTION...",
		Short: "Ask the fast assistant model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			answer, err := svc.Ask(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			a.printf("%s\n", answer)
			return nil
		},
	}
}

func searchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search QUERY...",
		Short: "Answer a question grounded on web search",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			result, err := svc.Search(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			a.printf("%s\n", result.Text)
			for _, src := range result.Sources {
				detail(a.out, "%s  %s", src.Title, src.URI)
			}
			return nil
		},
	}
}

func atlasCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "atlas [MESSAGE...]",
		Short: "Send a message to the Atlas automation webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd.Context())
			defer cancel()

			if err := svc.SendToAtlas(ctx, strings.Join(args, " ")); err != nil {
				return err
			}
			success(a.out, "message sent to Atlas")
			return nil
		},
	}
}

func (a *app) writeImage(path string, img *vitrine.Image) error {
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	success(a.out, "%s written (%s, %d bytes)", path, img.MIMEType, len(img.Data))
	return nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
