package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-recommendation-blender/config"
	"github.com/gcbaptista/go-recommendation-blender/internal/blend"
	"github.com/gcbaptista/go-recommendation-blender/internal/source"
)

func (c *cli) blendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "blend",
		Short: "Blend the input files once and print the merged lines",
		Args:  cobra.NoArgs,
		RunE:  c.runBlendCmd,
	}
}

func (c *cli) runBlendCmd(cmd *cobra.Command, args []string) error {
	settings, err := c.loadSettings(cmd)
	if err != nil {
		return err
	}
	return runBlend(settings.Blend, cmd.OutOrStdout(), c.logger)
}

// runBlend reads both files fully and streams the merged lines to w. Lines
// written before a parse failure stay written.
func runBlend(settings config.BlendSettings, w io.Writer, logger *zap.Logger) error {
	if problems := settings.Validate(); len(problems) > 0 {
		return fmt.Errorf("invalid blend settings: %s", strings.Join(problems, "; "))
	}

	external, err := source.ReadLines(settings.ExternalPath)
	if err != nil {
		return err
	}
	forked, err := source.ReadLines(settings.ForkedPath)
	if err != nil {
		return err
	}

	b := blend.NewBlender(blend.Options{
		ForkedLimit:  settings.ForkedLimit,
		ResultLimit:  settings.ResultLimit,
		ExternalName: settings.ExternalPath,
		ForkedName:   settings.ForkedPath,
	}, logger)

	_, err = b.BlendTo(w, external, forked)
	return err
}
