package main

import (
	"fmt"
	"strings"

	"github.com/scanprep/pix/pipeline"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a single preprocessing operation",
	RunE:  runApply,
}

func init() {
	var ops []string
	for _, op := range pipeline.Ops {
		ops = append(ops, string(op))
	}
	f := applyCmd.Flags()
	f.StringP("input", "i", "", "Input image file")
	f.StringP("output", "o", "", "Output image file (png, jpg, bmp, tiff)")
	f.String("op", "", "Operation: "+strings.Join(ops, ", "))
	f.Int("delta", 0, "Brightness offset (-255..255)")
	f.Int("contrast", 0, "Contrast value (-254..255)")
	f.Int("threshold", 128, "Binarization threshold (0..255)")
	f.Float64("radius", 1, "Blur radius in pixels")
	f.Int("width", 0, "Resize target width")
	f.Int("height", 0, "Resize target height")
	f.String("resample", "linear", "Resize interpolation (nearest, linear, catmull-rom, lanczos)")
	f.String("edge", "gradient", "Edge kernel family (gradient, laplacian)")
	f.Int("block-size", 15, "Adaptive threshold neighborhood size (odd)")
	f.Float64("offset", 10, "Adaptive threshold offset subtracted from the local mean")
	f.Bool("invert", false, "Invert adaptive threshold output")
	f.String("morph", "open", "Morphological operation (open, close, erode, dilate)")
	f.Int("size", 2, "Morphological structuring element size")
	f.Int("quality", 90, "JPEG quality (1-100)")
	applyCmd.MarkFlagRequired("input")
	applyCmd.MarkFlagRequired("output")
	applyCmd.MarkFlagRequired("op")
	rootCmd.AddCommand(applyCmd)
}

func paramsFromFlags(cmd *cobra.Command) pipeline.Params {
	f := cmd.Flags()
	var p pipeline.Params
	op, _ := f.GetString("op")
	p.Op = pipeline.Op(op)
	p.Delta, _ = f.GetInt("delta")
	p.Contrast, _ = f.GetInt("contrast")
	p.Threshold, _ = f.GetInt("threshold")
	p.Radius, _ = f.GetFloat64("radius")
	p.Width, _ = f.GetInt("width")
	p.Height, _ = f.GetInt("height")
	p.Resample, _ = f.GetString("resample")
	p.Edge, _ = f.GetString("edge")
	p.BlockSize, _ = f.GetInt("block-size")
	p.Offset, _ = f.GetFloat64("offset")
	p.Invert, _ = f.GetBool("invert")
	p.Morph, _ = f.GetString("morph")
	p.Size, _ = f.GetInt("size")
	return p
}

func runApply(cmd *cobra.Command, args []string) error {
	params := paramsFromFlags(cmd)
	recipe := &pipeline.Recipe{Name: string(params.Op), Steps: []pipeline.Params{params}}
	if err := recipe.Validate(); err != nil {
		return err
	}
	return processFile(cmd, recipe)
}

// processFile decodes the input flag, runs recipe and encodes the output flag.
func processFile(cmd *cobra.Command, recipe *pipeline.Recipe) error {
	inputPath, _ := cmd.Flags().GetString("input")
	outputPath, _ := cmd.Flags().GetString("output")
	quality, _ := cmd.Flags().GetInt("quality")

	runner, log, release, err := newRunner(cmd)
	defer release()
	if err != nil {
		return err
	}

	src, format, err := readImage(inputPath)
	if err != nil {
		return err
	}
	log.Debug().Str("input", inputPath).Str("format", format).
		Int("width", src.Width).Int("height", src.Height).Msg("decoded")

	out, err := runner.Run(cmd.Context(), src, recipe)
	if err != nil {
		return fmt.Errorf("processing %s: %w", inputPath, err)
	}
	if err := writeImage(outputPath, out, quality); err != nil {
		return err
	}
	log.Info().Str("output", outputPath).Int("width", out.Width).Int("height", out.Height).Msg("written")
	return nil
}
