package main

import (
	"github.com/scanprep/pix/pipeline"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Apply a YAML recipe of operations",
	RunE:  runRecipe,
}

var ocrCmd = &cobra.Command{
	Use:   "ocr",
	Short: "Apply the built-in text recognition preset",
	RunE: func(cmd *cobra.Command, args []string) error {
		return processFile(cmd, pipeline.OCRPreset())
	},
}

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Print the built-in OCR preset as a YAML recipe",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := pipeline.OCRPreset().Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	for _, c := range []*cobra.Command{runCmd, ocrCmd} {
		c.Flags().StringP("input", "i", "", "Input image file")
		c.Flags().StringP("output", "o", "", "Output image file (png, jpg, bmp, tiff)")
		c.Flags().Int("quality", 90, "JPEG quality (1-100)")
		c.MarkFlagRequired("input")
		c.MarkFlagRequired("output")
	}
	runCmd.Flags().String("recipe", "", "YAML recipe file")
	runCmd.MarkFlagRequired("recipe")
	rootCmd.AddCommand(runCmd, ocrCmd, presetCmd)
}

func runRecipe(cmd *cobra.Command, args []string) error {
	recipePath, _ := cmd.Flags().GetString("recipe")
	recipe, err := pipeline.LoadRecipe(recipePath)
	if err != nil {
		return err
	}
	return processFile(cmd, recipe)
}
