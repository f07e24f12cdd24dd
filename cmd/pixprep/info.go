package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info [file]",
	Short: "Print image format and dimensions",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	path := args[0]
	buf, format, err := readImage(path)
	if err != nil {
		return err
	}
	var transparent int
	for i := 3; i < len(buf.Pix); i += 4 {
		if buf.Pix[i] != 255 {
			transparent++
		}
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File:        %s\n", path)
	fmt.Fprintf(out, "Format:      %s\n", format)
	fmt.Fprintf(out, "Dimensions:  %d x %d\n", buf.Width, buf.Height)
	fmt.Fprintf(out, "Buffer size: %d bytes\n", len(buf.Pix))
	fmt.Fprintf(out, "Translucent: %d pixels\n", transparent)
	return nil
}
