package cli

import (
	"encoding/json"
	"fmt"

	"ai-ghostwriter-be/pkg/utils"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	splitSize    int
	splitOverlap int
	splitJSON    bool
)

var splitCmd = &cobra.Command{
	Use:   "split [file|-]",
	Short: "Show how a document is chunked for ingestion",
	Args:  cobra.ExactArgs(1),
	RunE:  runSplit,
}

func init() {
	splitCmd.Flags().IntVar(&splitSize, "size", 1000, "maximum chunk length in characters")
	splitCmd.Flags().IntVar(&splitOverlap, "overlap", 200, "characters shared by consecutive chunks")
	splitCmd.Flags().BoolVar(&splitJSON, "json", false, "output chunks as JSON")
	rootCmd.AddCommand(splitCmd)
}

type chunkView struct {
	Index int    `json:"index"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

func runSplit(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd, args[0])
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	splitter := utils.NewRecursiveSplitter(utils.WithChunkSize(splitSize), utils.WithOverlap(splitOverlap))
	runes := []rune(text)
	spans := splitter.Spans(text)

	views := make([]chunkView, 0, len(spans))
	for i, sp := range spans {
		views = append(views, chunkView{Index: i, Start: sp.Start, End: sp.End, Text: string(runes[sp.Start:sp.End])})
	}

	if splitJSON {
		data, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal chunks: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	header := color.New(color.FgCyan, color.Bold).SprintFunc()
	for _, v := range views {
		fmt.Fprintf(cmd.OutOrStdout(), "%s [%d, %d) %d chars\n", header(fmt.Sprintf("#%d", v.Index)), v.Start, v.End, v.End-v.Start)
		fmt.Fprintln(cmd.OutOrStdout(), v.Text)
		fmt.Fprintln(cmd.OutOrStdout())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d chunk(s)\n", len(views))
	return nil
}
