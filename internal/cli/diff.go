package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"ai-ghostwriter-be/pkg/diff"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var diffJSON bool

var diffCmd = &cobra.Command{
	Use:   "diff [original] [candidate]",
	Short: "Render the word diff shown for a rewrite",
	Long: `Compares two files word by word, the way a pending modification is
rendered in the editor. Either argument may be "-" for stdin.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "output segments as JSON")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	if args[0] == "-" && args[1] == "-" {
		return fmt.Errorf("only one argument can read stdin")
	}
	original, err := readInput(cmd, args[0])
	if err != nil {
		return fmt.Errorf("read original: %w", err)
	}
	candidate, err := readInput(cmd, args[1])
	if err != nil {
		return fmt.Errorf("read candidate: %w", err)
	}

	segments := diff.Words(original, candidate)

	if diffJSON {
		data, err := json.MarshalIndent(segments, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal diff: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderSegments(segments))
	return nil
}

func renderSegments(segments []diff.Segment) string {
	added := color.New(color.FgGreen, color.Underline).SprintFunc()
	removed := color.New(color.FgRed, color.CrossedOut).SprintFunc()

	var b strings.Builder
	for _, s := range segments {
		switch s.Tag {
		case diff.TagAdded:
			if color.NoColor {
				b.WriteString("{+" + s.Text + "+}")
			} else {
				b.WriteString(added(s.Text))
			}
		case diff.TagRemoved:
			if color.NoColor {
				b.WriteString("[-" + s.Text + "-]")
			} else {
				b.WriteString(removed(s.Text))
			}
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}
