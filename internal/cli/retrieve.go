package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ai-ghostwriter-be/pkg/rag/retriever"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	retrieveOwner   string
	retrieveSources []string
	retrieveTopK    int
	retrieveJSON    bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Show the grounding context a completion would receive",
	Args:  cobra.ExactArgs(1),
	RunE:  runRetrieve,
}

func init() {
	retrieveCmd.Flags().StringVar(&retrieveOwner, "owner", "", "owner whose sources are searched (required)")
	retrieveCmd.Flags().StringSliceVar(&retrieveSources, "source", nil, "restrict to these source ids")
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "limit", "n", 0, "maximum number of chunks (default from config)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output matches as JSON")
	_ = retrieveCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}

	r := retriever.New(st.index, retriever.Config{
		TopK:              st.cfg.Retrieval.TopK,
		FallbackThreshold: st.cfg.Retrieval.FallbackThreshold,
		MinScore:          st.cfg.Retrieval.MinScore,
	}, st.logger)

	matches, err := r.Search(context.Background(), retriever.Query{
		Text:      args[0],
		OwnerID:   retrieveOwner,
		SourceIDs: retrieveSources,
		TopK:      retrieveTopK,
	})
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if retrieveJSON {
		data, err := json.MarshalIndent(matches, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal matches: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	if len(matches) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No context above the relevance threshold.")
		return nil
	}

	score := color.New(color.FgYellow).SprintFunc()
	for i, m := range matches {
		fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s source=%s chunk=%d\n", i+1, score(fmt.Sprintf("%.3f", m.Score)), m.Metadata.SourceID, m.Metadata.ChunkIndex)
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(m.Data))
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}
