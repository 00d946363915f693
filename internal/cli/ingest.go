package cli

import (
	"context"
	"fmt"

	"ai-ghostwriter-be/internal/repository/unitofwork"
	"ai-ghostwriter-be/internal/service"
	"ai-ghostwriter-be/pkg/utils"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [source-id]",
	Short: "Re-ingest a source synchronously",
	Long: `Runs the ingestion pipeline for one source in this process, bypassing
the job queue. Useful after a failed run or an embedding provider change.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	sourceID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid source id %q", args[0])
	}

	st, err := openStore()
	if err != nil {
		return err
	}

	splitter := utils.NewRecursiveSplitter(
		utils.WithChunkSize(st.cfg.Chunking.Size),
		utils.WithOverlap(st.cfg.Chunking.Overlap),
	)
	ingestion := service.NewIngestionService(
		unitofwork.NewRepositoryFactory(st.db),
		st.index,
		splitter,
		nil,
		nil,
		st.logger,
	)

	source, err := ingestion.Ingest(context.Background(), sourceID)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	ok := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(cmd.OutOrStdout(), "%s %q ingested into %d chunk(s)\n", ok("OK"), source.Title, source.ChunkCount)
	return nil
}
