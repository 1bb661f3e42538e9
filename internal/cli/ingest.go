package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/extract"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/adapter/fs"
	"github.com/Sahil13Singh/Mini-Rag-Assesment/internal/domain"
)

var (
	ingestText   string
	ingestSource string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [paths or globs...]",
	Short: "Index documents for retrieval",
	Long: `Chunk, embed and store documents. Directories are walked using the
configured include/exclude patterns; globs support ** via doublestar.
Re-ingesting a source overwrites its earlier chunks.

Examples:
  minirag ingest docs/
  minirag ingest "reports/**/*.pdf" notes.docx
  minirag ingest --text "Go has goroutines." --source intro`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVar(&ingestText, "text", "", "ingest raw text instead of files")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "source name for --text (default \"Manual Input\")")
}

// IngestSummary reports the outcome of a bulk ingest.
type IngestSummary struct {
	Files   int
	Chunks  int
	Skipped []string
	Errors  []string
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestText == "" && len(args) == 0 {
		return fmt.Errorf("nothing to ingest: pass paths or --text")
	}

	cfg := GetConfig()
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	pipeline, vs, err := buildPipeline(ctx, cfg, GetRootDir())
	if err != nil {
		return err
	}
	defer vs.Close()

	if ingestText != "" {
		res, err := pipeline.Ingest(ctx, domain.Document{Source: ingestSource, Text: ingestText})
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		fmt.Fprintf(out, "Ingested %q: %d chunks\n", res.Source, res.Chunks)
		if len(args) == 0 {
			return nil
		}
	}

	walker := fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes)
	files, err := walker.Expand(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files matched")
	}

	registry := extract.NewRegistry()
	summary := IngestSummary{}
	start := time.Now()

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)

	for i, f := range files {
		source := sourceName(GetRootDir(), f.Path)

		data, err := os.ReadFile(f.Path)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", source, err))
			bar.Set(i + 1)
			continue
		}

		text, err := registry.Extract(f.Path, data)
		switch {
		case errors.Is(err, domain.ErrUnsupportedFormat):
			summary.Skipped = append(summary.Skipped, source)
		case err != nil:
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", source, err))
		default:
			res, err := pipeline.Ingest(ctx, domain.Document{Source: source, Text: text})
			switch {
			case errors.Is(err, domain.ErrNoContent):
				summary.Skipped = append(summary.Skipped, source)
			case err != nil:
				summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", source, err))
			default:
				summary.Files++
				summary.Chunks += res.Chunks
			}
		}

		bar.Set(i + 1)
		if elapsed := time.Since(start); elapsed > 0 {
			rate := float64(i+1) / elapsed.Seconds()
			eta := time.Duration(float64(len(files)-i-1)/rate) * time.Second
			bar.Describe(fmt.Sprintf("[cyan]Ingesting[reset] ETA: %s", formatDuration(eta)))
		}
	}

	fmt.Fprintf(out, "\nIngest complete:\n")
	fmt.Fprintf(out, "  Files ingested: %d\n", summary.Files)
	fmt.Fprintf(out, "  Files skipped:  %d (unsupported or empty)\n", len(summary.Skipped))
	fmt.Fprintf(out, "  Chunks stored:  %d\n", summary.Chunks)

	if len(summary.Errors) > 0 {
		fmt.Fprintf(out, "\nWarnings:\n")
		for _, e := range summary.Errors {
			fmt.Fprintf(out, "  - %s\n", e)
		}
		if summary.Files == 0 {
			return fmt.Errorf("all %d files failed", len(summary.Errors))
		}
	}
	return nil
}

// sourceName names a file by its slash path relative to root, or by its
// base name when it lies outside root.
func sourceName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
