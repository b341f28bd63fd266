package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/forPelevin/autosub/internal/domain/subtitles"
	"github.com/forPelevin/autosub/internal/language"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, "Cancelling transcription")
			return 1
		}
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "autosub [source_path]",
		Short:         "Generate subtitles for a video or audio file using speech recognition",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listFormats, _ := cmd.Flags().GetBool("list-formats"); listFormats {
				printFormats(cmd.OutOrStdout())
				return nil
			}
			if listLanguages, _ := cmd.Flags().GetBool("list-languages"); listLanguages {
				printLanguages(cmd.OutOrStdout())
				return nil
			}
			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			return run(cmd, source)
		},
	}

	f := root.Flags()
	f.IntP("concurrency", "C", 1, "Number of concurrent API requests to make")
	f.StringP("output", "o", "", "Output path for subtitles (by default, subtitles are saved in the same directory and name as the source path)")
	f.StringP("format", "F", subtitles.DefaultFormat, "Destination subtitle format")
	f.StringP("lang", "L", language.Default, "Language spoken in source file (Baidu dev_pid)")
	f.StringP("api-key", "K", "", "The Baidu API key (BAIDU_API_KEY)")
	f.StringP("secret-key", "S", "", "The Baidu secret key (BAIDU_SECRET_KEY)")
	f.StringP("app-id", "A", "", "The Baidu app id (BAIDU_APP_ID)")
	f.Bool("list-formats", false, "List all available subtitle formats")
	f.Bool("list-languages", false, "List all available source languages")

	f.String("config", "", "Path to a TOML config file (AUTOSUB_CONFIG)")
	f.String("engine", "baidu", "Speech recognition engine: baidu or whispercpp")
	f.Int("retries", 3, "Recognition attempts per region")
	f.String("on-error", "skip", "What to do when a region cannot be recognized: skip or abort")
	f.String("cache-db", "", "SQLite file caching recognition results")
	f.String("log-level", "info", "Log level: debug, info, warn or error")
	f.String("log-format", "console", "Log format: console or json")
	f.Bool("no-progress", false, "Disable progress bars")

	return root
}
