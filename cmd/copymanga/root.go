package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/CknightX/CopyMangaDownloader/pkg/app"
	"github.com/CknightX/CopyMangaDownloader/pkg/config"
	"github.com/CknightX/CopyMangaDownloader/pkg/logging"
	"github.com/CknightX/CopyMangaDownloader/pkg/services"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	cfgFile   string
	cfg       *config.Config
	logger    = logging.NullLogger()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "copymanga",
	Short: "Download manga chapters from CopyManga",
	Long: `Download chapter ranges from CopyManga, keep watched series up to date
and retry failed pages. Run without a command in a terminal to open the menu.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
			return cmd.Help()
		}
		return withController(cmd, func(ctx context.Context, c *services.MangaController) error {
			return app.NewApp(c).Run(ctx)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/copymanga/config.yaml)")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(chaptersCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(exportCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.LoadConfig(cfgFile)
	if err != nil {
		return err
	}

	l, closer, err := logging.SetupLogger(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
		return nil
	}
	logger, logCloser = l, closer
	return nil
}

// withController builds the controller for one command and releases it afterwards. Failed
// downloads still in the ledger are persisted on the way out so `retry` can pick them up.
func withController(cmd *cobra.Command, fn func(ctx context.Context, c *services.MangaController) error) (err error) {
	c, err := services.NewMangaController(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, c.Close())
	}()
	return fn(cmd.Context(), c)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}
