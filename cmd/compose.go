package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/textvault/textvault/internal/composer"
	"github.com/textvault/textvault/internal/config"
	"github.com/textvault/textvault/internal/di"
	"github.com/textvault/textvault/internal/editor"
	"github.com/textvault/textvault/internal/language"
	"github.com/textvault/textvault/internal/logging"
	"github.com/textvault/textvault/internal/session"
)

var (
	composeFile     string
	composeTitle    string
	composeLanguage string
	composeWatch    bool
	composeDryRun   bool
	composeFormat   string
)

var composeCmd = &cobra.Command{
	Use:     "compose",
	Aliases: []string{"c"},
	Short:   "Compose and submit a paste",
	Long: `Compose a paste from a file or stdin and submit it.

With --watch the file is used as the editor: edit it in any editor, and
press Enter here to submit its current contents. Ctrl-D stops.

Examples:
  textvault compose --file main.go --language go
  cat notes.txt | textvault compose --title notes
  textvault compose --file draft.py --language python --watch
  textvault compose --file main.rs --language rust --dry-run -o yaml`,
	Args: cobra.NoArgs,
	RunE: runCompose,
}

func init() {
	rootCmd.AddCommand(composeCmd)

	composeCmd.Flags().StringVarP(&composeFile, "file", "f", "-", "File to read the content from (- for stdin)")
	composeCmd.Flags().StringVarP(&composeTitle, "title", "t", "", "Paste title")
	composeCmd.Flags().StringVar(&composeLanguage, "language", language.Default.String(), "Syntax-highlighting language")
	composeCmd.Flags().BoolVarP(&composeWatch, "watch", "w", false, "Watch the file and submit on Enter")
	composeCmd.Flags().BoolVar(&composeDryRun, "dry-run", false, "Print the payload instead of submitting it")
	addOutputFlag(composeCmd, &composeFormat, FormatJSON, FormatYAML)
}

// composeResult is what compose prints per submission.
type composeResult struct {
	Status  string            `json:"status" yaml:"status"`
	Payload *composer.Payload `json:"payload,omitempty" yaml:"payload,omitempty"`
	Hash    string            `json:"hash,omitempty" yaml:"hash,omitempty"`
	URL     string            `json:"url,omitempty" yaml:"url,omitempty"`
	Reasons []string          `json:"reasons,omitempty" yaml:"reasons,omitempty"`
	Error   string            `json:"error,omitempty" yaml:"error,omitempty"`
}

func runCompose(cmd *cobra.Command, args []string) error {
	tag, err := language.Parse(composeLanguage)
	if err != nil {
		return err
	}
	if composeWatch && composeFile == "-" {
		return fmt.Errorf("--watch needs --file")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	container := di.NewServiceContainer(cfg)
	container.SetLogOutput(cmd.ErrOrStderr())
	if composeDryRun {
		container.RegisterInstance(di.ServiceSink, composer.SinkFunc(
			func(context.Context, composer.Payload) (composer.Receipt, error) {
				return composer.Receipt{}, nil
			}))
	}
	if err := container.Initialize(); err != nil {
		return err
	}
	defer container.Shutdown(context.Background())

	logger, err := container.Logger()
	if err != nil {
		return err
	}
	sink, err := container.Sink()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := composer.Options{
		Sink:        sink,
		SettleDelay: cfg.Editor.SettleDelay,
		Logger:      logger,
	}
	if cfg.Submit.Validate {
		opts.Validator = composer.Validate
	}

	if composeWatch {
		return composeWatching(ctx, cmd, opts, tag, logger)
	}
	return composeOnce(ctx, cmd, opts, tag)
}

func composeOnce(ctx context.Context, cmd *cobra.Command, opts composer.Options, tag language.Tag) error {
	content, err := readContent(cmd, composeFile)
	if err != nil {
		return err
	}

	buffer := editor.NewBuffer()
	opts.Surface = buffer

	c := composer.New(opts)
	defer c.Close()

	c.SetTitle(composeTitle)
	c.SetLanguage(tag)
	buffer.Edit(content)

	return reportOutcome(cmd.OutOrStdout(), c.Submit(ctx))
}

// composeWatching drives a composer from a watched file. Each line on stdin
// submits the file's current contents.
func composeWatching(ctx context.Context, cmd *cobra.Command, opts composer.Options, tag language.Tag, logger logging.Logger) error {
	surface, err := editor.NewFileSurface(composeFile, editor.DefaultDebounce, logger)
	if err != nil {
		return err
	}
	defer surface.Close()

	status := cmd.ErrOrStderr()
	opts.Surface = surface
	opts.ReadySignal = true
	opts.OnRender = func(s composer.Snapshot) {
		if s.Placeholder() {
			return
		}
		fmt.Fprintf(status, "\r%s [%s] %d bytes", composeFile, s.Language, len(s.Content))
	}

	c := composer.New(opts)
	defer c.Close()

	c.SetTitle(composeTitle)
	c.SetLanguage(tag)

	if err := surface.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(status, "Watching %s. Press Enter to submit, Ctrl-D to stop.\n", composeFile)

	lines := make(chan struct{})
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case lines <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var lastErr error
	for {
		select {
		case <-ctx.Done():
			return lastErr
		case _, ok := <-lines:
			if !ok {
				return lastErr
			}
			fmt.Fprintln(status)
			lastErr = reportOutcome(cmd.OutOrStdout(), c.Submit(ctx))
			if lastErr != nil {
				fmt.Fprintln(status, lastErr)
			}
		}
	}
}

func readContent(cmd *cobra.Command, path string) (string, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func reportOutcome(out io.Writer, o composer.Outcome) error {
	msg := session.OutcomeMessage(o)
	result := composeResult{
		Status:  msg.Status,
		Hash:    msg.Hash,
		URL:     msg.URL,
		Reasons: msg.Reasons,
		Error:   msg.Error,
	}
	if composeDryRun || !o.OK() {
		payload := o.Payload
		result.Payload = &payload
	}

	if err := writeStructured(out, composeFormat, result); err != nil {
		return err
	}
	if !o.OK() {
		return fmt.Errorf("paste %s", o.Status)
	}
	return nil
}
