package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sol1corejz/linkly/cmd/config"
	"github.com/sol1corejz/linkly/internal/client"
	"github.com/sol1corejz/linkly/internal/collection"
	"github.com/sol1corejz/linkly/internal/logger"
	"github.com/sol1corejz/linkly/internal/models"
	"github.com/sol1corejz/linkly/internal/platform"
	"github.com/sol1corejz/linkly/internal/session"
)

// app - зависимости, общие для всех команд.
type app struct {
	in  *bufio.Reader
	out io.Writer

	backend   string
	site      string
	bodyField string
	logLevel  string
	timeout   time.Duration
	yes       bool

	platform *platform.Terminal
	session  *session.Session
	links    *collection.Collection
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{in: bufio.NewReader(in), out: out}

	// Значения по умолчанию берутся из окружения и .env, как у веб-интерфейса.
	envErr := config.LoadEnv()

	root := &cobra.Command{
		Use:           "linkctl",
		Short:         "Manage short links from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if envErr != nil {
				return envErr
			}
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.backend, "backend", "b", config.FlagBackendURL, "backend service base URL")
	flags.StringVarP(&a.site, "site", "o", config.FlagSiteURL, "public origin used to build short links")
	flags.StringVar(&a.bodyField, "body-field", config.FlagBodyField, "request body field carrying the URL: url or originalUrl")
	flags.DurationVarP(&a.timeout, "timeout", "t", config.RequestTimeout, "backend request timeout")
	flags.StringVarP(&a.logLevel, "log-level", "l", "error", "log level")

	root.AddCommand(
		a.shortenCmd(),
		a.listCmd(),
		a.editCmd(),
		a.deleteCmd(),
		a.openCmd(),
		a.statsCmd(),
		a.exportCmd(),
	)
	return root
}

func (a *app) init() error {
	if err := logger.Initialize(a.logLevel); err != nil {
		return err
	}

	field, err := models.ParseBodyField(a.bodyField)
	if err != nil {
		return err
	}

	api, err := client.New(a.backend,
		client.WithBodyField(field),
		client.WithTimeout(a.timeout),
	)
	if err != nil {
		return err
	}

	a.platform = platform.NewTerminal(a.site, a.out)
	a.session = session.New(api)
	a.links = collection.New(api,
		collection.WithPlatform(a.platform),
		collection.WithConfirmer(collection.ConfirmFunc(a.confirm)),
		collection.WithNotifier(collection.NotifyFunc(func(msg string) {
			fmt.Fprintln(a.out, msg)
		})),
	)
	return nil
}

func (a *app) close() {
	if a.session != nil {
		a.session.Close()
	}
	if a.links != nil {
		a.links.Close()
	}
}

// confirm спрашивает подтверждение в терминале. Флаг --yes отвечает за пользователя.
func (a *app) confirm(_ context.Context, prompt string) bool {
	if a.yes {
		return true
	}

	fmt.Fprintf(a.out, "%s [y/N]: ", prompt)
	answer, err := a.in.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// load загружает список перед командами, которые работают с кэшем.
func (a *app) load(ctx context.Context) error {
	if err := a.links.Refresh(ctx); err != nil {
		return fmt.Errorf("%s: %w", collection.MsgFetchFailed, err)
	}
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("Jan 2, 2006")
}
