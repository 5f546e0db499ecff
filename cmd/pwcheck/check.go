package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pandamasta/pwcheck/db"
	"github.com/pandamasta/pwcheck/handlers"
	"github.com/pandamasta/pwcheck/internal/config"
	"github.com/pandamasta/pwcheck/models"
	"github.com/pandamasta/pwcheck/password"
)

// errInvalidPassword makes the process exit with status 1 without printing an error.
var errInvalidPassword = errors.New("password is invalid")

type checkOptions struct {
	username    string
	password    string
	hasPassword bool
	json        bool
	verbose     bool
}

func newCheckCmd() *cobra.Command {
	var opts checkOptions
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check one password",
		Long: `Check one password against the rules. Without --password the password is
read from the first line of stdin. Exits 1 when the password is invalid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.hasPassword = cmd.Flags().Changed("password")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			var store handlers.CheckStore
			if cfg.DB.Path != "" {
				conn, err := db.Open(cmd.Context(), cfg.DB.Path)
				if err != nil {
					return err
				}
				defer conn.Close()
				store = models.NewStore(conn)
			}
			return runCheck(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), store, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.username, "username", "u", "", "username the password must not contain")
	cmd.Flags().StringVarP(&opts.password, "password", "p", "", "password to check (default: read from stdin)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the result as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "print the rule diagnostic to stderr")
	return cmd
}

func runCheck(ctx context.Context, in io.Reader, out, errOut io.Writer, store handlers.CheckStore, opts checkOptions) error {
	pw := opts.password
	if !opts.hasPassword {
		line, err := readLine(in)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		pw = line
	}

	var observers []password.Observer
	if opts.verbose {
		observers = append(observers, password.ObserverFunc(func(d password.Diagnostic) {
			fmt.Fprintf(errOut, "%s: %s\n", d.Level, d.Message)
		}))
	}
	res := password.NewValidator(observers...).Validate(pw, opts.username)

	if store != nil {
		if err := store.Record(ctx, res, opts.username, handlers.SourceCLI); err != nil {
			slog.Warn("[CHECK] Failed to record check", "err", err)
		}
	}

	if opts.json {
		if err := json.NewEncoder(out).Encode(res); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	} else {
		view := handlers.NewResultView(res)
		if res.Valid() {
			fmt.Fprintln(out, view.Text)
		} else {
			fmt.Fprintf(out, "%s (%s) %s\n", view.Text, view.Reason, view.Detail)
		}
	}

	if !res.Valid() {
		return errInvalidPassword
	}
	return nil
}

// readLine returns the first line of in without its line terminator.
// Empty input is an empty password, not an error.
func readLine(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
