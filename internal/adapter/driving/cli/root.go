// Package cli is the terminal driving adapter behind diaryctl.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/mydiary/internal/application"
	"github.com/ericfisherdev/mydiary/internal/domain/model"
	"github.com/ericfisherdev/mydiary/internal/domain/port/driven"
)

// annotationOpen marks commands that run without unlocking the diary.
const annotationOpen = "mydiary/open"

var (
	errNoPassword    = errors.New("no diary password set; run `diaryctl passwd` first")
	errWrongPassword = errors.New("❌ wrong password")
)

// Deps are the services the commands drive.
type Deps struct {
	Diary       *application.DiaryService
	Gate        *application.CredentialGate
	Calendar    *application.CalendarService
	Exports     *application.ExportService
	Attachments driven.AttachmentStore
	Logger      *slog.Logger

	// Password defaults to TerminalPassword on the process stdin/stderr.
	Password PasswordReader
	// Now defaults to time.Now.
	Now func() time.Time
	// MarkdownStyle is a glamour style name; "" picks one automatically.
	MarkdownStyle string
}

type app struct {
	Deps
}

// NewRootCommand builds the diaryctl command tree. Every command except
// passwd asks for the diary password first.
func NewRootCommand(deps Deps) *cobra.Command {
	if deps.Password == nil {
		deps.Password = TerminalPassword(os.Stdin, os.Stderr)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a := &app{Deps: deps}

	root := &cobra.Command{
		Use:               "diaryctl",
		Short:             "Write, read and export your diary from the terminal",
		SilenceUsage:      true,
		PersistentPreRunE: a.unlock,
	}
	root.AddCommand(
		a.passwdCmd(),
		a.writeCmd(),
		a.showCmd(),
		a.listCmd(),
		a.calendarCmd(),
		a.exportCmd(),
	)
	return root
}

// unlock gates every command behind the diary password.
func (a *app) unlock(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[annotationOpen] == "true" {
		return nil
	}
	ctx := cmd.Context()

	state, err := a.Gate.State(ctx)
	if err != nil {
		return fmt.Errorf("read credential state: %w", err)
	}
	if state == model.CredentialUnset {
		return errNoPassword
	}
	pw, err := a.Password("🔒 Password: ")
	if err != nil {
		return err
	}
	if !a.Gate.Validate(ctx, pw) {
		return errWrongPassword
	}
	return nil
}

func (a *app) passwdCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "passwd",
		Short:       "Set or change the diary password",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationOpen: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			state, err := a.Gate.State(ctx)
			if err != nil {
				return fmt.Errorf("read credential state: %w", err)
			}
			if state == model.CredentialSet {
				current, err := a.Password("Current password: ")
				if err != nil {
					return err
				}
				if !a.Gate.Validate(ctx, current) {
					return errWrongPassword
				}
			}

			pw, err := a.Password("New password: ")
			if err != nil {
				return err
			}
			again, err := a.Password("Repeat new password: ")
			if err != nil {
				return err
			}
			if pw != again {
				return errors.New("passwords do not match")
			}

			if err := a.Gate.SetCredential(ctx, pw); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ password set")
			return nil
		},
	}
}

// dateArg parses an optional YYYY-MM-DD argument; "today" and no argument
// both mean the current date.
func (a *app) dateArg(args []string) (model.Date, error) {
	if len(args) == 0 || strings.EqualFold(args[0], "today") {
		return model.DateOf(a.Now()), nil
	}
	return model.ParseDate(args[0])
}
