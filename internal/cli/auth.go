package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/auth"
	"github.com/BuzzLyutic/shared-todo/internal/client"
	"github.com/BuzzLyutic/shared-todo/internal/model"
)

func newRegisterCmd(app *App) *cobra.Command {
	var pin, color string
	cmd := &cobra.Command{
		Use:   "register <name>",
		Short: "Create a household member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !auth.IsValidPin(pin) {
				return auth.ErrInvalidPin
			}
			u, err := app.api().Register(cmd.Context(), model.RegisterRequest{Name: args[0], Pin: pin, Color: color})
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Registered %s (%s)\n", u.Name, u.Color)
			return nil
		},
	}
	cmd.Flags().StringVar(&pin, "pin", "", "4-digit PIN")
	cmd.Flags().StringVar(&color, "color", "", "Display color, e.g. #3b82f6")
	_ = cmd.MarkFlagRequired("pin")
	return cmd
}

func newLoginCmd(app *App) *cobra.Command {
	var pin string
	cmd := &cobra.Command{
		Use:   "login <name>",
		Short: "Sign in with a PIN",
		Long:  "Sign in with a PIN. Without --pin the PIN is read from stdin; three wrong PINs lock the user out for 30 seconds.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api := app.api()
			authn := client.NewAuthenticator(api, app.sessions(), app.Logger)

			attempt := func(p string) error {
				sess, err := authn.Login(cmd.Context(), args[0], p)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Signed in as %s\n", sess.UserName)
				app.welcome(cmd, api, sess)
				return nil
			}
			if pin != "" {
				return attempt(pin)
			}

			scanner := bufio.NewScanner(app.In)
			for {
				fmt.Fprint(app.Out, "PIN: ")
				if !scanner.Scan() {
					fmt.Fprintln(app.Out)
					return errors.New("login aborted")
				}
				err := attempt(strings.TrimSpace(scanner.Text()))
				var wrong client.WrongPinError
				var locked client.LockedOutError
				switch {
				case err == nil:
					return nil
				case errors.As(err, &wrong):
					if wrong.LockedFor > 0 {
						fmt.Fprintln(app.Out, "Wrong PIN. Too many attempts.")
						app.countdown(wrong.LockedFor)
						continue
					}
					fmt.Fprintf(app.Out, "Wrong PIN, %d attempts remaining.\n", wrong.AttemptsRemaining)
				case errors.As(err, &locked):
					app.countdown(locked.Remaining)
				case errors.Is(err, client.ErrInvalid):
					fmt.Fprintln(app.Out, "PIN must be exactly 4 digits.")
				default:
					return err
				}
			}
		},
	}
	cmd.Flags().StringVar(&pin, "pin", "", "4-digit PIN (single attempt)")
	return cmd
}

// countdown prints the remaining lockout once per second.
func (app *App) countdown(d time.Duration) {
	for s := auth.RemainingSeconds(d); s > 0; s-- {
		fmt.Fprintf(app.Out, "\rLocked, try again in %2ds", s)
		app.sleep(time.Second)
	}
	fmt.Fprintln(app.Out, "\rYou can try again now.      ")
}

// welcome greets a user once per calendar day.
func (app *App) welcome(cmd *cobra.Command, api *client.API, sess auth.Session) {
	u, err := api.FindUser(cmd.Context(), sess.UserName)
	if err != nil {
		return
	}
	if u.LastWelcomeAt != nil && sameDay(*u.LastWelcomeAt, app.now()) {
		return
	}
	fmt.Fprintf(app.Out, "Welcome back, %s!\n", u.Name)
	if err := api.MarkWelcomed(cmd.Context(), u.ID); err != nil {
		app.Logger.Debug("Mark welcomed failed", zap.Error(err))
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Local().Date()
	by, bm, bd := b.Local().Date()
	return ay == by && am == bm && ad == bd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.NewAuthenticator(app.api(), app.sessions(), app.Logger).Logout(); err != nil {
				return err
			}
			fmt.Fprintln(app.Out, "Signed out")
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.session()
			if err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "%s (since %s)\n", sess.UserName, sess.LoggedInAt.Format(time.DateTime))
			return nil
		},
	}
}
