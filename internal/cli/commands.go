package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"portfolio-go/internal/dashboard"
	"portfolio-go/pkg/hash"
)

func (a *app) loginCmd() *cobra.Command {
	var uid, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var err error
			if uid == "" {
				if uid, err = a.readLine(out, "Username: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = a.readLine(out, "Password: "); err != nil {
					return err
				}
			}
			gw := dashboard.NewHTTPGateway(a.server, "", nil)
			tok, err := gw.Login(cmd.Context(), uid, password)
			if err != nil {
				return err
			}
			if err := a.saveToken(tok); err != nil {
				return err
			}
			fmt.Fprintln(out, "Logged in successfully")
			return nil
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "Admin username")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted when empty)")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Destroy the session and forget the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.gateway().Logout(cmd.Context())
			if rmErr := a.clearToken(); rmErr != nil && err == nil {
				err = rmErr
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the stored session is still valid",
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := a.gateway().Authenticated(cmd.Context())
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s\n", a.server)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Not logged in to %s\n", a.server)
			}
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	var details bool
	cmd := &cobra.Command{
		Use:   "list <table>",
		Short: "List the rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			rows := m.Rows()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No rows.")
				return nil
			}
			for _, row := range rows {
				fmt.Fprintf(out, "#%-4d %s\n", row.ID(), strings.Join(m.Summary(row), " | "))
				if !details {
					continue
				}
				for _, d := range m.Details(row) {
					fmt.Fprintf(out, "      %s: %s\n", d.Label, d.Value)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&details, "details", false, "Show every non-empty field")
	return cmd
}

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <table> key=value...",
		Short: "Add a row",
		Example: `  portfolioctl add skills name=Rust category=Core level=70 order=16
  portfolioctl add projects title=Site technologies="Go, Gin" featured=yes`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			pairs, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			for _, p := range pairs {
				if err := m.SetDraft(p[0], p[1]); err != nil {
					return err
				}
			}
			row, err := m.Create(cmd.Context())
			if err != nil {
				return err
			}
			printNotice(cmd.OutOrStdout(), m)
			fmt.Fprintf(cmd.OutOrStdout(), "#%d %s\n", row.ID(), strings.Join(m.Summary(row), " | "))
			return nil
		},
	}
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(id), nil
}

func (a *app) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <table> <id> key=value...",
		Short: "Change fields of a row",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			pairs, err := parseAssignments(args[2:])
			if err != nil {
				return err
			}
			m, err := a.manager(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			if err := m.BeginEdit(id); err != nil {
				return err
			}
			for _, p := range pairs {
				if err := m.SetEdit(p[0], p[1]); err != nil {
					m.CancelEdit()
					return err
				}
			}
			if err := m.SaveEdit(cmd.Context()); err != nil {
				return err
			}
			printNotice(cmd.OutOrStdout(), m)
			return nil
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <table> <id>",
		Short: "Delete a row after confirmation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			var confirm dashboard.Confirmer = stdinConfirmer{a: a, out: cmd.OutOrStdout()}
			if yes {
				confirm = dashboard.ConfirmFunc(func(_ context.Context, _ string) bool { return true })
			}
			m, err := a.manager(cmd.Context(), args[0], confirm)
			if err != nil {
				return err
			}
			deleted, err := m.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !deleted {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
			printNotice(cmd.OutOrStdout(), m)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func (a *app) levelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "level <skill-id> <0-100>",
		Short: "Set a skill's proficiency level immediately",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			level, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid level %q", args[1])
			}
			m, err := a.manager(cmd.Context(), "skills", nil)
			if err != nil {
				return err
			}
			if err := m.SetSkillLevel(cmd.Context(), id, level); err != nil {
				return err
			}
			printNotice(cmd.OutOrStdout(), m)
			return nil
		},
	}
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for admin.password_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := hash.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}
