package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"openchat/internal/chatclient"
	"openchat/internal/identity"
)

var loginByID string

var registerCmd = &cobra.Command{
	Use:   "register NICKNAME",
	Short: "Register a nickname and save the identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(nil)
		if err != nil {
			return err
		}
		ok, err := c.Available(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("nickname %q is taken; use login if it is yours", args[0])
		}
		auth, err := c.Register(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return saveAuth(cmd, auth)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login [NICKNAME]",
	Short: "Log in by nickname or user id and save the identity",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nickname := ""
		if len(args) == 1 {
			nickname = args[0]
		}
		if nickname == "" && loginByID == "" {
			return errors.New("give a nickname or --id")
		}
		c, err := newClient(nil)
		if err != nil {
			return err
		}
		auth, err := c.Login(cmd.Context(), loginByID, nickname)
		if err != nil {
			return err
		}
		return saveAuth(cmd, auth)
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the saved identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := store.Load()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s  %s\n", identity.DisplayHandle(rec.Nickname), rec.Nickname)
		fmt.Fprintf(out, "id:    %s\n", rec.ID)
		fmt.Fprintf(out, "code:  %s\n", identity.ShortCode(rec.ID))
		if rec.Token != "" {
			fmt.Fprintf(out, "token: expires %s\n", rec.ExpiresAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return store.Clear()
	},
}

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List members and who is online",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient(nil)
		if err != nil {
			return err
		}
		members, online, err := c.Members(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, m := range members {
			mark := " "
			if m.Online {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %-2s %s\n", mark, identity.DisplayHandle(m.Nickname), m.Nickname)
		}
		fmt.Fprintf(out, "%d members, %d online\n", len(members), online)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginByID, "id", "", "Log in with a user id instead of a nickname")
}

func saveAuth(cmd *cobra.Command, auth *chatclient.Auth) error {
	rec := identity.Record{
		ID:        auth.User.ID,
		Nickname:  auth.User.Nickname,
		Token:     auth.Token,
		ExpiresAt: auth.ExpiresAt,
	}
	if err := store.Save(rec); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s), code %s\n",
		rec.Nickname, identity.DisplayHandle(rec.Nickname), auth.ShareableCode)
	return nil
}
