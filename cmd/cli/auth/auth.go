package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/crucial707/hci-todo/cmd/cli/client"
	"github.com/crucial707/hci-todo/cmd/cli/config"
	"github.com/spf13/cobra"
)

type profile struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// InitAuth registers register, login, logout and whoami on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(
		registerCmd(),
		loginCmd(),
		logoutCmd(),
		whoamiCmd(),
	)
}

// ==========================
// Register
// ==========================
func registerCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new user",
		Long:  "Register a new user with username and password. Missing values are prompted for.",
		RunE: func(cmd *cobra.Command, args []string) error {
			promptMissing(cmd, &username, &password)

			var p profile
			if _, err := client.Call("POST", "/auth/register", credentials(username, password), &p, false); err != nil {
				return fmt.Errorf("register: %w", err)
			}

			fmt.Printf("User %q registered (id %d). You can now login.\n", p.Username, p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username to register")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

// ==========================
// Login (stores the session cookie)
// ==========================
func loginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the todo API",
		Long:  "Authenticate with the todo API and store the session cookie for subsequent CLI commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			promptMissing(cmd, &username, &password)

			var p profile
			resp, err := client.Call("POST", "/auth/login", credentials(username, password), &p, false)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}

			cookie := sessionCookie(resp.Cookies())
			if cookie == nil {
				return errors.New("login succeeded but no session cookie returned")
			}
			if err := config.SaveSession(cookie.Name + "=" + cookie.Value); err != nil {
				return fmt.Errorf("save session: %w", err)
			}

			fmt.Printf("Logged in as %s (%s). Session stored locally.\n", p.Username, p.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Username to authenticate as")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

// ==========================
// Logout
// ==========================
func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and remove the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.LoadSession(); errors.Is(err, config.ErrNotLoggedIn) {
				fmt.Println("No user logged in.")
				return nil
			}

			// The server revokes the session; the local file goes regardless.
			_, callErr := client.Call("POST", "/auth/logout", nil, nil, true)
			if _, err := config.ClearSession(); err != nil {
				return err
			}
			if callErr != nil {
				fmt.Println("Local session removed; server logout failed:", callErr)
				return nil
			}

			fmt.Println("Logged out successfully.")
			return nil
		},
	}
}

// ==========================
// Whoami
// ==========================
func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			var p profile
			if _, err := client.Call("GET", "/auth/me", nil, &p, true); err != nil {
				var apiErr *client.APIError
				if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
					return config.ErrNotLoggedIn
				}
				return err
			}

			fmt.Printf("%s (id %d, role %s)\n", p.Username, p.ID, p.Role)
			return nil
		},
	}
}

func credentials(username, password string) map[string]string {
	return map[string]string{
		"username": username,
		"password": password,
	}
}

func promptMissing(cmd *cobra.Command, username, password *string) {
	in := cmd.InOrStdin()
	if strings.TrimSpace(*username) == "" {
		fmt.Print("Username: ")
		fmt.Fscanln(in, username)
	}
	if *password == "" {
		fmt.Print("Password: ")
		fmt.Fscanln(in, password)
	}
}

// sessionCookie picks the session cookie out of a login response.
func sessionCookie(cookies []*http.Cookie) *http.Cookie {
	for _, c := range cookies {
		if c.Value != "" && c.MaxAge >= 0 {
			return c
		}
	}
	return nil
}
