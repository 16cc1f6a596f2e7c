package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	authEmail    string
	authPassword string
)

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd)
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&authEmail, "email", "e", "", "account email")
		c.Flags().StringVarP(&authPassword, "password", "p", "", "account password (read from stdin when empty)")
		_ = c.MarkFlagRequired("email")
	}
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword()
		if err != nil {
			return err
		}
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}

		token, err := client.Login(cmd.Context(), authEmail, password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		path := tokenFile(cfg.Client)
		if err := saveToken(path, token.AccessToken); err != nil {
			return err
		}
		fmt.Printf("Logged in as %s, token saved to %s\n", authEmail, path)
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword()
		if err != nil {
			return err
		}
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}

		if err := client.Register(cmd.Context(), authEmail, password); err != nil {
			return fmt.Errorf("register: %w", err)
		}
		fmt.Printf("Account %s created, run `shaman login -e %s` next\n", authEmail, authEmail)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored access token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := tokenFile(cfg.Client)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove token: %w", err)
		}
		fmt.Println("Logged out.")
		return nil
	},
}

func readPassword() (string, error) {
	if authPassword != "" {
		return authPassword, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}
