package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var authUser, authPassword string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the panel",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := requestContext()
		defer cancel()
		resp, err := Client.Login(ctx, authUser, authPassword)
		if err != nil {
			log.Fatalf("Error logging in: %v", err)
		}
		if err := saveToken(resp.Token); err != nil {
			log.Fatalf("Error saving session: %v", err)
		}
		fmt.Printf("Logged in as %s.\n", authUser)
	},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the first administrator account",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := requestContext()
		defer cancel()
		resp, err := Client.Setup(ctx, authUser, authPassword)
		if err != nil {
			log.Fatalf("Error creating administrator: %v", err)
		}
		if err := saveToken(resp.Token); err != nil {
			log.Fatalf("Error saving session: %v", err)
		}
		fmt.Printf("Administrator %s created and logged in.\n", authUser)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the stored session",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := requestContext()
		defer cancel()
		if err := Client.Logout(ctx); err != nil {
			Logger.Warn("logout request failed", "error", err)
		}
		clearToken()
		fmt.Println("Logged out.")
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, setupCmd} {
		c.Flags().StringVarP(&authUser, "username", "u", "", "Username")
		c.Flags().StringVarP(&authPassword, "password", "p", "", "Password")
		c.MarkFlagRequired("username")
		c.MarkFlagRequired("password")
	}
	RootCmd.AddCommand(loginCmd, setupCmd, logoutCmd)
}
