package cmd

import (
	"fmt"
	"log"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "Manage the allocation port range",
}

var portsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Get port range",
	Run: func(cmd *cobra.Command, args []string) {
		handleGetPortRange()
	},
}

var portsStart, portsEnd int
var portsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set port range",
	Run: func(cmd *cobra.Command, args []string) {
		if portsStart == 0 || portsEnd == 0 {
			log.Fatal("Error: You must specify both --start and --end flags to update the port range")
		}
		handleSetPortRange(portsStart, portsEnd)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the panel version and check for updates",
	Run: func(cmd *cobra.Command, args []string) {
		handleCheckUpdates()
	},
}

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open the admin settings page in a browser",
	Run: func(cmd *cobra.Command, args []string) {
		url := Client.BaseURL() + "/admin/settings"
		if err := browser.OpenURL(url); err != nil {
			log.Fatalf("Error opening browser: %v", err)
		}
		fmt.Printf("Opened %s\n", url)
	},
}

func init() {
	portsSetCmd.Flags().IntVar(&portsStart, "start", 0, "Start port")
	portsSetCmd.Flags().IntVar(&portsEnd, "end", 0, "End port")
	portsCmd.AddCommand(portsGetCmd, portsSetCmd)

	RootCmd.AddCommand(portsCmd, versionCmd, openCmd)
}

func handleGetPortRange() {
	ctx, cancel := requestContext()
	defer cancel()
	pr, err := Client.GetPortRange(ctx)
	if err != nil {
		log.Fatalf("Error getting port range: %v", err)
	}
	fmt.Println("\n--- PORT CONFIGURATION ---")
	fmt.Printf("Start port: %d\n", pr.Start)
	fmt.Printf("End port:   %d\n", pr.End)
	fmt.Printf("Range:      %d ports available\n", pr.End-pr.Start+1)
}

func handleSetPortRange(start, end int) {
	ctx, cancel := requestContext()
	defer cancel()
	if err := Client.SetPortRange(ctx, start, end); err != nil {
		log.Fatalf("Error setting port range: %v", err)
	}
	fmt.Println("Port configuration updated successfully!")
	fmt.Printf("New range: %d - %d\n", start, end)
}

func handleCheckUpdates() {
	ctx, cancel := requestContext()
	defer cancel()
	info, err := Client.CheckUpdates(ctx)
	if err != nil {
		log.Fatalf("Error checking updates: %v", err)
	}

	fmt.Println("\n--- VERSION ---")
	fmt.Printf("Current version: %s\n", info.CurrentVersion)
	fmt.Printf("Latest version:  %s\n", info.LatestVersion)

	switch {
	case info.Error != "":
		fmt.Printf("\nCould not check for updates: %s\n", info.Error)
	case info.UpdateAvailable:
		fmt.Println("\nUpdate available!")
		fmt.Printf("Download it here: %s\n", info.ReleaseURL)
	default:
		fmt.Println("\nYou are up to date.")
	}
}
