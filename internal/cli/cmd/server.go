package cmd

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"octopanel/internal/cli/ui"
	"octopanel/internal/dashboard"
	"octopanel/pkg/sdk"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Manage servers",
}

var createReq sdk.CreateServerRequest

var serverCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new server",
	Run: func(cmd *cobra.Command, args []string) {
		handleCreate(createReq)
	},
}

var serverListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all servers",
	Run: func(cmd *cobra.Command, args []string) {
		handleList()
	},
}

var serverConsoleCmd = &cobra.Command{
	Use:   "console [id]",
	Short: "Open the live console and resource view of a server",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		settings := dashboard.NewSettingsStore(Client, Logger)
		ctx, cancel := requestContext()
		site, err := settings.Load(ctx)
		cancel()
		if err != nil {
			log.Fatalf("Error loading panel settings: %v", err)
		}
		ui.ApplySettings(site)
		if _, err := ui.RunConsole(Client, settings, args[0], Logger); err != nil {
			log.Fatal(err)
		}
	},
}

var filesDir string

var serverFilesCmd = &cobra.Command{
	Use:   "files [id]",
	Short: "List files of a server",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleFiles(args[0], filesDir)
	},
}

var serverDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a server",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleDelete(args[0])
	},
}

func powerCommand(signal, short string) *cobra.Command {
	return &cobra.Command{
		Use:   signal + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			handlePower(args[0], signal)
		},
	}
}

func suspendCommand(suspend bool) *cobra.Command {
	use, short := "suspend", "Suspend a server"
	if !suspend {
		use, short = "unsuspend", "Lift a server suspension"
	}
	return &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := requestContext()
			defer cancel()
			if err := Client.SetSuspended(ctx, args[0], suspend); err != nil {
				log.Fatalf("Error updating server: %v", err)
			}
			fmt.Printf("Server %s %sed.\n", args[0], use)
		},
	}
}

func init() {
	f := serverCreateCmd.Flags()
	f.StringVar(&createReq.Name, "name", "", "Server name")
	f.StringVar(&createReq.Description, "description", "", "Server description")
	f.StringVar(&createReq.Startup, "startup", "", "Startup command")
	f.StringVar(&createReq.StopCommand, "stop-command", "", "Console command used to stop the server (default ^C)")
	f.Int64Var(&createReq.Limits.Memory, "memory", 0, "Memory limit in MB (0 = unlimited)")
	f.Int64Var(&createReq.Limits.Disk, "disk", 0, "Disk limit in MB (0 = unlimited)")
	f.IntVar(&createReq.Limits.CPU, "cpu", 0, "CPU limit in percent (0 = unlimited)")
	serverCreateCmd.MarkFlagRequired("name")
	serverCreateCmd.MarkFlagRequired("startup")

	serverFilesCmd.Flags().StringVar(&filesDir, "dir", "/", "Directory to list")

	serverCmd.AddCommand(
		serverCreateCmd, serverListCmd, serverConsoleCmd, serverFilesCmd, serverDeleteCmd,
		powerCommand("start", "Start a server"),
		powerCommand("stop", "Stop a server"),
		powerCommand("restart", "Restart a server"),
		powerCommand("kill", "Kill a server that is stopping"),
		suspendCommand(true),
		suspendCommand(false),
	)
	RootCmd.AddCommand(serverCmd)
}

func handleCreate(req sdk.CreateServerRequest) {
	ctx, cancel := requestContext()
	defer cancel()
	srv, err := Client.CreateServer(ctx, req)
	if err != nil {
		log.Fatalf("Error creating server: %v", err)
	}
	fmt.Printf("Server %s created with ID %s (%s)\n", srv.Name, srv.ID, dashboard.Address(srv))
}

func handleList() {
	ctx, cancel := requestContext()
	defer cancel()
	servers, err := Client.ListServers(ctx)
	if err != nil {
		log.Fatalf("Error listing servers: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tADDRESS\tCPU\tMEMORY\tDISK")
	for i := range servers {
		s := &servers[i]
		status := "-"
		cpu, mem, disk := "-", "-", "-"
		if label, ok := dashboard.Unavailable(s, nil); ok {
			status = label
		} else if stats, err := Client.GetResources(ctx, s.ID); err == nil {
			status = dashboard.StatusLabel(stats.PowerState)
			cpu = dashboard.CPUGauge(stats.CPUUsagePercent, s.Limits.CPU).Current
			mem = dashboard.MemoryGauge(stats.MemoryUsageInBytes, s.Limits.Memory).Current
			disk = dashboard.DiskGauge(stats.DiskUsageInBytes, s.Limits.Disk).Current
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.Name, status, dashboard.Address(s), cpu, mem, disk)
	}
	w.Flush()
}

func handlePower(id, signal string) {
	ctx, cancel := requestContext()
	defer cancel()
	if err := Client.Power(ctx, id, signal); err != nil {
		log.Fatalf("Error sending %s: %v", signal, err)
	}
	fmt.Printf("%s signal sent.\n", signal)
}

func handleFiles(id, dir string) {
	ctx, cancel := requestContext()
	defer cancel()
	files, err := Client.ListFiles(ctx, id, dir)
	if err != nil {
		log.Fatalf("Error listing files: %v", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED")
	for _, f := range files {
		name, size := f.Name, dashboard.FormatBytes(f.Size)
		if f.IsDirectory {
			name += "/"
			size = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, size, f.LastModified.Format("2006-01-02 15:04"))
	}
	w.Flush()
}

func handleDelete(id string) {
	ctx, cancel := requestContext()
	defer cancel()
	if err := Client.DeleteServer(ctx, id); err != nil {
		log.Fatalf("Error deleting server: %v", err)
	}
	fmt.Println("Server deleted successfully.")
}
