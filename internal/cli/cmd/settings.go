package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"octopanel/pkg/sdk"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "View and change panel settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show the public site settings",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := requestContext()
		defer cancel()
		s, err := Client.GetSiteSettings(ctx)
		if err != nil {
			log.Fatalf("Error loading settings: %v", err)
		}
		out, _ := json.MarshalIndent(s, "", "  ")
		fmt.Println(string(out))
	},
}

var (
	settingsValues map[string]string
	settingsLogo   string
)

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update settings keys",
	Example: `  octopanel-cli settings set --set app:name="My Panel" --set theme:card_style=solid
  octopanel-cli settings set --logo ./logo.png`,
	Run: func(cmd *cobra.Command, args []string) {
		handleSetSettings(settingsValues, settingsLogo)
	},
}

func init() {
	settingsSetCmd.Flags().StringToStringVar(&settingsValues, "set", nil, "Setting key=value (repeatable)")
	settingsSetCmd.Flags().StringVar(&settingsLogo, "logo", "", "Path of a logo image to upload")

	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
	RootCmd.AddCommand(settingsCmd)
}

// handleSetSettings merges the given keys into the current values so the
// submission carries every required field.
func handleSetSettings(values map[string]string, logoPath string) {
	if len(values) == 0 && logoPath == "" {
		log.Fatal("Error: nothing to update, pass --set key=value or --logo")
	}

	ctx, cancel := requestContext()
	defer cancel()

	current, err := Client.GetSiteSettings(ctx)
	if err != nil {
		log.Fatalf("Error loading settings: %v", err)
	}
	merged := currentValues(current)
	for k, v := range values {
		merged[k] = v
	}

	var logo *sdk.LogoFile
	if logoPath != "" {
		f, err := os.Open(logoPath)
		if err != nil {
			log.Fatalf("Error opening logo: %v", err)
		}
		defer f.Close()
		logo = &sdk.LogoFile{Name: filepath.Base(logoPath), Content: f}
	}

	res, err := Client.UpdateSettings(ctx, merged, logo)
	if err != nil {
		var apiErr *sdk.APIError
		if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
			fmt.Println("Settings were not saved:")
			keys := make([]string, 0, len(apiErr.Fields))
			for k := range apiErr.Fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("  %s: %s\n", k, apiErr.Fields[k])
			}
			os.Exit(1)
		}
		log.Fatalf("Error updating settings: %v", err)
	}

	if len(res.Failed) > 0 {
		fmt.Println("Some settings could not be saved:")
		for k, msg := range res.Failed {
			fmt.Printf("  %s: %s\n", k, msg)
		}
		os.Exit(1)
	}
	fmt.Println("Settings have been updated successfully.")
}

func currentValues(s *sdk.SiteSettings) map[string]string {
	v := map[string]string{
		"app:name":                      s.Name,
		"app:locale":                    s.Locale,
		"pterodactyl:auth:2fa_required": fmt.Sprint(s.TwoFactor),
		"theme:primary_color":           s.Theme.PrimaryColor,
		"theme:secondary_color":         s.Theme.SecondaryColor,
		"theme:card_style":              s.Theme.CardStyle,
		"theme:border_radius":           fmt.Sprint(s.Theme.BorderRadius),
		"theme:animation_speed":         s.Theme.AnimationSpeed,
		"theme:text_contrast":           fmt.Sprint(s.Theme.TextContrast),
		"theme:custom_css":              s.Theme.CustomCSS,
		"app:logo":                      s.Logo,
	}
	if s.LogoSize > 0 {
		v["app:logo_size"] = fmt.Sprint(s.LogoSize)
	}
	return v
}
