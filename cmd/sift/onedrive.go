package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xblaster/sift/internal/cloudapi"
	"github.com/xblaster/sift/internal/orchestrator/cloud"
)

// graphBaseURL and deviceCodeEndpoints target the Microsoft Graph-shaped API
// spec.md's Cloud Delta Client is defined against: read/write files plus
// offline access for the refresh token, the only scopes the move/lookup/
// create/delta endpoints require.
const graphBaseURL = "https://graph.microsoft.com/v1.0/me/drive"

var deviceCodeEndpoints = cloudapi.DeviceCodeEndpoints{
	DeviceAuthURL: "https://login.microsoftonline.com/common/oauth2/v2.0/devicecode",
	TokenURL:      "https://login.microsoftonline.com/common/oauth2/v2.0/token",
}

var deviceCodeScopes = []string{"Files.ReadWrite", "offline_access"}

// cachedTokenSource adapts the cached/refreshed/device-code token ladder to
// cloudapi.TokenSource, the interface GraphClient consumes.
type cachedTokenSource struct {
	cfg       cloudapi.DeviceCodeConfig
	cachePath string
	http      *http.Client
}

func (c *cachedTokenSource) Token(ctx context.Context) (string, error) {
	tok, err := cloudapi.EnsureToken(ctx, c.http, c.cfg, c.cachePath, promptDeviceCode)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

func promptDeviceCode(verificationURI, userCode string) {
	color.New(color.FgCyan, color.Bold).Printf("To sign in, visit %s and enter code %s\n", verificationURI, userCode)
}

func newOnedriveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onedrive",
		Short: "Organize a OneDrive-style cloud drive without downloading file contents",
	}
	cmd.AddCommand(newOnedriveScanCmd(), newOnedriveOrganizeCmd(), newOnedriveLogoutCmd())
	return cmd
}

func newGraphClient(clientID string) (*cloudapi.GraphClient, error) {
	cachePath, err := tokenPath()
	if err != nil {
		return nil, fmt.Errorf("onedrive: resolve token cache path: %w", err)
	}
	cfg := cloudapi.DeviceCodeConfig{
		ClientID:  clientID,
		Scopes:    deviceCodeScopes,
		Endpoints: deviceCodeEndpoints,
	}
	tokens := &cachedTokenSource{cfg: cfg, cachePath: cachePath, http: http.DefaultClient}
	return cloudapi.NewGraphClient(graphBaseURL, tokens), nil
}

func newOnedriveScanCmd() *cobra.Command {
	var clientID string
	var full bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the cloud drive's delta feed and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newGraphClient(clientID)
			if err != nil {
				return err
			}

			cursor := ""
			if !full {
				statePath, err := deltaStatePath()
				if err != nil {
					return fmt.Errorf("onedrive scan: resolve delta state path: %w", err)
				}
				state, err := cloudapi.LoadDeltaState(statePath)
				if err != nil {
					return fmt.Errorf("onedrive scan: %w", err)
				}
				cursor = state.Cursor
			}

			records, newCursor, err := cloudapi.ScanAll(context.Background(), client, cursor)
			if err != nil {
				return fmt.Errorf("onedrive scan: %w", err)
			}

			dated, deleted := 0, 0
			for _, r := range records {
				if r.Deleted {
					deleted++
				} else if r.HasDate {
					dated++
				}
			}

			fmt.Printf("scanned %d items (%d dated, %d deleted), cursor now %q\n", len(records), dated, deleted, newCursor)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 application client id")
	cmd.Flags().BoolVar(&full, "full", false, "ignore any stored delta cursor and scan from the root")
	cmd.MarkFlagRequired("client-id")
	return cmd
}

func newOnedriveOrganizeCmd() *cobra.Command {
	var clientID string
	var destFolder string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Organize the cloud drive into a chronological tree via metadata-only moves",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newGraphClient(clientID)
			if err != nil {
				return err
			}

			statePath, err := deltaStatePath()
			if err != nil {
				return fmt.Errorf("onedrive organize: resolve delta state path: %w", err)
			}

			rootID, err := client.GetItemByPath(context.Background(), destFolder)
			if err != nil {
				return fmt.Errorf("onedrive organize: resolve destination folder %q: %w", destFolder, err)
			}

			cfg := cloud.Config{
				DestFolderID:   rootID,
				DestFolderPath: destFolder,
				StatePath:      statePath,
				DryRun:         dryRun,
			}

			summary, err := cloud.Run(context.Background(), cfg, client, client, client)
			if err != nil {
				return fmt.Errorf("onedrive organize: %w", err)
			}

			printCloudSummary(summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 application client id")
	cmd.Flags().StringVar(&destFolder, "dest-folder", "/Photos", "destination root folder path on the drive")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report planned moves without performing them")
	cmd.MarkFlagRequired("client-id")
	return cmd
}

func newOnedriveLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the cached OneDrive token and delta state",
		RunE: func(cmd *cobra.Command, args []string) error {
			tp, err := tokenPath()
			if err != nil {
				return err
			}
			dp, err := deltaStatePath()
			if err != nil {
				return err
			}
			if err := cloudapi.ClearToken(tp); err != nil {
				return fmt.Errorf("onedrive logout: %w", err)
			}
			if err := cloudapi.ClearDeltaState(dp); err != nil {
				return fmt.Errorf("onedrive logout: %w", err)
			}
			color.New(color.FgGreen).Println("logged out")
			return nil
		},
	}
}

func printCloudSummary(s cloud.Summary) {
	for _, w := range s.Warnings {
		color.New(color.FgYellow).Println(w)
	}
	fmt.Println()
	if len(s.Plan) > 0 {
		for _, p := range s.Plan {
			fmt.Printf("would move %s -> %s\n", p.Name, p.DestFolder)
		}
	}
	color.New(color.FgGreen).Printf("Moved: %d, ", s.Moved)
	color.New(color.FgYellow).Printf("Skipped: %d, NoDate: %d, ", s.Skipped, s.NoDate)
	fmt.Printf("Scanned: %d\n", s.Scanned)
}
