package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/adminfeed/internal/api"
	"github.com/nhle/adminfeed/internal/bridge"
	"github.com/nhle/adminfeed/internal/model"
)

// --- notifications ---

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"n"},
	Short:   "List and manage notifications of a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return notificationsListCmd.RunE(cmd, args)
	},
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the notification feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		unreadOnly, _ := cmd.Flags().GetBool("unread")
		asJSON, _ := cmd.Flags().GetBool("json")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), "/notifications")
		if err != nil {
			return err
		}

		var feed api.FeedResponse
		if err := decodeJSON(resp, &feed); err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(feed)
		}
		writeFeed(os.Stdout, feed, unreadOnly)
		return nil
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark one notification read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/notifications/"+url.PathEscape(args[0])+"/read", nil)
		if err != nil {
			return err
		}

		var result map[string]int
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Marked read, %d unread", result["unreadCount"])
		return nil
	},
}

var notificationsReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification read",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/notifications/read-all", nil)
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("All notifications marked read")
		return nil
	},
}

var notificationsSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Inject a notification without waiting for a poll",
	Long: `Inject a notification without waiting for a poll.

Examples:
  adminfeed notifications send --title "Deploy finished" --message "v1.4.2 is live"
  adminfeed notifications send --type contact --title "Call back" --message "Ada asked for a call"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, _ := cmd.Flags().GetString("type")
		title, _ := cmd.Flags().GetString("title")
		message, _ := cmd.Flags().GetString("message")
		icon, _ := cmd.Flags().GetString("icon")

		ev := bridge.NotifyEvent{
			Type:    model.NotificationType(typ),
			Title:   title,
			Message: message,
			Icon:    icon,
		}
		if err := ev.Validate(); err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/notifications", ev)
		if err != nil {
			return err
		}

		var result map[string]int
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Sent, %d unread", result["unreadCount"])
		return nil
	},
}

func init() {
	notificationsListCmd.Flags().Bool("unread", false, "only show unread notifications")
	notificationsListCmd.Flags().Bool("json", false, "print the raw feed as JSON")
	notificationsCmd.Flags().AddFlagSet(notificationsListCmd.Flags())

	notificationsSendCmd.Flags().String("type", string(model.NotificationSystem), "notification type: contact, portfolio or system")
	notificationsSendCmd.Flags().String("title", "", "notification title (required)")
	notificationsSendCmd.Flags().String("message", "", "notification message")
	notificationsSendCmd.Flags().String("icon", "", "display glyph (defaults per type)")

	notificationsCmd.AddCommand(notificationsListCmd, notificationsReadCmd, notificationsReadAllCmd, notificationsSendCmd)
}

// --- analytics ---

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show dashboard analytics",
	RunE: func(cmd *cobra.Command, args []string) error {
		reset, _ := cmd.Flags().GetBool("reset-visits")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		var resp *http.Response
		if reset {
			resp, err = client.delete(cmd.Context(), "/analytics/visits")
		} else {
			resp, err = client.get(cmd.Context(), "/analytics")
		}
		if err != nil {
			return err
		}

		var a model.Analytics
		if err := decodeJSON(resp, &a); err != nil {
			return err
		}
		if reset {
			printSuccess("Page visits reset")
		}
		writeAnalytics(os.Stdout, a)
		return nil
	},
}

func init() {
	analyticsCmd.Flags().Bool("reset-visits", false, "reset the page-visit counter upstream first")
}

// --- refresh ---

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Ask a running server to poll now",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/refresh", nil)
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Refresh requested")
		return nil
	},
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server and config status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			printError("config error: %v", err)
			return nil
		}

		serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
		hc := &http.Client{Timeout: 2 * time.Second}
		resp, err := hc.Get(serverURL + "/health")
		if err != nil {
			printStatus("Server", "stopped")
		} else {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				printStatus("Server", "running on port %d", cfg.Server.Port)
			} else {
				printStatus("Server", "error (HTTP %d)", resp.StatusCode)
			}
		}

		printStatus("API", "%s", cfg.API.BaseURL)
		printStatus("Detection", "every %ds", cfg.Poll.DetectionIntervalSec)
		printStatus("Analytics", "every %ds", cfg.Poll.AnalyticsIntervalSec)
		printStatus("Data dir", "%s", cfg.Storage.DataDir)
		printStatus("Config", "%s", configPath)
		return nil
	},
}
