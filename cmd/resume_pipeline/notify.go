package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newNotifyCmd() *cobra.Command {
	var (
		message    string
		parseMode  string
		configPath string
	)
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send a message to the configured Telegram chat",
		Long:  "Sends one raw message through the notification channel. Useful for checking TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(message) == "" {
				return errors.New("--message is required")
			}
			cfg, err := loadSettings(configPath)
			if err != nil {
				return err
			}
			var missing []string
			if cfg.TelegramBotToken == "" {
				missing = append(missing, "TELEGRAM_BOT_TOKEN")
			}
			if cfg.TelegramChatID == "" {
				missing = append(missing, "TELEGRAM_CHAT_ID")
			}
			if len(missing) > 0 {
				return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
			}

			log := newLogger(cfg, false, cmd.ErrOrStderr())
			if !newNotifier(cfg, log).Send(cmd.Context(), message, parseMode) {
				return errors.New("failed to send notification")
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Notification sent")
			return nil
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "Message text")
	cmd.Flags().StringVar(&parseMode, "parse-mode", "", "Telegram parse mode: Markdown, MarkdownV2 or HTML")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file overriding the environment")
	return cmd
}
