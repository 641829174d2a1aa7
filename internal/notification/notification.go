package notification

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/yok-tottii/EzKeymap/internal/i18n"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	// TypeInfo is an informational notification
	TypeInfo NotificationType = "info"
	// TypeWarning is a warning notification
	TypeWarning NotificationType = "warning"
	// TypeError is an error notification
	TypeError NotificationType = "error"
	// TypeSuccess is a success notification
	TypeSuccess NotificationType = "success"
)

// Notification represents a macOS notification
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
}

// Runner executes an AppleScript snippet
type Runner func(script string) error

// osascript runs script through /usr/bin/osascript
func osascript(script string) error {
	return exec.Command("osascript", "-e", script).Run()
}

// NotificationManager handles sending notifications to the user
type NotificationManager struct {
	appName    string
	translator *i18n.Translator
	run        Runner
}

// NewNotificationManager creates a new notification manager. A nil
// translator falls back to the built-in English table.
func NewNotificationManager(appName string, translator *i18n.Translator) *NotificationManager {
	if translator == nil {
		translator = i18n.NewDefault(i18n.LanguageEnglish)
	}
	return &NotificationManager{
		appName:    appName,
		translator: translator,
		run:        osascript,
	}
}

// SetRunner replaces the script runner (テスト用)
func (nm *NotificationManager) SetRunner(run Runner) {
	nm.run = run
}

// quote escapes s as an AppleScript string literal
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// Send sends a notification to the user via macOS notification center
func (nm *NotificationManager) Send(notification *Notification) error {
	if notification == nil {
		return fmt.Errorf("notification cannot be nil")
	}

	script := fmt.Sprintf(
		`display notification %s with title %s`,
		quote(notification.Message),
		quote(notification.Title),
	)

	if err := nm.run(script); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	return nil
}

// SendInfo sends an informational notification
func (nm *NotificationManager) SendInfo(title, message string) error {
	return nm.Send(&Notification{Title: title, Message: message, Type: TypeInfo})
}

// SendError sends an error notification
func (nm *NotificationManager) SendError(title, message string) error {
	return nm.Send(&Notification{Title: title, Message: message, Type: TypeError})
}

// SendSuccess sends a success notification
func (nm *NotificationManager) SendSuccess(title, message string) error {
	return nm.Send(&Notification{Title: title, Message: message, Type: TypeSuccess})
}

// Started announces the manager URL
func (nm *NotificationManager) Started(url string) error {
	return nm.SendInfo(nm.appName, nm.translator.TranslateWithFormat("notification.started", map[string]string{"url": url}))
}

// CheatSheetCopied confirms the tray copy action
func (nm *NotificationManager) CheatSheetCopied() error {
	return nm.SendSuccess(nm.appName, nm.translator.Translate("notification.cheatsheet_copied"))
}

// ClipboardFailed reports a failed copy
func (nm *NotificationManager) ClipboardFailed(reason string) error {
	message := nm.translator.Translate("error.clipboard_failed")
	if reason != "" {
		message += ": " + reason
	}
	return nm.SendError(nm.appName, message)
}

// SaveFailed reports a storage failure
func (nm *NotificationManager) SaveFailed(reason string) error {
	message := nm.translator.Translate("notification.save_failed")
	if reason != "" {
		message += ": " + reason
	}
	return nm.SendError(nm.appName, message)
}
