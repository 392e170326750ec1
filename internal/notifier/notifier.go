// Package notifier delivers reminders to the desktop tray application and
// schedules the mood and task reminders.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/logger"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

var ErrTrayNotRunning = errors.New("modtrackin-tray is not running")

// Reminder is one notification.
type Reminder struct {
	Title   string
	Message string
}

func (r Reminder) text() string {
	if r.Message == "" {
		return r.Title
	}
	return r.Title + "\n" + r.Message
}

// Sender delivers a reminder.
type Sender interface {
	Send(ctx context.Context, r Reminder) error
}

type WebhookPayload struct {
	Text       string `json:"text"`
	DurationMs uint32 `json:"duration_ms"`
}

// TraySender posts reminders to the tray app's local webhook, found through
// the lockfile it writes on startup.
type TraySender struct {
	client *http.Client
}

func NewTraySender() *TraySender {
	return &TraySender{client: &http.Client{}}
}

func (s *TraySender) Send(ctx context.Context, r Reminder) error {
	trayAppConfigPath, err := GetTrayAppConfigDir()
	if err != nil {
		return err
	}

	port, secret, err := findAndValidateTrayProcess(filepath.Join(trayAppConfigPath, constants.NotifierLockfileName))
	if err != nil {
		return err
	}

	payload := WebhookPayload{
		Text:       r.text(),
		DurationMs: constants.NotificationDurationMs,
	}
	return s.post(ctx, "http://127.0.0.1:"+port, secret, payload)
}

// GetTrayAppConfigDir returns the directory holding the tray app's lockfile.
// A lockfile_dir in the tray's settings.json overrides the default.
func GetTrayAppConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}

	trayConfigDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	data, err := os.ReadFile(filepath.Join(trayConfigDir, "settings.json"))
	if err != nil {
		return trayConfigDir, nil
	}
	var store struct {
		Settings struct {
			LockfileDir *string `json:"lockfile_dir"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(data, &store); err == nil {
		if dir := store.Settings.LockfileDir; dir != nil && *dir != "" {
			return *dir, nil
		}
	}
	return trayConfigDir, nil
}

// findAndValidateTrayProcess reads "port|pid|secret" from the lockfile and
// checks that pid is a live tray process.
func findAndValidateTrayProcess(lockfilePath string) (string, string, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return "", "", ErrTrayNotRunning
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", errors.New("lockfile is malformed")
	}

	port := strings.TrimSpace(parts[0])
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", "", errors.New("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", "", fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", "", errors.New("invalid process ID in lockfile")
	}
	secret := strings.TrimSpace(parts[2])
	if secret == "" {
		return "", "", errors.New("secret in lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", "", ErrTrayNotRunning
	}
	if !strings.HasPrefix(process.Executable(), "modtrackin-tray") {
		return "", "", fmt.Errorf("process with PID %d is not modtrackin-tray (is %s)", pid, process.Executable())
	}

	return port, secret, nil
}

func (s *TraySender) post(ctx context.Context, url, secret string, payload WebhookPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Modtrackin-Secret", secret)

	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(body))
}

// LogSender writes reminders to the log.
type LogSender struct{}

func (LogSender) Send(_ context.Context, r Reminder) error {
	logger.Info("reminder", "title", r.Title, "message", r.Message)
	return nil
}

// Fallback tries Primary and hands the reminder to Secondary when it fails.
type Fallback struct {
	Primary   Sender
	Secondary Sender
}

func (f Fallback) Send(ctx context.Context, r Reminder) error {
	err := f.Primary.Send(ctx, r)
	if err == nil {
		return nil
	}
	logger.Debug("primary reminder sender failed", "error", err)
	return f.Secondary.Send(ctx, r)
}

// DefaultSender posts to the tray and logs when the tray is unavailable.
func DefaultSender() Sender {
	return Fallback{Primary: NewTraySender(), Secondary: LogSender{}}
}
