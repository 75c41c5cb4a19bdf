package config

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Account       AccountConfig       `toml:"account"`
	Options       OptionsConfig       `toml:"options"`
	Notifications NotificationsConfig `toml:"notifications"`
}

type AccountConfig struct {
	AuthToken   string `toml:"auth_token"`   // Bearer token, may be overridden by --token or token.txt
	CookiesPath string `toml:"cookies_path"` // Netscape cookies.txt for boosty.to
	UserAgent   string `toml:"user_agent"`
}

type OptionsConfig struct {
	SaveLocation    string `toml:"save_location"`
	UseDatabase     bool   `toml:"use_db"`
	DatabasePath    string `toml:"db_path"` // Optional, defaults to SaveLocation/archive.db
	ForceRedownload bool   `toml:"force_redownload"`
	CheckUpdates    bool   `toml:"check_updates"`
}

type NotificationsConfig struct {
	Enabled          bool   `toml:"enabled"`
	SystemNotify     bool   `toml:"system_notify"`
	DiscordWebhook   string `toml:"discord_webhook"`
	TelegramBotToken string `toml:"telegram_bot_token"`
	TelegramChatID   string `toml:"telegram_chat_id"`
}

func GetConfigPath() string {
	currentDirConfig := "config.toml"
	if _, err := os.Stat(currentDirConfig); err == nil {
		return currentDirConfig
	}

	return filepath.Join(GetConfigDir(), "config.toml")
}

func GetConfigDir() string {
	var configDir string
	var err error

	if runtime.GOOS == "darwin" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatal(err)
		}
		configDir = filepath.Join(homeDir, ".config")
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			log.Fatal(err)
		}
	}

	return filepath.Join(configDir, "boosty-archiver")
}

func SaveConfig(cfg *Config) error {
	file, err := os.Create(GetConfigPath())
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	return encoder.Encode(cfg)
}

func EnsureConfigExists(configPath string) error {
	if _, err := os.Stat(filepath.Dir(configPath)); os.IsNotExist(err) {
		err = os.MkdirAll(filepath.Dir(configPath), os.ModePerm)
		if err != nil {
			return err
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config doesn't exist, check for a local example config first
		exampleConfig := "example-config.toml"
		if _, err := os.Stat(exampleConfig); err == nil {
			if err := CopyFile(exampleConfig, configPath); err == nil {
				return nil
			}
			log.Printf("Failed to copy example config, creating default instead")
		}

		defaultConfig := CreateDefaultConfig()
		if err := SaveConfig(defaultConfig); err != nil {
			return fmt.Errorf("failed to create default config: %w", err)
		}
	}

	return nil
}

func LoadConfig(configPath string) (*Config, error) {
	var config Config
	_, err := toml.DecodeFile(configPath, &config)
	if err != nil {
		return nil, err
	}

	if config.Options.SaveLocation == "" {
		return nil, fmt.Errorf("save_location is empty in %v", configPath)
	}

	config.Options.SaveLocation = filepath.ToSlash(config.Options.SaveLocation)
	if config.Account.CookiesPath == "" {
		config.Account.CookiesPath = "cookies.txt"
	}

	return &config, nil
}

func CreateDefaultConfig() *Config {
	return &Config{
		Account: AccountConfig{
			AuthToken:   "",
			CookiesPath: "cookies.txt",
			UserAgent:   "",
		},
		Options: OptionsConfig{
			SaveLocation:    ".",
			UseDatabase:     false,
			DatabasePath:    "",
			ForceRedownload: false,
			CheckUpdates:    false,
		},
		Notifications: NotificationsConfig{
			Enabled:      false,
			SystemNotify: true,
		},
	}
}

// ResolveDatabasePath returns the sqlite ledger path for a run.
func ResolveDatabasePath(cfg *Config) string {
	if cfg.Options.DatabasePath != "" {
		return filepath.ToSlash(cfg.Options.DatabasePath)
	}
	return filepath.ToSlash(filepath.Join(cfg.Options.SaveLocation, "archive.db"))
}

func CopyFile(srcPath string, dstPath string) error {
	srcFile, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	_, err = io.Copy(dstFile, srcFile)
	return err
}
