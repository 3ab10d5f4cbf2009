package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go_4_interview_prep/internal/config"
	"go_4_interview_prep/internal/logging"
	"go_4_interview_prep/internal/notify"
)

const usage = `usage: notifyctl [flags] <status|subscribe|unsubscribe|update>

flags:
`

// 端末 (ヘッドレス) 側からプッシュ通知の購読を操作するコマンド
func main() {
	configDir := flag.String("config", "configs", "directory containing config.yaml")
	server := flag.String("server", "http://localhost:8080/api/v1", "API base URL")
	stateDir := flag.String("state-dir", ".notifyctl", "directory for the local subscription and preferences")
	email := flag.String("email", "", "email address for notifications")
	companies := flag.String("companies", "", "comma separated companies (empty means all)")
	keywords := flag.String("keywords", "", "comma separated keywords")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := config.LoadConfig(*configDir); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(os.Stderr, config.Cfg.Log.Level)

	if err := os.MkdirAll(*stateDir, 0o700); err != nil {
		log.Fatalf("Failed to create state dir: %v", err)
	}
	platform, err := notify.NewHeadlessPlatform(notify.HeadlessOptions{
		EndpointBase: strings.TrimRight(*server, "/") + "/push",
		StatePath:    filepath.Join(*stateDir, "subscription.json"),
		AutoGrant:    true,
	})
	if err != nil {
		log.Fatalf("Failed to init platform: %v", err)
	}
	timeout := time.Duration(config.Cfg.App.ClientTimeoutSec) * time.Second
	backend := notify.NewHTTPBackend(*server, timeout)
	store := notify.NewFilePreferenceStore(filepath.Join(*stateDir, "preferences.json"))

	ctx, cancel := context.WithTimeout(context.Background(), 3*timeout)
	defer cancel()

	lc := notify.NewLifecycle(platform, backend, store, logger)
	if err := lc.Init(ctx); err != nil {
		logger.Warn("Failed to sync subscription with server", "error", err)
	}

	switch flag.Arg(0) {
	case "status":
	case "subscribe":
		err = lc.Subscribe(ctx, notify.Preferences{
			Email:     optional(*email),
			Companies: splitList(*companies),
			Keywords:  splitList(*keywords),
		})
	case "unsubscribe":
		err = lc.Unsubscribe(ctx)
	case "update":
		err = lc.UpdatePreferences(ctx, splitList(*companies), splitList(*keywords), optional(*email))
	default:
		flag.Usage()
		os.Exit(2)
	}

	printStatus(lc.Status())
	if err != nil {
		log.Fatalf("%s failed: %v", flag.Arg(0), err)
	}
}

func printStatus(st notify.Status) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		log.Printf("Failed to print status: %v", err)
	}
}

func splitList(s string) []string {
	out := []string{}
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
