package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/parassareen1/relay-chat/internal/api"
	"github.com/parassareen1/relay-chat/internal/archive"
	"github.com/parassareen1/relay-chat/internal/attach"
	"github.com/parassareen1/relay-chat/internal/broker"
	"github.com/parassareen1/relay-chat/internal/config"
	"github.com/parassareen1/relay-chat/internal/notify"
	"github.com/parassareen1/relay-chat/internal/stats"
	"github.com/parassareen1/relay-chat/internal/store"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	adminKey       string
	archiveDSN     string
	allowedOrigins stringSliceFlag

	s3Bucket    string
	s3Region    string
	s3Endpoint  string
	s3AccessKey string
	s3SecretKey string
	s3PathStyle bool
	s3PublicURL string

	smtpHost     string
	smtpPort     int
	smtpUsername string
	smtpPassword string
	smtpTo       string
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:4000", "server address")
	flag.StringVar(&adminKey, "admin-key", "adminSecretKey", "key required for dashboard REST endpoints")
	flag.StringVar(&archiveDSN, "archive-dsn", "", "postgres connection string for the message archive (disabled if empty)")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")

	flag.StringVar(&s3Bucket, "s3-bucket", "", "bucket for image uploads (uploads disabled if empty)")
	flag.StringVar(&s3Region, "s3-region", "us-east-1", "bucket region")
	flag.StringVar(&s3Endpoint, "s3-endpoint", "", "custom S3 endpoint")
	flag.StringVar(&s3AccessKey, "s3-access-key", "", "S3 access key id")
	flag.StringVar(&s3SecretKey, "s3-secret-key", "", "S3 secret access key")
	flag.BoolVar(&s3PathStyle, "s3-path-style", false, "use path-style S3 addressing")
	flag.StringVar(&s3PublicURL, "s3-public-url", "", "public base URL for uploaded objects")

	flag.StringVar(&smtpHost, "smtp-host", "", "smtp host for connect notifications (disabled if empty)")
	flag.IntVar(&smtpPort, "smtp-port", 587, "smtp port")
	flag.StringVar(&smtpUsername, "smtp-username", "", "smtp username")
	flag.StringVar(&smtpPassword, "smtp-password", "", "smtp password")
	flag.StringVar(&smtpTo, "smtp-to", "", "notification recipient address")
	flag.Parse()

	logger := log.New(os.Stderr, "[relay-chat] ", log.LstdFlags)

	cfg, err := config.NewConfig(addr, adminKey, archiveDSN, allowedOrigins,
		attach.S3Config{
			Bucket:          s3Bucket,
			Region:          s3Region,
			Endpoint:        s3Endpoint,
			AccessKeyID:     s3AccessKey,
			SecretAccessKey: s3SecretKey,
			UsePathStyle:    s3PathStyle,
			PublicURL:       s3PublicURL,
		},
		notify.SMTPConfig{
			Host:     smtpHost,
			Port:     smtpPort,
			Username: smtpUsername,
			Password: smtpPassword,
			To:       smtpTo,
		})
	if err != nil {
		logger.Fatal("config:", err)
	}

	roomStore, err := store.NewMemoryRoomStore()
	if err != nil {
		logger.Fatal("room store:", err)
	}

	var resolver attach.Resolver
	if cfg.S3.Bucket != "" {
		s3Resolver, err := attach.NewS3Resolver(context.Background(), cfg.S3)
		if err != nil {
			logger.Fatal("s3 resolver:", err)
		}
		resolver = s3Resolver
	}

	var notifier notify.Notifier = notify.NoopNotifier{}
	if cfg.SMTP.Host != "" {
		smtpNotifier, err := notify.NewSMTPNotifier(logger, cfg.SMTP)
		if err != nil {
			logger.Fatal("smtp notifier:", err)
		}
		notifier = smtpNotifier
	}

	var archiver broker.MessageArchiver
	if cfg.ArchiveDSN != "" {
		arc, err := archive.Open(logger, cfg.ArchiveDSN)
		if err != nil {
			logger.Fatal("archive open:", err)
		}
		defer func() {
			if err := arc.Close(); err != nil {
				logger.Println("archive close:", err)
			}
		}()
		archiver = arc
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	b, err := broker.NewBroker(logger, roomStore, broker.NewPresenceTracker(0), resolver, archiver, statsUpdater)
	if err != nil {
		logger.Fatal("new broker:", err)
	}

	srv := api.NewRelayApp(mux, logger, b, roomStore, notifier, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go b.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down broker...")
	if err := b.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("broker shutdown:", err)
	}

	logger.Println("shutdown complete")
}
