// Command mailer sends one MailRequest XML document through the configured SMTP server.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"basecode-go/internal/logging"
	"basecode-go/internal/notification"
	"basecode-go/internal/repository"
	"basecode-go/pkg/config"
)

func main() {
	path := flag.String("request", "", "path to a MailRequest XML file")
	timeout := flag.Duration("timeout", time.Minute, "give up after this long")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	req, err := notification.LoadMailRequest(*path)
	if err != nil {
		logger.Fatal("invalid mail request", zap.String("path", *path), zap.Error(err))
	}

	db, err := repository.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	defer db.Close()

	sender, err := notification.NewSMTPSender(cfg.Email, logger)
	if err != nil {
		logger.Fatal("invalid smtp settings", zap.Error(err))
	}
	emails := notification.NewEmailService(cfg.Email, cfg.ExceptionEmail, repository.NewEmailTemplateRepository(db), sender, logger)

	if err := emails.SendMailRequest(ctx, *req); err != nil {
		logger.Fatal("mail not sent", zap.Error(err))
	}
	to, cc, bcc := req.Recipients()
	logger.Info("mail sent", zap.Strings("to", to), zap.Strings("cc", cc), zap.Strings("bcc", bcc), zap.String("subject", req.Subject))
}
