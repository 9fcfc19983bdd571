package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	dbsqlite "github.com/Baldarello/localization-pro-sub001/internal/adapters/db/sqlite"
	"github.com/Baldarello/localization-pro-sub001/internal/adapters/mail"
	"github.com/Baldarello/localization-pro-sub001/internal/adapters/notify"
	"github.com/Baldarello/localization-pro-sub001/internal/api/httpserver"
	"github.com/Baldarello/localization-pro-sub001/internal/config"
	"github.com/Baldarello/localization-pro-sub001/internal/ports"
	projectsusecase "github.com/Baldarello/localization-pro-sub001/internal/usecase/projects"
	transferusecase "github.com/Baldarello/localization-pro-sub001/internal/usecase/transfer"
	versioningusecase "github.com/Baldarello/localization-pro-sub001/internal/usecase/versioning"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "c", "config.toml", "path to config file")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}

	db, err := dbsqlite.Init(cfg.DB.Path)
	if err != nil {
		log.Fatal("init database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	projectRepo := dbsqlite.NewProjectRepo(db)
	branchRepo := dbsqlite.NewBranchRepo(db)
	commitRepo := dbsqlite.NewCommitRepo(db)
	memberRepo := dbsqlite.NewMemberRepo(db)

	emitters := notify.Multi{notify.NewLogEmitter(log)}
	if cfg.Notify.WebhookURL != "" {
		timeout := time.Duration(cfg.Notify.TimeoutSeconds) * time.Second
		emitters = append(emitters, notify.NewWebhookEmitter(cfg.Notify.WebhookURL, timeout, log))
	}

	var mailer ports.Mailer = mail.Noop{}
	if cfg.Mail.BaseURL != "" {
		mailer = mail.NewRelay(cfg.Mail.BaseURL, cfg.Mail.APIKey, cfg.Mail.From)
	}

	versioningSvc := versioningusecase.New(versioningusecase.Deps{
		Projects: projectRepo,
		Branches: branchRepo,
		Commits:  commitRepo,
		Members:  memberRepo,
		Mailer:   mailer,
		Emitter:  emitters,
		Log:      log,
	})
	projectsSvc := projectsusecase.New(projectsusecase.Deps{
		Projects: projectRepo,
		Members:  memberRepo,
		Log:      log,
	})
	transferSvc := transferusecase.New(versioningSvc)

	srv := httpserver.New(httpserver.Deps{
		Versioning: versioningSvc,
		Projects:   projectsSvc,
		Transfer:   transferSvc,
		Log:        log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpSrv := &http.Server{Addr: addr, Handler: srv.Handler()}

	go func() {
		log.Info("listening", zap.String("addr", addr))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("serve", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
}
