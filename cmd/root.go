package cmd

import (
	"context"
	"time"

	"github.com/casapress/casapress/core/config"
	coreDB "github.com/casapress/casapress/core/database"
	domainCRM "github.com/casapress/casapress/domains/crm"
	domainDraft "github.com/casapress/casapress/domains/draft"
	domainPublish "github.com/casapress/casapress/domains/publish"
	"github.com/casapress/casapress/infrastructure/valkey"
	"github.com/casapress/casapress/integrations/metagraph"
	"github.com/casapress/casapress/pkg/jobworker"
	"github.com/casapress/casapress/pkg/utils"
	"github.com/casapress/casapress/providers"
	"github.com/casapress/casapress/publishing/application"
	"github.com/casapress/casapress/publishing/channels"
	"github.com/casapress/casapress/publishing/repository"
	"github.com/casapress/casapress/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Flag overrides
	flagPort      string
	flagDebug     bool
	flagBasicAuth []string
	flagDBDriver  string
	flagDBName    string

	// Infrastructure
	vkClient    *valkey.Client
	contentRepo *repository.ContentGormRepository
	crmRepo     *repository.CRMGormRepository
	workerPool  *jobworker.Pool
	scheduler   *application.PublishScheduler

	appCancel context.CancelFunc

	// Usecases
	draftUsecase   domainDraft.IDraftUsecase
	publishUsecase domainPublish.IPublishUsecase
	crmUsecase     domainCRM.ICRMUsecase
)

var rootCmd = &cobra.Command{
	Use:   "casapress",
	Short: "Multi-channel property publishing API",
	Long: `Casapress turns one property record into AI-drafted posts across
languages and channels, tracks each draft through an editorial lifecycle
and publishes to website, Facebook and Instagram.`,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initEnvConfig, initApp)
}

func initFlags() {
	rootCmd.PersistentFlags().StringVarP(
		&flagPort,
		"port", "p",
		"",
		"change port number with --port <number> | example: --port=8080",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&flagDebug,
		"debug", "d",
		false,
		"hide or displaying log with --debug <true/false> | example: --debug=true",
	)
	rootCmd.PersistentFlags().StringSliceVarP(
		&flagBasicAuth,
		"basic-auth", "b",
		nil,
		"basic auth credential | -b=yourUsername:yourPassword",
	)
	rootCmd.PersistentFlags().StringVarP(
		&flagDBDriver,
		"db-driver", "",
		"",
		`database driver --db-driver <string> | example: --db-driver="postgres"`,
	)
	rootCmd.PersistentFlags().StringVarP(
		&flagDBName,
		"db-name", "",
		"",
		`database name (file path for sqlite) --db-name <string> | example: --db-name="storages/publishing.db"`,
	)
}

// initEnvConfig loads configuration and applies viper/flag overrides.
func initEnvConfig() {
	if _, err := config.LoadConfig(); err != nil {
		logrus.Fatalf("failed to load configuration: %v", err)
	}

	if envPort := viper.GetString("app_port"); envPort != "" {
		config.Global.App.Port = envPort
	}
	if viper.IsSet("app_debug") {
		config.Global.App.Debug = viper.GetBool("app_debug")
	}

	if flagPort != "" {
		config.Global.App.Port = flagPort
	}
	if flagDebug {
		config.Global.App.Debug = true
	}
	if len(flagBasicAuth) > 0 {
		config.Global.App.BasicAuth = flagBasicAuth
	}
	if flagDBDriver != "" {
		config.Global.Database.Driver = flagDBDriver
	}
	if flagDBName != "" {
		config.Global.Database.Name = flagDBName
	}
}

// initApp wires repositories, providers, channels and usecases.
func initApp() {
	cfg := config.Global

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := utils.CreateFolder(cfg.Paths.Storages); err != nil {
		logrus.Errorln(err)
	}

	var appCtx context.Context
	appCtx, appCancel = context.WithCancel(context.Background())

	db, err := coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("failed to open database: %v", err)
	}

	contentRepo = repository.NewContentGormRepository(db)
	if err := contentRepo.Init(appCtx); err != nil {
		logrus.Fatalf("failed to init content repository: %v", err)
	}
	crmRepo = repository.NewCRMGormRepository(db)
	if err := crmRepo.Init(appCtx); err != nil {
		logrus.Fatalf("failed to init crm repository: %v", err)
	}

	// Valkey is optional; without it scheduled publishes fall back to
	// database polling.
	if cfg.Database.ValkeyEnabled {
		vkClient, err = valkey.NewClient(valkey.Config{
			Address:   cfg.Database.ValkeyAddress,
			Password:  cfg.Database.ValkeyPassword,
			DB:        cfg.Database.ValkeyDB,
			KeyPrefix: cfg.Database.ValkeyKeyPrefix,
		})
		if err != nil {
			logrus.WithError(err).Warn("[APP] Valkey unavailable, continuing without it")
			vkClient = nil
		}
	}

	textProvider, err := providers.NewFromConfig(cfg)
	if err != nil {
		logrus.Fatalf("failed to init text provider: %v", err)
	}
	generator := application.NewContentGenerator(
		textProvider,
		time.Duration(cfg.Generator.TimeoutSeconds)*time.Second,
		cfg.Generator.DefaultTone,
		cfg.Generator.DefaultLength,
	)

	graphClient := metagraph.NewClient(cfg.Channels.GraphBaseURL)
	registry := channels.NewRegistry()
	registry.Register(channels.NewWebsitePublisher(crmRepo))
	registry.Register(channels.NewFacebookPublisher(graphClient, crmRepo))
	registry.Register(channels.NewInstagramPublisher(graphClient, crmRepo))

	workerPool = jobworker.NewPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize)
	workerPool.Start(appCtx)

	orchestrator := application.NewOrchestrator(
		contentRepo,
		crmRepo,
		generator,
		registry,
		workerPool,
		time.Duration(cfg.Channels.GraphTimeoutSeconds)*time.Second,
	)

	scheduler = application.NewPublishScheduler(contentRepo, orchestrator, vkClient)
	scheduler.StartLoop(appCtx)

	draftUsecase = usecase.NewDraftService(contentRepo, orchestrator)
	publishUsecase = usecase.NewPublishService(contentRepo, orchestrator)
	crmUsecase = usecase.NewCRMService(crmRepo)
}

// StopApp shuts subsystems down in reverse dependency order.
func StopApp() {
	if appCancel != nil {
		appCancel()
	}
	if workerPool != nil {
		workerPool.Stop()
	}
	if vkClient != nil {
		vkClient.Close()
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatalln(err)
	}
}
