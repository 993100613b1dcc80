package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AppProvider interface {
	Run() error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
}

type App struct {
	logger         *zap.Logger
	config         *Config
	server         *http.Server
	redisClient    *redis.Client
	logWriter      *RotatingFileWriter
	flusher        func() error
	cleanups       []func() error
	queueConsumers []func(context.Context) error
}

// NewApp provides an instance of App.
func NewApp(configFile, envFile string) (AppProvider, error) {
	config, err := LoadAndInitConfigs(configFile, envFile, GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %s", err)
	}

	// ensure the logs folder exists and Setup the logging module.
	err = os.MkdirAll(config.LogFolder, 0o700)
	if err != nil {
		return nil, fmt.Errorf("failed to create logging folder: %s", err)
	}
	clock := NewClock(config.IsProduction)
	logWriter := NewRotatingFileWriter(config, clock)
	logger, flusher := SetupLogging(config, logWriter, clock)

	app := &App{
		logger:    logger,
		config:    config,
		logWriter: logWriter,
		flusher:   flusher,
	}

	// Setup the connection to redis server only when a component needs it.
	if config.RedisRequired() {
		app.redisClient, err = GetRedisClient(config)
		if err != nil {
			_ = app.redisClient.Close()
			app.Clean()
			return nil, fmt.Errorf("failed to connect to redis server: %s", err)
		}
		app.cleanups = append(app.cleanups, app.redisClient.Close)
	}

	// Setup the catalog storage and restore its initial content.
	storage, closer, err := NewBookStorage(logger, config, app.redisClient)
	if err != nil {
		app.Clean()
		return nil, fmt.Errorf("failed to setup %s storage: %s", config.Storage.Driver, err)
	}
	app.cleanups = append(app.cleanups, closer)

	if err = SeedBookStorage(context.Background(), storage, SeedBooks()); err != nil {
		app.Clean()
		return nil, fmt.Errorf("failed to seed %s storage: %s", config.Storage.Driver, err)
	}

	// Setup the catalog events publisher and its consumers.
	var publisher Publisher
	switch config.Events.Driver {
	case RedisEvents:
		queue := NewRedisQueue(app.redisClient)
		publisher = queue
		if config.Events.MirrorEnable {
			consume, err := app.setupMirror(queue)
			if err != nil {
				app.Clean()
				return nil, err
			}
			app.queueConsumers = append(app.queueConsumers, consume)
		}
	case AMQPEvents:
		broker, err := NewAMQPPublisher(&config.AMQP)
		if err != nil {
			app.Clean()
			return nil, fmt.Errorf("failed to connect to amqp server: %s", err)
		}
		app.cleanups = append(app.cleanups, broker.Close)
		publisher = broker
	default:
		publisher = noopPublisher{}
	}

	bookService := NewBookService(logger, config, storage, publisher)
	apiService := NewAPIHandler(
		logger,
		config,
		&Statistics{
			version:   config.GitTag,
			container: IsAppRunningInDocker(),
			started:   clock.Now(),
			runtime:   runtime.Version(),
			platform:  runtime.GOOS + "/" + runtime.GOARCH,
		},
		clock,
		NewIDsHandler(),
		bookService,
	)

	// Use git commit in case the tag is not set.
	if config.GitTag == "" {
		apiService.stats.version = config.GitCommit
	}

	// Build the map of middlewares stacks.
	middlewaresPublic, middlewaresOps := apiService.MiddlewaresStacks()

	// Configure the endpoints with their handlers and middlewares.
	router := apiService.SetupRoutes(httprouter.New(),
		&MiddlewareMap{
			public: middlewaresPublic.Chain,
			ops:    middlewaresOps.Chain,
		},
	)
	// Wrap the router with the default http timeout handler.
	routerWithTimeout := http.TimeoutHandler(
		router,
		config.Server.RequestTimeout,
		"Timeout. Processing taking too long. Please reach out to support.")

	// Build the api server definition.
	app.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
		Handler:        routerWithTimeout,
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // Max headers size : 1MB
	}

	logger.Info("api server configured",
		zap.String("app.storage", config.Storage.Driver),
		zap.String("app.events", config.Events.Driver),
		zap.Bool("app.mirror", config.Events.MirrorEnable),
	)
	return app, nil
}

// setupMirror opens the bolt storage fed by the redis queue consumer.
func (app *App) setupMirror(queue Queuer) (func(context.Context) error, error) {
	client, err := GetBoltDBClient(&app.config.BoltDB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to boltDB server: %s", err)
	}
	mirror := NewBoltBookStorage(app.logger, &app.config.BoltDB, client)
	app.cleanups = append(app.cleanups, mirror.Close)
	if err = ResetMirror(context.Background(), queue, mirror, SeedBooks(), CreateQueue, DeleteQueue); err != nil {
		return nil, fmt.Errorf("failed to reset mirror storage: %s", err)
	}
	consumer := NewMirrorConsumer(app.logger, queue, mirror)
	return func(ctx context.Context) error {
		return consumer.Consume(ctx, CreateQueue, DeleteQueue)
	}, nil
}

// Run starts the api web server and a goroutine which is responsible to stop it.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)

	g.Go(app.ConsumeQueues(gCtx, g))
	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("api server stopped",
		zap.String("app.host", app.config.Server.Host),
		zap.String("app.port", app.config.Server.Port),
		zap.Error(err),
	)
	return err
}

// Clean calls all registered cleanups functions in reverse order
// then flushes and closes the logs file.
func (app *App) Clean() {
	for i := len(app.cleanups) - 1; i >= 0; i-- {
		if err := app.cleanups[i](); err != nil {
			app.logger.Error("failed to clean resource", zap.Error(err))
		}
	}
	app.cleanups = nil
	if err := app.flusher(); err != nil {
		fmt.Println("error during flushing of logs:", err)
	}
	if err := app.logWriter.Close(); err != nil {
		fmt.Println("error during closing of log file:", err)
	}
}

// Serve starts the api web server. It returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("api server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
		)
		err := app.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return err
	}
}

// Stop listens for the group context and triggers the server graceful shutdown.
// It states the reason of its call. We proceed with a brutal shutdown if the
// the graceful did not complete successfully. We explicitly return `nil` to
// allow the errorgroup catches only the `Serve` method result.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("api server stopping. reason: requested to stop")
		} else {
			app.logger.Info("api server stopping. reason: errored at running")
		}

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch {
		case err == nil, errors.Is(err, http.ErrServerClosed):
			app.logger.Info("api server graceful shutdown succeeded")
		case errors.Is(err, context.DeadlineExceeded):
			app.logger.Info("api server graceful shutdown timed out")
		default:
			app.logger.Info("api server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Info("api server going to force shutdown", zap.Error(app.server.Close()))
		}
		return nil
	}
}

// ConsumeQueues runs all queue consumers into separate controlled goroutines.
func (app *App) ConsumeQueues(gCtx context.Context, g *errgroup.Group) func() error {
	return func() error {
		for _, consume := range app.queueConsumers {
			consume := consume
			g.Go(func() error {
				return consume(gCtx)
			})
		}
		return nil
	}
}
