package main

import (
	"context"
	"log"
	"os"

	"github.com/haatos/simple-etl/internal"
	"github.com/haatos/simple-etl/internal/handler"
	"github.com/haatos/simple-etl/internal/service"
	"github.com/haatos/simple-etl/internal/settings"
	"github.com/haatos/simple-etl/internal/store"
	"github.com/haatos/simple-etl/internal/warehouse"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "modernc.org/sqlite"
)

func main() {
	if _, err := os.Stat(internal.DotEnvPath); err == nil {
		settings.ReadDotenv(internal.DotEnvPath)
	}
	settings.Settings = settings.NewSettings()
	rdb := store.InitDatabase(true)
	defer rdb.Close()
	rwdb := store.InitDatabase(false)
	defer rwdb.Close()
	store.RunMigrations(rwdb)

	pg, err := warehouse.NewPostgres(context.Background(), settings.Settings.WarehouseDSN)
	if err != nil {
		log.Fatal("fatal error connecting to warehouse:", err)
	}
	defer pg.Close()

	runStore := store.NewRunSQLiteStore(rdb, rwdb)
	scripts := warehouse.NewDirScriptSource(settings.Settings.ScriptsDir)
	pipelineSvc := service.NewPipelineService(
		runStore,
		pg,
		scripts,
		settings.Settings.PipelinesDir,
	)

	runQueue := service.NewRunQueue(pipelineSvc, settings.Settings.MaxQueuedRuns)
	go runQueue.Run()
	defer runQueue.Shutdown()

	e := setupEcho()
	g := e.Group("")
	handler.SetupPipelineRoutes(g, pipelineSvc, runQueue)

	internal.GracefulShutdown(e, settings.Settings.Port)
}

func setupEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(
		middleware.CORSWithConfig(internal.GetCORSConfig()),
		middleware.RateLimiterWithConfig(internal.GetRateLimiterConfig()),
	)
	return e
}
