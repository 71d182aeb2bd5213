// Command demo serves a users resource with HAL responses.
//
//	demo --config halrest.yml
//	demo --listen :8080 --storage mem
//
// Then:
//
//	http POST :8080/api/users name="John Doe" email=john@example.com password=secret
//	http :8080/api/users items_per_page==10 page==2
//	http PATCH :8080/api/users/<id> name="John"
//	http :8080/api/users q=='{"name": {"$like": "John%"}}' fields==name
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli"

	"github.com/rs/halrest/config"
)

func main() {
	app := cli.NewApp()
	app.Name = "demo"
	app.Usage = "serve a HAL users resource"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "path to a YAML configuration file",
			EnvVar: "HALREST_CONFIG",
		},
		cli.StringFlag{
			Name:  "listen, l",
			Usage: "address to listen on, overrides the configuration",
		},
		cli.StringFlag{
			Name:  "storage, s",
			Usage: "storage driver (mem, mysql or pgx), overrides the configuration",
		},
		cli.StringFlag{
			Name:  "dsn",
			Usage: "storage data source name, overrides the configuration",
		},
	}
	app.Action = serve
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("")
	}
}

func serve(c *cli.Context) error {
	conf, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if v := c.String("listen"); v != "" {
		conf.Listen = v
	}
	if v := c.String("storage"); v != "" {
		conf.Storage.Driver = v
	}
	if v := c.String("dsn"); v != "" {
		conf.Storage.DSN = v
	}
	if err := conf.Validate(); err != nil {
		return err
	}
	level, _ := conf.Level()
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, closer, err := newServer(ctx, conf, log.Logger)
	if err != nil {
		return errors.Wrap(err, "invalid API configuration")
	}
	defer closer()

	srv := &http.Server{Addr: conf.Listen, Handler: h}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()
	log.Info().Str("listen", conf.Listen).Str("storage", conf.Storage.Driver).Msgf("Serving API on http://%s%s/users", conf.Listen, conf.BasePath)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
