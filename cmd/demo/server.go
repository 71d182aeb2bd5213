package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/justinas/alice"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/rs/halrest/auth"
	"github.com/rs/halrest/config"
	"github.com/rs/halrest/entity"
	"github.com/rs/halrest/mapper"
	"github.com/rs/halrest/mapper/mem"
	"github.com/rs/halrest/mapper/sqlmapper"
	"github.com/rs/halrest/rest"
	"github.com/rs/halrest/schema"
)

var (
	// Define a user resource schema
	user = schema.Schema{
		Description: "A user of the API",
		Fields: schema.Fields{
			"id":      schema.IDField,
			"created": schema.CreatedField,
			"updated": schema.UpdatedField,
			"name": {
				Required:   true,
				Filterable: true,
				Sortable:   true,
				Validator: &schema.String{
					MaxLen: 150,
				},
			},
			"email": {
				Required:   true,
				Filterable: true,
				Sortable:   true,
				Validator: &schema.String{
					Regexp: "^[^@ ]+@[^@ ]+$",
				},
			},
			// Stored as a bcrypt hash and never rendered.
			"password": schema.PasswordField,
		},
	}

	userKind = entity.MustNewKind("user", &user, "created", "updated", "name", "email", "password")
)

// newMapper returns the mapper selected by the storage configuration and a
// function releasing its resources.
func newMapper(ctx context.Context, conf config.Storage) (mapper.Mapper, func(), error) {
	if conf.Driver == "mem" {
		if conf.Latency > 0 {
			return mem.NewSlow(userKind, conf.Latency), func() {}, nil
		}
		return mem.New(userKind), func() {}, nil
	}
	db, d, err := sqlmapper.Open(ctx, conf.Driver, conf.DSN)
	if err != nil {
		return nil, nil, err
	}
	return sqlmapper.New(db, d, conf.Table, userKind), func() { db.Close() }, nil
}

// newServer builds the API handler with its middleware chain.
func newServer(ctx context.Context, conf config.Config, logger zerolog.Logger) (http.Handler, func(), error) {
	m, closer, err := newMapper(ctx, conf.Storage)
	if err != nil {
		return nil, nil, err
	}
	m = mapper.Log(m, "users")
	if conf.Breaker.Enabled {
		m = mapper.Breaker(m, "users", conf.Breaker.Command())
	}

	api, err := rest.NewHandler(rest.NewMapperResource("users", m), conf.BasePath+"/users")
	if err != nil {
		closer()
		return nil, nil, err
	}
	api.RequestTimeout = conf.RequestTimeout
	api.MaxItemsPerPage = conf.MaxItemsPerPage

	router := chi.NewRouter()
	router.Get(conf.BasePath+"/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	rest.Mount(router, api)

	c := alice.New()

	// Install a logger
	c = c.Append(hlog.NewHandler(logger))
	c = c.Append(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("url", r.URL.String()).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("")
	}))
	c = c.Append(hlog.RemoteAddrHandler("ip"))
	c = c.Append(hlog.UserAgentHandler("ua"))
	c = c.Append(hlog.RefererHandler("ref"))
	c = c.Append(hlog.RequestIDHandler("req_id", "Request-Id"))

	// Keep OPTIONS requests flowing to the resource so it can answer them
	if len(conf.CORS.AllowedOrigins) > 0 {
		c = c.Append(cors.New(cors.Options{
			AllowedOrigins:     conf.CORS.AllowedOrigins,
			AllowedMethods:     []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:     []string{"Authorization", "Content-Type"},
			ExposedHeaders:     []string{"Location", "X-Total"},
			OptionsPassthrough: true,
		}).Handler)
	}

	switch conf.Auth.Mode {
	case "basic":
		c = c.Append(auth.Basic{
			Clients:      conf.Auth.Clients,
			AllowedPaths: conf.Auth.AllowedPaths,
			Realm:        conf.Auth.Realm,
		}.Handler)
	case "jwt":
		c = c.Append(auth.JWT{
			Secret:       []byte(conf.Auth.Secret),
			AllowedPaths: conf.Auth.AllowedPaths,
			Realm:        conf.Auth.Realm,
		}.Handler)
	}

	return c.Then(router), closer, nil
}
