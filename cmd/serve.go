package cmd

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/datastax/ormquery/endpoint"
	"github.com/datastax/ormquery/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve [OPTIONS]",
	Short: "Serve the query console over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := engineConfig()
		if err != nil {
			logger.Fatal("invalid engine settings", "error", err)
		}
		r, err := registry(cfg)
		if err != nil {
			logger.Fatal("unable to load schema", "error", err)
		}

		console, err := endpoint.NewConsoleConfig(cfg, r).
			WithRequireUser(viper.GetBool("require-user")).
			NewConsole()
		if err != nil {
			logger.Fatal("unable to create console", "error", err)
		}

		router := createRouter()
		for _, route := range console.Routes(viper.GetString("console-path")) {
			router.Handler(route.Method, route.Pattern, route.Handler)
		}
		listenAndServe(router, viper.GetInt("port"))
	},
}

func init() {
	flags := serveCmd.Flags()
	flags.Int("port", 8080, "console port")
	flags.String("console-path", endpoint.DefaultPrefix, "console path")
	flags.Bool("require-user", false, "reject requests without a user header")
	flags.Bool("request-logging", false, "enable request logging")
	flags.String("access-control-allow-origin", "", "Access-Control-Allow-Origin header value")

	for _, name := range []string{"port", "console-path", "require-user", "request-logging", "access-control-allow-origin"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

func maybeAddRequestLogging(handler http.Handler) http.Handler {
	if viper.GetBool("request-logging") {
		handler = log.NewLoggingHandler(handler, logger)
	}
	return handler
}

func maybeAddCORS(handler http.Handler) http.Handler {
	if value := viper.GetString("access-control-allow-origin"); value != "" {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", value)
			handler.ServeHTTP(w, r)
		})
	}
	return handler
}

func createRouter() *httprouter.Router {
	router := httprouter.New()
	if value := viper.GetString("access-control-allow-origin"); value != "" {
		router.GlobalOPTIONS = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Access-Control-Request-Method") != "" {
				header := w.Header()
				header.Set("Access-Control-Allow-Method", r.Header.Get("Access-Control-Request-Method"))
				header.Set("Access-Control-Allow-Headers", r.Header.Get("Access-Control-Request-Headers"))
				header.Set("Access-Control-Allow-Origin", value)
			}

			w.WriteHeader(http.StatusNoContent)
		})
	}
	return router
}

func listenAndServe(handler http.Handler, port int) {
	logger.Info("console listening",
		"port", port,
		"path", viper.GetString("console-path"))
	handler = maybeAddCORS(maybeAddRequestLogging(handler))
	err := http.ListenAndServe(fmt.Sprintf(":%d", port), handler)
	if err != nil {
		logger.Fatal("unable to start server",
			"port", port,
			"error", err)
	}
}
