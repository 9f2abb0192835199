package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"quoteform/config"
	"quoteform/controllers"
	"quoteform/form"
	"quoteform/quotes"
)

var rootCmd = &cobra.Command{
	Use:   "quoteform",
	Short: "Stock quote form",
	Long:  `Serves a ticker/delta form that fetches a stock's close price from the quote API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, err := cmd.Flags().GetString("env-file")
		if err != nil {
			return err
		}
		if err := config.LoadEnv(envFile); err != nil {
			return err
		}
		return config.SetupLogging(config.FromEnv().LogLevel)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the form server",
	Run: func(cmd *cobra.Command, args []string) {
		settings := config.FromEnv()

		addr, err := cmd.Flags().GetString("addr")
		if err != nil {
			log.Fatalf("error getting addr: %v", err)
		}
		if addr != "" {
			settings.Addr = addr
		}

		fc, closeFn, err := newFormController(settings)
		if err != nil {
			log.Fatalf("error setting up form: %v", err)
		}
		defer closeFn()

		router := mux.NewRouter()
		registerRoutes(router, fc)

		log.Infof("Server listening on %s...", settings.Addr)
		if err := http.ListenAndServe(settings.Addr, router); err != nil {
			log.Fatalf("server stopped: %v", err)
		}
	},
}

var quoteCmd = &cobra.Command{
	Use:          "quote TICKER",
	Short:        "Fetch one quote and print the form output",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		delta, err := cmd.Flags().GetFloat64("delta")
		if err != nil {
			return err
		}

		fc, closeFn, err := newFormController(config.FromEnv())
		if err != nil {
			return err
		}
		defer closeFn()

		fc.Dispatch(form.TickerChanged{Text: args[0]})
		fc.Dispatch(form.DeltaChanged{Value: delta})
		state := fc.Fetch(context.Background())

		printState(cmd.OutOrStdout(), state)
		if state.Error != "" {
			return fmt.Errorf("%s", state.Error)
		}
		return nil
	},
}

var setKeyCmd = &cobra.Command{
	Use:          "set-key KEY",
	Short:        "Store the quote API key in redis",
	Long:         `Writes the quote API key under API_KEY_REDIS_KEY so a running server uses it on its next fetch. Requires REDIS_URL.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := config.FromEnv()

		store, closeFn, err := openKeyStore(settings)
		if err != nil {
			return err
		}
		defer closeFn()

		if err := config.StoreAPIKey(cmd.Context(), settings, store, args[0]); err != nil {
			return err
		}

		log.WithField("redis_key", settings.APIKeyRedisKey).Info("quote api key stored")
		return nil
	},
}

// openKeyStore connects to redis when REDIS_URL is set. The returned store
// is nil otherwise; the func releases the connection, if any.
func openKeyStore(s config.Settings) (config.KeyStore, func(), error) {
	if s.RedisURL == "" {
		return nil, func() {}, nil
	}

	redisClient, err := config.NewRedisClient(s.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("openKeyStore: failed to initialize redis client: %w", err)
	}

	return redisClient, func() {
		if err := redisClient.Close(); err != nil {
			log.Warnf("failed to close redis client: %v", err)
		}
	}, nil
}

// newFormController wires the quote client and API key source from
// settings. The returned func releases the redis connection, if any.
func newFormController(s config.Settings) (*controllers.FormController, func(), error) {
	store, closeFn, err := openKeyStore(s)
	if err != nil {
		return nil, nil, fmt.Errorf("newFormController: %w", err)
	}

	resolver := func(ctx context.Context) string {
		return config.ResolveAPIKey(ctx, s, store)
	}

	client := quotes.NewClient(s.QuoteBaseURL, nil)
	return controllers.NewFormController(client, resolver), closeFn, nil
}

func printState(w io.Writer, s form.State) {
	v := s.View()

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.Append([]string{"Ticker", v.Ticker})
	table.Append([]string{"Delta", v.DeltaLabel})
	if v.Error != "" {
		table.Append([]string{"Error", v.Error})
	}
	if v.PriceLine != "" {
		table.Append([]string{"Price", v.PriceLine})
	}
	table.Render()
}

func init() {
	rootCmd.PersistentFlags().String("env-file", config.EnvFile(), "Path to the .env file to load before starting. Defaults to ENV_FILE, then .env.")
	serveCmd.Flags().String("addr", "", "Address to listen on. Overrides PORT.")
	quoteCmd.Flags().Float64("delta", 0, "Delta value in [0, 1] shown alongside the quote.")

	rootCmd.AddCommand(serveCmd, quoteCmd, setKeyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
