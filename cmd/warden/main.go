package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/viant/warden"
	"github.com/viant/warden/gateway"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "Agent-action orchestration with human-in-the-loop approval",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the orchestration HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default warden.yaml)")

	serveCmd.Flags().String("host", "", "listen host")
	serveCmd.Flags().Int("port", 8080, "listen port")
	serveCmd.Flags().Bool("debug", false, "enable debug mode")
	serveCmd.Flags().String("store", warden.StoreVendorMemory, "store vendor: memory, fs or nop")
	serveCmd.Flags().String("store-base-url", "", "base URL for the fs store")
	serveCmd.Flags().String("proxy-agents", "", "URL of proxy agent declarations")
	serveCmd.Flags().Duration("approval-ttl", 0, "expire pending approvals after this duration (0 disables)")
	serveCmd.Flags().Bool("tracing", false, "enable tracing")

	_ = viper.BindPFlag("gateway.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("gateway.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("gateway.debug", serveCmd.Flags().Lookup("debug"))
	_ = viper.BindPFlag("store.vendor", serveCmd.Flags().Lookup("store"))
	_ = viper.BindPFlag("store.baseURL", serveCmd.Flags().Lookup("store-base-url"))
	_ = viper.BindPFlag("proxyAgentsURL", serveCmd.Flags().Lookup("proxy-agents"))
	_ = viper.BindPFlag("approval.ttl", serveCmd.Flags().Lookup("approval-ttl"))
	_ = viper.BindPFlag("tracing.enabled", serveCmd.Flags().Lookup("tracing"))

	rootCmd.AddCommand(serveCmd)
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("warden")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/warden")
	}
	viper.SetEnvPrefix("WARDEN")
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := initConfig(); err != nil {
		return err
	}
	config := &warden.Config{
		Store: warden.StoreConfig{
			Vendor:  viper.GetString("store.vendor"),
			BaseURL: viper.GetString("store.baseURL"),
		},
		Approval: warden.ApprovalConfig{
			TTL:           viper.GetDuration("approval.ttl"),
			SweepInterval: viper.GetDuration("approval.sweepInterval"),
		},
		ProxyAgentsURL: viper.GetString("proxyAgentsURL"),
		Tracing: warden.TracingConfig{
			Enabled:    viper.GetBool("tracing.enabled"),
			OutputFile: viper.GetString("tracing.outputFile"),
		},
	}

	service, err := warden.NewFromConfig(config)
	if err != nil {
		return fmt.Errorf("failed to initialise service: %w", err)
	}
	defer service.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.Approval.TTL > 0 {
		stop := service.Orchestrator().AutoExpire(ctx, config.Approval.TTL, config.Approval.SweepInterval)
		defer stop()
	}

	server := gateway.New(service.Registry(), service.Orchestrator(), service.Store(), &gateway.Config{
		Host:         viper.GetString("gateway.host"),
		Port:         viper.GetInt("gateway.port"),
		Debug:        viper.GetBool("gateway.debug"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	errs := make(chan error, 1)
	go func() {
		log.Printf("warden listening on :%d", viper.GetInt("gateway.port"))
		errs <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errs:
		return err
	case sig := <-quit:
		log.Printf("received %v, shutting down", sig)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
