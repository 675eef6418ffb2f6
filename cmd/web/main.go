// Package main 医管未算定患者チェック - ローカル Web 版
// ダブルクリックで起動するとブラウザが自動で開く
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/Saki-tw/go-jp-ikan-parser/internal/api"
	"github.com/Saki-tw/go-jp-ikan-parser/internal/config"
	pkgconfig "github.com/Saki-tw/go-jp-ikan-parser/pkg/config"
)

func run(ctx context.Context, cmd *cli.Command) error {
	var port *int
	if cmd.IsSet("port") {
		p := int(cmd.Int("port"))
		port = &p
	}
	cfg, err := loadConfig(cmd.String("config"), port, cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	// 指定ポートが使用中なら空きポートへ
	cfg.HTTP.Port = findAvailablePort(cfg.HTTP.Host, cfg.HTTP.Port)
	addr := cfg.HTTP.Address()
	url := "http://" + addr

	router := api.NewRouter(api.NewHandler(cfg, logger))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	fmt.Printf("医管未算定患者チェックを起動しました\n")
	fmt.Printf("ブラウザで開いてください: %s\n", url)
	fmt.Printf("Ctrl+C で終了します\n\n")
	if cfg.HTTP.OpenBrowser {
		// サーバ起動を待つ
		time.Sleep(100 * time.Millisecond)
		openBrowser(url)
	}

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// loadConfig 設定ファイルを読み込み、コマンドライン指定を反映してから検証する
func loadConfig(path string, port *int, noBrowser bool) (*config.Config, error) {
	cfg := config.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if port != nil {
		cfg.HTTP.Port = *port
	}
	if noBrowser {
		cfg.HTTP.OpenBrowser = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// findAvailablePort preferred が使えなければ候補を順に試し、最後は OS に割り当てさせる
func findAvailablePort(host string, preferred int) int {
	ports := []int{preferred, 8080, 8081, 8082, 3000, 3001, 5000}
	for _, port := range ports {
		if isPortAvailable(host, port) {
			return port
		}
	}
	listener, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return preferred
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}

func isPortAvailable(host string, port int) bool {
	listener, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	listener.Close()
	return true
}

// openBrowser 既定のブラウザを開く
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default: // Linux
		cmd = exec.Command("xdg-open", url)
	}
	_ = cmd.Start()
}

func main() {
	cmd := &cli.Command{
		Name:   "ikan-web",
		Usage:  "医管未算定患者チェック (ローカル Web 画面)",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("IKAN_CONFIG_FILE"),
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "HTTP port (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Do not open the browser on start",
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
