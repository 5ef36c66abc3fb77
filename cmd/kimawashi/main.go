// Package main is the Kimawashi CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/kimawashi/internal/cli"
	"github.com/hyperjump/kimawashi/internal/config"
	"github.com/hyperjump/kimawashi/internal/embedding"
	"github.com/hyperjump/kimawashi/internal/feature"
	"github.com/hyperjump/kimawashi/internal/models"
	"github.com/hyperjump/kimawashi/internal/recommend"
	"github.com/hyperjump/kimawashi/internal/server"
	"github.com/hyperjump/kimawashi/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/kimawashi/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used,
// so that "kimawashi server" from the project dir uses the project's config.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "recommend":
		runRecommend()
	case "categories":
		runCategories()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kimawashi version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`Usage: kimawashi <command> [flags]

Commands:
  server      Start the recommendation HTTP server
  recommend   Recommend compatible items for a garment image
  categories  List catalog categories
  status      Show store and configuration status
  version     Print version
  help        Show this help

Run "kimawashi <command> -h" for command flags.
`)
}

// Components holds the initialized service dependencies.
type Components struct {
	Store    *feature.Database
	Embedder embedding.Embedder
	Engine   *recommend.Engine
}

func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := feature.Open(cfg.Store.SnapshotPath, feature.Format(cfg.Store.Format))
	if err != nil {
		return nil, fmt.Errorf("failed to load feature store: %w", err)
	}
	if logger != nil {
		logger.Info("feature store loaded",
			zap.String("path", cfg.Store.SnapshotPath),
			zap.Int("items", store.Size()),
			zap.Int("dimensions", store.Dim()),
			zap.Int("categories", len(store.Categories())),
		)
	}

	embedder, err := embedding.NewEmbedder(&cfg.Embedding)
	if err != nil {
		// ONNX runtime may be unavailable in development builds; the mock
		// embedder keeps vector-only requests working.
		if logger != nil {
			logger.Warn("embedder unavailable, falling back to mock", zap.Error(err))
		}
		embedder = embedding.NewMockEmbedder(cfg.Embedding.Dimensions)
	}
	if embedder.Dimensions() != 0 && embedder.Dimensions() != store.Dim() {
		return nil, fmt.Errorf("embedder dimension %d does not match store dimension %d",
			embedder.Dimensions(), store.Dim())
	}

	return &Components{
		Store:    store,
		Embedder: embedder,
		Engine:   recommend.NewEngine(store, &cfg.Recommend),
	}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	srv := server.NewServer(components.Engine, components.Embedder, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runRecommend() {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	imagePath := fs.String("image", "", "garment image file (jpeg or png)")
	categoriesFlag := fs.String("categories", "", "comma-separated target categories (default from config)")
	topK := fs.Int("k", 0, "matches per category (default from config)")
	serverURL := fs.String("server", "", "recommend via a running server instead of loading the store locally")
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "recommend: -image is required")
		fs.Usage()
		os.Exit(1)
	}
	format := cli.OutputFormat(*output)
	categories := cli.SplitCategories(*categoriesFlag)

	if *serverURL != "" {
		response, err := recommendViaHTTP(*serverURL, *imagePath, categories, *topK)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Recommend failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteRecommendations(os.Stdout, response, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	imageData, err := os.ReadFile(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
		os.Exit(1)
	}
	vector, err := components.Embedder.Embed(context.Background(), imageData)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to embed image: %v\n", err)
		os.Exit(1)
	}

	if len(categories) == 0 {
		categories = cfg.Recommend.DefaultCategories
	}
	response, err := components.Engine.Recommend(&models.RecommendQuery{
		Vector:     vector,
		Categories: categories,
		TopK:       *topK,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Recommend failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRecommendations(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func recommendViaHTTP(serverURL, imagePath string, categories []string, topK int) (*models.RecommendResponse, error) {
	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", filepath.Base(imagePath))
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(imageData); err != nil {
		return nil, err
	}
	if len(categories) > 0 {
		if err := mw.WriteField("categories", strings.Join(categories, ",")); err != nil {
			return nil, err
		}
	}
	if topK > 0 {
		if err := mw.WriteField("top_k", fmt.Sprintf("%d", topK)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	resp, err := http.Post(serverURL+"/api/v1/recommend", mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s: %s", resp.Status, body)
	}
	var out models.RecommendResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func runCategories() {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "query a running server instead of loading the store locally")
	_ = fs.Parse(os.Args[2:])

	var categories []string
	if *serverURL != "" {
		var err error
		categories, err = categoriesViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to fetch categories: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		store, err := feature.Open(cfg.Store.SnapshotPath, feature.Format(cfg.Store.Format))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load feature store: %v\n", err)
			os.Exit(1)
		}
		categories = store.Categories()
	}
	for _, c := range categories {
		fmt.Println(c)
	}
}

func categoriesViaHTTP(serverURL string) ([]string, error) {
	resp, err := http.Get(serverURL + "/api/v1/categories")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}
	var out struct {
		Categories []string `json:"categories"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "query a running server instead of loading the store locally")
	_ = fs.Parse(os.Args[2:])

	if *serverURL != "" {
		resp, err := http.Get(*serverURL + "/api/v1/status")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to fetch status: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()
		if _, err := io.Copy(os.Stdout, resp.Body); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read status: %v\n", err)
			os.Exit(1)
		}
		fmt.Println()
		return
	}

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	store, err := feature.Open(cfg.Store.SnapshotPath, feature.Format(cfg.Store.Format))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load feature store: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("config:      %s\n", resolvedConfigPath)
	fmt.Printf("snapshot:    %s\n", cfg.Store.SnapshotPath)
	fmt.Printf("items:       %d\n", store.Size())
	fmt.Printf("dimensions:  %d\n", store.Dim())
	fmt.Printf("categories:  %d\n", len(store.Categories()))
}
