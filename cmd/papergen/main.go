package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/avolkov/papergen/internal/analyze"
	"github.com/avolkov/papergen/internal/handler"
	appI18n "github.com/avolkov/papergen/internal/i18n"
	"github.com/avolkov/papergen/internal/llm"
	"github.com/avolkov/papergen/internal/model"
	"github.com/avolkov/papergen/internal/service"
	"github.com/avolkov/papergen/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "papergen",
		Short: "Exam question paper generator and past-paper analyzer",
	}

	serve := serveCmd()
	root.AddCommand(serve, generateCmd(), analyzeCmd(), dashboardCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `papergen --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "papergen.db", "SQLite database path")
	f.StringP("lang", "l", "en", "Message language (en, ru)")
	f.Uint64("seed", 0, "Random seed for question synthesis (0 = time-based)")
	addLLMFlags(f)
	addLoggingFlags(f)
	return cmd
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a question paper from the command line",
		RunE:  runGenerate,
	}
	f := cmd.Flags()
	f.String("db", "papergen.db", "SQLite database path")
	f.StringP("subject", "s", "", "Built-in subject to generate from")
	f.String("syllabus", "", "Path to a syllabus text file (alternative to --subject)")
	f.IntP("count", "n", 10, "Number of questions")
	f.StringSliceP("categories", "c", nil, "Question categories (mcq, short_answer, long_answer, case_study)")
	f.StringP("difficulty", "d", "mixed", "Difficulty policy (easy, medium, hard, mixed)")
	f.String("title", "", "Exam title")
	f.Int("duration", 180, "Exam duration in minutes")
	f.StringP("format", "f", "text", "Output format (text, structured, tabular)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.Uint64("seed", 0, "Random seed for question synthesis (0 = time-based)")
	addLLMFlags(f)
	addLoggingFlags(f)
	return cmd
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [paper files...]",
		Short: "Analyze past papers and print a recurrence report",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAnalyze,
	}
	f := cmd.Flags()
	f.String("db", "papergen.db", "SQLite database path")
	f.String("syllabus", "", "Path to a syllabus text file (topics, one per line)")
	f.Float64("hot-threshold", 10, "Minimum weightage percent for a hot topic")
	f.Int("predictions", 10, "Maximum number of predictions")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLoggingFlags(f)
	return cmd
}

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print aggregate usage statistics as JSON",
		RunE:  runDashboard,
	}
	f := cmd.Flags()
	f.String("db", "papergen.db", "SQLite database path")
	f.Int("top", 5, "Number of top subjects and categories")
	f.Int("days", 14, "Days of daily activity")
	f.Int("recent", 10, "Number of recent requests")
	addLoggingFlags(f)
	return cmd
}

func addLLMFlags(f *pflag.FlagSet) {
	f.String("llm-url", "", "OpenAI-compatible API base URL for question refinement (empty = disabled)")
	f.String("llm-key", "ollama", "API key for the refinement endpoint")
	f.String("llm-model", "llama3.2", "Refinement model name")
}

func addLoggingFlags(f *pflag.FlagSet) {
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PAPERGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("papergen")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/papergen")
	v.AddConfigPath("/etc/papergen")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// buildService opens the store and wires the optional refinement client.
func buildService(v *viper.Viper) (*service.Service, *store.Store, error) {
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	cfg := service.Config{Seed: v.GetUint64("seed")}
	if url := v.GetString("llm-url"); url != "" {
		client := llm.New(url, v.GetString("llm-key"), v.GetString("llm-model"))
		if err := client.Ping(context.Background()); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", url, "model", v.GetString("llm-model"))
		cfg.Refiner = client
	}

	return service.New(db, cfg), db, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	svc, db, err := buildService(v)
	if err != nil {
		return err
	}
	defer db.Close()

	h := handler.New(svc, slog.Default())

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"db", v.GetString("db"),
		"lang", lang,
		"llm_url", v.GetString("llm-url"),
	)
	return http.ListenAndServe(addr, r)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	svc, db, err := buildService(v)
	if err != nil {
		return err
	}
	defer db.Close()

	categories, err := parseCategories(v.GetStringSlice("categories"))
	if err != nil {
		return err
	}
	difficulty := model.DifficultyTier(v.GetString("difficulty"))

	var result *service.GenerationResult
	ctx := context.Background()
	if path := v.GetString("syllabus"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read syllabus %s: %w", path, err)
		}
		result, err = svc.GenerateManual(ctx, service.ManualRequest{
			SyllabusText: string(data),
			Count:        v.GetInt("count"),
			Categories:   categories,
			Difficulty:   difficulty,
			ExamTitle:    v.GetString("title"),
			SubjectLabel: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			Duration:     v.GetInt("duration"),
		})
		if err != nil {
			return err
		}
	} else if subject := v.GetString("subject"); subject != "" {
		result, err = svc.GenerateAuto(ctx, service.AutoRequest{
			Subject:    subject,
			Count:      v.GetInt("count"),
			Categories: categories,
			Difficulty: difficulty,
			ExamTitle:  v.GetString("title"),
			Duration:   v.GetInt("duration"),
		})
		if err != nil {
			return err
		}
	} else {
		return fmt.Errorf("either --subject or --syllabus is required")
	}

	blob, _, _, err := svc.Export(result.Request.ID, model.ExportFormat(v.GetString("format")))
	if err != nil {
		return err
	}
	return writeOutput(v.GetString("output"), blob)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	svc, db, err := buildService(v)
	if err != nil {
		return err
	}
	defer db.Close()

	corpus := make([]model.PastPaper, 0, len(args))
	for _, path := range args {
		paper, err := readPaper(path)
		if err != nil {
			return err
		}
		corpus = append(corpus, paper)
	}

	var syllabusTopics []string
	if path := v.GetString("syllabus"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read syllabus %s: %w", path, err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				syllabusTopics = append(syllabusTopics, line)
			}
		}
	}

	report, err := svc.AnalyzePastPapers(context.Background(), corpus, syllabusTopics, analyze.Options{
		HotTopicThreshold: v.GetFloat64("hot-threshold"),
		PredictionLimit:   v.GetInt("predictions"),
	})
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeOutput(v.GetString("output"), append(data, '\n'))
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	stats, err := db.Dashboard(store.DashboardFilters{
		TopN:        v.GetInt("top"),
		DailyDays:   v.GetInt("days"),
		RecentLimit: v.GetInt("recent"),
	})
	if err != nil {
		return fmt.Errorf("read dashboard: %w", err)
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	return writeOutput("-", append(data, '\n'))
}

var yearRe = regexp.MustCompile(`(19|20)\d{2}`)

// readPaper loads one past-paper text file: one question per non-empty line,
// with the paper year taken from the file name when present.
func readPaper(path string) (model.PastPaper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.PastPaper{}, fmt.Errorf("read paper %s: %w", path, err)
	}

	paper := model.PastPaper{SourceID: filepath.Base(path)}
	if m := yearRe.FindString(paper.SourceID); m != "" {
		paper.Year, _ = strconv.Atoi(m)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			paper.Questions = append(paper.Questions, line)
		}
	}
	return paper, nil
}

func parseCategories(raw []string) ([]model.QuestionCategory, error) {
	var categories []model.QuestionCategory
	for _, s := range raw {
		c := model.QuestionCategory(strings.ToLower(strings.TrimSpace(s)))
		if !c.Valid() {
			return nil, fmt.Errorf("unknown category %q", s)
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func writeOutput(path string, data []byte) error {
	var w io.Writer
	if path == "" || path == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
