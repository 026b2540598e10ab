package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"neurosnake/internal/config"
	"neurosnake/internal/evo"
	"neurosnake/internal/model"
	snakeapi "neurosnake/pkg/neurosnake"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "train":
		return runTrain(ctx, args[1:])
	case "replay":
		return runReplay(ctx, args[1:])
	case "status":
		return runStatus(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	common := addCommonFlags(fs)
	force := fs.Bool("force", false, "overwrite an existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.resolve(fs)
	if err != nil {
		return err
	}
	if _, err := os.Stat(common.configPath); err == nil && !*force {
		return fmt.Errorf("config %s already exists (use -force to overwrite)", common.configPath)
	}
	if err := config.Write(common.configPath, cfg); err != nil {
		return err
	}

	client, err := newClient(cfg, false)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized config=%s store=%s path=%s\n", common.configPath, cfg.Storage.Kind, cfg.Storage.Path)
	return nil
}

func runTrain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	common := addCommonFlags(fs)
	iterations := fs.Int64("iterations", 0, "stop after N evaluated networks (0 runs until interrupted)")
	gameSeed := fs.Int64("seed", 0, "game seed used when random-map is off")
	randomMap := fs.Bool("random-map", false, "evaluate every network on freshly seeded maps")
	mutationRate := fs.Float64("mutation-rate", 0, "probability of mutating each parameter")
	evoSeed := fs.Int64("evolution-seed", 0, "breeding rng seed (0 seeds from the clock)")
	showcase := fs.Bool("showcase", true, "render the best network while training (only on a terminal unless set)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := visitedFlags(fs)

	cfg, err := common.resolve(fs)
	if err != nil {
		return err
	}
	if setFlags["iterations"] {
		cfg.Evolution.MaxIterations = *iterations
	}
	if setFlags["seed"] {
		cfg.Game.Seed = *gameSeed
	}
	if setFlags["random-map"] {
		cfg.Game.RandomMap = *randomMap
	}
	if setFlags["mutation-rate"] {
		cfg.Evolution.MutationRate = *mutationRate
	}
	if setFlags["evolution-seed"] {
		cfg.Evolution.Seed = *evoSeed
	}

	render := cfg.Showcase.Enabled && stdoutIsTerminal()
	if setFlags["showcase"] {
		render = *showcase
	}

	client, err := newClient(cfg, render)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	req := snakeapi.TrainRequest{Config: cfg, Showcase: render}
	if !render {
		req.Hooks = evo.TrainerHooks{
			OnGeneration: func(record model.GenerationRecord) {
				fmt.Printf("generation=%d iteration=%s performance=%.6f score=%.2f elites=%d\n",
					record.Generation,
					humanize.Comma(record.Iteration),
					record.Performance,
					record.Score,
					record.EliteCount,
				)
			},
		}
	}

	summary, err := client.Train(ctx, req)
	if summary.LoadError != nil {
		fmt.Fprintf(os.Stderr, "status %s unreadable, started fresh: %v\n", cfg.Storage.StatusID, summary.LoadError)
	}
	if err != nil {
		return err
	}
	if render {
		fmt.Println()
	}

	fmt.Printf("run_id=%s resumed=%t iterations=%s elapsed=%s generation=%d new_generations=%d best_performance=%.6f best_score=%.2f elites=%d\n",
		summary.RunID,
		summary.Resumed,
		humanize.Comma(summary.Iterations),
		summary.Elapsed.Round(time.Millisecond),
		summary.Generation,
		summary.NewGenerations,
		summary.BestPerformance,
		summary.BestScore,
		summary.EliteCount,
	)
	return nil
}

func runReplay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	common := addCommonFlags(fs)
	gameSeed := fs.Int64("seed", 0, "game seed used when random-map is off")
	randomMap := fs.Bool("random-map", false, "play on a freshly seeded map")
	render := fs.Bool("render", true, "draw the game (only on a terminal unless set)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := visitedFlags(fs)

	cfg, err := common.resolve(fs)
	if err != nil {
		return err
	}
	if setFlags["seed"] {
		cfg.Game.Seed = *gameSeed
	}
	if setFlags["random-map"] {
		cfg.Game.RandomMap = *randomMap
	}
	draw := stdoutIsTerminal()
	if setFlags["render"] {
		draw = *render
	}

	client, err := newClient(cfg, draw)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Replay(ctx, snakeapi.ReplayRequest{Config: cfg, Render: draw})
	if err != nil {
		return err
	}
	if draw {
		fmt.Println()
	}
	fmt.Printf("performance=%.6f score=%d ticks=%s reason=%s\n",
		summary.Performance,
		summary.Score,
		humanize.Comma(int64(summary.Ticks)),
		summary.Reason,
	)
	return nil
}

func runStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	common := addCommonFlags(fs)
	jsonOut := fs.Bool("json", false, "emit status as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := common.resolve(fs)
	if err != nil {
		return err
	}

	client, err := newClient(cfg, false)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	status, err := client.Status(ctx, cfg.Storage.StatusID)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(status)
	}

	fmt.Printf("status=%s generation=%d best_performance=%.6f best_score=%.2f elites=%d/%d\n",
		status.StatusID,
		status.Generation,
		status.BestPerformance,
		status.BestScore,
		len(status.Elites),
		status.Capacity,
	)
	for _, item := range status.Elites {
		net := item.Network
		fmt.Printf("rank=%d fitness=%.6f inputs=%d outputs=%d hidden=%dx%d bias=%t activation=%s/%s weights=%s\n",
			item.Rank,
			item.Fitness,
			net.Inputs,
			net.Outputs,
			net.HiddenLayers,
			net.NeuronsPerHidden,
			net.UseBias,
			net.Hidden,
			net.Output,
			humanize.Comma(int64(item.Weights)),
		)
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	common := addCommonFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	limit := fs.Int("limit", 0, "max records to print (0 prints all)")
	jsonOut := fs.Bool("json", false, "emit history as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := common.resolve(fs)
	if err != nil {
		return err
	}

	client, err := newClient(cfg, false)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.History(ctx, snakeapi.HistoryRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(history)
	}
	if len(history) == 0 {
		fmt.Println("no new generations")
		return nil
	}
	for _, record := range history {
		fmt.Printf("generation=%d iteration=%s performance=%.6f score=%.2f elites=%d at=%s\n",
			record.Generation,
			humanize.Comma(record.Iteration),
			record.Performance,
			record.Score,
			record.EliteCount,
			record.RecordedAt.Format(time.RFC3339),
		)
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	common := addCommonFlags(fs)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}
	cfg, err := common.resolve(fs)
	if err != nil {
		return err
	}

	client, err := newClient(cfg, false)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(runs)
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("run_id=%s status=%s started=%s duration=%s seed=%d random_map=%t mutation_rate=%g iterations=%s generations=%d best_performance=%.6f best_score=%.2f\n",
			r.ID,
			r.StatusID,
			humanize.Time(r.StartedAt),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
			r.Seed,
			r.RandomMap,
			r.MutationRate,
			humanize.Comma(r.Iterations),
			r.Generations,
			r.BestPerformance,
			r.BestScore,
		)
	}
	return nil
}

func newClient(cfg config.Config, render bool) (*snakeapi.Client, error) {
	opts := snakeapi.Options{
		StoreKind: cfg.Storage.Kind,
		StorePath: cfg.Storage.Path,
	}
	if render {
		opts.Output = os.Stdout
	}
	return snakeapi.New(opts)
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: neurosnakectl <init|train|replay|status|history|runs> [flags]", msg)
}
