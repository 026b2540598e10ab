package neurosnake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"neurosnake/internal/config"
	"neurosnake/internal/evo"
	"neurosnake/internal/model"
	"neurosnake/internal/nn"
	"neurosnake/internal/scape"
	"neurosnake/internal/storage"
)

var ErrNoElite = errors.New("no elite to replay")

type Options struct {
	StoreKind string
	// StorePath is the file store directory or the sqlite database path.
	StorePath string
	// Output receives rendered games. Nil disables rendering.
	Output io.Writer
}

type Client struct {
	store storage.Store
	out   io.Writer

	mu          sync.Mutex
	initialized bool
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	storePath := opts.StorePath
	if storePath == "" {
		storePath = "."
	}

	store, err := storage.NewStore(storeKind, storePath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, out: opts.Output}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Init prepares the store once; later calls are no-ops.
func (c *Client) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

type TrainRequest struct {
	Config config.Config
	// Showcase renders the current best network to the client output while
	// training runs.
	Showcase bool
	Hooks    evo.TrainerHooks
}

type TrainSummary struct {
	RunID           string
	Resumed         bool
	LoadError       error
	Iterations      int64
	Generation      int32
	NewGenerations  int
	BestPerformance float64
	BestScore       float64
	EliteCount      int
	Elapsed         time.Duration
}

// Train resumes the stored status, or starts fresh when it is missing or
// unreadable, evolves until ctx ends or the iteration budget is spent, then
// saves the status, the run's history and its summary.
func (c *Client) Train(ctx context.Context, req TrainRequest) (TrainSummary, error) {
	cfg := req.Config
	if err := cfg.Validate(); err != nil {
		return TrainSummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return TrainSummary{}, err
	}

	summary := TrainSummary{RunID: uuid.NewString()}
	status, ok, err := c.store.LoadStatus(ctx, cfg.Storage.StatusID)
	switch {
	case err != nil:
		summary.LoadError = err
		status = model.NewStatus(cfg.Evolution.EliteCapacity)
	case !ok:
		status = model.NewStatus(cfg.Evolution.EliteCapacity)
	default:
		summary.Resumed = true
	}

	netCfg, err := cfg.Network.NNConfig()
	if err != nil {
		return TrainSummary{}, err
	}
	sc, err := scape.NewSnakeScape(cfg.Game.SnakeConfig(cfg.Showcase.TicksPerSecond))
	if err != nil {
		return TrainSummary{}, err
	}
	mutation, err := evo.ResolveOperator(cfg.Evolution.Mutation, cfg.Evolution.MutationScale, cfg.Evolution.MutationRate)
	if err != nil {
		return TrainSummary{}, err
	}
	seed := cfg.Evolution.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	session := evo.NewSession(status)
	trainerCfg := evo.TrainerConfig{
		Scape:          sc,
		Network:        netCfg,
		Mutation:       mutation,
		EliteThreshold: cfg.Evolution.EliteThreshold,
		Seed:           seed,
		MaxIterations:  cfg.Evolution.MaxIterations,
		Hooks:          req.Hooks,
	}
	if req.Showcase && c.out != nil {
		// A separate scape keeps showcase episodes from drawing on the
		// training seed sequence.
		demo, err := scape.NewSnakeScape(cfg.Game.SnakeConfig(cfg.Showcase.TicksPerSecond))
		if err != nil {
			return TrainSummary{}, err
		}
		trainerCfg.Showcase = c.showcase(cfg, demo, session)
	}
	trainer, err := evo.NewTrainer(trainerCfg, session)
	if err != nil {
		return TrainSummary{}, err
	}

	startedAt := time.Now().UTC()
	runErr := trainer.Run(ctx)

	// Persist even when ctx was cancelled by a shutdown signal.
	saveCtx := context.WithoutCancel(ctx)
	final := session.Snapshot()
	if err := c.store.SaveStatus(saveCtx, cfg.Storage.StatusID, final); err != nil {
		return TrainSummary{}, fmt.Errorf("save status: %w", err)
	}
	history := trainer.History()
	if err := c.store.SaveHistory(saveCtx, summary.RunID, history); err != nil {
		return TrainSummary{}, fmt.Errorf("save history: %w", err)
	}

	summary.Iterations = trainer.Iterations()
	summary.Generation = final.Generation
	summary.NewGenerations = len(history)
	summary.BestPerformance = float64(final.BestPerformance)
	summary.BestScore = float64(final.BestScore)
	summary.EliteCount = final.Elites.Count()
	summary.Elapsed = time.Since(startedAt)

	run := model.RunSummary{
		VersionedRecord: storage.CurrentVersion(),
		ID:              summary.RunID,
		StatusID:        cfg.Storage.StatusID,
		Seed:            seed,
		RandomMap:       cfg.Game.RandomMap,
		MutationRate:    cfg.Evolution.MutationRate,
		StartedAt:       startedAt,
		FinishedAt:      time.Now().UTC(),
		Iterations:      summary.Iterations,
		Generations:     summary.NewGenerations,
		BestPerformance: summary.BestPerformance,
		BestScore:       summary.BestScore,
	}
	if err := c.store.SaveRun(saveCtx, run); err != nil {
		return TrainSummary{}, fmt.Errorf("save run: %w", err)
	}
	return summary, runErr
}

// showcase plays the best network on the client output with the training
// status printed under the field.
func (c *Client) showcase(cfg config.Config, sc *scape.SnakeScape, session *evo.Session) evo.ShowcaseFunc {
	return func(ctx context.Context, net *nn.Network) error {
		game, err := sc.NewEpisode()
		if err != nil {
			return err
		}
		term := scape.NewANSITerminal(c.out)
		game.SetTerminal(term)
		return scape.Play(ctx, game, net, scape.PlayOptions{
			Render:     true,
			FrameDelay: cfg.Showcase.FrameDelay,
			OnTick: func(*scape.Game) {
				writeTrainingStatus(term, cfg, session.Summary())
				_ = term.Flush()
			},
		})
	}
}

func writeTrainingStatus(w io.Writer, cfg config.Config, summary evo.Summary) {
	fmt.Fprintf(w, "Save file: %q\n", cfg.Storage.StatusID)
	fmt.Fprintf(w, "Mutation rate: %f\n", cfg.Evolution.MutationRate)
	if cfg.Game.RandomMap {
		fmt.Fprintln(w, "Game seed: Randomized")
	} else {
		fmt.Fprintf(w, "Game seed: %d\n", cfg.Game.Seed)
	}
	fmt.Fprintf(w, "Current generation: %d\n", summary.Generation)
	fmt.Fprintf(w, "Best performance: %.2f\n", summary.BestPerformance)
	for i, fitness := range summary.Fitness {
		fmt.Fprintf(w, "Elite %d goodness: %f\n", i, fitness)
	}
}

type ReplayRequest struct {
	Config config.Config
	Render bool
}

type ReplaySummary struct {
	Performance float64
	Score       int
	Ticks       int
	Reason      string
}

// Replay plays one episode with a copy of the stored best network.
func (c *Client) Replay(ctx context.Context, req ReplayRequest) (ReplaySummary, error) {
	cfg := req.Config
	if err := cfg.Validate(); err != nil {
		return ReplaySummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return ReplaySummary{}, err
	}
	status, ok, err := c.store.LoadStatus(ctx, cfg.Storage.StatusID)
	if err != nil {
		return ReplaySummary{}, err
	}
	if !ok {
		return ReplaySummary{}, fmt.Errorf("%w: status %s not found", ErrNoElite, cfg.Storage.StatusID)
	}
	net := nn.Duplicate(status.Elites.Best())
	if net == nil {
		return ReplaySummary{}, ErrNoElite
	}

	sc, err := scape.NewSnakeScape(cfg.Game.SnakeConfig(cfg.Showcase.TicksPerSecond))
	if err != nil {
		return ReplaySummary{}, err
	}
	game, err := sc.NewEpisode()
	if err != nil {
		return ReplaySummary{}, err
	}

	opts := scape.PlayOptions{}
	var summary ReplaySummary
	opts.OnTick = func(*scape.Game) { summary.Ticks++ }
	if req.Render && c.out != nil {
		game.SetTerminal(scape.NewANSITerminal(c.out))
		opts.Render = true
		opts.FrameDelay = cfg.Showcase.FrameDelay
	}
	if err := scape.Play(ctx, game, net, opts); err != nil {
		return ReplaySummary{}, err
	}
	summary.Performance = game.Performance()
	summary.Score = game.Score()
	summary.Reason = game.Reason()
	return summary, nil
}

type EliteItem struct {
	Rank    int
	Fitness float64
	Network nn.Config
	Weights int
}

type StatusSummary struct {
	StatusID        string
	Generation      int32
	BestPerformance float64
	BestScore       float64
	Capacity        int
	Elites          []EliteItem
}

func (c *Client) Status(ctx context.Context, statusID string) (StatusSummary, error) {
	if err := c.Init(ctx); err != nil {
		return StatusSummary{}, err
	}
	status, ok, err := c.store.LoadStatus(ctx, statusID)
	if err != nil {
		return StatusSummary{}, err
	}
	if !ok {
		return StatusSummary{}, fmt.Errorf("status not found: %s", statusID)
	}

	entries := status.Elites.Entries()
	items := make([]EliteItem, 0, len(entries))
	for i, entry := range entries {
		items = append(items, EliteItem{
			Rank:    i,
			Fitness: float64(entry.Fitness),
			Network: entry.Network.Config(),
			Weights: entry.Network.WeightCount(),
		})
	}
	return StatusSummary{
		StatusID:        statusID,
		Generation:      status.Generation,
		BestPerformance: float64(status.BestPerformance),
		BestScore:       float64(status.BestScore),
		Capacity:        status.Elites.MaxLen(),
		Elites:          items,
	}, nil
}

type HistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

func (c *Client) History(ctx context.Context, req HistoryRequest) ([]model.GenerationRecord, error) {
	if req.RunID != "" && req.Latest {
		return nil, errors.New("use either run id or latest")
	}
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	runID := req.RunID
	if req.Latest {
		runs, err := c.store.ListRuns(ctx)
		if err != nil {
			return nil, err
		}
		if len(runs) == 0 {
			return nil, errors.New("no runs available")
		}
		runID = runs[len(runs)-1].ID
	}
	if runID == "" {
		return nil, errors.New("history requires run id or latest")
	}

	history, ok, err := c.store.GetHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return history, nil
}

// Runs lists stored runs, newest first.
func (c *Client) Runs(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(runs)-1; i < j; i, j = i+1, j-1 {
		runs[i], runs[j] = runs[j], runs[i]
	}
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}
