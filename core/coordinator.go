package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/huangsam/commitmap/internal/contract"
	"github.com/huangsam/commitmap/internal/gitlog"
	"github.com/huangsam/commitmap/schema"
)

// ErrAlreadyRun is returned when Run is called on a coordinator that has already started.
var ErrAlreadyRun = errors.New("coordinator has already run")

// Coordinator drives one populate run: root history first, then a bounded
// pool of workers that each extract, relate and persist groups of file chunks.
type Coordinator struct {
	cfg    *contract.Config
	client contract.GitClient
	store  contract.RelationStore
	mirror contract.LogMirror // optional

	mu      sync.Mutex
	state   schema.CoordinatorState
	started bool
}

// NewCoordinator wires a coordinator. mirror may be nil.
func NewCoordinator(cfg *contract.Config, client contract.GitClient, store contract.RelationStore, mirror contract.LogMirror) *Coordinator {
	return &Coordinator{
		cfg:    cfg,
		client: client,
		store:  store,
		mirror: mirror,
		state:  schema.StateIdle,
	}
}

// State returns the current lifecycle stage.
func (c *Coordinator) State() schema.CoordinatorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) setState(s schema.CoordinatorState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	slog.Debug("Coordinator state changed", "state", s)
}

// task is one group of consecutive chunks handed to a single worker.
type task struct {
	first  int // index of the first chunk
	chunks [][]string
}

// Run extracts and persists the history of files. It blocks until every worker has joined.
// Per-file and per-batch failures are reported in the summary, not returned.
// A cancelled ctx stops dispatch and Run returns ctx.Err() with the partial summary.
func (c *Coordinator) Run(ctx context.Context, files []string) (*schema.RunSummary, error) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil, ErrAlreadyRun
	}
	c.started = true
	c.mu.Unlock()

	summary := &schema.RunSummary{
		RunID:      uuid.NewString(),
		RepoPath:   c.cfg.RepoPath,
		StartTime:  time.Now(),
		FilesTotal: len(files),
	}
	runLabel := summary.RunID[:8]
	slog.Info("Starting run", "run", summary.RunID, "repo", c.cfg.RepoPath, "files", len(files), "workers", c.cfg.Workers)

	// --- 1. Root history ---
	if ctx.Err() == nil {
		c.loadRootHistory(ctx, runLabel, summary)
	}
	c.setState(schema.StateRootHistoryLoaded)

	// --- 2. Partition and dispatch ---
	chunks := slices.Collect(slices.Chunk(files, max(c.cfg.ChunkSize, 1)))
	groups := slices.Collect(slices.Chunk(chunks, max(c.cfg.GroupSize, 1)))

	taskCh := make(chan task, len(groups))
	resultCh := make(chan *schema.RunSummary, max(c.cfg.Workers, 1))
	var wg sync.WaitGroup

	for range max(c.cfg.Workers, 1) {
		wg.Go(func() {
			partial := &schema.RunSummary{}
			for t := range taskCh {
				for i, chunk := range t.chunks {
					if ctx.Err() != nil {
						break
					}
					c.processChunk(ctx, fmt.Sprintf("%s/%d", runLabel, t.first+i), chunk, partial)
				}
			}
			resultCh <- partial
		})
	}

	first := 0
	for _, g := range groups {
		if ctx.Err() != nil {
			break
		}
		taskCh <- task{first: first, chunks: g}
		first += len(g)
	}
	close(taskCh)
	c.setState(schema.StateDispatched)

	// --- 3. Join ---
	wg.Wait()
	close(resultCh)
	for partial := range resultCh {
		summary.Merge(partial)
	}
	c.setState(schema.StateAllJoined)

	// --- 4. Record ---
	summary.EndTime = time.Now()
	if err := c.store.RecordRun(context.WithoutCancel(ctx), summary); err != nil {
		slog.Warn("Failed to record run", "run", summary.RunID, "error", err)
	}
	c.setState(schema.StateDone)

	slog.Info("Run finished",
		"run", summary.RunID,
		"duration", summary.Duration(),
		"succeeded", summary.FilesSucceeded,
		"skipped", summary.FilesSkipped,
		"failed", summary.FilesFailed,
		"batches_failed", summary.BatchesFailed,
	)
	return summary, ctx.Err()
}

// loadRootHistory persists the commits of the whole repository before any file is processed.
// A failure is logged and the run continues, since each chunk persists its own commits too.
func (c *Coordinator) loadRootHistory(ctx context.Context, runLabel string, summary *schema.RunSummary) {
	text, err := c.client.GetLog(ctx, c.cfg.RepoPath, schema.RootPath)
	if err != nil {
		slog.Warn("Failed to read root history", "repo", c.cfg.RepoPath, "error", err)
		return
	}
	set := newCommitSet()
	var stats gitlog.Stats
	for rec := range gitlog.ParseWithStats(text, &stats) {
		set.add(rec)
	}
	if stats.Blocks == 0 {
		slog.Info("No commits found in root history", "repo", c.cfg.RepoPath)
	}
	summary.RootHistoryLoaded = true
	summary.ParseSkips += stats.Skipped
	persistBatches(ctx, runLabel+"/root", schema.OpCommits, set.records, c.cfg.BatchSize, c.store.UpsertCommits, summary)
	slog.Info("Root history loaded", "commits", len(set.records))
}

// processChunk extracts every file of one chunk, then persists commits, files and
// relations in that order. Relations are written only once both endpoint kinds are durable.
func (c *Coordinator) processChunk(ctx context.Context, label string, chunk []string, partial *schema.RunSummary) {
	commits := newCommitSet()
	files := make([]string, 0, len(chunk))
	var relations []schema.Relation
	withHistory := 0

	for _, path := range chunk {
		if ctx.Err() != nil {
			return
		}
		text, err := c.client.GetLog(ctx, c.cfg.RepoPath, path)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("Failed to read file history", "path", path, "error", err)
			partial.FilesFailed++
			partial.FileFailures = append(partial.FileFailures, schema.FileFailure{Path: path, Err: err.Error()})
			continue
		}
		if c.mirror != nil {
			if err := c.mirror.Write(path, text); err != nil {
				slog.Warn("Failed to mirror file history", "path", path, "error", err)
			}
		}

		var stats gitlog.Stats
		records := slices.Collect(gitlog.ParseWithStats(text, &stats))
		partial.ParseSkips += stats.Skipped
		files = append(files, path)
		if len(records) == 0 {
			slog.Debug("No commits found for file", "path", path)
			partial.FilesSkipped++
			continue
		}
		withHistory++
		for _, rec := range records {
			commits.add(rec)
		}
		relations = append(relations, BuildRelations(path, slices.Values(records))...)
	}

	partial.CommitsSeen += len(commits.records)
	partial.RelationsSeen += len(relations)

	commitsOK := persistBatches(ctx, label, schema.OpCommits, commits.records, c.cfg.BatchSize, c.store.UpsertCommits, partial)
	filesOK := persistBatches(ctx, label, schema.OpFiles, files, c.cfg.BatchSize, c.store.UpsertFiles, partial)
	if !commitsOK || !filesOK {
		slog.Warn("Skipping relations after endpoint failure", "chunk", label, "relations", len(relations))
		partial.FilesSkipped += withHistory
		return
	}
	persistBatches(ctx, label, schema.OpRelations, relations, c.cfg.BatchSize, c.store.UpsertRelations, partial)
	partial.FilesSucceeded += withHistory
}

// persistBatches writes items in batches of size, labelling each batch as <label>/<op>-<n>.
// It reports whether every batch succeeded.
func persistBatches[T any](ctx context.Context, label, op string, items []T, size int, write func(context.Context, []T) error, summary *schema.RunSummary) bool {
	ok := true
	n := 0
	for batch := range slices.Chunk(items, max(size, 1)) {
		if ctx.Err() != nil {
			return false
		}
		id := fmt.Sprintf("%s/%s-%d", label, op, n)
		n++
		if err := write(contract.WithBatchID(ctx, id), batch); err != nil {
			slog.Error("Batch rolled back", "op", op, "batch", id, "size", len(batch), "error", err)
			summary.BatchesFailed++
			summary.BatchFailures = append(summary.BatchFailures, schema.BatchFailure{
				Op:      op,
				BatchID: id,
				Size:    len(batch),
				Err:     err.Error(),
			})
			ok = false
			continue
		}
		summary.BatchesSucceeded++
	}
	return ok
}
