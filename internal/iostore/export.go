package iostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/commitmap/internal/contract"
	"github.com/huangsam/commitmap/internal/parquet"
)

// ExportedTable describes one Parquet file written by ExportParquet.
type ExportedTable struct {
	Table string
	Path  string
	Rows  int
}

// ExportParquet writes every table of the store to <outputPrefix>.<table>.parquet.
func ExportParquet(ctx context.Context, store contract.RelationStore, outputPrefix string) ([]ExportedTable, error) {
	if outputPrefix == "" {
		return nil, errors.New("--output-file is required for export command")
	}
	if store == nil {
		return nil, errors.New("relation store is not initialized")
	}

	status, err := store.GetStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get store status: %w", err)
	}
	if status.Commits == 0 && status.Files == 0 && status.Runs == 0 {
		return nil, errors.New("no data found to export")
	}

	var exported []ExportedTable
	record := func(table string, rows int) {
		exported = append(exported, ExportedTable{Table: table, Path: exportPath(outputPrefix, table), Rows: rows})
	}

	commits, err := store.AllCommits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve commits: %w", err)
	}
	if err := parquet.WriteParquet(parquet.ConvertCommits(commits), exportPath(outputPrefix, commitsTable)); err != nil {
		return nil, fmt.Errorf("failed to write commits: %w", err)
	}
	record(commitsTable, len(commits))

	files, err := store.AllFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve files: %w", err)
	}
	if err := parquet.WriteParquet(parquet.ConvertFiles(files), exportPath(outputPrefix, filesTable)); err != nil {
		return nil, fmt.Errorf("failed to write files: %w", err)
	}
	record(filesTable, len(files))

	relations, err := store.AllRelations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve relations: %w", err)
	}
	if err := parquet.WriteParquet(parquet.ConvertRelations(relations), exportPath(outputPrefix, relationsTable)); err != nil {
		return nil, fmt.Errorf("failed to write relations: %w", err)
	}
	record(relationsTable, len(relations))

	runs, err := store.AllRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve runs: %w", err)
	}
	if err := parquet.WriteParquet(parquet.ConvertRuns(runs), exportPath(outputPrefix, runsTable)); err != nil {
		return nil, fmt.Errorf("failed to write runs: %w", err)
	}
	record(runsTable, len(runs))

	return exported, nil
}

func exportPath(prefix, table string) string {
	return prefix + "." + table + ".parquet"
}
