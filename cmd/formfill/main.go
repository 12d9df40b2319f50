// Command formfill fills a form definition interactively in the terminal and
// prints the accepted submission as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/fill"
	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/schema/loader"
	"github.com/everybytesystems/dhis2-dataflow-sdk-sub002/pkg/session"
)

func main() {
	var (
		schemaFlag   = flag.String("schema", "", "Path to a JSON or YAML form definition")
		outputFlag   = flag.String("output", "", "Optional file path for the submission JSON (stdout when empty)")
		draftDirFlag = flag.String("draft-dir", "", "Optional directory for autosaved drafts")
		strictFlag   = flag.Bool("strict", false, "Fail on schema well-formedness issues instead of degrading")
		verboseFlag  = flag.Bool("verbose", false, "Log engine diagnostics to stderr")
	)
	flag.Parse()

	if *schemaFlag == "" {
		log.Fatal("formfill: -schema is required")
	}

	ctx := context.Background()

	var loaderOpts []loader.Option
	if *strictFlag {
		loaderOpts = append(loaderOpts, loader.WithStrict())
	}
	result, err := loader.New(loaderOpts...).Load(ctx, loader.SourceFromFile(*schemaFlag))
	if err != nil {
		log.Fatalf("formfill: load schema: %v", err)
	}
	for _, issue := range result.Issues {
		fmt.Fprintf(os.Stderr, "schema issue: %s\n", issue)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	if *verboseFlag {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	opts := []session.Option{
		session.WithLogger(logger),
		session.WithPersister(session.PersisterFunc(func(_ context.Context, sub session.Submission) error {
			return writeSubmission(*outputFlag, sub)
		})),
	}
	if *draftDirFlag != "" {
		opts = append(opts, session.WithDraftStore(session.DraftStoreFunc(func(_ context.Context, draft session.Draft) error {
			return writeDraft(*draftDirFlag, draft)
		})))
	}

	sess := session.New(result.Schema, opts...)
	defer sess.Close()

	walker := fill.NewWalker(fill.NewSurveyDriver())
	if err := walker.Run(ctx, sess); err != nil {
		if errors.Is(err, fill.ErrAborted) {
			fmt.Fprintln(os.Stderr, "aborted")
			os.Exit(1)
		}
		log.Fatalf("formfill: %v", err)
	}
}

func writeSubmission(path string, sub session.Submission) error {
	payload, err := json.MarshalIndent(sub, "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		_, err = fmt.Fprintln(os.Stdout, string(payload))
		return err
	}
	return os.WriteFile(path, append(payload, '\n'), 0o644)
}

func writeDraft(dir string, draft session.Draft) error {
	payload, err := json.MarshalIndent(draft, "", "  ")
	if err != nil {
		return err
	}
	name := filepath.Join(dir, draft.FormID+"-"+draft.SessionID+".json")
	return os.WriteFile(name, append(payload, '\n'), 0o644)
}
