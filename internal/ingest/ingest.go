// Package ingest loads turn files into a conversation's event store.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"chronicle/internal/chapter"
	"chronicle/internal/config"
	"chronicle/internal/event"
	"chronicle/internal/parser"
	"chronicle/internal/store"
)

type parsedFile struct {
	doc  *parser.Document
	hash string
}

// Run ingests every changed turn file under cfg.Sources into the configured
// conversation and saves the result. A file that fails to parse is recorded
// in Result.Errors and the remaining files are still ingested.
func Run(ctx context.Context, cfg *config.ProjectConfig, db Backend, options Options) (*Result, error) {
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Resolver == nil {
		options.Resolver = store.FixedResolver(cfg.Canonical)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	st, err := load(ctx, db, cfg.Conversation)
	if err != nil {
		return nil, err
	}

	existingHashes := map[string]string{}
	if !options.Full {
		existingHashes, err = db.SourceHashes(ctx, cfg.Conversation)
		if err != nil {
			return nil, fmt.Errorf("get source hashes: %w", err)
		}
	}

	files, err := walkMarkdownFiles(cfg.Sources, cfg.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walking turn files: %w", err)
	}

	result := &Result{}
	var parsed []parsedFile
	for _, path := range files {
		hash, err := computeHash(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("hashing %s: %w", path, err))
			continue
		}
		if existing, ok := existingHashes[path]; ok && existing == hash {
			result.FilesSkipped++
			continue
		}

		doc, err := parser.ParseFile(path)
		if err != nil {
			if errors.Is(err, parser.ErrNoFrontmatter) {
				result.FilesSkipped++
				continue
			}
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", path, err))
			continue
		}
		parsed = append(parsed, parsedFile{doc: doc, hash: hash})
	}

	slices.SortStableFunc(parsed, func(a, b parsedFile) int {
		if a.doc.Turn.TurnID != b.doc.Turn.TurnID {
			return a.doc.Turn.TurnID - b.doc.Turn.TurnID
		}
		return a.doc.Turn.VariantID - b.doc.Turn.VariantID
	})

	base := event.ToMillis(options.Now())
	earliestChanged := -1
	var ingested []parsedFile
	for _, file := range parsed {
		events, err := file.doc.Decode(base)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("decoding %s: %w", file.doc.SourceFile, err))
			continue
		}
		base += int64(len(events))

		deleted := st.DeleteAtTurn(file.doc.Turn)
		if deleted > 0 && (earliestChanged < 0 || file.doc.Turn.TurnID < earliestChanged) {
			earliestChanged = file.doc.Turn.TurnID
		}
		st.Append(events...)

		result.EventsDeleted += deleted
		result.EventsAppended += len(events)
		result.FilesIngested++
		result.Turns = append(result.Turns, file.doc.Turn)
		ingested = append(ingested, file)
		logrus.Debugf("ingest: %s -> turn %s (%d events, %d replaced)", file.doc.SourceFile, file.doc.Turn, len(events), deleted)
	}

	manager := chapter.NewManager(st, options.Resolver, options.Narrator, chapter.ConfigFrom(cfg), chapter.WithClock(options.Now))

	if err := ensureInitial(st, options, earliestChanged, result); err != nil {
		return nil, err
	}
	if earliestChanged >= 0 {
		rebuilt, err := manager.RefreshSnapshots(earliestChanged)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("refreshing chapter snapshots: %w", err))
		}
		result.SnapshotsRebuilt = rebuilt
	}

	if options.Chapters {
		for _, turn := range uniqueTurns(result.Turns) {
			closed, err := manager.ProcessTurn(ctx, turn)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("chapter check at turn %d: %w", turn, err))
				continue
			}
			if closed.Status == chapter.StatusAborted {
				return nil, ctx.Err()
			}
			if closed.Status == chapter.StatusCompleted {
				result.ChaptersClosed++
			}
		}
	}

	if err := db.Save(ctx, cfg.Conversation, st.Serialize()); err != nil {
		return nil, fmt.Errorf("saving conversation %s: %w", cfg.Conversation, err)
	}
	for _, file := range ingested {
		if err := db.PutSourceHash(ctx, cfg.Conversation, file.doc.SourceFile, file.hash); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("recording hash for %s: %w", file.doc.SourceFile, err))
		}
	}

	return result, nil
}

func load(ctx context.Context, db Backend, conversation string) (*store.Store, error) {
	doc, err := db.Load(ctx, conversation)
	if errors.Is(err, store.ErrNotFound) {
		return store.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading conversation %s: %w", conversation, err)
	}
	st, err := store.FromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("loading conversation %s: %w", conversation, err)
	}
	return st, nil
}

// ensureInitial builds the initial snapshot at the earliest turn when none
// exists, and rebuilds it when its own turn was re-extracted.
func ensureInitial(st *store.Store, options Options, earliestChanged int, result *Result) error {
	createdAt := event.ToMillis(options.Now())
	initial, ok := st.InitialSnapshot()
	turns := st.Turns()
	if len(turns) == 0 {
		return nil
	}
	if !ok || turns[0] < initial.Source.TurnID {
		st.BuildInitialSnapshot(turns[0], options.Resolver, createdAt)
		result.InitialBuilt = true
		return nil
	}
	if earliestChanged == initial.Source.TurnID {
		if _, err := st.RebuildInitialSnapshot(options.Resolver, createdAt); err != nil {
			return fmt.Errorf("rebuilding initial snapshot: %w", err)
		}
		result.InitialBuilt = true
	}
	return nil
}

func uniqueTurns(refs []event.TurnRef) []int {
	var turns []int
	for _, ref := range refs {
		turns = append(turns, ref.TurnID)
	}
	slices.Sort(turns)
	return slices.Compact(turns)
}

func walkMarkdownFiles(roots []string, excludes []string) ([]string, error) {
	excluded := make([]string, 0, len(excludes))
	for _, path := range excludes {
		if path == "" {
			continue
		}
		excluded = append(excluded, filepath.Clean(path))
	}

	var files []string
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && isExcluded(path, excluded) {
				return filepath.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
				return nil
			}
			if isExcluded(path, excluded) {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	clean := filepath.Clean(path)
	for _, exclude := range excludes {
		if exclude == clean || strings.HasPrefix(clean, exclude+string(os.PathSeparator)) {
			return true
		}
	}
	return false
}

func computeHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
