// Command vault decodes Company of Heroes 3 replays.
//
// Usage:
//
//	vault dump [-full] <file>
//	vault index [-force] <file|dir>...
//	vault serve
//
// Settings come from VAULT_* environment variables or a .env file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vaultcoh/vault"
	"github.com/vaultcoh/vault/internal/config"
	"github.com/vaultcoh/vault/internal/replayfile"
	"github.com/vaultcoh/vault/internal/server"
	"github.com/vaultcoh/vault/internal/store"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  vault dump [-full] <file>        print a replay as JSON")
	fmt.Fprintln(os.Stderr, "  vault index [-force] <path>...   add replays to the index")
	fmt.Fprintln(os.Stderr, "  vault serve                      run the HTTP API")
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg.SetupLogger(os.Stderr)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "dump":
		err = dump(args)
	case "index":
		err = index(cfg, args)
	case "serve":
		err = serve(cfg)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("failed")
	}
}

func dump(args []string) error {
	fset := flag.NewFlagSet("dump", flag.ExitOnError)
	full := fset.Bool("full", false, "print the chunk tree and ticks instead of the summary")
	fset.Parse(args)
	if fset.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	rep, err := replayfile.Parse(fset.Arg(0))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if *full {
		return enc.Encode(rep)
	}
	return enc.Encode(rep.Summary())
}

// replayFiles expands directories in paths to the replays they contain.
func replayFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		err := filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if path == p || strings.HasSuffix(path, ".rec") || strings.HasSuffix(path, ".rec.zst") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func index(cfg config.Config, args []string) error {
	fset := flag.NewFlagSet("index", flag.ExitOnError)
	force := fset.Bool("force", false, "re-index replays of matches already in the index")
	fset.Parse(args)
	if fset.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	files, err := replayFiles(fset.Args())
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	var saved, skipped, failed int
	for _, name := range files {
		data, err := replayfile.Read(name)
		if err != nil {
			log.Error().Err(err).Str("file", name).Msg("read failed")
			failed++
			continue
		}
		rep, err := vault.Parse(data)
		if err != nil {
			log.Error().Err(err).Str("file", name).Msg("decode failed")
			failed++
			continue
		}
		if !*force {
			indexed, err := st.Indexed(ctx, rep.MatchHistoryID())
			if err != nil {
				return err
			}
			if indexed {
				log.Debug().Str("file", name).Uint64("matchHistoryId", rep.MatchHistoryID()).Msg("already indexed")
				skipped++
				continue
			}
		}
		if _, err := st.Save(ctx, store.Key(data), rep); err != nil {
			return err
		}
		saved++
	}

	log.Info().Int("saved", saved).Int("skipped", skipped).Int("failed", failed).Msg("index done")
	if failed > 0 {
		return fmt.Errorf("%d of %d replays failed", failed, len(files))
	}
	return nil
}

func serve(cfg config.Config) error {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.New(st, cfg.MaxUpload, cfg.MaxDecoded),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.Address).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
