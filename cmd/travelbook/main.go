// Command travelbook inspects and maintains a travel-journal record store:
// listing, importing and exporting records, recovering a corrupt collection,
// and serving the read API over HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"travelbook/internal/blob"
	"travelbook/internal/config"
	"travelbook/internal/geocode"
	"travelbook/internal/httpapi"
	"travelbook/internal/ident"
	"travelbook/internal/kv"
	"travelbook/internal/observability"
	"travelbook/internal/records"
	"travelbook/pkg/domain"
)

const usage = `usage: travelbook <command> [args]

commands:
  list                 print every record as JSON
  show <id>            print one record
  delete <id>          remove a record
  import <file>        upsert the records of a JSON array file
  export               write a snapshot of all records to blob storage
  exports              list stored snapshots
  link [-expiry d] <key>
                       print a download URL for a snapshot
  place <id>           reverse-geocode a record's marked place
  recover              quarantine a corrupt collection and start empty
  serve [-addr a]      serve the HTTP API
`

var (
	exitFunc   = os.Exit
	geocodeCap = 256
)

func main() {
	code := cli(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

// app holds the wired dependencies of one invocation.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	kv       kv.Store
	records  *records.Store
	blobs    blob.Store
	exports  *records.Exporter
	places   *geocode.Client
}

func cli(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		_, _ = fmt.Fprint(stderr, usage)
		if len(args) == 0 {
			return 2
		}
		return 0
	}
	if !commands[args[0]] {
		_, _ = fmt.Fprintf(stderr, "travelbook %s: %v: unknown command %q\n", args[0], errUsage, args[0])
		_, _ = fmt.Fprint(stderr, usage)
		return 2
	}
	if err := config.LoadDotEnv(); err != nil {
		_, _ = fmt.Fprintf(stderr, "load .env: %v\n", err)
		return 1
	}
	cfg := config.FromEnv()
	a, err := open(ctx, cfg, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "travelbook: %v\n", err)
		return 1
	}
	defer a.close()

	if err := a.dispatch(ctx, args[0], args[1:], stdout); err != nil {
		_, _ = fmt.Fprintf(stderr, "travelbook %s: %v\n", args[0], err)
		var ce *domain.CorruptStateError
		if errors.As(err, &ce) {
			_, _ = fmt.Fprintln(stderr, "run `travelbook recover` to quarantine the stored collection")
		}
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

var errUsage = errors.New("invalid arguments")

// commands lists the subcommands dispatch understands.
var commands = map[string]bool{
	"list": true, "show": true, "delete": true, "import": true,
	"export": true, "exports": true, "link": true, "place": true,
	"recover": true, "serve": true,
}

func open(ctx context.Context, cfg config.Config, logOut io.Writer) (*app, error) {
	logger := observability.NewLogger(logOut, cfg.LogLevel, cfg.LogFormat)
	store, err := kv.Open(ctx, cfg.KV())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	blobs, err := blob.Open(ctx, cfg.Blob())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open blob storage: %w", err)
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.Recorders{
		observability.NewPrometheusRecorder(reg),
		observability.NewExpvarRecorder(""),
	}
	recs := records.New(store,
		records.WithKey(cfg.StorageKey),
		records.WithLogger(logger),
		records.WithMetrics(metrics),
	)
	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		kv:       store,
		records:  recs,
		blobs:    blobs,
		exports:  records.NewExporter(recs, blobs, ident.UUID{}),
	}
	if cfg.GeocodeAPIKey != "" {
		a.places, err = geocode.New(cfg.GeocodeAPIKey, geocodeCap,
			geocode.WithBaseURL(cfg.GeocodeURL),
			geocode.WithTimeout(cfg.GeocodeTimeout),
			geocode.WithLogger(logger),
		)
		if err != nil {
			a.close()
			return nil, err
		}
	}
	logger.Debug("storage opened", "driver", a.kv.Driver(), "key", recs.Key(), "blob_driver", cfg.BlobDriver)
	return a, nil
}

func (a *app) close() {
	if err := a.kv.Close(); err != nil {
		a.logger.Warn("close storage", "error", err)
	}
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "list":
		recs, err := a.records.List(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, recs)
	case "show":
		id, err := oneArg(args)
		if err != nil {
			return err
		}
		rec, err := a.records.Get(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(out, rec)
	case "delete":
		id, err := oneArg(args)
		if err != nil {
			return err
		}
		return a.records.Delete(ctx, id)
	case "import":
		path, err := oneArg(args)
		if err != nil {
			return err
		}
		n, err := a.importFile(ctx, path)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "imported %d records\n", n)
		return err
	case "export":
		info, err := a.exports.Export(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, info.Key)
		return err
	case "exports":
		infos, err := a.exports.List(ctx)
		if err != nil {
			return err
		}
		for _, info := range infos {
			if _, err := fmt.Fprintf(out, "%s\t%d\t%s\n", info.Key, info.Size, info.LastModified.UTC().Format(time.RFC3339)); err != nil {
				return err
			}
		}
		return nil
	case "link":
		return a.link(ctx, args, out)
	case "place":
		return a.place(ctx, args, out)
	case "recover":
		moved, err := a.records.Recover(ctx)
		if err != nil {
			return err
		}
		if moved == "" {
			_, err = fmt.Fprintln(out, "collection is healthy")
			return err
		}
		_, err = fmt.Fprintf(out, "quarantined corrupt collection to %s\n", moved)
		return err
	case "serve":
		return a.serve(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (a *app) importFile(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var recs []domain.Record
	if err := json.Unmarshal(raw, &recs); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, rec := range recs {
		if err := a.records.Upsert(ctx, rec); err != nil {
			return i, fmt.Errorf("record %d (%s): %w", i, rec.ID, err)
		}
	}
	return len(recs), nil
}

func (a *app) link(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("link", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	expiry := fs.Duration("expiry", 15*time.Minute, "link lifetime")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	key, err := oneArg(fs.Args())
	if err != nil {
		return err
	}
	url, err := a.exports.Link(ctx, key, *expiry)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, url)
	return err
}

func (a *app) place(ctx context.Context, args []string, out io.Writer) error {
	id, err := oneArg(args)
	if err != nil {
		return err
	}
	if a.places == nil {
		return errors.New("reverse geocoding is disabled; set TRAVELBOOK_GEOCODE_API_KEY")
	}
	rec, err := a.records.Get(ctx, id)
	if err != nil {
		return err
	}
	place, err := a.places.Lookup(ctx, rec.MarkedPlace)
	if err != nil {
		return err
	}
	return printJSON(out, place)
}

func (a *app) serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	addr := fs.String("addr", a.cfg.HTTPAddr, "listen address")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           a.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", *addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.logger.Info("server stopped")
	return nil
}

func (a *app) router() http.Handler {
	var places httpapi.Describer
	if a.places != nil {
		places = a.places
	}
	r := chi.NewRouter()
	r.Mount("/", httpapi.NewRouter(httpapi.New(a.records, places, a.logger), a.registry))
	r.Handle("/debug/vars", expvar.Handler())
	return r
}

func oneArg(args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("%w: expected exactly one argument", errUsage)
	}
	return args[0], nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
