package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cardapio/internal/connectors"
	"cardapio/internal/httpserver"
	"cardapio/internal/listener"
	"cardapio/internal/pipeline"
	"cardapio/internal/publish"
	"cardapio/internal/storage"
)

func parseCmd() *cobra.Command {
	var mode, outDir, xlsxPath string
	var publishRun bool
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a .pdf, .xlsx or .html menu and store the run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := pipeline.ReadDocument(args[0])
			if err != nil {
				return err
			}
			run, err := a.proc.ProcessDocument(cmd.Context(), doc, mode, nil)
			if err != nil {
				return err
			}
			res := run.Result

			if outDir == "" {
				outDir = cfg.OutputDir
			}
			path, err := pipeline.SaveResultJSON(res, outDir)
			if err != nil {
				return err
			}
			if xlsxPath != "" {
				if err := pipeline.ExportEntriesToXLSX(res, xlsxPath); err != nil {
					return err
				}
			}
			if publishRun && res.Success {
				if err := publish.NewClient(cfg, logger).Publish(cmd.Context(), run.RunID, res); err != nil {
					return err
				}
			}

			if !res.Success {
				return fmt.Errorf("parse failed run=%s: %s", run.RunID, res.Error)
			}
			fmt.Printf("parse done run=%s mode=%s entries=%d days=%d json=%s\n", run.RunID, res.Meta.Mode, res.TotalEntries, res.TotalDays, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "header_date|page_marker (default MENU_MODE)")
	cmd.Flags().StringVar(&outDir, "out", "", "directory for the result JSON (default OUTPUT_DIR)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also export the entries to this xlsx path")
	cmd.Flags().BoolVar(&publishRun, "publish", false, "post the result to PUBLISH_URL")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP upload API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = cfg.HTTPAddr
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           httpserver.NewRouter(a.proc, cfg, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			logger.Info("http server listening", zap.String("addr", addr))

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default HTTP_ADDR)")
	return cmd
}

func mailFetchCmd() *cobra.Command {
	var provider, label string
	var max int
	cmd := &cobra.Command{
		Use:   "mail:fetch",
		Short: "Fetch menu e-mails into the local queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			conn, err := listener.NewConnector(cmd.Context(), cfg, provider)
			if err != nil {
				return err
			}
			fetch := connectors.NewFetchService(a.db, cfg.RawMailDir, conn, logger)
			result, err := fetch.FetchAndStore(cmd.Context(), label, max)
			if err != nil {
				return err
			}
			fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d known=%d\n", provider, result.Fetched, result.Stored, result.Known)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "gmail", "gmail|imap")
	cmd.Flags().StringVar(&label, "label", "INBOX", "mailbox/label")
	cmd.Flags().IntVar(&max, "max", 50, "max messages")
	return cmd
}

func mailProcessCmd() *cobra.Command {
	var provider, messageID string
	var batch int
	cmd := &cobra.Command{
		Use:   "mail:process",
		Short: "Parse queued e-mails",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if strings.TrimSpace(messageID) != "" {
				res, err := a.proc.ProcessByProviderMessageID(cmd.Context(), provider, messageID)
				if err != nil {
					return err
				}
				fmt.Printf("processed email id=%d status=%s runs=%d entries=%d\n", res.EmailID, res.Status, len(res.Runs), res.Entries)
				return nil
			}
			emails, entries, err := a.proc.ProcessPending(cmd.Context(), batch, provider)
			if err != nil {
				return err
			}
			fmt.Printf("processed pending emails=%d entries=%d\n", emails, entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "only e-mails of this provider")
	cmd.Flags().StringVar(&messageID, "messageId", "", "specific message-id")
	cmd.Flags().IntVar(&batch, "batch", 20, "batch size")
	return cmd
}

func mailListenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mail:listen",
		Short: "Poll the mailbox and parse menus until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			conn, err := listener.NewConnector(cmd.Context(), cfg, cfg.MailListenerProvider)
			if err != nil {
				return err
			}
			var pub listener.Publisher
			if client := publish.NewClient(cfg, logger); client.Enabled() {
				pub = client
			}
			return listener.NewService(a.db, conn, a.proc, pub, cfg, logger).Run(cmd.Context())
		},
	}
}

func exportCmd() *cobra.Command {
	var runID, out string
	cmd := &cobra.Command{
		Use:   "export:xlsx",
		Short: "Export a stored run to xlsx",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(runID) == "" || strings.TrimSpace(out) == "" {
				return fmt.Errorf("--run and --out are required")
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			_, res, err := storage.LoadResult(cmd.Context(), a.store, runID)
			if err != nil {
				return err
			}
			if err := pipeline.ExportEntriesToXLSX(res, out); err != nil {
				return err
			}
			fmt.Printf("exported %d entries to %s\n", len(res.Entries), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "run id")
	cmd.Flags().StringVar(&out, "out", "", "output xlsx path")
	return cmd
}

func runsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs:show <run-id>",
		Short: "Print a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			run, res, err := storage.LoadResult(cmd.Context(), a.store, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{"run": run, "result": res})
		},
	}
}

func runsListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs:list",
		Short: "List the latest stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			runs, err := a.store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			for _, r := range runs {
				status := "ok"
				if !r.Success {
					status = "failed"
				}
				fmt.Printf("%s %s %s %s entries=%d days=%d\n", r.ID, r.ProcessedAt, status, r.Source, r.TotalEntries, r.TotalDays)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "how many runs")
	return cmd
}
