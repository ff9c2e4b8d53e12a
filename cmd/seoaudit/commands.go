package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/zombar/seoaudit/api"
	"github.com/zombar/seoaudit/db"
	"github.com/zombar/seoaudit/logger"
	"github.com/zombar/seoaudit/models"
	"github.com/zombar/seoaudit/report"
)

const shutdownTimeout = 30 * time.Second

func (c *cli) runCommand() *cobra.Command {
	var (
		workers   int
		outputDir string
		xlsx      bool
		noAugment bool
		top       int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Score every record in the catalog and write a report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("workers") {
				c.cfg.Batch.Workers = workers
			}
			if flags.Changed("output") {
				c.cfg.Batch.OutputDir = outputDir
			}
			if flags.Changed("xlsx") {
				c.cfg.Batch.WriteXLSX = xlsx
			}
			if noAugment {
				c.cfg.Augment.Enabled = false
			}

			a, err := newApp(c.cfg, c.log)
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.runner.Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			report.RenderSummary(out, rep)
			report.RenderResults(out, rep, top)
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 1, "records processed concurrently")
	cmd.Flags().StringVar(&outputDir, "output", "output", "directory for reports and HTML pages")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "also write an XLSX report")
	cmd.Flags().BoolVar(&noAugment, "no-augment", false, "score short content without augmentation")
	cmd.Flags().IntVar(&top, "top", 10, "rows shown in the results table, 0 for all")
	return cmd
}

func (c *cli) serveCommand() *cobra.Command {
	var (
		addr        string
		disableCORS bool
		schedule    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scoring API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if flags.Changed("addr") {
				c.cfg.Server.Addr = addr
			}
			if disableCORS {
				c.cfg.Server.CORSEnabled = false
			}
			if flags.Changed("schedule") {
				c.cfg.Server.Schedule = schedule
			}

			a, err := newApp(c.cfg, c.log)
			if err != nil {
				return err
			}
			defer a.Close()

			deps := api.Deps{
				Store:   a.db,
				Auditor: a.auditors.plain,
				Runner:  a.runner,
				Metrics: a.metrics,
				Log:     c.log.With(logger.String("component", "api")),
			}
			if a.auditors.augmenting != nil {
				deps.AugmentingAuditor = a.auditors.augmenting
			}

			server, err := api.NewServer(c.cfg.Server, deps)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-cmd.Context().Done():
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "\nShutting down gracefully...")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown error: %w", err)
			}
			fmt.Fprintln(out, "Server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&disableCORS, "disable-cors", false, "disable CORS")
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron expression for background batch runs")
	return cmd
}

func (c *cli) scoreCommand() *cobra.Command {
	var (
		file    string
		req     models.ScoreRequest
		augment bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a single text read from a file or stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			req.Body = string(body)
			if req.Title == "" && req.Body == "" {
				return errors.New("nothing to score: provide a title or a body")
			}

			rec := &models.ContentRecord{
				Title:       req.Title,
				Description: req.Description,
				Body:        req.Body,
				Category:    req.Category,
				Author:      req.Author,
			}
			auditor := newAuditors(c.cfg, nil, c.log).pick(augment)
			result := auditor.Audit(cmd.Context(), rec)

			data, err := models.MarshalIndentJSON(result)
			if err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "file holding the body, - for stdin")
	cmd.Flags().StringVar(&req.Title, "title", "", "content title")
	cmd.Flags().StringVar(&req.Description, "description", "", "content description")
	cmd.Flags().StringVar(&req.Category, "category", "", "content category")
	cmd.Flags().StringVar(&req.Author, "author", "", "content author")
	cmd.Flags().BoolVar(&augment, "augment", false, "expand short content with the language model")
	return cmd
}

func (c *cli) migrateCommand() *cobra.Command {
	var rollback bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and show their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			database, err := db.New(c.cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer database.Close()

			if rollback {
				if err := database.Rollback(); err != nil {
					return err
				}
				c.log.Info("Rolled back last migration")
			}

			status, err := database.MigrationStatus()
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Version", "Name", "Applied"})
			for _, s := range status {
				t.AppendRow(table.Row{s.Version, s.Name, s.Applied})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&rollback, "rollback", false, "roll back the most recent migration")
	return cmd
}

func (c *cli) importCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Add content records from a JSON array to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			var records []models.ContentRecord
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}

			database, err := db.New(c.cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer database.Close()

			ids, err := database.ImportContents(cmd.Context(), records)
			if err != nil {
				return err
			}

			c.log.Info("Imported content", logger.Int("count", len(ids)))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d records\n", len(ids))
			return nil
		},
	}
}

// readInput reads the named file, or r when name is empty or "-"
func readInput(r io.Reader, name string) ([]byte, error) {
	if name == "" || name == "-" {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}
