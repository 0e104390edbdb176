package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/yourorg/playground/internal/catalog"
	"github.com/yourorg/playground/internal/codegen"
	"github.com/yourorg/playground/internal/docs"
	"github.com/yourorg/playground/internal/executor"
	"github.com/yourorg/playground/internal/filter"
	"github.com/yourorg/playground/internal/har"
	"github.com/yourorg/playground/internal/mcptools"
	"github.com/yourorg/playground/internal/server"
	"github.com/yourorg/playground/internal/store"
	"github.com/yourorg/playground/pkg/types"
)

func newEndpointsCmd(a *app) *cobra.Command {
	var lint bool
	cmd := &cobra.Command{
		Use:   "endpoints",
		Short: "List catalog endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			c, err := a.catalog(cfg)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tMETHOD\tPATH\tLABEL")
			for _, item := range docs.Sidebar(c) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", item.ID, item.Method, item.Path, item.Label)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if lint {
				warnings := c.Lint()
				for _, w := range warnings {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
				}
				if len(warnings) > 0 {
					return fmt.Errorf("%d catalog warnings", len(warnings))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&lint, "lint", false, "report catalog authoring problems")
	return cmd
}

func newSampleCmd(a *app) *cobra.Command {
	var lang string
	var sets []string
	cmd := &cobra.Command{
		Use:   "sample <endpoint-id>",
		Short: "Render code samples for an endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			c, err := a.catalog(cfg)
			if err != nil {
				return err
			}
			ep, err := c.Get(args[0])
			if err != nil {
				return err
			}
			values, err := parseSets(sets)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			cred, err := credential(st, cfg, "")
			if err != nil {
				return err
			}

			langs := c.Languages
			if lang != "" {
				langs = []string{lang}
			}
			samples, err := codegen.RenderAll(langs, ep, c.ResolveBaseURL(cfg.Catalog.BaseURL), cred, values)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, s := range samples {
				if len(samples) > 1 {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "# %s\n", s.Language)
				}
				fmt.Fprintln(out, s.Code)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "single language (curl, python, javascript, go)")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "parameter value as group.name=value (repeatable)")
	return cmd
}

func newSendCmd(a *app) *cobra.Command {
	var sets, fileFlags []string
	var key string
	cmd := &cobra.Command{
		Use:   "send <endpoint-id>",
		Short: "Send a live request and print the JSON response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			c, err := a.catalog(cfg)
			if err != nil {
				return err
			}
			ep, err := c.Get(args[0])
			if err != nil {
				return err
			}
			values, err := parseSets(sets)
			if err != nil {
				return err
			}
			files, closeFiles, err := openFiles(fileFlags)
			if err != nil {
				return err
			}
			defer closeFiles()

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			cred, err := credential(st, cfg, key)
			if err != nil {
				return err
			}

			exec := &executor.Client{
				Logger:  a.logger(cfg),
				Debug:   cfg.Log.Debug,
				History: st,
				Redact:  cfg.Redact,
			}
			res, err := exec.Submit(cmd.Context(), ep, c.ResolveBaseURL(cfg.Catalog.BaseURL), cred, values, files)
			if err != nil {
				var httpErr *executor.HTTPError
				if errors.As(err, &httpErr) {
					return fmt.Errorf("HTTP %d: %s", httpErr.Status, httpErr.Message)
				}
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "HTTP %d in %s\n", res.Status, res.Duration.Round(time.Millisecond))
			if res.Pretty != "" {
				fmt.Fprintln(cmd.OutOrStdout(), res.Pretty)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "parameter value as group.name=value (repeatable)")
	cmd.Flags().StringArrayVar(&fileFlags, "file", nil, "file upload as body.name=path (repeatable)")
	cmd.Flags().StringVar(&key, "key", "", "API key for this request (defaults to the stored key)")
	return cmd
}

// openFiles opens body.name=path flags. Repeating a key selects several
// files for a file[] parameter.
func openFiles(flags []string) (types.FileSelections, func(), error) {
	var opened []*os.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	if len(flags) == 0 {
		return nil, closeAll, nil
	}
	files := types.FileSelections{}
	for _, flag := range flags {
		key, path, ok := strings.Cut(flag, "=")
		if !ok || !strings.HasPrefix(key, string(types.GroupBody)+".") {
			closeAll()
			return nil, nil, fmt.Errorf("invalid --file %q: want body.name=path", flag)
		}
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		opened = append(opened, f)
		sel := files[key]
		if sel == nil {
			sel = &types.FileSelection{}
			files[key] = sel
		}
		sel.Files = append(sel.Files, types.FileHandle{Name: filepath.Base(path), Content: f})
	}
	return files, closeAll, nil
}

func newKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "key", Short: "Manage the stored API key"}

	set := &cobra.Command{
		Use:   "set [value]",
		Short: "Store the API key; no value clears it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			value := ""
			if len(args) == 1 {
				value = strings.TrimSpace(args[0])
			}
			if err := st.SetCredential(cfg.Credential.Scope, value); err != nil {
				return err
			}
			if value == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "cleared", cfg.Credential.Scope)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "stored", cfg.Credential.Scope, server.Mask(value))
			return nil
		},
	}

	var reveal bool
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the stored API key (masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			v, err := credential(st, cfg, "")
			if err != nil {
				return err
			}
			if v == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "no key stored")
				return nil
			}
			if !reveal {
				v = server.Mask(v)
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
	show.Flags().BoolVar(&reveal, "reveal", false, "print the full key")

	cmd.AddCommand(set, show)
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	var out string
	var fromHAR bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Build an endpoint catalog from an OpenAPI 3 document or a HAR recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			var (
				c        *catalog.Catalog
				warnings []string
			)
			if fromHAR || strings.EqualFold(filepath.Ext(args[0]), ".har") {
				c, warnings, err = importHAR(args[0], cfg.Filter)
			} else {
				var data []byte
				data, err = os.ReadFile(args[0])
				if err != nil {
					return err
				}
				c, warnings, err = catalog.ImportOpenAPI(cmd.Context(), data)
			}
			for _, w := range warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			if err != nil {
				return err
			}
			if out == "" {
				out = cfg.Catalog.Path
			}
			if err := catalog.Save(out, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d endpoints to %s\n", len(c.Endpoints), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "catalog output path (defaults to catalog.path)")
	cmd.Flags().BoolVar(&fromHAR, "har", false, "treat the input as a HAR recording")
	return cmd
}

func importHAR(path string, cfg filter.FilterConfig) (*catalog.Catalog, []string, error) {
	xs, err := har.Parse(path)
	if err != nil {
		return nil, nil, err
	}
	xs = filter.Apply(xs, cfg)
	origin := filter.DominantOrigin(xs)
	xs, dropped := filter.SameOrigin(xs, origin)
	c, warnings, err := catalog.FromTraffic(xs)
	if dropped > 0 {
		warnings = append([]string{fmt.Sprintf("%d calls to origins other than %s skipped", dropped, origin)}, warnings...)
	}
	return c, warnings, err
}

func newDocsCmd(a *app) *cobra.Command {
	var outDir string
	var formats []string
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Render reference pages and an OpenAPI document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if outDir != "" {
				cfg.Output.Dir = outDir
			}
			if len(formats) > 0 {
				cfg.Output.Formats = formats
			}
			if err := cfg.ValidateDocs(); err != nil {
				return err
			}
			c, err := a.catalog(cfg)
			if err != nil {
				return err
			}
			c.BaseURL = c.ResolveBaseURL(cfg.Catalog.BaseURL)
			log := a.logger(cfg)
			for _, f := range cfg.Output.Formats {
				switch f {
				case "markdown":
					if err := docs.RenderMarkdown(c, cfg.Output.Dir); err != nil {
						return err
					}
				case "openapi":
					if err := docs.RenderOpenAPI(c, cfg.Output.Dir); err != nil {
						return err
					}
					for _, msg := range docs.ValidateOpenAPI(cmd.Context(), filepath.Join(cfg.Output.Dir, "openapi.yaml")) {
						log.Warn("openapi validation", "err", msg)
					}
				}
				log.Info("rendered docs", "format", f, "dir", cfg.Output.Dir)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (defaults to output.dir)")
	cmd.Flags().StringSliceVar(&formats, "format", nil, "formats to render: markdown, openapi")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	var show, del string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, show or delete recorded submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			out := cmd.OutOrStdout()

			switch {
			case del != "":
				if err := st.DeleteHistory(del); err != nil {
					return err
				}
				fmt.Fprintln(out, "deleted", del)
				return nil
			case show != "":
				e, err := st.GetHistory(show)
				if err != nil {
					if errors.Is(err, store.ErrNotFound) {
						return fmt.Errorf("history entry %s not found", show)
					}
					return err
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(e)
			}

			entries, err := st.ListHistory(limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tWHEN\tENDPOINT\tSTATUS\tLATENCY")
			for _, e := range entries {
				status := strconv.Itoa(e.StatusCode)
				if e.Error != "" {
					status += " " + e.Error
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%dms\n", e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.EndpointID, status, e.LatencyMs)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to list (0 for all)")
	cmd.Flags().StringVar(&show, "show", "", "print one entry as JSON")
	cmd.Flags().StringVar(&del, "delete", "", "delete one entry")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the playground web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			c, err := a.catalog(cfg)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			log := a.logger(cfg)
			for _, w := range c.Lint() {
				log.Warn("catalog", "warning", w)
			}
			srv, err := server.New(cfg, c, st, log)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)))
		},
	}
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "server host")
	cmd.Flags().IntVar(&port, "port", 3000, "server port")
	return cmd
}

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the playground tools over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			c, err := a.catalog(cfg)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			log := a.logger(cfg)
			tools := &mcptools.Tools{
				Catalog:     c,
				BaseURL:     c.ResolveBaseURL(cfg.Catalog.BaseURL),
				Credentials: st,
				Scope:       cfg.Credential.Scope,
				Fallback:    cfg.Credential.Value,
				Executor:    &executor.Client{Logger: log, History: st, Redact: cfg.Redact},
			}
			log.Debug("mcp stdio server starting", "endpoints", len(c.Endpoints))
			return mcpserver.ServeStdio(mcptools.NewServer(tools, version))
		},
	}
}
