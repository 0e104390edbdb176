package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourorg/playground/internal/catalog"
	"github.com/yourorg/playground/internal/config"
	"github.com/yourorg/playground/internal/store"
	"github.com/yourorg/playground/pkg/types"
)

const version = "0.3.0"

const defaultConfigContent = `catalog:
  path: "./catalog.yaml"
  base_url: ""

credential:
  scope: "cloudindex_api_key"
  value: ""

store:
  driver: "sqlite"
  dsn: ""

server:
  host: "127.0.0.1"
  port: 3000
  cors_origin: "" # empty keeps the API same-origin only

filter:
  ignore_extensions:
    - .js
    - .css
    - .png
    - .jpg
    - .gif
    - .svg
    - .woff
    - .woff2
    - .ico
    - .map
  ignore_content_types:
    - text/html
    - text/css
    - image/*
    - font/*
    - application/javascript
  ignore_paths:
    - /static/
    - /assets/
    - /favicon

redact:
  headers:
    - Authorization
    - Cookie
    - Set-Cookie
    - X-Api-Key
    - X-Auth-Token
  body_fields:
    - password
    - secret
    - token
    - api_key
    - apiKey
    - access_token
    - refresh_token
  replacement: "***REDACTED***"

log:
  level: "info"
  debug: false

output:
  dir: "./docs"
  formats:
    - markdown
    - openapi
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries the flags shared by every command.
type app struct {
	cfgPath     string
	catalogPath string
	baseURL     string
	debug       bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "playground",
		Short:         "Interactive API playground: code samples and live requests from an endpoint catalog",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file path (default ~/.playground/config.yaml)")
	root.PersistentFlags().StringVar(&a.catalogPath, "catalog", "", "endpoint catalog path (overrides catalog.path)")
	root.PersistentFlags().StringVar(&a.baseURL, "base-url", "", "API base URL (overrides the catalog)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug output")

	root.AddCommand(newInitCmd(a))
	root.AddCommand(newEndpointsCmd(a))
	root.AddCommand(newSampleCmd(a))
	root.AddCommand(newSendCmd(a))
	root.AddCommand(newKeyCmd(a))
	root.AddCommand(newImportCmd(a))
	root.AddCommand(newDocsCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newMCPCmd(a))

	return root
}

func (a *app) config() (*config.Config, error) {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return nil, err
	}
	if a.catalogPath != "" {
		cfg.Catalog.Path = a.catalogPath
	}
	if a.baseURL != "" {
		cfg.Catalog.BaseURL = a.baseURL
	}
	if a.debug {
		cfg.Log.Debug = true
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// logger writes text records to stderr so stdout stays clean for samples
// and the MCP transport.
func (a *app) logger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (a *app) catalog(cfg *config.Config) (*catalog.Catalog, error) {
	c, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w (run `playground init` or `playground import`)", err)
		}
		return nil, err
	}
	return c, nil
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return store.NewMemoryStore(), nil
	default:
		if err := cfg.EnsureStoreDir(); err != nil {
			return nil, err
		}
		return store.NewSQLiteStore(cfg.Store.DSN)
	}
}

// credential prefers an explicit value, then the stored one, then config.
func credential(st store.CredentialStore, cfg *config.Config, explicit string) (string, error) {
	if v := strings.TrimSpace(explicit); v != "" {
		return v, nil
	}
	v, err := st.GetCredential(cfg.Credential.Scope)
	if err != nil {
		return "", err
	}
	if v != "" {
		return v, nil
	}
	return cfg.Credential.Value, nil
}

// parseSets turns repeated group.name=value flags into parameter values.
func parseSets(sets []string) (types.ParamValues, error) {
	values := types.ParamValues{}
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: want group.name=value", s)
		}
		group, name, ok := strings.Cut(key, ".")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q: key must be path.<name>, query.<name> or body.<name>", s)
		}
		switch types.Group(group) {
		case types.GroupPath, types.GroupQuery, types.GroupBody:
		default:
			return nil, fmt.Errorf("invalid --set %q: unknown group %q", s, group)
		}
		values.Set(types.Group(group), name, value)
	}
	return values, nil
}

func newInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize ~/.playground with a default config, store and example catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfgFile := a.cfgPath
			if cfgFile == "" {
				home, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				cfgFile = filepath.Join(home, ".playground", "config.yaml")
			}
			if err := os.MkdirAll(filepath.Dir(cfgFile), 0o755); err != nil {
				return err
			}
			if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
				if err := os.WriteFile(cfgFile, []byte(defaultConfigContent), 0o644); err != nil {
					return err
				}
				fmt.Fprintln(out, "created", cfgFile)
			} else if err == nil {
				fmt.Fprintln(out, "exists", cfgFile)
			} else {
				return err
			}

			cfg, err := a.config()
			if err != nil {
				return err
			}
			if _, err := os.Stat(cfg.Catalog.Path); errors.Is(err, os.ErrNotExist) || force {
				if err := catalog.Save(cfg.Catalog.Path, catalog.Example()); err != nil {
					return err
				}
				fmt.Fprintln(out, "wrote example catalog", cfg.Catalog.Path)
			}

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			fmt.Fprintln(out, "store ready", cfg.Store.Driver, cfg.Store.DSN)
			fmt.Fprintln(out, "set your API key with: playground key set <key>")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing catalog with the example")
	return cmd
}
