package main

import (
	"fmt"
	"io"
	"net/url"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/reoring/jsonldschema/deref"
	"github.com/reoring/jsonldschema/frame"
	"github.com/reoring/jsonldschema/ldjson"
	"github.com/reoring/jsonldschema/shacl"
	"github.com/reoring/jsonldschema/structural"
	"github.com/reoring/jsonldschema/validation"
)

func frameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "frame <schema>",
		Short: "Compile a schema into a JSON-LD frame",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, base, err := a.readSchema(cmd, args[0])
			if err != nil {
				return err
			}
			c := &frame.Compiler{Resolver: a.resolver(base)}
			f, err := c.Parse(cmd.Context(), schema)
			if err != nil {
				return err
			}
			if f == nil {
				// the false schema frames nothing
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "null")
				return err
			}
			return writeJSON(cmd.OutOrStdout(), f)
		},
	}
}

func shapesCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "shapes <schema>",
		Short: "Compile a schema into SHACL shapes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, base, err := a.readSchema(cmd, args[0])
			if err != nil {
				return err
			}
			c := &shacl.Compiler{Resolver: a.resolver(base), Expander: a.proc}
			shapes, err := c.Parse(cmd.Context(), schema)
			if err != nil {
				return err
			}
			switch format {
			case "jsonld":
				return writeJSON(cmd.OutOrStdout(), shapes)
			case "nquads":
				nq, err := shacl.ToNQuads(cmd.Context(), a.proc, shapes)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), nq)
				return err
			default:
				return fmt.Errorf("unknown format %q (want jsonld or nquads)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "jsonld", "Output format (jsonld, nquads)")
	return cmd
}

func validateCmd(a *app) *cobra.Command {
	var textfile string
	cmd := &cobra.Command{
		Use:   "validate <schema> <document-glob>...",
		Short: "Validate JSON-LD documents against a schema, one framed node at a time",
		Long: `validate frames every matching document with the schema's frame and checks
each node of the resulting @graph against the schema. Globs support ** and
are matched with doublestar. The command fails when any node fails.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, base, err := a.readSchema(cmd, args[0])
			if err != nil {
				return err
			}
			paths, err := expandGlobs(args[1:])
			if err != nil {
				return err
			}

			draft, err := structural.DraftByName(a.cfg.Schema.Draft)
			if err != nil {
				return err
			}
			reg := prometheus.NewRegistry()
			v := validation.New(validation.Options{
				Frames: &frame.Compiler{Resolver: a.resolver(base)},
				Framer: a.proc,
				Checker: func(s any) (validation.Checker, error) {
					return structural.Compile(s, structural.Options{Location: base.String(), Draft: draft})
				},
				Metrics: validation.NewMetrics(reg),
				Logger:  a.log,
			})

			reports := ldjson.NewObject()
			failed := 0
			for _, p := range paths {
				doc, err := ldjson.ReadFile(p)
				if err != nil {
					return fmt.Errorf("read %s: %w", p, err)
				}
				rep, err := v.Validate(cmd.Context(), doc, schema)
				if err != nil {
					return fmt.Errorf("validate %s: %w", p, err)
				}
				if !rep.Success {
					failed++
				}
				a.log.Info("validated document", "path", p, "success", rep.Success, "totalErrors", rep.TotalErrors)
				reports.Set(p, rep)
			}

			if textfile == "" {
				textfile = a.cfg.Metrics.Textfile
			}
			if textfile != "" {
				if err := prometheus.WriteToTextfile(textfile, reg); err != nil {
					return fmt.Errorf("write metrics: %w", err)
				}
			}
			if err := writeJSON(cmd.OutOrStdout(), reports); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed validation", failed, len(paths))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&textfile, "metrics-textfile", "", "Write validation metrics to this file (Prometheus text format)")
	return cmd
}

func rdfCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rdf <document>",
		Short: "Convert a JSON-LD document to N-Quads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			nq, err := a.proc.ToRDF(cmd.Context(), doc)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), nq)
			return err
		},
	}
}

// readSchema decodes the schema at path ("-" for stdin) and returns the URL
// its relative references resolve against.
func (a *app) readSchema(cmd *cobra.Command, path string) (any, *url.URL, error) {
	schema, err := readInput(cmd, path)
	if err != nil {
		return nil, nil, err
	}
	dir := a.cfg.Schema.BaseDir
	name := "schema.json"
	if path != "-" {
		dir, name = filepath.Split(path)
	}
	abs, err := filepath.Abs(filepath.Join(dir, name))
	if err != nil {
		return nil, nil, err
	}
	return schema, &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}, nil
}

func (a *app) resolver(base *url.URL) *deref.Resolver {
	return &deref.Resolver{
		Base:   base,
		Loader: deref.DefaultLoader{Client: a.client},
		Logger: a.log,
	}
}

func readInput(cmd *cobra.Command, path string) (any, error) {
	if path == "-" {
		return ldjson.DecodeReader(cmd.InOrStdin())
	}
	return ldjson.ReadFile(path)
}

// expandGlobs resolves each pattern, keeping match order and dropping repeats.
func expandGlobs(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, pat := range patterns {
		matches, err := doublestar.FilepathGlob(pat)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pat, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no documents match %q", pat)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	b, err := ldjson.MarshalIndent(v)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
