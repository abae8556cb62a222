// sourcecat concatenates JavaScript files into a single bundle while
// preserving traceability to the original sources. Inputs that ship with a
// sibling ".map" file keep their existing mappings, composed through to the
// merged output map; inputs without one are mapped 1:1 to themselves.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/gopherjs/sources"
	"github.com/gopherjs/sources/sourcemap"
)

type options struct {
	output     string
	sourceRoot string
	noColumns  bool
	watch      bool
	quiet      bool
}

func main() {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "sourcecat -o bundle.js input.js...",
		Short: "concatenate JS files and merge their source maps",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if opts.quiet {
				log.SetLevel(log.WarnLevel)
			}
			if opts.output == "" {
				return fmt.Errorf("an output path is required (-o)")
			}
			if opts.watch {
				return watchAndBuild(opts, args)
			}
			return build(opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "output bundle path")
	flags.StringVar(&opts.sourceRoot, "source-root", "", "sourceRoot to record in the output map")
	flags.BoolVar(&opts.noColumns, "no-columns", false, "emit line-level mappings only")
	flags.BoolVarP(&opts.watch, "watch", "w", false, "rebuild whenever an input changes")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "only log warnings and errors")
	flags.SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ToLower(name))
	})

	if err := cmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// loadInput turns one input file into a source node, attaching the sibling
// ".map" file when present.
func loadInput(path string) (sources.Source, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := stripSourceMappingURL(string(content))

	mapFile, err := os.Open(path + ".map")
	if os.IsNotExist(err) {
		return sources.NewOriginalSource(text, filepath.ToSlash(path)), nil
	}
	if err != nil {
		return nil, err
	}
	defer mapFile.Close()

	m, err := sourcemap.ReadFrom(mapFile)
	if err != nil {
		return nil, fmt.Errorf("%s.map: %w", path, err)
	}
	src, err := sources.NewSourceMapSource(text, filepath.ToSlash(path), m)
	if err != nil {
		return nil, err
	}
	log.Debugf("%s: attached source map with %d sources", path, len(m.Sources))
	return src, nil
}

// stripSourceMappingURL removes a trailing sourceMappingURL comment; the
// bundle gets its own.
func stripSourceMappingURL(text string) string {
	i := strings.LastIndex(text, "//# sourceMappingURL=")
	if i == -1 || strings.ContainsRune(strings.TrimRight(text[i:], "\n"), '\n') {
		return text
	}
	return text[:i]
}

func build(opts *options, inputs []string) error {
	children := make([]sources.Source, len(inputs))
	var group errgroup.Group
	for i, path := range inputs {
		i, path := i, path
		group.Go(func() error {
			src, err := loadInput(path)
			children[i] = src
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	bundle := sources.NewCachedSource(sources.NewConcatSource(children...))
	text, m, err := bundle.TextAndMap(sources.MapOptions{Columns: !opts.noColumns})
	if err != nil {
		return err
	}

	mapName := filepath.Base(opts.output) + ".map"
	codeFile, err := os.Create(opts.output)
	if err != nil {
		return err
	}
	defer codeFile.Close()
	if _, err := codeFile.WriteString(text); err != nil {
		return err
	}
	if m != nil {
		if _, err := fmt.Fprintf(codeFile, "//# sourceMappingURL=%s\n", mapName); err != nil {
			return err
		}
		m.File = filepath.Base(opts.output)
		m.SourceRoot = opts.sourceRoot
		mapFile, err := os.Create(opts.output + ".map")
		if err != nil {
			return err
		}
		defer mapFile.Close()
		if err := m.WriteTo(mapFile); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{
		"inputs": len(inputs),
		"bytes":  bundle.Size(),
	}).Infof("wrote %s", opts.output)
	return nil
}

// watchAndBuild rebuilds the bundle whenever one of the inputs or its map
// file changes. Build failures are logged and watching continues; only
// watcher failures abort.
func watchAndBuild(opts *options, inputs []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, path := range inputs {
		// Watch the directory rather than the file: editors replace files
		// on save, which drops a direct file watch.
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			return err
		}
	}

	watched := make(map[string]bool, len(inputs)*2)
	for _, path := range inputs {
		watched[filepath.Clean(path)] = true
		watched[filepath.Clean(path+".map")] = true
	}

	if err := build(opts, inputs); err != nil {
		log.Error(err)
	}
	log.Infof("watching %d inputs for changes", len(inputs))

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Debugf("%s changed, rebuilding", event.Name)
			if err := build(opts, inputs); err != nil {
				log.Error(err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
