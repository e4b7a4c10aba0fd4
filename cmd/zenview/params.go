package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"github.com/soypat/zengl"
	"golang.org/x/image/colornames"
)

// paramUpdate is a new value for the uniform exposed under name.
type paramUpdate struct {
	name   string
	values []float32
}

// params are the uniforms of a demo that can be set from a params file.
type params map[string]*zengl.Uniform

// parseParams parses a TOML document of name = value pairs. Values are
// numbers, arrays of numbers or color names such as "tomato".
func parseParams(data []byte) ([]paramUpdate, error) {
	var doc map[string]any
	err := toml.Unmarshal(data, &doc)
	if err != nil {
		return nil, err
	}
	updates := make([]paramUpdate, 0, len(doc))
	for name, v := range doc {
		values, err := paramValues(v)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", name, err)
		}
		updates = append(updates, paramUpdate{name: name, values: values})
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].name < updates[j].name })
	return updates, nil
}

func paramValues(v any) ([]float32, error) {
	switch v := v.(type) {
	case float64:
		return []float32{float32(v)}, nil
	case int64:
		return []float32{float32(v)}, nil
	case bool:
		if v {
			return []float32{1}, nil
		}
		return []float32{0}, nil
	case string:
		c, ok := colornames.Map[v]
		if !ok {
			return nil, fmt.Errorf("unknown color name %q", v)
		}
		return []float32{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}, nil
	case []any:
		values := make([]float32, 0, len(v))
		for _, elem := range v {
			ev, err := paramValues(elem)
			if err != nil {
				return nil, err
			} else if len(ev) != 1 {
				return nil, fmt.Errorf("arrays must hold numbers, got %v", elem)
			}
			values = append(values, ev[0])
		}
		return values, nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

// apply sets the uniforms named by updates. Unknown names and bad values are
// logged and skipped. A color given to a vec4 uniform gets an alpha of 1.
func (ps params) apply(updates []paramUpdate, log *slog.Logger) (applied int) {
	for _, up := range updates {
		u, ok := ps[up.name]
		if !ok {
			log.Warn("unknown param", slog.String("name", up.name))
			continue
		}
		values := up.values
		if u.Type() == zengl.TypeVec4 && len(values) == 3 {
			values = append(values[:3:3], 1)
		}
		if err := u.Set(values...); err != nil {
			log.Warn("bad param value", slog.String("name", up.name), slog.String("err", err.Error()))
			continue
		}
		applied++
	}
	return applied
}

func (ps params) names() []string {
	names := make([]string, 0, len(ps))
	for name := range ps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// watchParams sends the parsed contents of the file at path once and then
// every time it is written, until ctx is done. The directory is watched
// since editors often replace files instead of writing them.
func watchParams(ctx context.Context, path string, log *slog.Logger) (<-chan []paramUpdate, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	err = watcher.Add(filepath.Dir(path))
	if err != nil {
		watcher.Close()
		return nil, err
	}
	ch := make(chan []paramUpdate, 1)
	send := func() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("reading params", slog.String("err", err.Error()))
			return
		}
		updates, err := parseParams(data)
		if err != nil {
			log.Warn("parsing params", slog.String("file", path), slog.String("err", err.Error()))
			return
		}
		// Only the latest values matter, drop a pending update.
		select {
		case <-ch:
		default:
		}
		ch <- updates
	}
	send()
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				log.Debug("params changed", slog.String("op", event.Op.String()))
				send()
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("watching params", slog.String("err", err.Error()))
			}
		}
	}()
	return ch, nil
}
