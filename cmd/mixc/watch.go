package main

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/mixer/source"
)

// settleDelay groups the bursts of events editors produce on save.
const settleDelay = 150 * time.Millisecond

// execWatch builds the project, then rebuilds whenever a fragment file in
// one of its lookup directories changes, until ctx is cancelled.
func execWatch(ctx context.Context, projectPath string, level logLevel) error {
	s, err := openSession(projectPath, level)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	for _, d := range s.project.LookupDirs {
		if err := w.Add(filepath.Join(s.project.Root, d)); err != nil {
			return err
		}
	}

	s.build(ctx)
	printInfo("Watching", strings.Join(s.project.LookupDirs, ", "))

	changed := make(map[string]bool)
	timer := time.NewTimer(settleDelay)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			name, isFragment := source.NameFromPath(filepath.ToSlash(ev.Name))
			if !isFragment {
				continue
			}
			changed[name] = true
			timer.Reset(settleDelay)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			printWarning("Watch", err.Error())
		case <-timer.C:
			names := make([]string, 0, len(changed))
			for n := range changed {
				names = append(names, n)
			}
			sort.Strings(names)
			clear(changed)
			if s.level >= levelVerbose {
				printInfo("Changed", strings.Join(names, ", "))
			}
			s.compiler.DeleteObsolete(names...)
			s.build(ctx)
		}
	}
}
