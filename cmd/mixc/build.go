package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gogpu/mixer"
	"github.com/gogpu/mixer/config"
)

// session is a loaded project and the compiler caching its units between
// builds.
type session struct {
	project  *config.Project
	compiler *mixer.Compiler
	level    logLevel
}

func openSession(projectPath string, level logLevel) (*session, error) {
	p, err := config.Load(projectPath)
	if err != nil {
		return nil, err
	}
	return &session{
		project:  p,
		compiler: mixer.New(os.DirFS(p.Root), p.Dirs(), p.Options()),
		level:    level,
	}, nil
}

// execBuild builds the project once and reports whether every effect
// succeeded.
func execBuild(ctx context.Context, projectPath string, level logLevel) bool {
	s, err := openSession(projectPath, level)
	if err != nil {
		printError("Project Load Error", err)
		return false
	}
	return s.build(ctx)
}

// build mixes every effect and writes the outputs of the successful ones.
func (s *session) build(ctx context.Context) bool {
	jobs := make([]mixer.Job, len(s.project.Effects))
	for i, e := range s.project.Effects {
		jobs[i] = e.Job()
	}
	results, err := s.compiler.MixAll(ctx, jobs)
	if err != nil {
		printError("Build Cancelled", err)
		return false
	}

	ok := true
	for i, r := range results {
		e := s.project.Effects[i]
		printDiagnostics(e.Name, r.Log, s.level)
		if r.Err != nil {
			ok = false
			if s.level >= levelError {
				printError(e.Name, r.Err)
			}
			continue
		}
		out := s.project.OutputPath(e)
		if err := writeOutput(out, r.Code); err != nil {
			ok = false
			printError("Output Error", err)
			continue
		}
		if s.level >= levelVerbose {
			printInfo("Mixed", fmt.Sprintf("%s -> %s (%d bytes)", e.Name, out, len(r.Code)))
		}
	}
	if ok && s.level > levelSilent {
		printSuccess("Done", fmt.Sprintf("%d effects", len(results)))
	}
	return ok
}

func writeOutput(path, code string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(code), 0o644)
}
