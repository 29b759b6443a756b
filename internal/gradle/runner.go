package gradle

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// Runner executes the project's Gradle wrapper and caches its output.
// The cache is invalidated on reindex.
type Runner struct {
	projectRoot string

	mu      sync.RWMutex
	modules []Module
	deps    map[string][]DependencyNode
}

// NewRunner creates a runner for a project root.
func NewRunner(projectRoot string) *Runner {
	return &Runner{
		projectRoot: projectRoot,
		deps:        make(map[string][]DependencyNode),
	}
}

func (r *Runner) wrapperPath() string {
	name := "gradlew"
	if runtime.GOOS == "windows" {
		name = "gradlew.bat"
	}
	return filepath.Join(r.projectRoot, name)
}

// InvalidateCache drops cached module and dependency listings.
func (r *Runner) InvalidateCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules = nil
	r.deps = make(map[string][]DependencyNode)
}

// Modules lists the project's Gradle modules.
func (r *Runner) Modules(ctx context.Context) ([]Module, error) {
	r.mu.RLock()
	cached := r.modules
	r.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	out, err := r.run(ctx, "projects", "-q")
	if err != nil {
		return nil, err
	}
	modules := ParseProjects(out)

	r.mu.Lock()
	r.modules = modules
	r.mu.Unlock()
	return modules, nil
}

// Dependencies returns the compile classpath tree for a module path
// (":app" or "app").
func (r *Runner) Dependencies(ctx context.Context, module string) ([]DependencyNode, error) {
	if !strings.HasPrefix(module, ":") {
		module = ":" + module
	}

	r.mu.RLock()
	cached, ok := r.deps[module]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	out, err := r.run(ctx, module+":dependencies", "--configuration", "compileClasspath", "-q")
	if err != nil {
		return nil, err
	}
	deps := ParseDependencies(out)

	r.mu.Lock()
	r.deps[module] = deps
	r.mu.Unlock()
	return deps, nil
}

func (r *Runner) run(ctx context.Context, args ...string) (string, error) {
	wrapper := r.wrapperPath()
	cmd := exec.CommandContext(ctx, wrapper, args...)
	cmd.Dir = r.projectRoot

	out, err := cmd.CombinedOutput()
	if err != nil {
		if len(out) > 0 {
			return "", fmt.Errorf("gradle command failed: %s: %s", err, strings.TrimSpace(string(out)))
		}
		return "", fmt.Errorf("gradle wrapper not runnable at %s: %w", wrapper, err)
	}
	return string(out), nil
}
