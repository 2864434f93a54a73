package ciutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Project root marker files
const (
	GoModFile    = "go.mod" // Primary marker file for Go projects
	GitDirectory = ".git"   // Git directory marker
)

// Common errors for project root detection
var (
	ErrProjectRootNotFound = errors.New("unable to find project root")
	ErrInvalidProjectRoot  = errors.New("invalid project root: no go.mod file found")
)

// rootCandidate is a project root supplied by the environment.
type rootCandidate struct {
	source string
	dir    string
}

// FindProjectRoot returns the absolute path to the project root directory.
// It checks several sources in the following order:
//
// 1. PGFIXTURE_PROJECT_ROOT environment variable (explicit override)
// 2. GITHUB_WORKSPACE environment variable (GitHub Actions)
// 3. CI_PROJECT_DIR environment variable (GitLab CI)
// 4. Auto-detection by traversing directories upward looking for go.mod
func FindProjectRoot(logger *slog.Logger) (string, error) {
	workingDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	candidates := []rootCandidate{{EnvProjectRoot, os.Getenv(EnvProjectRoot)}}
	if IsGitHubActions() {
		candidates = append(candidates, rootCandidate{EnvGitHubWorkspace, os.Getenv(EnvGitHubWorkspace)})
	}
	if IsGitLabCI() {
		candidates = append(candidates, rootCandidate{EnvGitLabProjectDir, os.Getenv(EnvGitLabProjectDir)})
	}

	for _, c := range candidates {
		if c.dir == "" {
			continue
		}
		if logger != nil {
			logger.Debug("Using project root from environment", "source", c.source, "project_root", c.dir)
		}
		if !isValidProjectRoot(c.dir) {
			return "", fmt.Errorf("%w at %s", ErrInvalidProjectRoot, c.dir)
		}
		return c.dir, nil
	}

	return findProjectRootByTraversal(workingDir, logger)
}

// findProjectRootByTraversal looks for project markers by traversing directories upward.
// It starts from the given directory and looks for go.mod or .git.
func findProjectRootByTraversal(startDir string, logger *slog.Logger) (string, error) {
	currentDir := startDir
	maxIterations := 10

	for i := 0; i < maxIterations; i++ {
		if fileExists(filepath.Join(currentDir, GoModFile)) || dirExists(filepath.Join(currentDir, GitDirectory)) {
			if logger != nil {
				logger.Debug("Found project root", "project_root", currentDir, "iteration", i+1)
			}
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	if logger != nil {
		logger.Error("Failed to find project root by directory traversal",
			"start_dir", startDir,
			"max_iterations", maxIterations,
		)
	}

	return "", ErrProjectRootNotFound
}

// ResolveMigrationsDir returns an absolute path to a migrations directory.
// Absolute paths and relative paths that exist from the working directory are used
// as given; other relative paths are resolved against the project root.
func ResolveMigrationsDir(dir string, logger *slog.Logger) (string, error) {
	if dir == "" {
		return "", errors.New("migrations directory is empty")
	}

	if filepath.IsAbs(dir) || dirExists(dir) {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("failed to resolve migrations directory %s: %w", dir, err)
		}
		return abs, nil
	}

	projectRoot, err := FindProjectRoot(logger)
	if err != nil {
		return "", fmt.Errorf("failed to find project root: %w", err)
	}

	migrationsPath := filepath.Join(projectRoot, dir)
	if !dirExists(migrationsPath) {
		return "", fmt.Errorf("migrations directory not found at %s", migrationsPath)
	}

	if logger != nil {
		logger.Debug("Resolved migrations directory path",
			"project_root", projectRoot,
			"migrations_path", migrationsPath,
		)
	}

	return migrationsPath, nil
}

// isValidProjectRoot checks if the given directory exists and contains a go.mod file.
func isValidProjectRoot(dir string) bool {
	return dirExists(dir) && fileExists(filepath.Join(dir, GoModFile))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
