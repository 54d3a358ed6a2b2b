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
	GoModFile    = "go.mod"
	GitDirectory = ".git"
)

const maxTraversal = 10

var (
	ErrProjectRootNotFound = errors.New("unable to find project root")
	ErrConfigFileNotFound  = errors.New("config file not found")
)

// FindProjectRoot returns the absolute path to the project root directory.
// It checks several sources in the following order:
//
// 1. USERSQA_PROJECT_ROOT environment variable (explicit override)
// 2. GITHUB_WORKSPACE environment variable (GitHub Actions)
// 3. CI_PROJECT_DIR environment variable (GitLab CI)
// 4. Auto-detection by traversing directories upward looking for go.mod or .git
func FindProjectRoot(logger *slog.Logger) (string, error) {
	if root := os.Getenv(EnvProjectRoot); root != "" {
		if !dirExists(root) {
			return "", fmt.Errorf("%w: %s=%s is not a directory", ErrProjectRootNotFound, EnvProjectRoot, root)
		}
		logDebug(logger, "Using project root from environment", "project_root", root)
		return root, nil
	}

	if IsGitHubActions() {
		if ws := os.Getenv(EnvGitHubWorkspace); dirExists(ws) {
			logDebug(logger, "Using project root from GitHub Actions workspace", "project_root", ws)
			return ws, nil
		}
	}

	if IsGitLabCI() {
		if dir := os.Getenv(EnvGitLabProjectDir); dirExists(dir) {
			logDebug(logger, "Using project root from GitLab CI project directory", "project_root", dir)
			return dir, nil
		}
	}

	workingDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}
	return findProjectRootByTraversal(workingDir, logger)
}

func findProjectRootByTraversal(startDir string, logger *slog.Logger) (string, error) {
	currentDir := startDir
	for i := 0; i < maxTraversal; i++ {
		if fileExists(filepath.Join(currentDir, GoModFile)) || dirExists(filepath.Join(currentDir, GitDirectory)) {
			logDebug(logger, "Found project root", "project_root", currentDir, "iteration", i+1)
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}
	return "", ErrProjectRootNotFound
}

// FindConfigFile looks for name in the working directory first and then in
// the project root. It returns ErrConfigFileNotFound when neither has it.
func FindConfigFile(name string, logger *slog.Logger) (string, error) {
	if fileExists(name) {
		abs, err := filepath.Abs(name)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", name, err)
		}
		return abs, nil
	}

	root, err := FindProjectRoot(logger)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, name)
	}
	candidate := filepath.Join(root, name)
	if !fileExists(candidate) {
		return "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, name)
	}
	logDebug(logger, "Found config file in project root", "path", candidate)
	return candidate, nil
}

func logDebug(logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
