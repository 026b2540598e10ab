package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"neurosnake/internal/config"
	snakeapi "neurosnake/pkg/neurosnake"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	origWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	workdir := t.TempDir()
	if err := os.Chdir(workdir); err != nil {
		t.Fatalf("chdir tempdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(origWD)
	})
	return workdir
}

func TestRunUsageErrors(t *testing.T) {
	if err := run(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "missing command") {
		t.Fatalf("expected missing command error, got %v", err)
	}
	if err := run(context.Background(), []string{"bogus"}); err == nil || !strings.Contains(err.Error(), "unknown command: bogus") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestInitCommandWritesConfig(t *testing.T) {
	workdir := chdirTemp(t)
	storeDir := filepath.Join(workdir, "saves")
	args := []string{"init", "-path", storeDir, "-status", "custom.status"}

	out, err := captureStdout(func() error {
		return run(context.Background(), args)
	})
	if err != nil {
		t.Fatalf("init command: %v", err)
	}
	if !strings.Contains(out, "initialized config=neurosnake.ini") {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := os.Stat(storeDir); err != nil {
		t.Fatalf("expected store directory: %v", err)
	}

	cfg, err := config.Load(defaultConfigPath)
	if err != nil {
		t.Fatalf("load written config: %v", err)
	}
	if cfg.Storage.Path != storeDir || cfg.Storage.StatusID != "custom.status" {
		t.Fatalf("unexpected storage config: %+v", cfg.Storage)
	}

	if _, err := captureStdout(func() error { return run(context.Background(), args) }); err == nil {
		t.Fatal("expected existing config to be kept without -force")
	}
	if _, err := captureStdout(func() error {
		return run(context.Background(), append(args, "-force"))
	}); err != nil {
		t.Fatalf("init with force: %v", err)
	}
}

func TestTrainThenInspectCommands(t *testing.T) {
	workdir := chdirTemp(t)
	storeDir := filepath.Join(workdir, "saves")
	storeArgs := []string{"-store", "file", "-path", storeDir}

	trainArgs := append([]string{"train"}, storeArgs...)
	trainArgs = append(trainArgs, "-iterations", "60", "-evolution-seed", "5", "-showcase=false")
	out, err := captureStdout(func() error {
		return run(context.Background(), trainArgs)
	})
	if err != nil {
		t.Fatalf("train command: %v", err)
	}
	if !strings.Contains(out, "run_id=") || !strings.Contains(out, "iterations=60 ") {
		t.Fatalf("unexpected train output: %q", out)
	}
	if _, err := os.Stat(filepath.Join(storeDir, config.DefaultStatusID)); err != nil {
		t.Fatalf("expected saved status: %v", err)
	}

	out, err = captureStdout(func() error {
		return run(context.Background(), append([]string{"status"}, storeArgs...))
	})
	if err != nil {
		t.Fatalf("status command: %v", err)
	}
	if !strings.Contains(out, "status=snake.status generation=") {
		t.Fatalf("unexpected status output: %q", out)
	}

	out, err = captureStdout(func() error {
		return run(context.Background(), append([]string{"history", "-latest"}, storeArgs...))
	})
	if err != nil {
		t.Fatalf("history command: %v", err)
	}
	if !strings.Contains(out, "generation=") && !strings.Contains(out, "no new generations") {
		t.Fatalf("unexpected history output: %q", out)
	}

	out, err = captureStdout(func() error {
		return run(context.Background(), append([]string{"runs", "-json"}, storeArgs...))
	})
	if err != nil {
		t.Fatalf("runs command: %v", err)
	}
	if !strings.Contains(out, `"iterations": 60`) {
		t.Fatalf("unexpected runs output: %q", out)
	}

	out, err = captureStdout(func() error {
		return run(context.Background(), append([]string{"replay", "-render=false"}, storeArgs...))
	})
	switch {
	case errors.Is(err, snakeapi.ErrNoElite):
	case err != nil:
		t.Fatalf("replay command: %v", err)
	case !strings.Contains(out, "reason="):
		t.Fatalf("unexpected replay output: %q", out)
	}
}

func TestTrainRejectsInvalidOverrides(t *testing.T) {
	chdirTemp(t)
	err := run(context.Background(), []string{"train", "-store", "memory", "-mutation-rate", "2", "-showcase=false"})
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestRunsRejectsNonPositiveLimit(t *testing.T) {
	chdirTemp(t)
	if err := run(context.Background(), []string{"runs", "-limit", "0"}); err == nil {
		t.Fatal("expected limit error")
	}
}

func TestExplicitConfigMustExist(t *testing.T) {
	chdirTemp(t)
	err := run(context.Background(), []string{"status", "-config", "missing.ini"})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected missing config error, got %v", err)
	}
}

func TestCommonFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snake.ini")
	fileCfg := config.Default()
	fileCfg.Storage.Path = filepath.Join(dir, "from-file")
	fileCfg.Storage.StatusID = "file.status"
	if err := config.Write(path, fileCfg); err != nil {
		t.Fatalf("write config: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	common := addCommonFlags(fs)
	if err := fs.Parse([]string{"-config", path, "-status", "flag.status"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := common.resolve(fs)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Storage.StatusID != "flag.status" {
		t.Fatalf("expected status flag to win, got %q", cfg.Storage.StatusID)
	}
	if cfg.Storage.Path != fileCfg.Storage.Path {
		t.Fatalf("expected path from file, got %q", cfg.Storage.Path)
	}
}

func captureStdout(fn func() error) (string, error) {
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		return "", err
	}

	os.Stdout = w
	runErr := fn()
	_ = w.Close()
	os.Stdout = origStdout

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		_ = r.Close()
		return "", err
	}
	_ = r.Close()
	return buf.String(), runErr
}
