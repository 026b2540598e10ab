package main

import (
	"errors"
	"flag"
	"io/fs"

	"neurosnake/internal/config"
	"neurosnake/internal/storage"
)

const defaultConfigPath = "neurosnake.ini"

// commonFlags select the config file and the store shared by every command.
type commonFlags struct {
	configPath string
	storeKind  string
	storePath  string
	statusID   string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	f := &commonFlags{}
	fs.StringVar(&f.configPath, "config", defaultConfigPath, "INI config path")
	fs.StringVar(&f.storeKind, "store", storage.DefaultStoreKind(), "store backend: file|memory|sqlite")
	fs.StringVar(&f.storePath, "path", ".", "file store directory or sqlite database path")
	fs.StringVar(&f.statusID, "status", config.DefaultStatusID, "status save name inside the store")
	return f
}

// resolve loads the config file over the defaults and applies the store flags
// that were set explicitly. The default config path may be absent; an
// explicit one must exist.
func (f *commonFlags) resolve(set *flag.FlagSet) (config.Config, error) {
	setFlags := visitedFlags(set)

	cfg, err := config.Load(f.configPath)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !setFlags["config"]:
		cfg = config.Default()
	default:
		return config.Config{}, err
	}

	if setFlags["store"] {
		cfg.Storage.Kind = f.storeKind
	}
	if setFlags["path"] {
		cfg.Storage.Path = f.storePath
	}
	if setFlags["status"] {
		cfg.Storage.StatusID = f.statusID
	}
	return cfg, nil
}

func visitedFlags(fs *flag.FlagSet) map[string]bool {
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})
	return setFlags
}
