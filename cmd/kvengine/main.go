// Command kvengine is a minimal CLI front end over the storage engine,
// wiring package config and package db the way dd0wney-graphdb/cmd/server
// wires its own storage and config layers — flags, structured logging, one
// operation per invocation.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/kamishiro/lsmkv/config"
	"github.com/kamishiro/lsmkv/db"
)

func main() {
	engineType := flag.String("engine", "btree", "storage engine: btree or lsmtree")
	directory := flag.String("dir", "data_dir", "data directory")
	op := flag.String("op", "", "operation: put, get, delete, fuzzy_get, compact")
	key := flag.String("key", "", "key")
	value := flag.String("value", "", "value (put only)")
	maxDistance := flag.Int("max-distance", 1, "max Levenshtein distance (fuzzy_get only)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	opts := config.Default()
	opts.EngineType = *engineType
	opts.Directory = *directory
	if err := opts.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	handle, err := db.Open(opts, logger)
	if err != nil {
		logger.Error("failed to open engine", "error", err)
		os.Exit(1)
	}
	defer handle.Close()

	if err := run(handle, *op, *key, *value, *maxDistance); err != nil {
		logger.Error("operation failed", "op", *op, "error", err)
		os.Exit(1)
	}
}

func run(handle *db.DB, op, key, value string, maxDistance int) error {
	switch op {
	case "put":
		return handle.Put([]byte(key), []byte(value))
	case "get":
		got, found, err := handle.Get([]byte(key))
		if err != nil {
			return err
		}
		if !found {
			fmt.Println("(absent)")
			return nil
		}
		fmt.Println(string(got))
		return nil
	case "delete":
		return handle.Delete([]byte(key))
	case "fuzzy_get":
		results, err := handle.FuzzyGet([]byte(key), maxDistance)
		if err != nil {
			return err
		}
		for _, kv := range results {
			fmt.Printf("%s=%s\n", kv.Key, kv.Value)
		}
		return nil
	case "compact":
		return handle.Compact()
	default:
		return fmt.Errorf("unrecognized -op %q (want put, get, delete, fuzzy_get, or compact)", op)
	}
}
