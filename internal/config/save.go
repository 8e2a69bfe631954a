package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const savedHeader = "# Leasing Edge engine settings. Written by PUT /config; edits here apply on restart.\n"

func Validate(cfg Config) error {
	_, res := NormalizeAndValidate(cfg)
	if !res.OK() {
		return errors.New("config validation failed:\n- " + strings.Join(res.Errors, "\n- "))
	}
	return nil
}

// SaveAtomic validates cfg and replaces the file at path, keeping the previous
// copy as path.bak. The file holds local data paths, so it is owner-only.
func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.WriteString(savedHeader)
	if err == nil {
		_, err = tmp.Write(b)
	}
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmp.Name(), 0o600)
	}
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	bak := path + ".bak"
	_ = os.Remove(bak)
	hadOld := os.Rename(path, bak) == nil

	if err := os.Rename(tmp.Name(), path); err != nil {
		if hadOld {
			_ = os.Rename(bak, path)
		}
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}
