package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"
)

type Configuration struct {
	Listen      string `toml:"listen"`
	Contract    string `toml:"contract"`
	Owner       string `toml:"owner"`
	CreationFee string `toml:"creation-fee"`
}

func Setup(path string) (*Configuration, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var conf Configuration
	err = toml.Unmarshal(f, &conf)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if conf.Listen == "" {
		conf.Listen = ":7001"
	}
	if conf.CreationFee == "" {
		conf.CreationFee = "0"
	}
	if conf.Contract == "" || conf.Owner == "" {
		return nil, fmt.Errorf("missing contract or owner address in %s", path)
	}
	return &conf, nil
}
