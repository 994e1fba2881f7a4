// Package config reads YAML configuration shared by the measurement
// binaries.
package config

import (
	"io"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config represents configuration for the measurement binaries. Zero values
// mean "not set"; the binaries fill those from flag defaults after loading.
type Config struct {
	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`

	Chart struct {
		Path      string `yaml:"path"`
		Width     int    `yaml:"width"`
		Height    int    `yaml:"height"`
		TableRows int    `yaml:"table-rows"`
	} `yaml:"chart"`

	Probe struct {
		Timeout  duration `yaml:"timeout"`
		ServerID int      `yaml:"server-id"`
	} `yaml:"probe"`

	Run struct {
		Iterations int      `yaml:"iterations"`
		Interval   duration `yaml:"interval"`
	} `yaml:"run"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

type duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler interface.
func (d *duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = duration(dur)
	return nil
}

// Duration is a convenience getter.
func (d duration) Duration() time.Duration {
	return time.Duration(d)
}

// Set updates the underlying duration.
func (d *duration) Set(dur time.Duration) {
	*d = duration(dur)
}

// FromYAML reads YAML from reader and unmarshals it to Config
func FromYAML(r io.Reader) (*Config, error) {
	c := &Config{}
	err := yaml.NewDecoder(r).Decode(c)
	if err != nil {
		return nil, err
	}
	return c, nil
}
