package cache

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML accepts duration strings ("30m", "2h") for sweep_interval.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var aux struct {
		Profiles      map[Category]Profile `yaml:"profiles"`
		SweepInterval string               `yaml:"sweep_interval"`
	}
	if err := node.Decode(&aux); err != nil {
		return err
	}
	if aux.Profiles != nil {
		c.Profiles = aux.Profiles
	}
	if aux.SweepInterval != "" {
		d, err := time.ParseDuration(aux.SweepInterval)
		if err != nil {
			return fmt.Errorf("parse sweep_interval: %w", err)
		}
		c.SweepInterval = d
	}
	return nil
}

// UnmarshalYAML accepts duration strings for ttl.
func (p *Profile) UnmarshalYAML(node *yaml.Node) error {
	var aux struct {
		TTL        string `yaml:"ttl"`
		MaxEntries int    `yaml:"max_entries"`
	}
	if err := node.Decode(&aux); err != nil {
		return err
	}
	if aux.TTL != "" {
		d, err := time.ParseDuration(aux.TTL)
		if err != nil {
			return fmt.Errorf("parse ttl: %w", err)
		}
		p.TTL = d
	}
	p.MaxEntries = aux.MaxEntries
	return nil
}
