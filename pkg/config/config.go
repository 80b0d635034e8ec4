// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/matrixorigin/rowsplit/pkg/common/moerr"
	"github.com/matrixorigin/rowsplit/pkg/logutil"
	"github.com/matrixorigin/rowsplit/pkg/rowsplit"
	"github.com/matrixorigin/rowsplit/pkg/rowsplit/locator"
	"github.com/matrixorigin/rowsplit/pkg/rowsplit/predicate"
)

const (
	defaultCriterion = "equals"
	defaultMode      = "first"
	defaultLogLevel  = "info"
	defaultLogFormat = "console"
	defaultPoolSize  = 4
)

// SplitConfig is the [split] section of a job file.
type SplitConfig struct {
	RowID     bool   `toml:"row-id"`
	Column    string `toml:"column"`
	Criterion string `toml:"criterion"`
	Pattern   string `toml:"pattern"`
	Mode      string `toml:"mode"`

	IncludeMatchInTop    bool `toml:"include-match-in-top"`
	IncludeMatchInBottom bool `toml:"include-match-in-bottom"`
	UpdateDomains        bool `toml:"update-domains"`

	// RowIDColumn names the string column file inputs read row identifiers
	// from. Positional identifiers are used when it is empty.
	RowIDColumn string `toml:"row-id-column"`
}

// Config defines a split job.
type Config struct {
	Split SplitConfig       `toml:"split"`
	Log   logutil.LogConfig `toml:"log"`

	// PoolSize bounds the inputs processed at the same time.
	PoolSize int `toml:"pool-size"`
}

// LoadFile decodes the job file at path and fills the defaults.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, moerr.NewFileNotFound(ctx, path)
		}
		return nil, moerr.ConvertGoError(ctx, err)
	}
	return Parse(ctx, string(data))
}

// Parse decodes a job from its TOML text and fills the defaults.
func Parse(ctx context.Context, data string) (*Config, error) {
	c := &Config{}
	md, err := toml.Decode(data, c)
	if err != nil {
		return nil, moerr.NewBadConfig(ctx, "decode split config: %v", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, moerr.NewBadConfig(ctx, "unknown config key %s", undecoded[0].String())
	}
	// the matching row goes to the top output unless told otherwise
	if !md.IsDefined("split", "include-match-in-top") {
		c.Split.IncludeMatchInTop = true
	}
	c.FillDefault()
	if err = c.Validate(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// FillDefault sets the unset fields to their defaults.
func (c *Config) FillDefault() {
	if c.Split.Criterion == "" {
		c.Split.Criterion = defaultCriterion
	}
	if c.Split.Mode == "" {
		c.Split.Mode = defaultMode
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
	if c.PoolSize <= 0 {
		c.PoolSize = defaultPoolSize
	}
}

// Validate checks the enum values of the job and of its log section.
func (c *Config) Validate(ctx context.Context) error {
	if _, err := c.Split.MatchSpec(ctx); err != nil {
		return err
	}
	if _, err := c.Split.Policy(ctx); err != nil {
		return err
	}
	if !c.Split.RowID && c.Split.Column == "" {
		return moerr.NewBadConfig(ctx, "split column not set")
	}
	return c.Log.Validate(ctx)
}

// MatchSpec returns the predicate declared by the section.
func (s *SplitConfig) MatchSpec(ctx context.Context) (predicate.MatchSpec, error) {
	criterion, ok := predicate.ParseCriterion(s.Criterion)
	if !ok {
		return predicate.MatchSpec{}, moerr.NewBadConfig(ctx, "unknown criterion %s", s.Criterion)
	}
	return predicate.MatchSpec{
		UseRowID:  s.RowID,
		Column:    s.Column,
		Criterion: criterion,
		Pattern:   s.Pattern,
	}, nil
}

// Policy returns the split policy declared by the section.
func (s *SplitConfig) Policy(ctx context.Context) (rowsplit.SplitPolicy, error) {
	mode, ok := locator.ParseMode(s.Mode)
	if !ok {
		return rowsplit.SplitPolicy{}, moerr.NewBadConfig(ctx, "unknown split mode %s", s.Mode)
	}
	return rowsplit.SplitPolicy{
		Mode:                 mode,
		IncludeMatchInTop:    s.IncludeMatchInTop,
		IncludeMatchInBottom: s.IncludeMatchInBottom,
		RecomputeDomains:     s.UpdateDomains,
	}, nil
}
