package compiler

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/podium/internal/theme"
	"github.com/aretw0/podium/pkg/domain"
)

type frontMatter struct {
	Title    string          `yaml:"title"`
	SubTitle string          `yaml:"sub_title"`
	Author   string          `yaml:"author"`
	Authors  []string        `yaml:"authors"`
	Event    string          `yaml:"event"`
	Location string          `yaml:"location"`
	Date     string          `yaml:"date"`
	Theme    themeRef        `yaml:"theme"`
	Options  *domain.Options `yaml:"options"`
}

type themeRef struct {
	Name     string    `yaml:"name"`
	Path     string    `yaml:"path"`
	Override yaml.Node `yaml:"override"`
}

// frontMatter decodes the front matter on top of the configured options and resolves
// the theme. dir is the directory theme paths are relative to.
func (c *Compiler) frontMatter(raw, dir string) (domain.Metadata, *theme.Theme, domain.Options, error) {
	opts := c.cc.Options
	fm := frontMatter{Options: &opts}

	if strings.TrimSpace(raw) != "" {
		var pre struct {
			Options struct {
				Strict *bool `yaml:"strict_front_matter_parsing"`
			} `yaml:"options"`
		}
		if err := yaml.Unmarshal([]byte(raw), &pre); err != nil {
			return domain.Metadata{}, nil, opts, fmt.Errorf("invalid front matter: %w", err)
		}
		strict := opts.StrictFrontMatterParsing
		if pre.Options.Strict != nil {
			strict = *pre.Options.Strict
		}

		dec := yaml.NewDecoder(strings.NewReader(raw))
		dec.KnownFields(strict)
		if err := dec.Decode(&fm); err != nil && !errors.Is(err, io.EOF) {
			return domain.Metadata{}, nil, opts, fmt.Errorf("invalid front matter: %w", err)
		}
	}

	if fm.Author != "" && len(fm.Authors) > 0 {
		return domain.Metadata{}, nil, opts, fmt.Errorf("invalid front matter: author and authors cannot both be set")
	}
	if opts.ListItemNewlines < 1 {
		opts.ListItemNewlines = 1
	}

	th, err := c.resolveTheme(fm.Theme, dir)
	if err != nil {
		return domain.Metadata{}, nil, opts, err
	}

	meta := domain.Metadata{
		Title:    fm.Title,
		SubTitle: fm.SubTitle,
		Authors:  fm.Authors,
		Event:    fm.Event,
		Location: fm.Location,
		Date:     fm.Date,
		Theme:    th.Name,
		Options:  opts,
	}
	if fm.Author != "" {
		meta.Authors = []string{fm.Author}
	}
	return meta, th, opts, nil
}

func (c *Compiler) resolveTheme(ref themeRef, dir string) (*theme.Theme, error) {
	th := c.cc.Theme
	var err error
	switch {
	case ref.Name != "" && ref.Path != "":
		return nil, fmt.Errorf("invalid theme: name and path cannot both be set")
	case ref.Name != "":
		th, err = theme.Builtin(ref.Name)
	case ref.Path != "":
		p := ref.Path
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		th, err = theme.LoadFile(p)
	}
	if err != nil {
		return nil, err
	}
	if ref.Override.Kind != 0 {
		return th.Override(&ref.Override)
	}
	return th, nil
}
