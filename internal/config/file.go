// README: Bot file; YAML with group id, admin allow-list, alias extensions.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"statusbot/internal/modules/vocab"
	"statusbot/internal/parse"
)

// BotFile is the operator-editable part of the configuration. Chat ids
// and admin ids were compiled-in constants in the bots this service
// replaces; here they are injected and hot-reloadable.
type BotFile struct {
	GroupID int64    `yaml:"group_id"`
	Admins  []string `yaml:"admins"`
	// Aliases maps extra status shorthand to canonical status names,
	// e.g. `khalas: "Order delivery completed"`.
	Aliases map[string]string `yaml:"aliases"`
	IDRule  struct {
		MinDigits int `yaml:"min_digits"`
		MaxDigits int `yaml:"max_digits"`
	} `yaml:"id_rule"`
	HistoryLimit int `yaml:"history_limit"`
}

// LoadBotFile reads and validates the YAML bot file. Unknown canonical
// status names in the alias table are a configuration error, not
// something to guess around.
func LoadBotFile(path string) (BotFile, error) {
	var bf BotFile
	raw, err := os.ReadFile(path)
	if err != nil {
		return bf, fmt.Errorf("read bot file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &bf); err != nil {
		return bf, fmt.Errorf("parse bot file %s: %w", path, err)
	}
	if err := bf.validate(); err != nil {
		return bf, fmt.Errorf("bot file %s: %w", path, err)
	}
	return bf, nil
}

func (bf BotFile) validate() error {
	if bf.GroupID == 0 {
		return fmt.Errorf("group_id is required")
	}
	for alias, canonical := range bf.Aliases {
		if _, ok := vocab.Canonical(canonical); !ok {
			return fmt.Errorf("alias %q maps to unknown status %q", alias, canonical)
		}
	}
	if bf.IDRule.MinDigits < 0 || bf.IDRule.MaxDigits < 0 {
		return fmt.Errorf("id_rule digits must not be negative")
	}
	if bf.IDRule.MaxDigits > 0 && bf.IDRule.MinDigits > bf.IDRule.MaxDigits {
		return fmt.Errorf("id_rule min_digits exceeds max_digits")
	}
	return nil
}

// ParsePolicy converts the id_rule section into a parser policy,
// falling back to the defaults for unset bounds.
func (bf BotFile) ParsePolicy() parse.Policy {
	p := parse.DefaultPolicy()
	if bf.IDRule.MinDigits > 0 {
		p.MinDigits = bf.IDRule.MinDigits
	}
	if bf.IDRule.MaxDigits > 0 {
		p.MaxDigits = bf.IDRule.MaxDigits
	}
	return p
}

// VocabTable builds the alias table: defaults plus file extensions.
func (bf BotFile) VocabTable() *vocab.Table {
	extra := make(map[string]vocab.Status, len(bf.Aliases))
	for alias, canonical := range bf.Aliases {
		if s, ok := vocab.Canonical(canonical); ok {
			extra[alias] = s
		}
	}
	return vocab.Default().WithAliases(extra)
}
