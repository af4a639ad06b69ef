package utils

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"sort"
)

//go:embed data/cipher_rules.json
var cipherRulesJSON []byte

// CipherRule describes how one fingerprint field is emitted on the wire.
type CipherRule struct {
	IsEncrypt      int    `json:"is_encrypt"`
	Key            string `json:"key,omitempty"`
	ObfuscatedName string `json:"obfuscated_name"`
}

func (r CipherRule) Encrypted() bool {
	return r.IsEncrypt == 1
}

var cipherRules map[string]CipherRule

func init() {
	rules, err := parseCipherRules(cipherRulesJSON)
	if err != nil {
		log.Fatalf("invalid embedded cipher rules: %v", err)
	}
	cipherRules = rules
}

func parseCipherRules(raw []byte) (map[string]CipherRule, error) {
	rules := make(map[string]CipherRule)
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse cipher rules: %w", err)
	}

	for name, rule := range rules {
		if rule.ObfuscatedName == "" {
			return nil, fmt.Errorf("field '%s' is missing obfuscated_name", name)
		}
		if rule.Encrypted() && rule.Key == "" {
			return nil, fmt.Errorf("encrypted field '%s' is missing a key", name)
		}
	}
	return rules, nil
}

func LookupCipherRule(field string) (CipherRule, bool) {
	rule, ok := cipherRules[field]
	return rule, ok
}

// CipherRules returns a copy of the whole table.
func CipherRules() map[string]CipherRule {
	out := make(map[string]CipherRule, len(cipherRules))
	for k, v := range cipherRules {
		out[k] = v
	}
	return out
}

// FieldForWireName maps an obfuscated wire name back to its logical field.
func FieldForWireName(wire string) (string, CipherRule, bool) {
	names := make([]string, 0, len(cipherRules))
	for name := range cipherRules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if cipherRules[name].ObfuscatedName == wire {
			return name, cipherRules[name], true
		}
	}
	return "", CipherRule{}, false
}
