// Package recipients expands a command's configured users, groups, and
// escrow users into the flat recipient set the command acts on.
package recipients

import (
	"sort"
	"strings"

	"github.com/systmms/pkdist/internal/config"
	pkerrors "github.com/systmms/pkdist/internal/errors"
)

// Resolve builds the deduplicated, whitespace-trimmed recipient list from
// the configuration. Escrow users are always included; groups are expanded
// through their same-named configuration keys; explicit users come last.
// Order is not significant, but the result is sorted for stable output.
//
// A command with no users or groups configured resolves to the escrow-only
// list without error.
func Resolve(cfg *config.Config) ([]string, error) {
	var raw []string

	raw = append(raw, splitList(cfg.Settings.EscrowUsers)...)

	if cfg.Settings.Groups != "" {
		members, err := expandGroups(cfg)
		if err != nil {
			return nil, err
		}
		raw = append(raw, members...)
	}

	if cfg.Settings.Users != "" {
		raw = append(raw, strings.Split(cfg.Settings.Users, ",")...)
	}

	seen := make(map[string]bool, len(raw))
	recipients := make([]string, 0, len(raw))
	for _, entry := range raw {
		name := strings.TrimSpace(entry)
		if name == "" {
			return nil, pkerrors.NullRecipientError{}
		}
		if !seen[name] {
			seen[name] = true
			recipients = append(recipients, name)
		}
	}

	sort.Strings(recipients)
	return recipients, nil
}

// expandGroups looks each group name up as a configuration key holding that
// group's comma-separated member list.
func expandGroups(cfg *config.Config) ([]string, error) {
	var members []string
	for _, group := range strings.Split(cfg.Settings.Groups, ",") {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		list, ok := cfg.Group(group)
		if !ok {
			return nil, pkerrors.GroupDefinitionError{Group: group}
		}
		members = append(members, strings.Split(list, ",")...)
	}
	return members, nil
}

// splitList splits a comma-separated value, treating the empty string as an
// empty list rather than a single empty entry.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}
