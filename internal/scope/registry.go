package scope

import "strings"

// Scope names one permitted category of vault access or agent action.
// Invariant: the value must come from the closed registry below; construct
// via Parse at trust boundaries to enforce the allowlist.
type Scope string

// Supported scopes. The registry is extended deliberately, never inferred
// from client input.
const (
	ScopeSessionOwner Scope = "session.owner"

	ScopeVaultReadFood     Scope = "vault.read.food"
	ScopeVaultWriteFood    Scope = "vault.write.food"
	ScopeVaultReadHealth   Scope = "vault.read.health"
	ScopeVaultWriteHealth  Scope = "vault.write.health"
	ScopeVaultReadJournal  Scope = "vault.read.journal"
	ScopeVaultWriteJournal Scope = "vault.write.journal"

	ScopeVaultReadAll  Scope = "vault.read.*"
	ScopeVaultWriteAll Scope = "vault.write.*"

	ScopeAgentKaiAnalyze   Scope = "agent.kai.analyze"
	ScopeAgentKaiSuggest   Scope = "agent.kai.suggest"
	ScopeAgentEmberExport  Scope = "agent.ember.export"
	ScopeAgentEmberSummary Scope = "agent.ember.summarize"
)

// knownScopes is the single source of truth for the closed scope set.
var knownScopes = map[Scope]bool{
	ScopeSessionOwner:      true,
	ScopeVaultReadFood:     true,
	ScopeVaultWriteFood:    true,
	ScopeVaultReadHealth:   true,
	ScopeVaultWriteHealth:  true,
	ScopeVaultReadJournal:  true,
	ScopeVaultWriteJournal: true,
	ScopeVaultReadAll:      true,
	ScopeVaultWriteAll:     true,
	ScopeAgentKaiAnalyze:   true,
	ScopeAgentKaiSuggest:   true,
	ScopeAgentEmberExport:  true,
	ScopeAgentEmberSummary: true,
}

// wildcardSuffix marks a granted scope that covers a whole dot-delimited
// subtree, e.g. "vault.read.*" satisfies "vault.read.food".
const wildcardSuffix = ".*"

// IsKnown reports whether s is part of the closed registry. Unknown scopes
// are rejected at issuance time, never at validation time.
func IsKnown(s Scope) bool {
	return knownScopes[s]
}

// Parse constructs a Scope from external input, enforcing the allowlist.
func Parse(s string) (Scope, bool) {
	sc := Scope(s)
	return sc, knownScopes[sc]
}

// Satisfies reports whether a granted scope covers the required one.
// Matching is exact unless granted ends in a wildcard segment, in which
// case it satisfies any scope sharing the prefix up to the wildcard.
// Comparison is case-sensitive; both arguments are assumed well-formed.
func Satisfies(granted, required Scope) bool {
	if granted == required {
		return true
	}
	if g, ok := strings.CutSuffix(string(granted), wildcardSuffix); ok {
		return strings.HasPrefix(string(required), g+".")
	}
	return false
}

// String returns the string representation of the scope.
func (s Scope) String() string {
	return string(s)
}
