package scope

// AgentManifest is a fixed capability record for a registered agent: the set
// of scopes it is allowed to request. Issuance and pending-request creation
// check against it; there is no per-agent dispatch beyond this table.
type AgentManifest struct {
	AgentID     string
	DisplayName string
	Allowed     []Scope
}

// agentManifests registers the agents this deployment knows about. Entries
// are added deliberately, alongside the scope registry.
var agentManifests = map[string]AgentManifest{
	"kai": {
		AgentID:     "kai",
		DisplayName: "Kai (nutrition assistant)",
		Allowed: []Scope{
			ScopeVaultReadFood,
			ScopeVaultWriteFood,
			ScopeAgentKaiAnalyze,
			ScopeAgentKaiSuggest,
		},
	},
	"ember": {
		AgentID:     "ember",
		DisplayName: "Ember (journal companion)",
		Allowed: []Scope{
			ScopeVaultReadJournal,
			ScopeVaultReadHealth,
			ScopeAgentEmberExport,
			ScopeAgentEmberSummary,
		},
	},
}

// ManifestFor returns the manifest for an agent, if registered.
func ManifestFor(agentID string) (AgentManifest, bool) {
	m, ok := agentManifests[agentID]
	return m, ok
}

// MayRequest reports whether the agent's manifest covers the given scope.
// A wildcard grant in the manifest covers its whole subtree.
func (m AgentManifest) MayRequest(s Scope) bool {
	for _, granted := range m.Allowed {
		if Satisfies(granted, s) {
			return true
		}
	}
	return false
}
