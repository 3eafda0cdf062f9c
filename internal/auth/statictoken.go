// ABOUTME: Fixed table mapping opaque static tokens to principals
// ABOUTME: Copied at construction and read-only afterwards

package auth

// StaticTokenTable maps static header tokens to the principal they authenticate.
type StaticTokenTable struct {
	tokens map[string]string
}

// NewStaticTokenTable copies tokens into a new table.
func NewStaticTokenTable(tokens map[string]string) *StaticTokenTable {
	m := make(map[string]string, len(tokens))
	for token, principal := range tokens {
		m[token] = principal
	}
	return &StaticTokenTable{tokens: m}
}

// Lookup returns the principal mapped to token.
func (t *StaticTokenTable) Lookup(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	principal, ok := t.tokens[token]
	return principal, ok
}

// Len returns the number of tokens in the table.
func (t *StaticTokenTable) Len() int {
	return len(t.tokens)
}
