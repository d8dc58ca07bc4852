package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/arkrose/doorman/pkg/cryptox"
	"github.com/arkrose/doorman/pkg/jwtx"
)

// signingKID identifies the single signing key in token headers. A fixed id
// is fine while there is one key; rotation would introduce dated ids.
const signingKID = "doorman-1"

// loadOrGenerateSigner reads the Ed25519 signing key from path, generating
// and persisting a fresh one on first run.
func loadOrGenerateSigner(path string) (*jwtx.EdDSASigner, error) {
	path = filepath.Clean(path)

	pemKey, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		pemKey, err = cryptox.GenerateEd25519Key()
		if err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
		if err := os.WriteFile(path, pemKey, 0600); err != nil {
			return nil, fmt.Errorf("failed to persist signing key: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}

	return jwtx.NewEdDSASigner(signingKID, pemKey)
}
