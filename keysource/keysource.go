// Package keysource loads the set of validator pubkeys this service should
// watch, unioning a local keys file with any remote web3signer instances.
package keysource

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"github.com/rocket-pool/validator-watcher/internal/ethtypes"
)

const web3signerKeysPath = "/api/v1/eth2/publicKeys"

// Load reads the watched pubkey set from an optional local file and any
// number of web3signer URLs, normalizing and unioning all of them. At least
// one source must be configured and yield at least one key.
func Load(ctx context.Context, httpClient *http.Client, filePath string, signerURLs []string) (map[ethtypes.Pubkey]struct{}, error) {
	watched := make(map[ethtypes.Pubkey]struct{})

	if filePath != "" {
		keys, err := loadFromFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("keysource: load file %q: %w", filePath, err)
		}
		for _, k := range keys {
			watched[k] = struct{}{}
		}
	}

	for _, signerURL := range signerURLs {
		keys, err := loadFromSigner(ctx, httpClient, signerURL)
		if err != nil {
			return nil, fmt.Errorf("keysource: load signer %q: %w", signerURL, err)
		}
		for _, k := range keys {
			watched[k] = struct{}{}
		}
	}

	if len(watched) == 0 {
		return nil, fmt.Errorf("keysource: no watched keys found across %d source(s)", boolToInt(filePath != "")+len(signerURLs))
	}
	return watched, nil
}

// loadFromFile parses a newline-separated file of hex pubkeys, one per
// line. Blank lines and lines starting with "#" are skipped.
func loadFromFile(path string) ([]ethtypes.Pubkey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var keys []ethtypes.Pubkey
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, err := ethtypes.NormalizePubkey(line)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", line, err)
		}
		keys = append(keys, key)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

// loadFromSigner fetches the public keys a remote web3signer instance holds.
func loadFromSigner(ctx context.Context, httpClient *http.Client, signerURL string) ([]ethtypes.Pubkey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(signerURL, "/")+web3signerKeysPath, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var raw []string
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode public keys: %w", err)
	}

	keys := make([]ethtypes.Pubkey, 0, len(raw))
	for _, r := range raw {
		key, err := ethtypes.NormalizePubkey(r)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", r, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
