package duty

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rocket-pool/validator-watcher/beacon/client"
	"github.com/rocket-pool/validator-watcher/internal/ethtypes"
	"github.com/rocket-pool/validator-watcher/metrics"
	"github.com/rocket-pool/validator-watcher/notifier"
)

// committeeBitfieldHex builds an aggregation-bits hex string whose
// decoded+stripped sequence marks position idx (within a committeeSize-
// member committee) as attesting, for every idx in included.
func committeeBitfieldHex(committeeSize int, included ...int) string {
	bitLen := committeeSize + 1 // + sentinel
	numBytes := (bitLen + 7) / 8
	bytes := make([]byte, numBytes)
	set := func(pos int) {
		bytes[pos/8] |= 1 << uint(pos%8)
	}
	// sentinel goes right after the last data bit, in little-endian bit
	// order within the byte (bit 0 = LSB), reversed per-byte on decode.
	for _, idx := range included {
		// validators are big-endian within a byte on the decoded side; to
		// drive a specific stripped[idx] = true, flip that bit before the
		// per-byte reversal the decoder performs. Equivalent: set the
		// mirrored bit within its 8-bit group.
		group := idx / 8
		within := idx % 8
		set(group*8 + (7 - within))
	}
	sentinelGroup := bitLen - 1
	sGroup := sentinelGroup / 8
	sWithin := sentinelGroup % 8
	set(sGroup*8 + (7 - sWithin))

	hex := "0x"
	const hexDigits = "0123456789abcdef"
	for _, b := range bytes {
		hex += string(hexDigits[b>>4]) + string(hexDigits[b&0xf])
	}
	return hex
}

func TestHandleSuboptimalAttestations_ComputesRateAndLogs(t *testing.T) {
	keyOK := "0x" + repeat("a", 96)
	keyKO := "0x" + repeat("b", 96)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":[{"slot":"99","index":"0","validators":["10","20"]}]}`))
	}))
	defer server.Close()

	beaconClient, err := client.New(server.URL, nil, nil)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}

	watched := map[ethtypes.Pubkey]struct{}{ethtypes.Pubkey(keyOK): {}, ethtypes.Pubkey(keyKO): {}}
	m := metrics.New()
	engine := New(beaconClient, notifier.New("", "", nil), m, nil, watched, nil, "")
	engine.activeIndexToPubkey = map[uint64]ethtypes.Pubkey{
		10: ethtypes.Pubkey(keyOK),
		20: ethtypes.Pubkey(keyKO),
	}

	block := &ethtypes.Block{}
	block.Data.Message.Slot = 100
	block.Data.Message.Body.Attestations = []ethtypes.Attestation{
		{
			AggregationBits: committeeBitfieldHex(2, 0),
		},
	}
	block.Data.Message.Body.Attestations[0].Data.Slot = 99
	block.Data.Message.Body.Attestations[0].Data.CommitteeIndex = 0

	engine.handleSuboptimalAttestations(context.Background(), block, 100)

	got := testutil.ToFloat64(m.RateOfNotOptimalAttestationInclusion)
	if got != 50 {
		t.Errorf("rate = %v, want 50 (1 of 2 our validators failed inclusion)", got)
	}
}
