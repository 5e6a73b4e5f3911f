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

func repeat(s string, n int) string {
	out := make([]byte, 0, n*len(s))
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

func TestHandleMissedBlock_OursAndMissed(t *testing.T) {
	ourKey := "0x" + repeat("a", 96)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":[{"pubkey":"` + ourKey + `","validator_index":"1","slot":"64"}]}`))
	}))
	defer server.Close()

	beaconClient, err := client.New(server.URL, nil, nil)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	watched := map[ethtypes.Pubkey]struct{}{ethtypes.Pubkey(ourKey): {}}
	m := metrics.New()
	engine := New(beaconClient, notifier.New("", "", nil), m, nil, watched, nil, "")

	engine.handleMissedBlock(context.Background(), nil, 64, 2)

	if got := testutil.ToFloat64(m.MissedBlockProposalsCount.WithLabelValues("", "")); got != 1 {
		t.Errorf("unlabeled missed_block_proposals_count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.MissedBlockProposalsCount.WithLabelValues("64", "2")); got != 1 {
		t.Errorf("labeled missed_block_proposals_count = %v, want 1", got)
	}
}

func TestHandleMissedBlock_OursAndProposed_NoIncrement(t *testing.T) {
	ourKey := "0x" + repeat("a", 96)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":[{"pubkey":"` + ourKey + `","validator_index":"1","slot":"64"}]}`))
	}))
	defer server.Close()

	beaconClient, err := client.New(server.URL, nil, nil)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	watched := map[ethtypes.Pubkey]struct{}{ethtypes.Pubkey(ourKey): {}}
	m := metrics.New()
	engine := New(beaconClient, notifier.New("", "", nil), m, nil, watched, nil, "")

	block := &ethtypes.Block{}
	engine.handleMissedBlock(context.Background(), block, 64, 2)

	if got := testutil.ToFloat64(m.MissedBlockProposalsCount.WithLabelValues("", "")); got != 0 {
		t.Errorf("unlabeled missed_block_proposals_count = %v, want 0", got)
	}
}

func TestHandleMissedBlock_NotOurs_NoIncrement(t *testing.T) {
	otherKey := "0x" + repeat("b", 96)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":[{"pubkey":"` + otherKey + `","validator_index":"1","slot":"64"}]}`))
	}))
	defer server.Close()

	beaconClient, err := client.New(server.URL, nil, nil)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	m := metrics.New()
	engine := New(beaconClient, notifier.New("", "", nil), m, nil, map[ethtypes.Pubkey]struct{}{}, nil, "")

	engine.handleMissedBlock(context.Background(), nil, 64, 2)

	if got := testutil.ToFloat64(m.MissedBlockProposalsCount.WithLabelValues("", "")); got != 0 {
		t.Errorf("missed_block_proposals_count = %v, want 0 for a non-watched proposer", got)
	}
}
