package service

import (
	"slices"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewDephealthService_VaultOnly(t *testing.T) {
	ds, err := NewDephealthServiceWithRegisterer(DephealthConfig{
		ServiceID:     "svcacct-module",
		Group:         "tvault",
		VaultAddr:     "http://vault.local:8200",
		CheckInterval: 15 * time.Second,
	}, testLogger(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewDephealthServiceWithRegisterer: %v", err)
	}

	if !slices.Equal(ds.Dependencies(), []string{"vault"}) {
		t.Errorf("Dependencies = %v, без журнала ожидается только vault", ds.Dependencies())
	}
}
