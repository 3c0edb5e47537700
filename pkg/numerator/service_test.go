package numerator

import (
	"context"
	"testing"
	"time"
)

// mockScanner returns a canned MAX(number) per prefix.
type mockScanner struct {
	numbers map[string]string
	lastReq string
}

func (m *mockScanner) MaxNumber(_ context.Context, prefix string) (string, error) {
	m.lastReq = prefix
	return m.numbers[prefix], nil
}

func TestNext_FirstNumber(t *testing.T) {
	scanner := &mockScanner{numbers: map[string]string{}}
	svc := New(scanner)
	period := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	num, err := svc.Next(context.Background(), DefaultConfig(PrefixPurchase), "MAIN", period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PO-MAIN-202608-001" {
		t.Errorf("expected PO-MAIN-202608-001, got %s", num)
	}
	if scanner.lastReq != "PO-MAIN-202608-" {
		t.Errorf("unexpected scan prefix %s", scanner.lastReq)
	}
}

func TestNext_Increments(t *testing.T) {
	scanner := &mockScanner{numbers: map[string]string{
		"INV-BR01-202608-": "INV-BR01-202608-041",
	}}
	svc := New(scanner)
	period := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	num, err := svc.Next(context.Background(), DefaultConfig(PrefixSale), "BR01", period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "INV-BR01-202608-042" {
		t.Errorf("expected INV-BR01-202608-042, got %s", num)
	}
}

func TestNext_ResetsAcrossMonths(t *testing.T) {
	// The September prefix has no numbers yet even though August does.
	scanner := &mockScanner{numbers: map[string]string{
		"PO-MAIN-202608-": "PO-MAIN-202608-099",
	}}
	svc := New(scanner)
	period := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	num, err := svc.Next(context.Background(), DefaultConfig(PrefixPurchase), "MAIN", period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PO-MAIN-202609-001" {
		t.Errorf("expected PO-MAIN-202609-001, got %s", num)
	}
}

func TestNext_PadOverflow(t *testing.T) {
	scanner := &mockScanner{numbers: map[string]string{
		"TR-A-B-202608-": "TR-A-B-202608-999",
	}}
	svc := New(scanner)
	period := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	// Width is a minimum, not a cap; 1000 must not wrap.
	num, err := svc.Next(context.Background(), DefaultConfig(PrefixTransfer), TransferBranchCode("A", "B"), period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "TR-A-B-202608-1000" {
		t.Errorf("expected TR-A-B-202608-1000, got %s", num)
	}
}

func TestNext_RequiresBranchCode(t *testing.T) {
	svc := New(&mockScanner{})
	if _, err := svc.Next(context.Background(), DefaultConfig(PrefixPurchase), "", time.Now()); err == nil {
		t.Error("expected error for empty branch code")
	}
}

func TestParseSuffix(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"PO-MAIN-202608-014", 14},
		{"TR-A-B-202608-1000", 1000},
		{"garbage", -1},
		{"PO-MAIN-202608-", -1},
	}
	for _, tt := range tests {
		if got := ParseSuffix(tt.in); got != tt.want {
			t.Errorf("ParseSuffix(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
