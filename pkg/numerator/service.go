// Package numerator provides document auto-numbering.
//
// Numbers follow the pattern {PREFIX}-{BRANCH_CODE}-{YYYYMM}-{NNN}
// (e.g. PO-MAIN-202608-014). The running number resets per branch+month
// and is derived by scanning the highest existing suffix for the
// prefix+period, which document repositories expose through Scanner.
// The format is a contract external systems depend on; keep it stable.
package numerator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Prefixes for the supported document types.
const (
	PrefixPurchase  = "PO"
	PrefixSale      = "INV"
	PrefixQuotation = "QT"
	PrefixTransfer  = "TR"
)

// Scanner locates the highest existing number for a prefix.
// Implemented by document repositories (MAX(number) WHERE number LIKE prefix%).
type Scanner interface {
	MaxNumber(ctx context.Context, prefix string) (string, error)
}

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "PO", "INV")
	Prefix string

	// PadWidth is the running number width (default 3)
	PadWidth int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:   prefix,
		PadWidth: 3,
	}
}

// Service generates document numbers.
type Service struct {
	scanner Scanner
}

// New creates a numerator service over the given scanner.
func New(scanner Scanner) *Service {
	return &Service{scanner: scanner}
}

// Next generates the next document number for the branch code and period.
// For transfers, branchCode is the combined "{FROM_CODE}-{TO_CODE}" pair
// (see TransferBranchCode).
func (s *Service) Next(ctx context.Context, cfg Config, branchCode string, period time.Time) (string, error) {
	if s == nil || s.scanner == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}
	if branchCode == "" {
		return "", fmt.Errorf("branch code is required for numbering")
	}

	prefix := fmt.Sprintf("%s-%s-%s-", cfg.Prefix, branchCode, period.Format("200601"))

	last, err := s.scanner.MaxNumber(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("scan max number: %w", err)
	}

	next := int64(1)
	if last != "" {
		if n := ParseSuffix(last); n >= 0 {
			next = n + 1
		}
	}

	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 3
	}

	return fmt.Sprintf("%s%0*d", prefix, padWidth, next), nil
}

// TransferBranchCode builds the branch segment for transfer numbers.
func TransferBranchCode(fromCode, toCode string) string {
	return fromCode + "-" + toCode
}

// ParseSuffix extracts the running number from a formatted document number.
// Returns -1 if parsing fails.
func ParseSuffix(formatted string) int64 {
	idx := strings.LastIndex(formatted, "-")
	if idx < 0 || idx == len(formatted)-1 {
		return -1
	}
	n, err := strconv.ParseInt(formatted[idx+1:], 10, 64)
	if err != nil {
		return -1
	}
	return n
}
