package txverify

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	ChainBTC  = "btc"
	ChainEVM  = "evm"
	ChainTron = "tron"
)

var (
	ErrInvalidHash  = errors.New("invalid transaction hash")
	ErrUnknownChain = errors.New("unknown chain")
)

var (
	evmHash = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
	rawHash = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)
)

// FormatVerifier 只校验交易哈希格式，不查询链上数据
type FormatVerifier struct{}

// Verify 校验 txHash 是否符合对应链的哈希格式
func (FormatVerifier) Verify(_ context.Context, chain, txHash string) error {
	txHash = strings.TrimSpace(txHash)
	switch chain {
	case ChainEVM:
		if !evmHash.MatchString(txHash) {
			return fmt.Errorf("%w: expected 0x-prefixed 32-byte hex", ErrInvalidHash)
		}
	case ChainBTC, ChainTron:
		if !rawHash.MatchString(txHash) {
			return fmt.Errorf("%w: expected 32-byte hex", ErrInvalidHash)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChain, chain)
	}
	return nil
}

// Normalize 统一哈希大小写，用于唯一性比较
func Normalize(txHash string) string {
	return strings.ToLower(strings.TrimSpace(txHash))
}
