// internal/chains/networks.go
package chains

import (
	"fmt"
	"strings"

	"paylink-service/internal/domain"
	"paylink-service/pkg/xerrors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fbsobreira/gotron-sdk/pkg/address"
)

const (
	ERC20Confirmations = 12
	TRC20Confirmations = 19
)

// ERC20 covers USDT on Ethereum.
type ERC20 struct {
	deposit string
}

func NewERC20(deposit string) *ERC20 {
	return &ERC20{deposit: deposit}
}

func (e *ERC20) Name() domain.Chain { return domain.ChainERC20 }

func (e *ERC20) ConfirmationsRequired() int { return ERC20Confirmations }

func (e *ERC20) DepositAddress() string { return e.deposit }

// ValidateAddress accepts any 20 byte hex address and returns its EIP-55
// checksummed form.
func (e *ERC20) ValidateAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if !strings.HasPrefix(addr, "0x") && !strings.HasPrefix(addr, "0X") {
		return "", fmt.Errorf("%w: ethereum address must start with 0x", xerrors.ErrInvalidAddress)
	}
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("%w: invalid ethereum address format", xerrors.ErrInvalidAddress)
	}
	return common.HexToAddress(addr).Hex(), nil
}

// TRC20 covers USDT on Tron.
type TRC20 struct {
	deposit string
}

func NewTRC20(deposit string) *TRC20 {
	return &TRC20{deposit: deposit}
}

func (t *TRC20) Name() domain.Chain { return domain.ChainTRC20 }

func (t *TRC20) ConfirmationsRequired() int { return TRC20Confirmations }

func (t *TRC20) DepositAddress() string { return t.deposit }

// ValidateAddress checks the T prefix, the length and the base58 checksum.
func (t *TRC20) ValidateAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if !strings.HasPrefix(addr, "T") {
		return "", fmt.Errorf("%w: tron address must start with 'T'", xerrors.ErrInvalidAddress)
	}
	if len(addr) != 34 {
		return "", fmt.Errorf("%w: tron address must be 34 characters", xerrors.ErrInvalidAddress)
	}
	if _, err := address.Base58ToAddress(addr); err != nil {
		return "", fmt.Errorf("%w: %v", xerrors.ErrInvalidAddress, err)
	}
	return addr, nil
}
