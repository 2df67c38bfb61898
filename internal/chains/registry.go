// internal/chains/registry.go
package chains

import (
	"fmt"
	"sort"
	"sync"

	"paylink-service/internal/domain"
	"paylink-service/pkg/xerrors"
)

// Network is one chain family a buyer can pay from.
type Network interface {
	Name() domain.Chain
	// ValidateAddress returns the normalized address or an error wrapping
	// xerrors.ErrInvalidAddress.
	ValidateAddress(addr string) (string, error)
	ConfirmationsRequired() int
	DepositAddress() string
}

type Registry struct {
	networks map[domain.Chain]Network
	mu       sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		networks: make(map[domain.Chain]Network),
	}
}

// NewDefaultRegistry registers erc20 and trc20 with the given deposit
// addresses.
func NewDefaultRegistry(erc20Deposit, trc20Deposit string) *Registry {
	r := NewRegistry()
	r.Register(NewERC20(erc20Deposit))
	r.Register(NewTRC20(trc20Deposit))
	return r
}

func (r *Registry) Register(n Network) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.networks[n.Name()] = n
}

func (r *Registry) Get(chain domain.Chain) (Network, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.networks[chain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", xerrors.ErrUnsupportedChain, chain)
	}
	return n, nil
}

// List returns registered chain names, sorted.
func (r *Registry) List() []domain.Chain {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]domain.Chain, 0, len(r.networks))
	for name := range r.networks {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
