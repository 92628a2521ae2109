package quorum

import (
	"errors"
	"fmt"

	"github.com/lightlink-network/ll-bridge-validator/types"
)

var (
	ErrInvalidAmount       = errors.New("amount should be non-zero")
	ErrInsufficientBalance = errors.New("insufficient free balance")
	ErrInsufficientLocked  = errors.New("insufficient locked balance")
	ErrOverflow            = errors.New("balance overflow")
)

// ledger is the bridged token. A balance includes any locked part; only the
// free part (balance - locked) can be moved or burned.
type ledger struct {
	balances    map[types.SubAddress]uint64
	locked      map[types.SubAddress]uint64
	totalSupply uint64
}

func newLedger() *ledger {
	return &ledger{
		balances: make(map[types.SubAddress]uint64),
		locked:   make(map[types.SubAddress]uint64),
	}
}

func (l *ledger) free(acc types.SubAddress) uint64 {
	return l.balances[acc] - l.locked[acc]
}

func (l *ledger) mint(to types.SubAddress, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	balance := l.balances[to]
	if balance+amount < balance || l.totalSupply+amount < l.totalSupply {
		return fmt.Errorf("failed to mint %d to %s: %w", amount, to, ErrOverflow)
	}

	l.balances[to] = balance + amount
	l.totalSupply += amount
	return nil
}

func (l *ledger) burn(from types.SubAddress, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if l.free(from) < amount {
		return fmt.Errorf("failed to burn %d from %s: %w", amount, from, ErrInsufficientBalance)
	}

	l.balances[from] -= amount
	l.totalSupply -= amount
	return nil
}

func (l *ledger) lock(acc types.SubAddress, amount uint64) error {
	if l.free(acc) < amount {
		return fmt.Errorf("failed to lock %d for %s: %w", amount, acc, ErrInsufficientBalance)
	}
	l.locked[acc] += amount
	return nil
}

func (l *ledger) unlock(acc types.SubAddress, amount uint64) error {
	if l.locked[acc] < amount {
		return fmt.Errorf("failed to unlock %d for %s: %w", amount, acc, ErrInsufficientLocked)
	}
	l.locked[acc] -= amount
	return nil
}

// unlockAndBurn releases amount from acc's locked funds and burns it. The
// unlocked amount is always free, so the burn cannot fail once the unlock
// succeeded.
func (l *ledger) unlockAndBurn(acc types.SubAddress, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if err := l.unlock(acc, amount); err != nil {
		return err
	}
	return l.burn(acc, amount)
}

func (l *ledger) transfer(from, to types.SubAddress, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if l.free(from) < amount {
		return fmt.Errorf("failed to transfer %d from %s: %w", amount, from, ErrInsufficientBalance)
	}
	if from == to {
		return nil
	}
	if l.balances[to]+amount < l.balances[to] {
		return fmt.Errorf("failed to transfer %d to %s: %w", amount, to, ErrOverflow)
	}

	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}
