package engine

import (
	"fmt"
	"sort"
)

// Provider kinds understood by New.
const (
	KindChessAPI        = "chessapi"
	KindStockfishOnline = "stockfishonline"
	KindMultiPV         = "multipv"
	KindUCI             = "uci"
)

var constructors = map[string]func(ProviderConfig) Provider{
	KindChessAPI:        func(c ProviderConfig) Provider { return NewChessAPIProvider(c) },
	KindStockfishOnline: func(c ProviderConfig) Provider { return NewStockfishOnlineProvider(c) },
	KindMultiPV:         func(c ProviderConfig) Provider { return NewMultiPVProvider(c) },
	KindUCI:             func(c ProviderConfig) Provider { return NewUCIProvider(c) },
}

// New builds the adapter for kind.
func New(kind string, cfg ProviderConfig) (Provider, error) {
	ctor, ok := constructors[kind]
	if !ok {
		return nil, fmt.Errorf("unknown provider kind %q (known: %v)", kind, Kinds())
	}
	if kind != KindUCI && cfg.URL == "" {
		return nil, fmt.Errorf("provider %q: url required", kind)
	}
	return ctor(cfg), nil
}

// Kinds lists the provider kinds New accepts.
func Kinds() []string {
	kinds := make([]string, 0, len(constructors))
	for k := range constructors {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
