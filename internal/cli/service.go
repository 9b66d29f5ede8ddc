package cli

import (
	"fmt"

	"github.com/spf13/viper"

	"tripcore/internal/core"
	"tripcore/internal/infra/kv"
	"tripcore/internal/infra/linestore"
)

// openService wires a service from the configured stores: filesystem KV state
// under data_dir and the environment-selected line store driver. The caller
// must invoke the returned close function.
func openService() (*core.Service, func(), error) {
	root := viper.GetString("data_dir")
	store, err := kv.NewFilesystem(root)
	if err != nil {
		return nil, nil, fmt.Errorf("open state store: %w", err)
	}
	lines, err := linestore.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open line store: %w", err)
	}
	svc, err := core.NewService(store, lines, core.WithLogger(loggerFromFlags()))
	if err != nil {
		_ = lines.Close()
		return nil, nil, err
	}
	close := func() {
		svc.WaitForLines()
		_ = lines.Close()
	}
	return svc, close, nil
}
