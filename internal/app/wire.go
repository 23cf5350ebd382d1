//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/app/repository"
)

// InitializeApplication builds the full graph used by serve, batch and worker.
func InitializeApplication(ctx context.Context) (*Application, func(), error) {
	wire.Build(
		baseSet,
		batchSet,
		provideServices,
		provideServer,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil, nil
}

// InitializeStore opens only the status store.
func InitializeStore(ctx context.Context) (repository.WorkItemDAO, func(), error) {
	wire.Build(
		provideSettings,
		provideStore,
		wire.Bind(new(repository.WorkItemDAO), new(*repository.CommonDB)),
	)
	return nil, nil, nil
}

// InitializeRegistry builds the provider registry without touching storage.
func InitializeRegistry() (*provider.Registry, func(), error) {
	wire.Build(baseSet, provideRegistry)
	return nil, nil, nil
}
